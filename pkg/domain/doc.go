/*
Package domain contains the core models of the waypoint router.

It defines the fundamental entities of the state machine: Nodes and their
Handlers, guarded Transitions, the immutable State snapshot and the persisted
Session. This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - Node: a named step with the Handler the router invokes on entry.
  - Guard: Default, or a conjunction of exact field matches (When).
  - Transition: an ordered, guarded edge between two nodes.
  - State: key/value data; every step merges an Update over the previous State.
  - Session: a State plus the node a conversation currently sits on.
*/
package domain
