/*
Package ports defines the interfaces between the waypoint core and the
outside world.

# Driven ports

  - StateStore: persists sessions (memory, Redis).
  - DistributedLocker: serializes access to a session across replicas.

# Driving ports

  - Engine: what the HTTP, MCP and CLI adapters call.

RunStateStoreContract verifies any StateStore implementation against the
behaviour the engine relies on.
*/
package ports
