/*
Package session serializes access to conversation sessions.

The Manager guarantees one step at a time per session, within a process
through reference-counted mutexes and across replicas through an optional
ports.DistributedLocker, and delegates persistence to a ports.StateStore.
*/
package session
