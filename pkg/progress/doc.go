/*
Package progress persists what a user has done across sessions.

It provides the Recorder, the default ports.ProgressReporter, which turns exit
and completion reports into profile updates (resume marker, points, badges).
Profile writes are read-modify-write cycles, so every update runs under a
per-profile lock held by the Manager, optionally backed by a distributed
locker when several replicas share one store.
*/
package progress
