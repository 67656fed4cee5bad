// Package lock implements the pre-event edit lock policy: which event
// fields are contractually protected, and whether the current time falls
// inside the lock window before the confirmed date. Everything here is a
// pure function of its inputs; persistence and override handling live in
// the application layer.
package lock
