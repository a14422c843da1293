// Package control orchestrates volume and transport commands across speakers.
//
// A request names a host or nothing. The Resolver turns that into a target
// set (one fresh handle, or every registered speaker) and the Controller
// fans the command out concurrently, one goroutine per speaker.
//
// # Volume History
//
// Every successful volume change records the speaker's pre-change volume
// in the History, keyed by host. The history is exactly one level deep:
// each change overwrites the previous snapshot, so undo followed by undo
// returns to where the first undo started. History lives for the process
// lifetime only.
//
// Concurrent requests touching the same speaker are not serialised. The
// snapshot then reflects whichever writer finished last.
//
// # Clamp-Set
//
// All volume mutators share one sequence per speaker:
//
//  1. compute the desired volume
//  2. reject it when outside [0, 100] (status "rejected"; siblings proceed)
//  3. read the true current volume from the speaker
//  4. SetVolume, then record the step 3 value as the snapshot
//
// changeVolumeBy(0) still records a snapshot equal to the current volume.
//
// # Failures
//
// A failed device call marks that speaker's outcome "failed" and the call
// returns an error wrapping ErrTransport for each failure. Speakers that
// succeeded are not rolled back: partial application is reported, never
// hidden.
package control
