// Package discovery finds the speaker topology at startup.
//
// Discovery is two-phase. A multicast broadcast runs first under its own
// timeout so a silent network fails fast. When it errors, times out or
// finds nothing, unicast candidates are probed one at a time in a fixed
// order: the configured fallback hosts, then (optionally) hosts an nmap
// scan found with the control port open. The first candidate that yields
// a topology wins and later candidates are never contacted.
//
// When every strategy fails, Discover returns ErrDiscoveryFailed. There is
// no retry loop and no partial result; the service cannot run without a
// registry.
package discovery
