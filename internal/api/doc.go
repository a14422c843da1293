// Package api implements the HTTP REST API and WebSocket server for Gray Logic Audio.
//
// This package provides:
//   - Volume and transport endpoints that fan out to one speaker or the group
//   - Read endpoints for devices, groups and the command log
//   - WebSocket hub broadcasting every command outcome
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// Handlers decode a small JSON body, hand a control.Command to the
// controller and encode the per-speaker outcomes. The hub is registered as
// a controller observer, so commands arriving over MQTT reach WebSocket
// clients too.
//
// # Errors
//
// A command where any speaker failed answers 502 with code transport_error
// and the outcome list in details; the speakers that succeeded are not
// rolled back. Out-of-range volumes are not errors: the outcome reports
// status "rejected" and the response is 200.
package api
