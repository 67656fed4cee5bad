// Package http provides HTTP handlers and middleware for the venue
// operations API.
//
// The router exposes the following endpoints:
//   - POST /events, GET /events, GET /events/{id}, PUT /events/{id},
//     DELETE /events/{id}: event lifecycle endpoints exchanging the
//     `eventDTO` payload defined in event_handler.go. Updates are partial:
//     only the keys present in the body are applied, and edits to protected
//     sections (menu, note, layout, structured_menu) inside the lock window
//     require the override credential headers `X-Override-Token`,
//     `X-Override-Reason` and `X-Override-Author`. A rejected locked write
//     answers 423 Locked with the `lockedResponse` body from responder.go.
//   - GET /events/{id}/lock: the event's current lock evaluation — whether
//     protected sections are guarded right now, the remaining days, and the
//     protected field set.
//   - GET /events/{id}/overrides: the immutable audit trail of granted
//     overrides for an event, newest first.
//   - POST /events/{id}/versions, GET /events/{id}/versions,
//     GET /events/{id}/versions/{n}: snapshot versioning endpoints. Creation
//     freezes the event's current state under the next version number;
//     listings return metadata only, single-version reads include the full
//     canonical payload.
//   - POST /clients, GET /clients, GET /clients/{id}: client directory
//     endpoints exchanging the `clientDTO` payload from client_handler.go.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
