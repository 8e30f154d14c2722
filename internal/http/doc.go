// Package http provides HTTP handlers and middleware for the scheduler API.
//
// The router exposes the following endpoints:
//   - GET /rooms, POST /rooms, GET /rooms/{id}, PUT /rooms/{id},
//     DELETE /rooms/{id}, PUT /rooms/{id}/status: room catalog endpoints
//     exchanging the `roomDTO` payload defined in room_handler.go. Listing and
//     reads are available to any authenticated actor while mutations and
//     serviceability transitions require the admin role.
//   - POST /bookings, GET /bookings, GET /bookings/{id}, PUT /bookings/{id},
//     POST /bookings/{id}/decision: ad-hoc reservation request endpoints.
//     Submission responds with the stored pending request plus advisory
//     conflict warnings; the decision endpoint commits or refuses the slot and
//     responds 409 when a committed claim already holds it.
//   - GET /templates, POST /templates, GET /templates/{id}, PUT /templates/{id},
//     DELETE /templates/{id}, POST /templates/import: weekly recurring template
//     endpoints. Import accepts a YAML timetable document and atomically
//     replaces the whole template set.
//   - POST /semesters/{id}/materialize: expands active templates into dated
//     occurrences for a semester, replacing that semester's previous set.
//   - GET /occurrences, GET /occurrences/{id}: dated occurrence reads with
//     semester, room, and date filters.
//   - POST /occurrences/{id}/changes, GET /changes, GET /changes/{id},
//     PUT /changes/{id}, POST /changes/{id}/decision: schedule change proposal
//     endpoints mirroring the booking workflow.
//   - GET /conflicts/check: advisory overlap probe for a candidate window.
//
// Identity arrives via the X-Actor-* request headers; RequireActor rejects
// requests without them. Request/response DTOs live alongside their respective
// handlers so tests and documentation share the same ground truth.
package http
