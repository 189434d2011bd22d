// Package http exposes the academy services over a fiber application.
//
// Every route under /api requires an `Authorization: Bearer <token>` header
// carrying an HS256 JWT with `id`, `name` and `role` claims:
//   - /api/schedules: weekly slot grid. POST is strict and answers 409 with the
//     occupying slot; PUT /api/schedules/assign replaces whatever holds the cell
//     and accepts either one slot or {"slots": [...]}.
//   - /api/time-slots: the catalog of teaching periods.
//   - /api/tasks: dated tasks, plus /recurring and /fixed bulk creation which
//     answer {createdCount, failedCount, preview}.
//   - /api/calendar/events: month, range, date, search and upcoming queries over
//     shared and personal events. `scope` defaults to shared; personal always
//     filters to the caller.
//   - /api/calendar/export.ics and /api/calendar/import: iCalendar exchange.
//
// Success bodies are {"data": ..., "count": n}; failures are
// {"message", "error_code", "errors"} with 422 for validation, 404, 409, 403
// for role checks and 401 for missing or invalid tokens.
package http
