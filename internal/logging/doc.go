// Package logging provides structured logging for rendernode built on
// log/slog.
//
// Loggers are created per module via GetLogger and keep their level in a
// slog.LevelVar so levels can be changed at runtime (config hot-reload).
// Every record is fanned out to stdout (text or JSON), the systemd
// journal when available, and an in-memory ring buffer that backs the
// /api/logs endpoint and the SSE log stream.
package logging
