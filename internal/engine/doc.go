// Package engine orchestrates render jobs end to end: it compiles an
// edit job into ffmpeg arguments, hands them to the process supervisor,
// and fans progress, status, and log lines out to the event bus and
// Prometheus metrics while the render runs.
//
// One render runs at a time. Run blocks until the render finishes;
// Cancel stops the in-flight render. Embedders that do not want bus
// subscriptions can pass a Callbacks value instead.
package engine
