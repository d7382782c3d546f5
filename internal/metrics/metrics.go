// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Authentication metrics
	IncLoginSucceeded()
	IncLoginFailed()
	IncAuthRejected(reason string) // reason: "missing_header", "wrong_scheme", "invalid_token"

	// Record management metrics
	IncRecordCreated(entity string) // entity: "user", "communication"
	IncRecordDeleted(entity string)

	// Persistence metrics
	IncInsertFallback(stage string) // stage: "pinned_insert", "max_id"

	// Audit stream metrics
	IncAuditPublished(status string) // status: "success", "dropped"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
