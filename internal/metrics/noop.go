package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncLoginSucceeded is a no-op.
func (n *NoopRecorder) IncLoginSucceeded() {}

// IncLoginFailed is a no-op.
func (n *NoopRecorder) IncLoginFailed() {}

// IncAuthRejected is a no-op.
func (n *NoopRecorder) IncAuthRejected(reason string) {}

// IncRecordCreated is a no-op.
func (n *NoopRecorder) IncRecordCreated(entity string) {}

// IncRecordDeleted is a no-op.
func (n *NoopRecorder) IncRecordDeleted(entity string) {}

// IncInsertFallback is a no-op.
func (n *NoopRecorder) IncInsertFallback(stage string) {}

// IncAuditPublished is a no-op.
func (n *NoopRecorder) IncAuditPublished(status string) {}
