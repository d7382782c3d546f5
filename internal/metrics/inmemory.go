package metrics

import (
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	LoginsSucceeded uint64
	LoginsFailed    uint64
	AuthRejected    map[string]uint64
	RecordsCreated  map[string]uint64
	RecordsDeleted  map[string]uint64
	InsertFallbacks map[string]uint64
	AuditPublished  map[string]uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	loginsSucceeded uint64
	loginsFailed    uint64

	mu              sync.Mutex
	authRejected    map[string]uint64
	recordsCreated  map[string]uint64
	recordsDeleted  map[string]uint64
	insertFallbacks map[string]uint64
	auditPublished  map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authRejected:    make(map[string]uint64),
		recordsCreated:  make(map[string]uint64),
		recordsDeleted:  make(map[string]uint64),
		insertFallbacks: make(map[string]uint64),
		auditPublished:  make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		LoginsSucceeded: atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:    atomic.LoadUint64(&m.loginsFailed),
		AuthRejected:    copyCounts(m.authRejected),
		RecordsCreated:  copyCounts(m.recordsCreated),
		RecordsDeleted:  copyCounts(m.recordsDeleted),
		InsertFallbacks: copyCounts(m.insertFallbacks),
		AuditPublished:  copyCounts(m.auditPublished),
	}
}

// IncLoginSucceeded increments the successful login counter.
func (m *InMemoryRecorder) IncLoginSucceeded() {
	atomic.AddUint64(&m.loginsSucceeded, 1)
}

// IncLoginFailed increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailed() {
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncAuthRejected counts a request rejected by the auth middleware.
func (m *InMemoryRecorder) IncAuthRejected(reason string) {
	m.inc(m.authRejected, reason)
}

// IncRecordCreated counts a created record.
func (m *InMemoryRecorder) IncRecordCreated(entity string) {
	m.inc(m.recordsCreated, entity)
}

// IncRecordDeleted counts a deleted record.
func (m *InMemoryRecorder) IncRecordDeleted(entity string) {
	m.inc(m.recordsDeleted, entity)
}

// IncInsertFallback counts an insert that needed a fallback stage.
func (m *InMemoryRecorder) IncInsertFallback(stage string) {
	m.inc(m.insertFallbacks, stage)
}

// IncAuditPublished counts an audit event by publish outcome.
func (m *InMemoryRecorder) IncAuditPublished(status string) {
	m.inc(m.auditPublished, status)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
