package metrics

import (
	"sync"
	"testing"
)

func TestInMemoryRecorder_Counts(t *testing.T) {
	m := NewInMemory()

	m.IncLoginSucceeded()
	m.IncLoginFailed()
	m.IncLoginFailed()
	m.IncAuthRejected("missing_header")
	m.IncRecordCreated("user")
	m.IncRecordCreated("user")
	m.IncRecordDeleted("communication")
	m.IncInsertFallback("pinned_insert")
	m.IncAuditPublished("dropped")

	snap := m.Snapshot()

	if snap.LoginsSucceeded != 1 {
		t.Errorf("expected 1 successful login, got %d", snap.LoginsSucceeded)
	}
	if snap.LoginsFailed != 2 {
		t.Errorf("expected 2 failed logins, got %d", snap.LoginsFailed)
	}
	if snap.AuthRejected["missing_header"] != 1 {
		t.Errorf("expected 1 missing_header rejection, got %d", snap.AuthRejected["missing_header"])
	}
	if snap.RecordsCreated["user"] != 2 {
		t.Errorf("expected 2 users created, got %d", snap.RecordsCreated["user"])
	}
	if snap.RecordsDeleted["communication"] != 1 {
		t.Errorf("expected 1 communication deleted, got %d", snap.RecordsDeleted["communication"])
	}
	if snap.InsertFallbacks["pinned_insert"] != 1 {
		t.Errorf("expected 1 pinned insert fallback, got %d", snap.InsertFallbacks["pinned_insert"])
	}
	if snap.AuditPublished["dropped"] != 1 {
		t.Errorf("expected 1 dropped audit event, got %d", snap.AuditPublished["dropped"])
	}
}

func TestInMemoryRecorder_SnapshotIsCopy(t *testing.T) {
	m := NewInMemory()
	m.IncRecordCreated("user")

	snap := m.Snapshot()
	snap.RecordsCreated["user"] = 100

	if got := m.Snapshot().RecordsCreated["user"]; got != 1 {
		t.Errorf("snapshot mutation leaked into recorder: got %d", got)
	}
}

func TestInMemoryRecorder_Concurrent(t *testing.T) {
	m := NewInMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncLoginFailed()
			m.IncAuthRejected("invalid_token")
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	if snap.LoginsFailed != 50 || snap.AuthRejected["invalid_token"] != 50 {
		t.Errorf("unexpected counts: %+v", snap)
	}
}
