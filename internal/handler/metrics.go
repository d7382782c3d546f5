package handler

import (
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/cptk8s/registro/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "registro_logins_total{result=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "registro_logins_total{result=\"failure\"} %d\n", snap.LoginsFailed)

	writeLabeled(w, "registro_auth_rejected_total", "reason", snap.AuthRejected)
	writeLabeled(w, "registro_records_created_total", "entity", snap.RecordsCreated)
	writeLabeled(w, "registro_records_deleted_total", "entity", snap.RecordsDeleted)
	writeLabeled(w, "registro_insert_fallbacks_total", "stage", snap.InsertFallbacks)
	writeLabeled(w, "registro_audit_events_total", "status", snap.AuditPublished)
}

// writeLabeled writes one sample per label value in a stable order.
func writeLabeled(w io.Writer, name, label string, values map[string]uint64) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeMetric(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
