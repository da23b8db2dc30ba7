package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.DocumentsUploadedTotal.WithLabelValues("pdf").Inc()
	m.DocumentsUploadedTotal.WithLabelValues("pdf").Inc()
	m.AuthAttemptsTotal.WithLabelValues("login", Result(errors.New("bad password"))).Inc()

	if got := counterValue(t, reg, "docvault_documents_uploaded_total", map[string]string{"file_type": "pdf"}); got != 2 {
		t.Fatalf("uploads = %v", got)
	}
	if got := counterValue(t, reg, "docvault_auth_attempts_total", map[string]string{"operation": "login", "result": "failure"}); got != 1 {
		t.Fatalf("login failures = %v", got)
	}

	// a second registry gets its own set
	New(prometheus.NewRegistry())
}
