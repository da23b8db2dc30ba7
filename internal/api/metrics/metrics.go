// Package metrics defines the custom Prometheus metrics of the document API.
// It is the single source of truth for metric names, labels and help strings.
//
// Call New once per registry; the router does this when it is built.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "docvault"

type Metrics struct {
	// DocumentsUploadedTotal counts stored uploads.
	// Label:
	//   - file_type: lower-cased extension (e.g. "pdf")
	DocumentsUploadedTotal *prometheus.CounterVec

	// UploadsRejectedTotal counts uploads that did not produce a document.
	// Label:
	//   - reason: "validation", "too_large" or "error"
	UploadsRejectedTotal *prometheus.CounterVec

	// UploadSizeBytes observes the size of stored uploads.
	UploadSizeBytes prometheus.Histogram

	// DocumentDownloadsTotal counts downloads that started streaming.
	DocumentDownloadsTotal prometheus.Counter

	// DocumentsDeletedTotal counts deleted documents.
	DocumentsDeletedTotal prometheus.Counter

	// AuthAttemptsTotal counts register and login attempts.
	// Labels:
	//   - operation: "register" or "login"
	//   - result: "success" or "failure"
	AuthAttemptsTotal *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsUploadedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_uploaded_total",
				Help:      "Total number of documents uploaded, by file type.",
			},
			[]string{"file_type"},
		),
		UploadsRejectedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_rejected_total",
				Help:      "Total number of uploads that were rejected or failed.",
			},
			[]string{"reason"},
		),
		UploadSizeBytes: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upload_size_bytes",
				Help:      "Size of stored uploads in bytes.",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10), // 1 KiB .. 256 MiB
			},
		),
		DocumentDownloadsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "document_downloads_total",
				Help:      "Total number of document downloads served.",
			},
		),
		DocumentsDeletedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_deleted_total",
				Help:      "Total number of documents deleted.",
			},
		),
		AuthAttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Total number of register and login attempts, by result.",
			},
			[]string{"operation", "result"},
		),
	}
}

// Result returns the result label for err.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
