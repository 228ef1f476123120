package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogadmin_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// PostMutations counts successful post writes by action (create, update, delete, bulk_delete, restore).
	PostMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogadmin_post_mutations_total",
		Help: "Total number of post mutations by action",
	}, []string{"action"})

	// PostValidationFailures counts rejected form submissions by field.
	PostValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogadmin_post_validation_failures_total",
		Help: "Total number of post form validation failures by field",
	}, []string{"field"})

	// ThumbnailUploads counts thumbnail uploads by result (stored, rejected, failed).
	ThumbnailUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogadmin_thumbnail_uploads_total",
		Help: "Total number of thumbnail uploads by result",
	}, []string{"result"})

	// ThumbnailBytes records the size of thumbnails before and after webp optimization.
	ThumbnailBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blogadmin_thumbnail_bytes",
		Help:    "Thumbnail size in bytes by stage",
		Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
	}, []string{"stage"})
)
