package observability

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics(t *testing.T) {
	t.Run("counter_increments_per_label_set", func(t *testing.T) {
		labels := HTTPRequestsTotal.WithLabelValues("GET", "/dashboard", "200")
		before := testutil.ToFloat64(labels)

		for i := 0; i < 5; i++ {
			labels.Inc()
		}

		assert.Equal(t, before+5, testutil.ToFloat64(labels))
	})

	t.Run("histogram_accepts_observations", func(t *testing.T) {
		HTTPRequestDuration.WithLabelValues("POST", "/login", "303").Observe(0.05)
		assert.Greater(t, testutil.CollectAndCount(HTTPRequestDuration), 0)
	})
}

func TestBackendMetrics(t *testing.T) {
	BackendRequestDuration.WithLabelValues("GET", "/tenants", "200").Observe(0.12)
	BackendRequestDuration.WithLabelValues("GET", "/tenants", "error").Observe(1.5)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(BackendRequestDuration), 2)

	retries := BackendRetriesTotal.WithLabelValues("/tenants/statistics")
	before := testutil.ToFloat64(retries)
	retries.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(retries))
}

func TestRecordSessionEvent(t *testing.T) {
	kinds := []string{"restored", "restore_purged", "login", "logout", "invalidated"}
	before := make(map[string]float64, len(kinds))
	for _, k := range kinds {
		before[k] = testutil.ToFloat64(SessionEventsTotal.WithLabelValues(k))
	}

	for _, k := range kinds {
		RecordSessionEvent(k)
	}
	RecordSessionEvent("login")

	assert.Equal(t, before["login"]+2, testutil.ToFloat64(SessionEventsTotal.WithLabelValues("login")))
	assert.Equal(t, before["invalidated"]+1, testutil.ToFloat64(SessionEventsTotal.WithLabelValues("invalidated")))
}

func TestRecordDBStats(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	RecordDBStats(db)

	stats := db.Stats()
	assert.Equal(t, float64(stats.OpenConnections), testutil.ToFloat64(DBConnectionsOpen))
	assert.Equal(t, float64(stats.InUse), testutil.ToFloat64(DBConnectionsInUse))
	assert.Equal(t, float64(stats.Idle), testutil.ToFloat64(DBConnectionsIdle))
}

func TestDBQueryDuration(t *testing.T) {
	operations := []string{"select", "upsert", "delete", "delete_expired"}
	for _, op := range operations {
		DBQueryDuration.WithLabelValues(op, "console_session_entries").Observe(0.01)
	}
	assert.GreaterOrEqual(t, testutil.CollectAndCount(DBQueryDuration), len(operations))
}

func TestMetricsAreCollectors(t *testing.T) {
	collectors := []prometheus.Collector{
		HTTPRequestDuration,
		HTTPRequestsTotal,
		BackendRequestDuration,
		BackendRetriesTotal,
		SessionEventsTotal,
		DBQueryDuration,
		DBConnectionsOpen,
		DBConnectionsInUse,
		DBConnectionsIdle,
	}
	for _, c := range collectors {
		assert.NotNil(t, c)
	}
}
