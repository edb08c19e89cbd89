package metrics

import (
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/boxstock/backend/internal/domain/fulfillment"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveTransition(t *testing.T) {
	m := New()

	m.ObserveTransition(fulfillment.StatusCreated, fulfillment.StatusWaitingStock, fulfillment.ActionAccept)
	m.ObserveTransition(fulfillment.StatusCreated, fulfillment.StatusWaitingStock, fulfillment.ActionAccept)
	m.ObserveTransition(fulfillment.StatusWaitingStock, fulfillment.StatusWaitingStock, fulfillment.ActionRetry)
	m.ObserveTransition(fulfillment.StatusWaitingStock, fulfillment.StatusPicking, fulfillment.ActionRetry)

	t.Run("counts by labels", func(t *testing.T) {
		assert.Equal(t, 2.0, testutil.ToFloat64(m.OrderTransitions.WithLabelValues("CREATED", "WAITING_STOCK", "ACCEPT")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.OrderTransitions.WithLabelValues("WAITING_STOCK", "WAITING_STOCK", "RETRY")))
	})

	t.Run("waiting gauge follows entries and exits", func(t *testing.T) {
		assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersWaitingStock))
		m.SetWaitingStock(7)
		assert.Equal(t, 7.0, testutil.ToFloat64(m.OrdersWaitingStock))
	})
}

func TestMetrics_Ledger(t *testing.T) {
	m := New()
	m.ObserveReservation("reserved")
	m.ObserveReservation("reserved")
	m.ObserveReservation("insufficient")
	m.ObserveLockWait(3 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Reservations.WithLabelValues("reserved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reservations.WithLabelValues("insufficient")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LockWait))
}

func TestMetrics_SetStockHealth(t *testing.T) {
	m := New()
	wh := uuid.New()

	m.SetStockHealth(wh, map[inventory.Urgency]int{inventory.UrgencyCritical: 3, inventory.UrgencyNormal: 10})
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StockHealth.WithLabelValues(wh.String(), "CRITICAL")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StockHealth.WithLabelValues(wh.String(), "WARNING")))

	m.SetStockHealth(wh, map[inventory.Urgency]int{inventory.UrgencyWarning: 1})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StockHealth.WithLabelValues(wh.String(), "CRITICAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StockHealth.WithLabelValues(wh.String(), "WARNING")))
	assert.Equal(t, 4, testutil.CollectAndCount(m.StockHealth))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveReturnFlagged(inventory.ReturnUrgencyHigh)
	m.ObserveKafkaPublish("boxstock.order", "sent")
	m.ObserveJob("STAGNATION_SCAN", "success", 40*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `boxstock_stagnant_returns_flagged_total{urgency="HIGH"} 1`)
	assert.Contains(t, text, `boxstock_kafka_events_published_total{outcome="sent",topic="boxstock.order"} 1`)
	assert.Contains(t, text, `boxstock_scheduler_jobs_total{job_type="STAGNATION_SCAN",outcome="success"} 1`)
	assert.Contains(t, text, "go_goroutines")
}

func TestMetrics_RegisterDB(t *testing.T) {
	m := New()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func(db *sql.DB) { _ = db.Close() }(db)

	require.NoError(t, m.RegisterDB(db, "primary"))
	assert.Error(t, m.RegisterDB(db, "primary"), "duplicate collector")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `go_sql_max_open_connections{db_name="primary"}`)
}
