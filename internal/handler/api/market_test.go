package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "TradePulse/internal/domain/models"
	xlogger "TradePulse/pkg/logger"
)

type stubStores struct {
	lastAsset string
	lastLimit int
}

func (s *stubStores) StoreSnapshot(context.Context, *models.MarketSnapshot) error { return nil }
func (s *stubStores) LoadPrevious(context.Context, string) (*models.MarketSnapshot, error) {
	return nil, nil
}
func (s *stubStores) QuerySnapshots(_ context.Context, asset string, limit int) ([]*models.MarketSnapshot, error) {
	s.lastAsset, s.lastLimit = asset, limit
	return []*models.MarketSnapshot{{AssetAddress: asset, Price: decimal.NewFromInt(1)}}, nil
}

func (s *stubStores) StoreSignal(context.Context, *models.MarketSignal) error { return nil }
func (s *stubStores) QuerySignals(_ context.Context, asset string, limit int) ([]*models.MarketSignal, error) {
	s.lastAsset, s.lastLimit = asset, limit
	return []*models.MarketSignal{{AssetAddress: asset, SignalType: models.SignalPriceSpike}}, nil
}

func (s *stubStores) StoreExecution(context.Context, *models.ExecutionRecord) error { return nil }
func (s *stubStores) QueryExecutions(_ context.Context, asset string, limit int) ([]*models.ExecutionRecord, error) {
	s.lastAsset, s.lastLimit = asset, limit
	return nil, nil
}

type stubBook struct {
	history []models.ExecutionRecord
}

func (stubBook) ActiveOrders() map[string]models.ActiveOrder {
	return map[string]models.ActiveOrder{
		"mint1": {AssetAddress: "mint1", Status: models.OrderPending, Timestamp: time.Now()},
	}
}

func (s stubBook) History() []models.ExecutionRecord {
	if s.history != nil {
		return s.history
	}
	return []models.ExecutionRecord{{AssetAddress: "mint1", TxReference: "tx-1"}}
}

func newTestServer(t *testing.T, book OrderBook) (*echo.Echo, *stubStores) {
	t.Helper()
	stores := &stubStores{}
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	h := NewMarketHandler(log, stores, stores, stores, book)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, stores
}

func doGet(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSignalsEndpoint(t *testing.T) {
	e, stores := newTestServer(t, nil)

	rec := doGet(e, "/api/signals?asset=mint1&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mint1", stores.lastAsset)
	assert.Equal(t, 5, stores.lastLimit)

	var body struct {
		Status int `json:"status"`
		Data   struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, body.Status)
	assert.Equal(t, int64(1), body.Data.Total)
}

func TestSignalsDefaultLimit(t *testing.T) {
	e, stores := newTestServer(t, nil)

	rec := doGet(e, "/api/signals?asset=mint1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, stores.lastLimit)
}

func TestSignalsMissingAsset(t *testing.T) {
	e, stores := newTestServer(t, nil)

	rec := doGet(e, "/api/signals")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, stores.lastAsset, "store must not be queried on invalid input")
}

func TestSnapshotsLimitBounds(t *testing.T) {
	e, _ := newTestServer(t, nil)

	rec := doGet(e, "/api/snapshots?asset=mint1&limit=999999")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrdersWithoutEngine(t *testing.T) {
	e, _ := newTestServer(t, nil)

	rec := doGet(e, "/api/orders/active")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Zero(t, body.Data.Total)
}

func TestOrdersWithEngine(t *testing.T) {
	e, _ := newTestServer(t, stubBook{})

	rec := doGet(e, "/api/orders/active")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Rows  []models.ActiveOrder `json:"rows"`
			Total int64                `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(1), body.Data.Total)
	assert.Equal(t, "mint1", body.Data.Rows[0].AssetAddress)

	rec = doGet(e, "/api/orders/history")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderHistoryFilters(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	book := stubBook{history: []models.ExecutionRecord{
		{AssetAddress: "mint1", TxReference: "tx-1", Timestamp: base.Add(-2 * time.Hour)},
		{AssetAddress: "mint1", TxReference: "tx-2", Timestamp: base.Add(-1 * time.Hour)},
		{AssetAddress: "mint1", TxReference: "tx-3", Timestamp: base},
	}}
	e, _ := newTestServer(t, book)

	var body struct {
		Data struct {
			Rows  []models.ExecutionRecord `json:"rows"`
			Total int64                    `json:"total"`
		} `json:"data"`
	}

	rec := doGet(e, "/api/orders/history?since="+base.Add(-90*time.Minute).Format(time.RFC3339))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(2), body.Data.Total)
	assert.Equal(t, "tx-2", body.Data.Rows[0].TxReference)

	rec = doGet(e, "/api/orders/history?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(1), body.Data.Total)
	assert.Equal(t, "tx-3", body.Data.Rows[0].TxReference)
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t, nil)
	rec := doGet(e, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}
