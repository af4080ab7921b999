package api

import (
	"time"

	models "TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	xhttp "TradePulse/pkg/http"
	xlogger "TradePulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// OrderBook is the read-side view of the execution engine.
type OrderBook interface {
	ActiveOrders() map[string]models.ActiveOrder
	History() []models.ExecutionRecord
}

// MarketHandler exposes the persisted pipeline output over HTTP:
// emitted signals, raw snapshots, execution records and the current
// order book. Read-only; the pipeline never takes input from here.
type MarketHandler struct {
	logger    *xlogger.Logger
	snapshots domrepo.SnapshotStore
	signals   domrepo.SignalStore
	execs     domrepo.ExecutionStore
	orders    OrderBook // nil when execution is disabled
}

func NewMarketHandler(
	logger *xlogger.Logger,
	snapshots domrepo.SnapshotStore,
	signals domrepo.SignalStore,
	execs domrepo.ExecutionStore,
	orders OrderBook,
) *MarketHandler {
	return &MarketHandler{
		logger:    logger,
		snapshots: snapshots,
		signals:   signals,
		execs:     execs,
		orders:    orders,
	}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/signals", h.Signals)
	g.GET("/snapshots", h.Snapshots)
	g.GET("/executions", h.Executions)
	g.GET("/orders/active", h.ActiveOrders)
	g.GET("/orders/history", h.OrderHistory)
}

func (h *MarketHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *MarketHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.signals.QuerySignals(c.Request().Context(), req.Asset, req.Limit)
	if err != nil {
		h.logger.Error("signals query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *MarketHandler) Snapshots(c echo.Context) error {
	req := &models.SnapshotsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.snapshots.QuerySnapshots(c.Request().Context(), req.Asset, req.Limit)
	if err != nil {
		h.logger.Error("snapshots query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *MarketHandler) Executions(c echo.Context) error {
	req := &models.ExecutionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.execs.QueryExecutions(c.Request().Context(), req.Asset, req.Limit)
	if err != nil {
		h.logger.Error("executions query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *MarketHandler) ActiveOrders(c echo.Context) error {
	if h.orders == nil {
		return xhttp.ListResponse(c, []models.ActiveOrder{}, 0)
	}
	open := h.orders.ActiveOrders()
	rows := make([]models.ActiveOrder, 0, len(open))
	for _, o := range open {
		rows = append(rows, o)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// OrderHistory returns the engine's in-memory execution history.
// Optional filters: since (RFC3339 or unix seconds), limit.
func (h *MarketHandler) OrderHistory(c echo.Context) error {
	if h.orders == nil {
		return xhttp.ListResponse(c, []models.ExecutionRecord{}, 0)
	}
	since := xhttp.ParseTimeDefault(c.QueryParam("since"), time.Time{})
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 100)

	all := h.orders.History()
	rows := make([]models.ExecutionRecord, 0, len(all))
	for _, rec := range all {
		if !since.IsZero() && rec.Timestamp.Before(since) {
			continue
		}
		rows = append(rows, rec)
	}
	if len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
