package syncapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BearBump/SyncBox/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	serviceName    = "LogisticsManager Cloud API"
	serviceVersion = "1.0.0"
)

type Syncer interface {
	SyncBatch(ctx context.Context, deviceID string, orders []*models.Order) (*models.BatchResult, error)
}

type Query interface {
	OrdersSince(ctx context.Context, since *time.Time, limit int) ([]*models.Order, error)
	Drivers(ctx context.Context, statuses []string, limit int) ([]models.DriverInfo, error)
}

type RateLimiter interface {
	AllowDevice(ctx context.Context, deviceID string, limit int64, window time.Duration) (bool, int64, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type API struct {
	syncer  Syncer
	query   Query
	limiter RateLimiter
	db      Pinger

	rateLimit  int64
	rateWindow time.Duration
}

func New(syncer Syncer, query Query, limiter RateLimiter, db Pinger, rateLimit int64, rateWindow time.Duration) *API {
	if rateLimit <= 0 {
		rateLimit = 30
	}
	if rateWindow <= 0 {
		rateWindow = time.Minute
	}
	return &API{
		syncer:     syncer,
		query:      query,
		limiter:    limiter,
		db:         db,
		rateLimit:  rateLimit,
		rateWindow: rateWindow,
	}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", a.handleRoot)
	r.Get("/health", a.handleHealth)
	r.Post("/sync", a.handleSync)
	r.Get("/sync/download", a.handleDownload)
	r.Get("/drivers", a.handleDrivers)
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"detail": msg})
}

func (a *API) handleSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "DeviceId is required")
		return
	}

	if a.limiter != nil {
		ok, n, err := a.limiter.AllowDevice(r.Context(), req.DeviceID, a.rateLimit, a.rateWindow)
		if err != nil {
			// Redis лёг — синхронизацию не блокируем.
			slog.Warn("rate limiter unavailable", "error", err.Error())
		} else if !ok {
			slog.Warn("sync rate limited", "device_id", req.DeviceID, "count", n)
			writeError(w, http.StatusTooManyRequests, "too many sync requests")
			return
		}
	}

	orders := make([]*models.Order, 0, len(req.Orders))
	for _, d := range req.Orders {
		orders = append(orders, d.toModel())
	}

	res, err := a.syncer.SyncBatch(r.Context(), req.DeviceID, orders)
	if err != nil {
		slog.Error("sync failed", "device_id", req.DeviceID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Sync failed: %s", err))
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{
		Success:          true,
		Message:          fmt.Sprintf("Synchronized successfully. Uploaded: %d, Conflicts: %d", res.Uploaded, len(res.Issues)),
		OrdersUploaded:   res.Uploaded,
		OrdersDownloaded: res.Downloaded,
		Conflicts:        conflictEntries(res.Issues),
		ServerTime:       res.ServerTime,
	})
}

func (a *API) handleDownload(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	var since *time.Time
	if raw := r.URL.Query().Get("last_sync"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "last_sync must be RFC3339")
			return
		}
		since = &ts
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	orders, err := a.query.OrdersSince(r.Context(), since, limit)
	if err != nil {
		slog.Error("download failed", "device_id", deviceID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Download failed: %s", err))
		return
	}

	out := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, fromModel(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"orders":      out,
		"count":       len(out),
		"server_time": time.Now().UTC(),
	})
}

func (a *API) handleDrivers(w http.ResponseWriter, r *http.Request) {
	var statuses []string
	if st := r.URL.Query().Get("status"); st != "" {
		statuses = []string{st}
	}

	drivers, err := a.query.Drivers(r.Context(), statuses, 0)
	if err != nil {
		slog.Error("drivers query failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Query failed: %s", err))
		return
	}

	out := make([]driverDTO, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, fromDriverInfo(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(out),
		"drivers": out,
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	status := "healthy"
	if err := a.db.Ping(r.Context()); err != nil {
		dbStatus = fmt.Sprintf("error: %s", err)
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC(),
	})
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if err := a.db.Ping(r.Context()); err != nil {
		dbStatus = fmt.Sprintf("error: %s", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   serviceName,
		"version":   serviceVersion,
		"database":  dbStatus,
		"timestamp": time.Now().UTC(),
	})
}
