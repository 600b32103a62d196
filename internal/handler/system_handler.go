package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/certquest/arena-backend/internal/config"
	"github.com/certquest/arena-backend/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	metricsInterval = 7 * time.Second
	healthTimeout   = 2 * time.Second
)

// SessionCounter reports how many attempts the session manager is tracking.
type SessionCounter interface {
	Active() int
}

// SystemHandler serves the health check and streams runtime metrics via SSE.
type SystemHandler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	sessions  SessionCounter
	startTime time.Time
	log       zerolog.Logger

	// checks is filled from pool and rdb; tests replace it.
	checks map[string]func(ctx context.Context) error
}

func NewSystemHandler(pool *pgxpool.Pool, rdb *redis.Client, sessions SessionCounter, log zerolog.Logger) *SystemHandler {
	h := &SystemHandler{
		pool:      pool,
		rdb:       rdb,
		sessions:  sessions,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
		checks:    map[string]func(ctx context.Context) error{},
	}
	if pool != nil {
		h.checks["postgres"] = pool.Ping
	}
	if rdb != nil {
		h.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return h
}

// Health godoc
// GET /health
// Reports "ok" when every dependency answers, otherwise "degraded" with 503.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			deps[name] = "down"
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}

	body := gin.H{
		"status":       status,
		"dependencies": deps,
		"uptime":       formatDuration(time.Since(h.startTime)),
	}
	if h.sessions != nil {
		body["active_sessions"] = h.sessions.Active()
	}
	response.Success(c, code, body)
}

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	// Go Application
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`

	// Domain
	ActiveSessions int   `json:"active_sessions"`
	QueueResults   int64 `json:"queue_results"`

	// PostgreSQL pool
	DBTotalConns    int32 `json:"db_total_conns"`
	DBIdleConns     int32 `json:"db_idle_conns"`
	DBAcquiredConns int32 `json:"db_acquired_conns"`
}

// SystemMetricsSSE godoc
// GET /api/admin/sistema/metricas
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Info().Msg("Admin connected to system metrics SSE")

	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	// Send immediately on connect, then every tick
	h.writeMetrics(c)

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Admin disconnected from system metrics SSE")
			return
		case <-ticker.C:
			h.writeMetrics(c)
		}
	}
}

func (h *SystemHandler) writeMetrics(c *gin.Context) {
	data, err := json.Marshal(h.collect(c.Request.Context()))
	if err != nil {
		return
	}
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(data)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m := systemMetrics{
		Timestamp:  time.Now().Unix(),
		Uptime:     formatDuration(time.Since(h.startTime)),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		HeapSys:    ms.Sys,
		NumGC:      ms.NumGC,
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
	}
	if h.sessions != nil {
		m.ActiveSessions = h.sessions.Active()
	}
	if h.rdb != nil {
		m.QueueResults, _ = h.rdb.LLen(ctx, config.WorkerKey.PersistResultsQueue).Result()
	}
	if h.pool != nil {
		st := h.pool.Stat()
		m.DBTotalConns = st.TotalConns()
		m.DBIdleConns = st.IdleConns()
		m.DBAcquiredConns = st.AcquiredConns()
	}
	return m
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
