package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status grades a dependency, or the service as a whole.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// CheckResult is the outcome of probing one dependency.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Report is the JSON body of the health endpoints.
type Report struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker probes the backing services: Postgres, the image bucket, and the
// Redis cache. The cache is optional at runtime, so a missing or failing
// Redis only degrades readiness instead of failing it; posts still serve
// from the database without it.
type Checker struct {
	db           *sql.DB
	redis        *redis.Client
	storageCheck func(ctx context.Context) error
	version      string
	timeout      time.Duration
}

// CheckerConfig wires the checker's probes. StorageCheck is expected to
// verify the image bucket is reachable.
type CheckerConfig struct {
	DB           *sql.DB
	Redis        *redis.Client
	StorageCheck func(ctx context.Context) error
	Version      string
	Timeout      time.Duration
}

func NewChecker(cfg *CheckerConfig) *Checker {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		db:           cfg.DB,
		redis:        cfg.Redis,
		storageCheck: cfg.StorageCheck,
		version:      cfg.Version,
		timeout:      timeout,
	}
}

func (c *Checker) checkPostgres(ctx context.Context) CheckResult {
	if c.db == nil {
		return CheckResult{Status: StatusDown, Message: "database not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	if err := c.db.PingContext(ctx); err != nil {
		return CheckResult{Status: StatusDown, Message: "ping failed", Latency: time.Since(start).String()}
	}
	return CheckResult{Status: StatusOK, Latency: time.Since(start).String()}
}

func (c *Checker) checkCache(ctx context.Context) CheckResult {
	// No Redis configured means the server deliberately runs cache-less.
	if c.redis == nil {
		return CheckResult{Status: StatusDegraded, Message: "cache not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	if err := c.redis.Ping(ctx).Err(); err != nil {
		return CheckResult{Status: StatusDegraded, Message: "cache unreachable", Latency: time.Since(start).String()}
	}
	return CheckResult{Status: StatusOK, Latency: time.Since(start).String()}
}

func (c *Checker) checkBucket(ctx context.Context) CheckResult {
	if c.storageCheck == nil {
		return CheckResult{Status: StatusDown, Message: "storage not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	if err := c.storageCheck(ctx); err != nil {
		return CheckResult{Status: StatusDown, Message: "image bucket unreachable", Latency: time.Since(start).String()}
	}
	return CheckResult{Status: StatusOK, Latency: time.Since(start).String()}
}

// Check is the liveness probe: the process is up and serving.
func (c *Checker) Check(ctx context.Context) *Report {
	return &Report{
		Status:    StatusOK,
		Version:   c.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// DeepCheck probes every dependency in parallel and folds the results into
// an overall status: down wins over degraded, degraded over ok.
func (c *Checker) DeepCheck(ctx context.Context) *Report {
	report := &Report{
		Status:    StatusOK,
		Version:   c.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]CheckResult),
	}

	probes := map[string]func(context.Context) CheckResult{
		"postgres": c.checkPostgres,
		"cache":    c.checkCache,
		"bucket":   c.checkBucket,
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, probe := range probes {
		wg.Add(1)
		go func(name string, probe func(context.Context) CheckResult) {
			defer wg.Done()
			result := probe(ctx)
			mu.Lock()
			report.Checks[name] = result
			mu.Unlock()
		}(name, probe)
	}
	wg.Wait()

	for _, check := range report.Checks {
		switch check.Status {
		case StatusDown:
			report.Status = StatusDown
		case StatusDegraded:
			if report.Status == StatusOK {
				report.Status = StatusDegraded
			}
		}
	}

	return report
}

// Handler serves the health endpoints.
type Handler struct {
	checker *Checker
}

func NewHandler(checker *Checker) *Handler {
	return &Handler{checker: checker}
}

// LivenessHandler answers GET /health/live.
func (h *Handler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeReport(w, http.StatusOK, h.checker.Check(r.Context()))
}

// ReadinessHandler answers GET /health/ready. A degraded report still
// returns 200: the server takes traffic without its cache.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	report := h.checker.DeepCheck(r.Context())

	status := http.StatusOK
	if report.Status == StatusDown {
		status = http.StatusServiceUnavailable
	}
	writeReport(w, status, report)
}

// HealthHandler answers GET /health; ?deep=true runs the readiness probes.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("deep") == "true" {
		h.ReadinessHandler(w, r)
		return
	}
	h.LivenessHandler(w, r)
}

func writeReport(w http.ResponseWriter, status int, report *Report) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(report)
}
