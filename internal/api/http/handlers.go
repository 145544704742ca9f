package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/draftworks/batchd/internal/logging"
	"github.com/draftworks/batchd/internal/monitoring"
	"github.com/draftworks/batchd/internal/pipeline"
)

// Run phases reported by the status endpoint.
const (
	PhaseIdle      = "idle"
	PhaseFiltering = "filtering"
	PhaseBuilding  = "building"
	PhaseDone      = "done"
	PhaseFailed    = "failed"
)

// phaseRank orders phases within one run so a late-arriving transition
// never rolls an earlier one back.
var phaseRank = map[string]int{
	PhaseIdle:      0,
	PhaseFiltering: 1,
	PhaseBuilding:  2,
	PhaseDone:      3,
	PhaseFailed:    3,
}

// Handlers contains all HTTP handlers
type Handlers struct {
	controller *pipeline.Controller
	metrics    *monitoring.Metrics
	logger     *logging.Logger

	mu        sync.Mutex
	phase     string
	phaseGen  int
	nextGen   int
	lastError string
	started   time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(controller *pipeline.Controller, metrics *monitoring.Metrics, logger *logging.Logger) *Handlers {
	return &Handlers{
		controller: controller,
		metrics:    metrics,
		logger:     logger,
		phase:      PhaseIdle,
	}
}

// RunRequest is the body of POST /runs.
type RunRequest struct {
	Items   []string `json:"items"`
	Dir     string   `json:"dir"`
	Publish bool     `json:"publish"`
}

// WorkersRequest is the body of PUT /workers.
type WorkersRequest struct {
	Count int `json:"count"`
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Batch Build Service (Go)",
		"version": "0.3.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	h.mu.Lock()
	phase := h.phase
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"running": h.controller.Running(),
		"phase":   phase,
	})
}

// StartRun launches a batch run. A second run while one is in flight is
// refused with 409.
func (h *Handlers) StartRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run request format"})
		return
	}
	if req.Dir == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dir is required"})
		return
	}

	h.mu.Lock()
	h.nextGen++
	gen := h.nextGen
	h.mu.Unlock()

	cb := pipeline.Callbacks{
		OnFilterDone: func() { h.advance(gen, PhaseBuilding, "") },
		OnBuildDone:  func() { h.advance(gen, PhaseDone, "") },
		OnError:      func(err error) { h.advance(gen, PhaseFailed, err.Error()) },
	}

	// Runs outlive the request: net/http cancels the request context as
	// soon as the 202 goes out, which would abandon every in-flight item.
	err := h.controller.Process(context.Background(), req.Items, req.Dir, pipeline.Options{Publish: req.Publish}, cb)
	if errors.Is(err, pipeline.ErrRunActive) {
		c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to start run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.advance(gen, PhaseFiltering, "")
	c.JSON(http.StatusAccepted, gin.H{
		"accepted": true,
		"items":    len(req.Items),
		"publish":  req.Publish,
	})
}

// Abort tears down idle worker pools. Refused with 409 while a run is in
// flight.
func (h *Handlers) Abort(c *gin.Context) {
	if err := h.controller.Abort(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "cannot abort while a run is in progress"})
		return
	}

	h.mu.Lock()
	h.phase = PhaseIdle
	h.lastError = ""
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"aborted": true})
}

// Report returns the current run's failure report.
func (h *Handlers) Report(c *gin.Context) {
	failures := h.controller.FailureReport()
	c.JSON(http.StatusOK, gin.H{
		"failures": failures,
		"count":    len(failures),
	})
}

// SetWorkers resizes the build pool for subsequent runs.
func (h *Handlers) SetWorkers(c *gin.Context) {
	var req WorkersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workers request format"})
		return
	}
	if req.Count < 0 || req.Count > 256 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be between 0 and 256"})
		return
	}

	h.controller.SetWorkerCount(req.Count)
	c.JSON(http.StatusOK, gin.H{"workers": req.Count})
}

// Status reports run state plus a metrics snapshot.
func (h *Handlers) Status(c *gin.Context) {
	h.mu.Lock()
	phase := h.phase
	lastError := h.lastError
	started := h.started
	h.mu.Unlock()

	resp := gin.H{
		"running": h.controller.Running(),
		"phase":   phase,
		"metrics": h.metrics.GetSnapshot(),
	}
	if lastError != "" {
		resp["last_error"] = lastError
	}
	if !started.IsZero() {
		resp["started_at"] = started.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

// advance moves the reported phase forward for run gen. Transitions from
// older runs, or backwards within the same run, are ignored; the initial
// "filtering" set after a successful start therefore cannot stomp a
// callback that already fired for a fast run.
func (h *Handlers) advance(gen int, phase, lastError string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen < h.phaseGen {
		return
	}
	if gen == h.phaseGen && phaseRank[phase] <= phaseRank[h.phase] {
		return
	}
	if gen > h.phaseGen {
		h.phaseGen = gen
		h.started = time.Now()
	}
	h.phase = phase
	h.lastError = lastError
}
