package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-planner/internal/dto"
	appErrors "github.com/noah-isme/timetable-planner/pkg/errors"
	"github.com/noah-isme/timetable-planner/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

type timetableRunQueue interface {
	Enqueue(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationRun, error)
	Get(ctx context.Context, id string) (*dto.GenerationRun, error)
}

type workloadReader interface {
	Workload(ctx context.Context, termID string) (*dto.WorkloadResponse, bool, error)
}

// TimetableHandler exposes timetable generation and workload endpoints.
type TimetableHandler struct {
	generator timetableGenerator
	runs      timetableRunQueue
	workload  workloadReader
}

// NewTimetableHandler constructs the handler. runs may be nil when background generation is disabled.
func NewTimetableHandler(generator timetableGenerator, runs timetableRunQueue, workload workloadReader) *TimetableHandler {
	return &TimetableHandler{generator: generator, runs: runs, workload: workload}
}

// Generate godoc
// @Summary Generate the weekly timetable of a term
// @Description Places lessons for every class using a randomized greedy pass. Omitting termId targets the latest term. With async the run is queued and 202 is returned.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Param async query bool false "Queue the run in the background"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		// An empty chunked body decodes to io.EOF and means "latest term".
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
			return
		}
	}
	if raw := c.Query("async"); raw != "" {
		async, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "async must be a boolean"))
			return
		}
		req.Async = async
	}

	if req.Async {
		if h.runs == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "background generation is disabled"))
			return
		}
		run, err := h.runs.Enqueue(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, run)
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{
		"placed":   result.Placed,
		"warnings": len(result.Warnings),
		"seed":     result.Seed,
	})
}

// GetRun godoc
// @Summary Get a background generation run
// @Tags Timetable
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/runs/{id} [get]
func (h *TimetableHandler) GetRun(c *gin.Context) {
	if h.runs == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "generation run not found or expired"))
		return
	}
	run, err := h.runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run)
}

// Workload godoc
// @Summary Teacher workload for a term
// @Description Committed periods per teacher, busiest first.
// @Tags Timetable
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /terms/{id}/workload [get]
func (h *TimetableHandler) Workload(c *gin.Context) {
	result, cacheHit, err := h.workload.Workload(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"cache": cacheHit})
}
