package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/darkmine-oss/baselode/internal/attach"
	"github.com/darkmine-oss/baselode/internal/dataset"
	"github.com/darkmine-oss/baselode/internal/desurvey"
	apierrors "github.com/darkmine-oss/baselode/internal/errors"
	"github.com/darkmine-oss/baselode/internal/middleware"
	"github.com/darkmine-oss/baselode/internal/models"
	"github.com/darkmine-oss/baselode/internal/schema"
	"github.com/darkmine-oss/baselode/internal/services"
)

// DrillHandler handles drillhole-related HTTP requests.
type DrillHandler struct {
	service services.DrillService
}

// NewDrillHandler creates a new DrillHandler instance.
func NewDrillHandler(service services.DrillService) *DrillHandler {
	return &DrillHandler{
		service: service,
	}
}

// LoadOptionsBody carries the column standardization knobs shared by every
// table upload.
type LoadOptionsBody struct {
	ColumnMap    map[string]string `json:"column_map"`
	HoleIDColumn string            `json:"hole_id_column"`
	Long         bool              `json:"long"`
	CRS          string            `json:"crs"`
}

func (b LoadOptionsBody) toOptions() dataset.Options {
	return dataset.Options{
		SourceColumnMap: b.ColumnMap,
		HoleIDColumn:    b.HoleIDColumn,
		Long:            b.Long,
		CRS:             b.CRS,
	}
}

// DesurveyOptionsBody carries the trace computation knobs. Zero values fall
// back to the server's configured defaults.
type DesurveyOptionsBody struct {
	Step    float64 `json:"step" binding:"omitempty,gt=0"`
	Method  string  `json:"method" binding:"omitempty,oneof=tangential balanced_tangential minimum_curvature"`
	Workers int     `json:"workers" binding:"omitempty,min=1"`
}

func (b DesurveyOptionsBody) toOptions() desurvey.Options {
	return desurvey.Options{
		Step:    b.Step,
		Method:  desurvey.Method(b.Method),
		Workers: b.Workers,
	}
}

// CreateDatasetRequest represents the body for dataset creation.
type CreateDatasetRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=255"`
	ProjectID string `json:"project_id" binding:"omitempty,max=255"`
}

// LoadTableRequest represents the body for table uploads.
type LoadTableRequest struct {
	Rows    []models.RawRow `json:"rows" binding:"required,min=1"`
	Options LoadOptionsBody `json:"options"`
}

// LoadTableResponse reports how many rows a table upload stored.
type LoadTableResponse struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// DesurveyRequest represents the body for the stateless desurvey endpoint.
type DesurveyRequest struct {
	Collars []models.RawRow     `json:"collars" binding:"required,min=1"`
	Surveys []models.RawRow     `json:"surveys" binding:"required,min=1"`
	Options LoadOptionsBody     `json:"options"`
	Params  DesurveyOptionsBody `json:"params"`
}

// AttachRequest represents the body for the stateless attach endpoint.
// When On is set the assays are equi-joined to traces on those columns;
// otherwise each assay is attached to its hole's nearest trace point by
// interval midpoint.
type AttachRequest struct {
	Assays  []models.RawRow     `json:"assays" binding:"required,min=1"`
	Traces  []models.TracePoint `json:"traces" binding:"required,min=1"`
	On      []string            `json:"on"`
	Options LoadOptionsBody     `json:"options"`
}

// AttachResponse represents the enriched intervals returned by attachment.
type AttachResponse struct {
	Intervals []models.Interval `json:"intervals"`
	Count     int               `json:"count"`
}

// TracesResponse represents a dataset's stored trace points.
type TracesResponse struct {
	Traces []models.TracePoint `json:"traces"`
	Count  int                 `json:"count"`
}

// CreateDataset handles POST /api/v1/datasets.
func (h *DrillHandler) CreateDataset(c *gin.Context) {
	var req CreateDatasetRequest
	if !bindJSON(c, &req) {
		return
	}

	ds, err := h.service.CreateDataset(c.Request.Context(), req.Name, req.ProjectID)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to create dataset", err)
		return
	}

	c.JSON(http.StatusCreated, ds)
}

// GetDataset handles GET /api/v1/datasets/:id.
func (h *DrillHandler) GetDataset(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		return
	}

	ds, err := h.service.GetDataset(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to query dataset")
		return
	}

	c.JSON(http.StatusOK, ds)
}

// LoadCollars handles PUT /api/v1/datasets/:id/collars.
// The upload replaces the dataset's collar table; it is atomic, so a single
// bad row rejects the whole file.
func (h *DrillHandler) LoadCollars(c *gin.Context) {
	h.loadTable(c, "collar", h.service.LoadCollars)
}

// LoadSurveys handles PUT /api/v1/datasets/:id/surveys.
func (h *DrillHandler) LoadSurveys(c *gin.Context) {
	h.loadTable(c, "survey", h.service.LoadSurveys)
}

// LoadAssays handles PUT /api/v1/datasets/:id/assays.
func (h *DrillHandler) LoadAssays(c *gin.Context) {
	h.loadTable(c, "assay", h.service.LoadAssays)
}

// LoadGeology handles PUT /api/v1/datasets/:id/geology.
func (h *DrillHandler) LoadGeology(c *gin.Context) {
	h.loadTable(c, "geology", h.service.LoadGeology)
}

func (h *DrillHandler) loadTable(c *gin.Context, table string, load func(ctx context.Context, id uuid.UUID, rows []models.RawRow, opts dataset.Options) (int, error)) {
	id, ok := datasetID(c)
	if !ok {
		return
	}

	var req LoadTableRequest
	if !bindJSON(c, &req) {
		return
	}

	log := middleware.GetLogger(c)
	if log != nil {
		log.Info("Processing table upload", map[string]interface{}{
			"dataset_id": id,
			"table":      table,
			"rows":       len(req.Rows),
		})
	}

	n, err := load(c.Request.Context(), id, req.Rows, req.Options.toOptions())
	if err != nil {
		h.respondError(c, err, "Failed to load "+table+" table")
		return
	}

	c.JSON(http.StatusOK, LoadTableResponse{Table: table, Rows: n})
}

// DesurveyDataset handles POST /api/v1/datasets/:id/desurvey.
func (h *DrillHandler) DesurveyDataset(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		return
	}

	// Body is optional; an empty body means configured defaults.
	var params DesurveyOptionsBody
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &params) {
			return
		}
	}

	result, err := h.service.DesurveyDataset(c.Request.Context(), id, params.toOptions())
	if err != nil {
		h.respondError(c, err, "Failed to desurvey dataset")
		return
	}

	c.JSON(http.StatusOK, result)
}

// DatasetTraces handles GET /api/v1/datasets/:id/traces.
func (h *DrillHandler) DatasetTraces(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		return
	}

	traces, err := h.service.DatasetTraces(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to query traces")
		return
	}

	c.JSON(http.StatusOK, TracesResponse{Traces: traces, Count: len(traces)})
}

// AttachDatasetAssays handles POST /api/v1/datasets/:id/attach-assays.
func (h *DrillHandler) AttachDatasetAssays(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		return
	}

	intervals, err := h.service.AttachDatasetAssays(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to attach assays")
		return
	}

	c.JSON(http.StatusOK, AttachResponse{Intervals: intervals, Count: len(intervals)})
}

// Desurvey handles POST /api/v1/desurvey, the stateless variant that takes
// collar and survey rows in the request body and returns traces without
// touching storage.
func (h *DrillHandler) Desurvey(c *gin.Context) {
	var req DesurveyRequest
	if !bindJSON(c, &req) {
		return
	}

	log := middleware.GetLogger(c)
	if log != nil {
		log.Info("Processing desurvey request", map[string]interface{}{
			"collar_rows": len(req.Collars),
			"survey_rows": len(req.Surveys),
			"method":      req.Params.Method,
		})
	}

	result, err := h.service.Desurvey(c.Request.Context(), req.Collars, req.Surveys, req.Options.toOptions(), req.Params.toOptions())
	if err != nil {
		h.respondError(c, err, "Failed to desurvey")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Attach handles POST /api/v1/attach, the stateless variant that joins
// assay rows to caller-supplied trace points.
func (h *DrillHandler) Attach(c *gin.Context) {
	var req AttachRequest
	if !bindJSON(c, &req) {
		return
	}

	var intervals []models.Interval
	var err error
	if len(req.On) > 0 {
		var table models.IntervalTable
		table, err = dataset.LoadAssays(req.Assays, req.Options.toOptions())
		if err == nil {
			intervals = attach.JoinAssaysToTraces(table.Intervals, req.Traces, req.On)
		}
	} else {
		intervals, err = h.service.AttachAssays(c.Request.Context(), req.Assays, req.Traces, req.Options.toOptions())
	}
	if err != nil {
		h.respondError(c, err, "Failed to attach assays")
		return
	}

	c.JSON(http.StatusOK, AttachResponse{Intervals: intervals, Count: len(intervals)})
}

// bindJSON binds the request body and writes the error response on failure.
func bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return false
	}
	return true
}

// datasetID parses the :id path parameter, responding 400 on a malformed id.
func datasetID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid dataset id", map[string]interface{}{
			"id": c.Param("id"),
		})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps domain and service errors onto HTTP responses. Data
// validation failures are client errors with structured details; anything
// unrecognized is a 500.
func (h *DrillHandler) respondError(c *gin.Context, err error, message string) {
	var missing *dataset.MissingColumnError
	if errors.As(err, &missing) {
		apierrors.BadRequest(c, missing.Error(), map[string]interface{}{
			"table":  missing.Table,
			"column": missing.Column,
		})
		return
	}
	var invalid *dataset.InvalidValueError
	if errors.As(err, &invalid) {
		apierrors.BadRequest(c, invalid.Error(), map[string]interface{}{
			"table":  invalid.Table,
			"row":    invalid.Row,
			"column": invalid.Column,
		})
		return
	}
	var overlap *dataset.OverlapError
	if errors.As(err, &overlap) {
		apierrors.BadRequest(c, overlap.Error(), map[string]interface{}{
			"table":   overlap.Table,
			"hole_id": overlap.HoleID,
		})
		return
	}
	var holeID *schema.HoleIDResolutionError
	if errors.As(err, &holeID) {
		apierrors.BadRequest(c, holeID.Error(), map[string]interface{}{
			"candidates": holeID.Candidates,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrDatasetNotFound):
		apierrors.NotFound(c, "Dataset not found")
	case errors.Is(err, services.ErrNoCollars),
		errors.Is(err, services.ErrNoSurveys),
		errors.Is(err, services.ErrNoAssays),
		errors.Is(err, services.ErrNoTraces):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, desurvey.ErrUnknownMethod),
		errors.Is(err, desurvey.ErrInvalidStep):
		apierrors.BadRequest(c, err.Error(), nil)
	default:
		apierrors.InternalServerError(c, message, err)
	}
}
