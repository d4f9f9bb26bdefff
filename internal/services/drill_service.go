package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/darkmine-oss/baselode/internal/attach"
	"github.com/darkmine-oss/baselode/internal/config"
	"github.com/darkmine-oss/baselode/internal/dataset"
	"github.com/darkmine-oss/baselode/internal/desurvey"
	"github.com/darkmine-oss/baselode/internal/logger"
	"github.com/darkmine-oss/baselode/internal/models"
	"github.com/darkmine-oss/baselode/internal/repository"
	"github.com/darkmine-oss/baselode/internal/spatial"
)

// Service-level errors
var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrNoCollars       = errors.New("dataset has no collars loaded")
	ErrNoSurveys       = errors.New("dataset has no surveys loaded")
	ErrNoAssays        = errors.New("dataset has no assays loaded")
	ErrNoTraces        = errors.New("dataset has no computed traces")
)

// DrillService defines the drillhole business logic: loading standardized
// tables into datasets, desurveying, and spatial attachment. The stateless
// Desurvey/AttachAssays variants never touch the repository.
type DrillService interface {
	CreateDataset(ctx context.Context, name, projectID string) (*models.Dataset, error)
	GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error)

	// Load* validate and store one table of a dataset. Loads are atomic:
	// any row failure rejects the whole upload. The returned count is the
	// number of stored rows.
	LoadCollars(ctx context.Context, id uuid.UUID, rows []models.RawRow, opts dataset.Options) (int, error)
	LoadSurveys(ctx context.Context, id uuid.UUID, rows []models.RawRow, opts dataset.Options) (int, error)
	LoadAssays(ctx context.Context, id uuid.UUID, rows []models.RawRow, opts dataset.Options) (int, error)
	LoadGeology(ctx context.Context, id uuid.UUID, rows []models.RawRow, opts dataset.Options) (int, error)

	// DesurveyDataset computes traces from a dataset's stored collars and
	// surveys, stores them, and returns the result.
	DesurveyDataset(ctx context.Context, id uuid.UUID, opts desurvey.Options) (*desurvey.Result, error)
	DatasetTraces(ctx context.Context, id uuid.UUID) ([]models.TracePoint, error)
	// AttachDatasetAssays joins a dataset's stored assays to its stored
	// traces by nearest measured depth.
	AttachDatasetAssays(ctx context.Context, id uuid.UUID) ([]models.Interval, error)

	// Desurvey runs collar/survey rows through load and desurvey without
	// persisting anything.
	Desurvey(ctx context.Context, collarRows, surveyRows []models.RawRow, loadOpts dataset.Options, opts desurvey.Options) (*desurvey.Result, error)
	// AttachAssays attaches interval rows to caller-supplied traces
	// without persisting anything.
	AttachAssays(ctx context.Context, intervalRows []models.RawRow, traces []models.TracePoint, loadOpts dataset.Options) ([]models.Interval, error)
}

// drillService is the concrete implementation of DrillService.
type drillService struct {
	repo     repository.DatasetRepository
	log      *logger.Logger
	defaults config.DesurveyConfig
}

// NewDrillService creates a new instance of DrillService.
func NewDrillService(repo repository.DatasetRepository, log *logger.Logger, defaults config.DesurveyConfig) DrillService {
	return &drillService{
		repo:     repo,
		log:      log,
		defaults: defaults,
	}
}

func (s *drillService) CreateDataset(ctx context.Context, name, projectID string) (*models.Dataset, error) {
	ds, err := s.repo.CreateDataset(ctx, name, projectID)
	if err != nil {
		s.log.Error("Failed to create dataset", err, map[string]interface{}{
			"name": name,
		})
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}
	s.log.Info("Dataset created", map[string]interface{}{
		"dataset_id": ds.ID,
		"name":       ds.Name,
		"project_id": ds.ProjectID,
	})
	return ds, nil
}

func (s *drillService) GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	ds, err := s.repo.GetDataset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset: %w", err)
	}
	if ds == nil {
		return nil, ErrDatasetNotFound
	}
	return ds, nil
}

func (s *drillService) LoadCollars(ctx context.Context, id uuid.UUID, rows []models.RawRow, opts dataset.Options) (int, error) {
	if _, err := s.GetDataset(ctx, id); err != nil {
		return 0, err
	}
	table, err := dataset.LoadCollars(rows, opts)
	if err != nil {
		return 0, err
	}
	table = projectCollars(table)
	if err := s.repo.ReplaceCollars(ctx, id, table); err != nil {
		s.log.Error("Failed to store collars", err, map[string]interface{}{
			"dataset_id": id,
		})
		return 0, fmt.Errorf("failed to store collars: %w", err)
	}
	s.log.Info("Collars loaded", map[string]interface{}{
		"dataset_id":   id,
		"rows":         len(table.Collars),
		"alias_column": table.AliasColumn,
	})
	return len(table.Collars), nil
}

func (s *drillService) LoadSurveys(ctx context.Context, id uuid.UUID, rows []models.RawRow, opts dataset.Options) (int, error) {
	if _, err := s.GetDataset(ctx, id); err != nil {
		return 0, err
	}
	table, err := dataset.LoadSurveys(rows, opts)
	if err != nil {
		return 0, err
	}
	if err := s.repo.ReplaceSurveys(ctx, id, table); err != nil {
		s.log.Error("Failed to store surveys", err, map[string]interface{}{
			"dataset_id": id,
		})
		return 0, fmt.Errorf("failed to store surveys: %w", err)
	}
	s.log.Info("Surveys loaded", map[string]interface{}{
		"dataset_id":   id,
		"rows":         len(table.Stations),
		"alias_column": table.AliasColumn,
	})
	return len(table.Stations), nil
}

func (s *drillService) LoadAssays(ctx context.Context, id uuid.UUID, rows []models.RawRow, opts dataset.Options) (int, error) {
	return s.loadIntervals(ctx, id, rows, opts, models.IntervalKindAssay)
}

func (s *drillService) LoadGeology(ctx context.Context, id uuid.UUID, rows []models.RawRow, opts dataset.Options) (int, error) {
	return s.loadIntervals(ctx, id, rows, opts, models.IntervalKindGeology)
}

func (s *drillService) loadIntervals(ctx context.Context, id uuid.UUID, rows []models.RawRow, opts dataset.Options, kind string) (int, error) {
	if _, err := s.GetDataset(ctx, id); err != nil {
		return 0, err
	}

	var table models.IntervalTable
	var err error
	if kind == models.IntervalKindGeology {
		table, err = dataset.LoadGeology(rows, opts)
	} else {
		table, err = dataset.LoadAssays(rows, opts)
	}
	if err != nil {
		return 0, err
	}

	if err := s.repo.ReplaceIntervals(ctx, id, kind, table); err != nil {
		s.log.Error("Failed to store intervals", err, map[string]interface{}{
			"dataset_id": id,
			"kind":       kind,
		})
		return 0, fmt.Errorf("failed to store %s intervals: %w", kind, err)
	}
	s.log.Info("Intervals loaded", map[string]interface{}{
		"dataset_id":   id,
		"kind":         kind,
		"rows":         len(table.Intervals),
		"alias_column": table.AliasColumn,
	})
	return len(table.Intervals), nil
}

func (s *drillService) DesurveyDataset(ctx context.Context, id uuid.UUID, opts desurvey.Options) (*desurvey.Result, error) {
	if _, err := s.GetDataset(ctx, id); err != nil {
		return nil, err
	}

	collars, err := s.repo.Collars(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load collars: %w", err)
	}
	if len(collars.Collars) == 0 {
		return nil, ErrNoCollars
	}
	surveys, err := s.repo.Surveys(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load surveys: %w", err)
	}
	if len(surveys.Stations) == 0 {
		return nil, ErrNoSurveys
	}

	result, err := s.runDesurvey(ctx, collars, surveys, opts)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceTraces(ctx, id, result.Traces); err != nil {
		s.log.Error("Failed to store traces", err, map[string]interface{}{
			"dataset_id": id,
		})
		return nil, fmt.Errorf("failed to store traces: %w", err)
	}
	s.log.Info("Dataset desurveyed", map[string]interface{}{
		"dataset_id":    id,
		"trace_points":  len(result.Traces),
		"skipped_holes": len(result.Skipped),
	})
	return result, nil
}

func (s *drillService) DatasetTraces(ctx context.Context, id uuid.UUID) ([]models.TracePoint, error) {
	if _, err := s.GetDataset(ctx, id); err != nil {
		return nil, err
	}
	traces, err := s.repo.Traces(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load traces: %w", err)
	}
	if len(traces) == 0 {
		return nil, ErrNoTraces
	}
	return traces, nil
}

func (s *drillService) AttachDatasetAssays(ctx context.Context, id uuid.UUID) ([]models.Interval, error) {
	traces, err := s.DatasetTraces(ctx, id)
	if err != nil {
		return nil, err
	}
	assays, err := s.repo.Intervals(ctx, id, models.IntervalKindAssay)
	if err != nil {
		return nil, fmt.Errorf("failed to load assays: %w", err)
	}
	if len(assays.Intervals) == 0 {
		return nil, ErrNoAssays
	}

	enriched := attach.AttachAssayPositions(assays.Intervals, traces)
	s.log.Info("Assays attached to traces", map[string]interface{}{
		"dataset_id": id,
		"intervals":  len(enriched),
	})
	return enriched, nil
}

func (s *drillService) Desurvey(ctx context.Context, collarRows, surveyRows []models.RawRow, loadOpts dataset.Options, opts desurvey.Options) (*desurvey.Result, error) {
	collars, err := dataset.LoadCollars(collarRows, loadOpts)
	if err != nil {
		return nil, err
	}
	surveys, err := dataset.LoadSurveys(surveyRows, loadOpts)
	if err != nil {
		return nil, err
	}
	return s.runDesurvey(ctx, projectCollars(collars), surveys, opts)
}

func (s *drillService) AttachAssays(ctx context.Context, intervalRows []models.RawRow, traces []models.TracePoint, loadOpts dataset.Options) ([]models.Interval, error) {
	intervals, err := dataset.LoadAssays(intervalRows, loadOpts)
	if err != nil {
		return nil, err
	}
	return attach.AttachAssayPositions(intervals.Intervals, traces), nil
}

// runDesurvey applies configured defaults and executes the engine,
// logging the holes that produced no trace.
func (s *drillService) runDesurvey(ctx context.Context, collars models.CollarTable, surveys models.SurveyTable, opts desurvey.Options) (*desurvey.Result, error) {
	if opts.Step == 0 {
		opts.Step = s.defaults.Step
	}
	if opts.Method == "" {
		opts.Method = desurvey.Method(s.defaults.Method)
	}
	if opts.Workers == 0 {
		opts.Workers = s.defaults.Workers
	}

	result, err := desurvey.Desurvey(ctx, collars, surveys, opts)
	if err != nil {
		return nil, err
	}
	if len(result.Skipped) > 0 {
		s.log.Warn("Some holes produced no trace", map[string]interface{}{
			"skipped": len(result.Skipped),
			"holes":   result.Skipped,
		})
	}
	return result, nil
}

// projectCollars fills in planar positions for collars that only carry
// lat/lng, using a local frame anchored at the first such collar. Collars
// that already have easting/northing are left alone.
func projectCollars(table models.CollarTable) models.CollarTable {
	var frame *spatial.LocalFrame
	for i := range table.Collars {
		c := &table.Collars[i]
		if c.Easting != nil && c.Northing != nil {
			continue
		}
		if c.Latitude == nil || c.Longitude == nil {
			continue
		}
		if frame == nil {
			f := spatial.NewLocalFrame(*c.Latitude, *c.Longitude)
			frame = &f
		}
		east, north := frame.Offset(*c.Latitude, *c.Longitude)
		c.Easting, c.Northing = &east, &north
	}
	return table
}
