package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/darkmine-oss/baselode/internal/database"
	"github.com/darkmine-oss/baselode/internal/models"
)

// DatasetRepository defines the interface for drillhole dataset
// persistence. A dataset groups one project's collar, survey, interval and
// trace tables under a uuid.
//
// Lookup methods return nil (or an empty table) with a nil error when the
// dataset or table has no rows; errors are reserved for database failures.
type DatasetRepository interface {
	CreateDataset(ctx context.Context, name, projectID string) (*models.Dataset, error)
	GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error)

	ReplaceCollars(ctx context.Context, id uuid.UUID, table models.CollarTable) error
	ReplaceSurveys(ctx context.Context, id uuid.UUID, table models.SurveyTable) error
	ReplaceIntervals(ctx context.Context, id uuid.UUID, kind string, table models.IntervalTable) error
	ReplaceTraces(ctx context.Context, id uuid.UUID, traces []models.TracePoint) error

	Collars(ctx context.Context, id uuid.UUID) (models.CollarTable, error)
	Surveys(ctx context.Context, id uuid.UUID) (models.SurveyTable, error)
	Intervals(ctx context.Context, id uuid.UUID, kind string) (models.IntervalTable, error)
	Traces(ctx context.Context, id uuid.UUID) ([]models.TracePoint, error)
}

// datasetRepository is the concrete implementation of DatasetRepository.
type datasetRepository struct {
	db *database.Database
}

// NewDatasetRepository creates a new instance of DatasetRepository.
func NewDatasetRepository(db *database.Database) DatasetRepository {
	return &datasetRepository{db: db}
}

// CreateDataset inserts a new dataset row and returns it.
func (r *datasetRepository) CreateDataset(ctx context.Context, name, projectID string) (*models.Dataset, error) {
	ds := &models.Dataset{ID: uuid.New(), Name: name, ProjectID: projectID}

	query := `
		INSERT INTO datasets (id, name, project_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := r.db.Pool.QueryRow(ctx, query, ds.ID, ds.Name, ds.ProjectID).
		Scan(&ds.CreatedAt, &ds.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert dataset: %w", err)
	}
	return ds, nil
}

// GetDataset fetches a dataset by id. Returns nil, nil when it does not
// exist.
func (r *datasetRepository) GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	query := `
		SELECT id, name, COALESCE(project_id, ''), created_at, updated_at
		FROM datasets
		WHERE id = $1`

	var ds models.Dataset
	err := r.db.Pool.QueryRow(ctx, query, id).
		Scan(&ds.ID, &ds.Name, &ds.ProjectID, &ds.CreatedAt, &ds.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset: %w", err)
	}
	return &ds, nil
}

// ReplaceCollars atomically swaps a dataset's collar table.
func (r *datasetRepository) ReplaceCollars(ctx context.Context, id uuid.UUID, table models.CollarTable) error {
	return r.inTx(ctx, id, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM collars WHERE dataset_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear collars: %w", err)
		}

		batch := &pgx.Batch{}
		for ord, c := range table.Collars {
			extra, err := marshalExtra(c.Extra)
			if err != nil {
				return err
			}
			batch.Queue(`
				INSERT INTO collars (
					dataset_id, ord, hole_id, datasource_hole_id, project_id, crs,
					easting, northing, latitude, longitude, elevation, alias_column, extra
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
				id, ord, c.HoleID, c.DatasourceHoleID, c.ProjectID, c.CRS,
				c.Easting, c.Northing, c.Latitude, c.Longitude, c.Elevation,
				table.AliasColumn, extra)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert collars: %w", err)
		}
		return nil
	})
}

// ReplaceSurveys atomically swaps a dataset's survey table.
func (r *datasetRepository) ReplaceSurveys(ctx context.Context, id uuid.UUID, table models.SurveyTable) error {
	return r.inTx(ctx, id, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM surveys WHERE dataset_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear surveys: %w", err)
		}

		batch := &pgx.Batch{}
		for ord, s := range table.Stations {
			extra, err := marshalExtra(s.Extra)
			if err != nil {
				return err
			}
			batch.Queue(`
				INSERT INTO surveys (
					dataset_id, ord, hole_id, md_from, md_to, azimuth, dip, alias_column, extra
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				id, ord, s.HoleID, s.From, s.To, s.Azimuth, s.Dip, table.AliasColumn, extra)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert surveys: %w", err)
		}
		return nil
	})
}

// ReplaceIntervals atomically swaps a dataset's assay or geology table.
func (r *datasetRepository) ReplaceIntervals(ctx context.Context, id uuid.UUID, kind string, table models.IntervalTable) error {
	return r.inTx(ctx, id, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM intervals WHERE dataset_id = $1 AND kind = $2`, id, kind); err != nil {
			return fmt.Errorf("failed to clear %s intervals: %w", kind, err)
		}

		batch := &pgx.Batch{}
		for ord, iv := range table.Intervals {
			extra, err := marshalExtra(iv.Extra)
			if err != nil {
				return err
			}
			batch.Queue(`
				INSERT INTO intervals (
					dataset_id, kind, ord, hole_id, md_from, md_to, md_mid, alias_column, extra
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				id, kind, ord, iv.HoleID, iv.From, iv.To, iv.Mid, table.AliasColumn, extra)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert %s intervals: %w", kind, err)
		}
		return nil
	})
}

// ReplaceTraces atomically swaps a dataset's computed traces, using
// CopyFrom since trace tables run to thousands of points per dataset.
func (r *datasetRepository) ReplaceTraces(ctx context.Context, id uuid.UUID, traces []models.TracePoint) error {
	return r.inTx(ctx, id, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM traces WHERE dataset_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear traces: %w", err)
		}

		rows := make([][]any, len(traces))
		for ord, p := range traces {
			rows[ord] = []any{
				id, ord, p.HoleID, p.MD, p.X, p.Y, p.Z, p.Azimuth, p.Dip,
				p.AliasColumn, p.AliasValue,
			}
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"traces"},
			[]string{
				"dataset_id", "ord", "hole_id", "md", "x", "y", "z", "azimuth", "dip",
				"alias_column", "alias_value",
			},
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy traces: %w", err)
		}
		return nil
	})
}

// Collars loads a dataset's collar table in stored order.
func (r *datasetRepository) Collars(ctx context.Context, id uuid.UUID) (models.CollarTable, error) {
	query := `
		SELECT hole_id, datasource_hole_id, project_id, crs,
		       easting, northing, latitude, longitude, elevation, alias_column, extra
		FROM collars
		WHERE dataset_id = $1
		ORDER BY ord`

	rows, err := r.db.Pool.Query(ctx, query, id)
	if err != nil {
		return models.CollarTable{}, fmt.Errorf("failed to query collars: %w", err)
	}
	defer rows.Close()

	var table models.CollarTable
	for rows.Next() {
		var c models.Collar
		var extra []byte
		if err := rows.Scan(
			&c.HoleID, &c.DatasourceHoleID, &c.ProjectID, &c.CRS,
			&c.Easting, &c.Northing, &c.Latitude, &c.Longitude, &c.Elevation,
			&table.AliasColumn, &extra,
		); err != nil {
			return models.CollarTable{}, fmt.Errorf("failed to scan collar: %w", err)
		}
		if c.Extra, err = unmarshalExtra(extra); err != nil {
			return models.CollarTable{}, err
		}
		table.Collars = append(table.Collars, c)
	}
	if err := rows.Err(); err != nil {
		return models.CollarTable{}, fmt.Errorf("failed to read collars: %w", err)
	}
	return table, nil
}

// Surveys loads a dataset's survey table in stored order.
func (r *datasetRepository) Surveys(ctx context.Context, id uuid.UUID) (models.SurveyTable, error) {
	query := `
		SELECT hole_id, md_from, md_to, azimuth, dip, alias_column, extra
		FROM surveys
		WHERE dataset_id = $1
		ORDER BY ord`

	rows, err := r.db.Pool.Query(ctx, query, id)
	if err != nil {
		return models.SurveyTable{}, fmt.Errorf("failed to query surveys: %w", err)
	}
	defer rows.Close()

	var table models.SurveyTable
	for rows.Next() {
		var s models.SurveyStation
		var extra []byte
		if err := rows.Scan(
			&s.HoleID, &s.From, &s.To, &s.Azimuth, &s.Dip, &table.AliasColumn, &extra,
		); err != nil {
			return models.SurveyTable{}, fmt.Errorf("failed to scan survey station: %w", err)
		}
		if s.Extra, err = unmarshalExtra(extra); err != nil {
			return models.SurveyTable{}, err
		}
		table.Stations = append(table.Stations, s)
	}
	if err := rows.Err(); err != nil {
		return models.SurveyTable{}, fmt.Errorf("failed to read surveys: %w", err)
	}
	return table, nil
}

// Intervals loads a dataset's assay or geology table in stored order.
func (r *datasetRepository) Intervals(ctx context.Context, id uuid.UUID, kind string) (models.IntervalTable, error) {
	query := `
		SELECT hole_id, md_from, md_to, md_mid, alias_column, extra
		FROM intervals
		WHERE dataset_id = $1 AND kind = $2
		ORDER BY ord`

	rows, err := r.db.Pool.Query(ctx, query, id, kind)
	if err != nil {
		return models.IntervalTable{}, fmt.Errorf("failed to query %s intervals: %w", kind, err)
	}
	defer rows.Close()

	var table models.IntervalTable
	for rows.Next() {
		var iv models.Interval
		var extra []byte
		if err := rows.Scan(
			&iv.HoleID, &iv.From, &iv.To, &iv.Mid, &table.AliasColumn, &extra,
		); err != nil {
			return models.IntervalTable{}, fmt.Errorf("failed to scan interval: %w", err)
		}
		if iv.Extra, err = unmarshalExtra(extra); err != nil {
			return models.IntervalTable{}, err
		}
		table.Intervals = append(table.Intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return models.IntervalTable{}, fmt.Errorf("failed to read %s intervals: %w", kind, err)
	}
	return table, nil
}

// Traces loads a dataset's computed traces in stored order.
func (r *datasetRepository) Traces(ctx context.Context, id uuid.UUID) ([]models.TracePoint, error) {
	query := `
		SELECT hole_id, md, x, y, z, azimuth, dip, alias_column, alias_value
		FROM traces
		WHERE dataset_id = $1
		ORDER BY ord`

	rows, err := r.db.Pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query traces: %w", err)
	}
	defer rows.Close()

	var traces []models.TracePoint
	for rows.Next() {
		var p models.TracePoint
		if err := rows.Scan(
			&p.HoleID, &p.MD, &p.X, &p.Y, &p.Z, &p.Azimuth, &p.Dip,
			&p.AliasColumn, &p.AliasValue,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trace point: %w", err)
		}
		traces = append(traces, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read traces: %w", err)
	}
	return traces, nil
}

// inTx runs fn in a transaction and bumps the dataset's updated_at on
// success.
func (r *datasetRepository) inTx(ctx context.Context, id uuid.UUID, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE datasets SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to touch dataset: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func marshalExtra(extra models.RawRow) ([]byte, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extra columns: %w", err)
	}
	return data, nil
}

func unmarshalExtra(data []byte) (models.RawRow, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var extra models.RawRow
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extra columns: %w", err)
	}
	return extra, nil
}
