package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"quantfacts/pkg/models"
)

// RecordRepo handles the storage of normalized records and their ratio sets.
// Persistence is a collaborator of the engine, never a dependency: the core
// packages compile and run without this package.
type RecordRepo struct{}

// NewRecordRepo creates a new repository instance.
func NewRecordRepo() *RecordRepo {
	return &RecordRepo{}
}

// Schema assumption (managed elsewhere, migrations):
//
// CREATE TABLE IF NOT EXISTS normalized_records (
//   entity_id TEXT NOT NULL,
//   fiscal_year INT NOT NULL,
//   fiscal_period TEXT NOT NULL,
//   values_json JSONB NOT NULL,
//   run_id UUID NOT NULL,
//   updated_at TIMESTAMPTZ NOT NULL,
//   PRIMARY KEY (entity_id, fiscal_year, fiscal_period)
// );
//
// CREATE TABLE IF NOT EXISTS financial_ratios (
//   entity_id TEXT NOT NULL,
//   fiscal_year INT NOT NULL,
//   fiscal_period TEXT NOT NULL,
//   ratios_json JSONB NOT NULL,
//   run_id UUID NOT NULL,
//   updated_at TIMESTAMPTZ NOT NULL,
//   PRIMARY KEY (entity_id, fiscal_year, fiscal_period)
// );

// SaveRecords upserts a batch of normalized records under one run id.
// A restated period overwrites the stored row; the engine's latest-filed
// semantics already guarantee the new record supersedes the old one.
func (r *RecordRepo) SaveRecords(ctx context.Context, records []models.NormalizedRecord) (uuid.UUID, error) {
	pool := GetPool()
	if pool == nil {
		return uuid.Nil, fmt.Errorf("database pool not initialized")
	}

	runID := uuid.New()
	query := `
		INSERT INTO normalized_records (entity_id, fiscal_year, fiscal_period, values_json, run_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entity_id, fiscal_year, fiscal_period)
		DO UPDATE SET
			values_json = EXCLUDED.values_json,
			run_id = EXCLUDED.run_id,
			updated_at = EXCLUDED.updated_at;
	`

	now := time.Now()
	for _, rec := range records {
		jsonData, err := json.Marshal(rec.Values)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to marshal record values: %w", err)
		}
		if _, err := pool.Exec(ctx, query, rec.EntityID, rec.FiscalYear, string(rec.FiscalPeriod), jsonData, runID, now); err != nil {
			return uuid.Nil, fmt.Errorf("failed to save record %s %d %s: %w", rec.EntityID, rec.FiscalYear, rec.FiscalPeriod, err)
		}
	}
	return runID, nil
}

// SaveRatios upserts a batch of ratio sets under the given run id, normally
// the one returned by SaveRecords for the same batch.
func (r *RecordRepo) SaveRatios(ctx context.Context, runID uuid.UUID, sets []models.RatioSet) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	query := `
		INSERT INTO financial_ratios (entity_id, fiscal_year, fiscal_period, ratios_json, run_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entity_id, fiscal_year, fiscal_period)
		DO UPDATE SET
			ratios_json = EXCLUDED.ratios_json,
			run_id = EXCLUDED.run_id,
			updated_at = EXCLUDED.updated_at;
	`

	now := time.Now()
	for _, set := range sets {
		jsonData, err := json.Marshal(set.Ratios)
		if err != nil {
			return fmt.Errorf("failed to marshal ratios: %w", err)
		}
		if _, err := pool.Exec(ctx, query, set.EntityID, set.FiscalYear, string(set.FiscalPeriod), jsonData, runID, now); err != nil {
			return fmt.Errorf("failed to save ratios %s %d %s: %w", set.EntityID, set.FiscalYear, set.FiscalPeriod, err)
		}
	}
	return nil
}

// LoadRecords retrieves all stored records for an entity, ordered by period.
func (r *RecordRepo) LoadRecords(ctx context.Context, entityID string) ([]models.NormalizedRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT fiscal_year, fiscal_period, values_json
		FROM normalized_records
		WHERE entity_id = $1
		ORDER BY fiscal_year, fiscal_period;
	`

	rows, err := pool.Query(ctx, query, entityID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load records for %s: %w", entityID, err)
	}
	defer rows.Close()

	var out []models.NormalizedRecord
	for rows.Next() {
		var (
			year     int
			periodID string
			jsonData []byte
		)
		if err := rows.Scan(&year, &periodID, &jsonData); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		rec := models.NewNormalizedRecord(entityID, year, models.FiscalPeriod(periodID))
		if err := json.Unmarshal(jsonData, &rec.Values); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record values: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
