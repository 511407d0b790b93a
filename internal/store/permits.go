package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// permitUpsertSQL is the statement head for the multi-row permit upsert.
// Re-ingesting a known permit refreshes its classification fields without
// creating a duplicate row.
const permitUpsertSQL = `
	INSERT INTO permits (
		permit_number, address, zip_code, latitude, longitude,
		cluster_id, work_description, is_energy_permit, energy_type,
		solar_capacity_kw, valuation, issue_date,
		project_type, building_type, scale, trade, is_green
	) VALUES %s
	ON CONFLICT (permit_number) DO UPDATE SET
		cluster_id = EXCLUDED.cluster_id,
		is_energy_permit = EXCLUDED.is_energy_permit,
		energy_type = EXCLUDED.energy_type,
		solar_capacity_kw = EXCLUDED.solar_capacity_kw,
		project_type = EXCLUDED.project_type,
		building_type = EXCLUDED.building_type,
		scale = EXCLUDED.scale,
		trade = EXCLUDED.trade,
		is_green = EXCLUDED.is_green`

// UpsertPermits writes one batch of permits in a single multi-row statement.
// The batch must not exceed MaxPermitBatchRows so the statement stays under
// the bind-parameter ceiling.
func (s *Store) UpsertPermits(ctx context.Context, permits []*Permit) (*BatchResult, error) {
	if len(permits) == 0 {
		return &BatchResult{}, nil
	}
	if len(permits) > MaxPermitBatchRows {
		return nil, fmt.Errorf("batch of %d rows exceeds maximum of %d", len(permits), MaxPermitBatchRows)
	}

	start := time.Now()

	valueStrings := make([]string, 0, len(permits))
	valueArgs := make([]interface{}, 0, len(permits)*permitColumns)

	for i, p := range permits {
		placeholders := make([]string, permitColumns)
		for j := 0; j < permitColumns; j++ {
			placeholders[j] = fmt.Sprintf("$%d", i*permitColumns+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ", ")+")")
		valueArgs = append(valueArgs,
			p.PermitNumber,
			p.Address,
			p.ZipCode,
			p.Latitude,
			p.Longitude,
			p.ClusterID,
			p.WorkDescription,
			p.IsEnergyPermit,
			p.EnergyType,
			p.SolarCapacityKW,
			p.Valuation,
			p.IssueDate,
			p.ProjectType,
			p.BuildingType,
			p.Scale,
			p.Trade,
			p.IsGreen,
		)
	}

	query := fmt.Sprintf(permitUpsertSQL, strings.Join(valueStrings, ", "))

	res, err := s.db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		return &BatchResult{Failed: int64(len(permits)), Duration: time.Since(start)},
			fmt.Errorf("permit batch upsert failed: %w", err)
	}

	written, err := res.RowsAffected()
	if err != nil {
		s.logger.Warn("Could not get rows affected", zap.Error(err))
		written = int64(len(permits))
	}

	return &BatchResult{
		Written:  written,
		Duration: time.Since(start),
	}, nil
}
