package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// UpsertCluster inserts or updates one cluster keyed by its numeric id
func (s *Store) UpsertCluster(ctx context.Context, c *Cluster) error {
	query := `
		INSERT INTO clusters (id, name, description, count, percentage, color)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			count = EXCLUDED.count,
			percentage = EXCLUDED.percentage,
			color = EXCLUDED.color`

	if _, err := s.db.ExecContext(ctx, query, c.ID, c.Name, c.Description, c.Count, c.Percentage, c.Color); err != nil {
		return fmt.Errorf("failed to upsert cluster %d: %w", c.ID, err)
	}
	return nil
}

// ReplaceClusterKeywords fully replaces the keyword set for one cluster.
// Delete-then-insert runs in a transaction so repeated loads never accumulate
// duplicate rank entries.
func (s *Store) ReplaceClusterKeywords(ctx context.Context, clusterID int64, keywords []*ClusterKeyword) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin keyword transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cluster_keywords WHERE cluster_id = $1`, clusterID); err != nil {
		return fmt.Errorf("failed to clear keywords for cluster %d: %w", clusterID, err)
	}

	for _, kw := range keywords {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cluster_keywords (cluster_id, keyword, prevalence, rank) VALUES ($1, $2, $3, $4)`,
			clusterID, kw.Keyword, kw.Prevalence, kw.Rank)
		if err != nil {
			return fmt.Errorf("failed to insert keyword %q for cluster %d: %w", kw.Keyword, clusterID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit keywords for cluster %d: %w", clusterID, err)
	}
	return nil
}

// UpsertZipStats inserts or updates one ZIP-level energy aggregate
func (s *Store) UpsertZipStats(ctx context.Context, z *ZipEnergyStats) error {
	query := `
		INSERT INTO energy_stats_by_zip (
			zip_code, total_energy_permits, solar, battery, ev_charger,
			generator, panel_upgrade, hvac, total_solar_capacity_kw, avg_solar_capacity_kw
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (zip_code) DO UPDATE SET
			total_energy_permits = EXCLUDED.total_energy_permits,
			solar = EXCLUDED.solar,
			battery = EXCLUDED.battery,
			ev_charger = EXCLUDED.ev_charger,
			generator = EXCLUDED.generator,
			panel_upgrade = EXCLUDED.panel_upgrade,
			hvac = EXCLUDED.hvac,
			total_solar_capacity_kw = EXCLUDED.total_solar_capacity_kw,
			avg_solar_capacity_kw = EXCLUDED.avg_solar_capacity_kw`

	_, err := s.db.ExecContext(ctx, query,
		z.ZipCode, z.TotalEnergyPermits, z.Solar, z.Battery, z.EVCharger,
		z.Generator, z.PanelUpgrade, z.HVAC, z.TotalSolarCapacityKW, z.AvgSolarCapacityKW)
	if err != nil {
		return fmt.Errorf("failed to upsert zip stats for %s: %w", z.ZipCode, err)
	}
	return nil
}

// RecordRefresh upserts the freshness record for one logical dataset using
// the loader's actual post-write row count
func (s *Store) RecordRefresh(ctx context.Context, datasetKey string, rowCount int64, sourceFile string) error {
	query := `
		INSERT INTO cache_metadata (key, last_updated, record_count, source_file)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			last_updated = EXCLUDED.last_updated,
			record_count = EXCLUDED.record_count,
			source_file = EXCLUDED.source_file`

	if _, err := s.db.ExecContext(ctx, query, datasetKey, time.Now().UTC(), rowCount, sourceFile); err != nil {
		return fmt.Errorf("failed to record refresh for %s: %w", datasetKey, err)
	}

	s.logger.Debug("Dataset freshness recorded",
		zap.String("dataset", datasetKey),
		zap.Int64("record_count", rowCount),
		zap.String("source_file", sourceFile))
	return nil
}
