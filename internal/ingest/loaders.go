package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/permitatlas/permit-atlas/internal/store"
)

// ReferenceStore is the subset of store operations the reference loaders use
type ReferenceStore interface {
	UpsertCluster(ctx context.Context, c *store.Cluster) error
	ReplaceClusterKeywords(ctx context.Context, clusterID int64, keywords []*store.ClusterKeyword) error
	UpsertZipStats(ctx context.Context, z *store.ZipEnergyStats) error
}

// clusterPalette provides stable display colors for clusters whose summary
// omits one; indexed by cluster id so re-runs assign the same color.
var clusterPalette = []string{
	"#4E79A7", "#F28E2B", "#E15759", "#76B7B2", "#59A14F",
	"#EDC948", "#B07AA1", "#FF9DA7", "#9C755F", "#BAB0AC",
}

// clusterEntry is one cluster in the summary JSON, keyed by its id
type clusterEntry struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Size        int64   `json:"size"`
	Percentage  float64 `json:"percentage"`
	Color       string  `json:"color"`
	TopKeywords []struct {
		Keyword    string  `json:"keyword"`
		Prevalence float64 `json:"prevalence"`
	} `json:"top_keywords"`
}

// LoadClusters reads the cluster summary wholesale and upserts each cluster
// by id, fully replacing its ranked keyword set. Returns the number of
// clusters written.
func LoadClusters(ctx context.Context, st ReferenceStore, path string, logger *zap.Logger) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read cluster summary: %w", err)
	}

	var entries map[string]clusterEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("failed to parse cluster summary: %w", err)
	}

	// Deterministic load order by numeric cluster id
	ids := make([]int64, 0, len(entries))
	byID := make(map[int64]clusterEntry, len(entries))
	for key, entry := range entries {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			logger.Warn("Skipping cluster with non-numeric id", zap.String("id", key))
			continue
		}
		ids = append(ids, id)
		byID[id] = entry
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var written int64
	for _, id := range ids {
		entry := byID[id]

		color := entry.Color
		if color == "" {
			color = clusterPalette[int(id)%len(clusterPalette)]
		}

		cluster := &store.Cluster{
			ID:         id,
			Name:       entry.Name,
			Count:      entry.Size,
			Percentage: entry.Percentage,
			Color:      color,
		}
		if entry.Description != "" {
			cluster.Description = sql.NullString{String: entry.Description, Valid: true}
		}

		if err := st.UpsertCluster(ctx, cluster); err != nil {
			return written, err
		}

		keywords := make([]*store.ClusterKeyword, 0, len(entry.TopKeywords))
		for i, kw := range entry.TopKeywords {
			keywords = append(keywords, &store.ClusterKeyword{
				ClusterID:  id,
				Keyword:    kw.Keyword,
				Prevalence: kw.Prevalence,
				Rank:       i + 1,
			})
		}
		if err := st.ReplaceClusterKeywords(ctx, id, keywords); err != nil {
			return written, err
		}

		written++
	}

	logger.Info("Cluster summary loaded",
		zap.String("file", path),
		zap.Int64("clusters", written))
	return written, nil
}

// zipStatsFile is the on-disk shape of the energy summary artifact; only the
// by_zip list is ingested
type zipStatsFile struct {
	ByZip []zipStatsEntry `json:"by_zip"`
}

type zipStatsEntry struct {
	ZipCode            string  `json:"zip_code"`
	TotalEnergyPermits int64   `json:"total_energy_permits"`
	Solar              int64   `json:"solar"`
	Battery            int64   `json:"battery"`
	EVCharger          int64   `json:"ev_charger"`
	Generator          int64   `json:"generator"`
	PanelUpgrade       int64   `json:"panel_upgrade"`
	HVAC               int64   `json:"hvac"`
	AvgSolarKW         float64 `json:"avg_solar_kw"`
	TotalSolarKW       float64 `json:"total_solar_kw"`
}

// LoadZipStats reads the per-ZIP energy aggregates wholesale and upserts one
// row per ZIP. Returns the number of ZIP rows written.
func LoadZipStats(ctx context.Context, st ReferenceStore, path string, logger *zap.Logger) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read energy summary: %w", err)
	}

	var file zipStatsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse energy summary: %w", err)
	}

	var written int64
	for _, entry := range file.ByZip {
		if entry.ZipCode == "" {
			logger.Warn("Skipping ZIP aggregate with empty zip_code")
			continue
		}

		total := entry.TotalSolarKW
		if total == 0 && entry.AvgSolarKW > 0 {
			// Older summaries carry only the per-ZIP average
			total = entry.AvgSolarKW * float64(entry.Solar)
		}

		stats := &store.ZipEnergyStats{
			ZipCode:              entry.ZipCode,
			TotalEnergyPermits:   entry.TotalEnergyPermits,
			Solar:                entry.Solar,
			Battery:              entry.Battery,
			EVCharger:            entry.EVCharger,
			Generator:            entry.Generator,
			PanelUpgrade:         entry.PanelUpgrade,
			HVAC:                 entry.HVAC,
			TotalSolarCapacityKW: total,
			AvgSolarCapacityKW:   entry.AvgSolarKW,
		}
		if err := st.UpsertZipStats(ctx, stats); err != nil {
			return written, err
		}
		written++
	}

	logger.Info("ZIP energy aggregates loaded",
		zap.String("file", path),
		zap.Int64("zips", written))
	return written, nil
}
