package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/permitatlas/permit-atlas/internal/store"
)

// fakeRefStore records reference-data upserts in memory
type fakeRefStore struct {
	clusters []*store.Cluster
	keywords map[int64][]*store.ClusterKeyword
	zips     []*store.ZipEnergyStats
}

func newFakeRefStore() *fakeRefStore {
	return &fakeRefStore{keywords: make(map[int64][]*store.ClusterKeyword)}
}

func (f *fakeRefStore) UpsertCluster(ctx context.Context, c *store.Cluster) error {
	f.clusters = append(f.clusters, c)
	return nil
}

func (f *fakeRefStore) ReplaceClusterKeywords(ctx context.Context, clusterID int64, keywords []*store.ClusterKeyword) error {
	f.keywords[clusterID] = keywords
	return nil
}

func (f *fakeRefStore) UpsertZipStats(ctx context.Context, z *store.ZipEnergyStats) error {
	f.zips = append(f.zips, z)
	return nil
}

// TestLoadClusters tests the cluster summary loader
func TestLoadClusters(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("LoadsAndRanksKeywords", func(t *testing.T) {
		path := writeTempFile(t, "cluster_names.json", `{
			"0": {"name": "Roofing", "size": 1200, "percentage": 12.5,
				"top_keywords": [{"keyword": "roof", "prevalence": 0.8}, {"keyword": "shingle", "prevalence": 0.4}]},
			"3": {"name": "Solar", "size": 800, "percentage": 8.3, "color": "#FFD700",
				"top_keywords": [{"keyword": "solar", "prevalence": 0.9}]}
		}`)

		st := newFakeRefStore()
		n, err := LoadClusters(ctx, st, path, logger)
		if err != nil {
			t.Fatalf("LoadClusters failed: %v", err)
		}
		if n != 2 {
			t.Fatalf("Expected 2 clusters written, got %d", n)
		}

		if st.clusters[0].ID != 0 || st.clusters[1].ID != 3 {
			t.Errorf("Expected load order by numeric id, got %d then %d", st.clusters[0].ID, st.clusters[1].ID)
		}
		if st.clusters[1].Color != "#FFD700" {
			t.Errorf("Explicit color lost: %q", st.clusters[1].Color)
		}

		kws := st.keywords[0]
		if len(kws) != 2 {
			t.Fatalf("Expected 2 keywords for cluster 0, got %d", len(kws))
		}
		if kws[0].Keyword != "roof" || kws[0].Rank != 1 || kws[1].Rank != 2 {
			t.Errorf("Keywords not ranked by summary order: %+v", kws)
		}
	})

	t.Run("KeywordsFullyReplaced", func(t *testing.T) {
		st := newFakeRefStore()

		first := writeTempFile(t, "cluster_names.json", `{
			"3": {"name": "Solar", "size": 800, "percentage": 8.3, "top_keywords": [
				{"keyword": "solar", "prevalence": 0.9}, {"keyword": "pv", "prevalence": 0.7},
				{"keyword": "roof", "prevalence": 0.5}, {"keyword": "array", "prevalence": 0.3},
				{"keyword": "inverter", "prevalence": 0.2}]}
		}`)
		if _, err := LoadClusters(ctx, st, first, logger); err != nil {
			t.Fatalf("First load failed: %v", err)
		}
		if len(st.keywords[3]) != 5 {
			t.Fatalf("Expected 5 keywords after first load, got %d", len(st.keywords[3]))
		}

		second := writeTempFile(t, "cluster_names.json", `{
			"3": {"name": "Solar", "size": 820, "percentage": 8.4, "top_keywords": [
				{"keyword": "solar", "prevalence": 0.92}, {"keyword": "pv", "prevalence": 0.71},
				{"keyword": "inverter", "prevalence": 0.25}]}
		}`)
		if _, err := LoadClusters(ctx, st, second, logger); err != nil {
			t.Fatalf("Second load failed: %v", err)
		}

		// A shrinking keyword set must not leave stale rows behind
		kws := st.keywords[3]
		if len(kws) != 3 {
			t.Fatalf("Expected exactly 3 keywords after reload, got %d", len(kws))
		}
		for i, kw := range kws {
			if kw.Rank != i+1 {
				t.Errorf("Keyword %d has rank %d", i, kw.Rank)
			}
		}
	})

	t.Run("PaletteFallback", func(t *testing.T) {
		path := writeTempFile(t, "cluster_names.json",
			`{"7": {"name": "HVAC", "size": 50, "percentage": 0.5, "top_keywords": []}}`)

		st := newFakeRefStore()
		if _, err := LoadClusters(ctx, st, path, logger); err != nil {
			t.Fatalf("LoadClusters failed: %v", err)
		}
		if got := st.clusters[0].Color; got != clusterPalette[7] {
			t.Errorf("Expected palette color %q for cluster 7, got %q", clusterPalette[7], got)
		}
	})

	t.Run("NonNumericIdSkipped", func(t *testing.T) {
		path := writeTempFile(t, "cluster_names.json", `{
			"noise": {"name": "Noise", "size": 1, "percentage": 0.1},
			"2": {"name": "Electrical", "size": 300, "percentage": 3.0}
		}`)

		st := newFakeRefStore()
		n, err := LoadClusters(ctx, st, path, logger)
		if err != nil {
			t.Fatalf("LoadClusters failed: %v", err)
		}
		if n != 1 || len(st.clusters) != 1 || st.clusters[0].ID != 2 {
			t.Errorf("Expected only cluster 2 loaded, got n=%d clusters=%+v", n, st.clusters)
		}
	})

	t.Run("MissingFileIsError", func(t *testing.T) {
		if _, err := LoadClusters(ctx, newFakeRefStore(), filepath.Join(t.TempDir(), "absent.json"), logger); err == nil {
			t.Fatal("Expected error for missing cluster summary")
		}
	})
}

// TestLoadZipStats tests the per-ZIP energy aggregate loader
func TestLoadZipStats(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("LoadsByZip", func(t *testing.T) {
		path := writeTempFile(t, "energy_infrastructure.json", `{
			"total_energy_permits": 5000,
			"by_zip": [
				{"zip_code": "94110", "total_energy_permits": 320, "solar": 200, "battery": 40,
				 "ev_charger": 30, "generator": 10, "panel_upgrade": 25, "hvac": 15,
				 "avg_solar_kw": 6.5, "total_solar_kw": 1300.0},
				{"zip_code": "", "total_energy_permits": 5},
				{"zip_code": "94117", "total_energy_permits": 80, "solar": 50, "avg_solar_kw": 5.0}
			]
		}`)

		st := newFakeRefStore()
		n, err := LoadZipStats(ctx, st, path, logger)
		if err != nil {
			t.Fatalf("LoadZipStats failed: %v", err)
		}
		if n != 2 {
			t.Fatalf("Expected 2 ZIP rows (empty zip skipped), got %d", n)
		}

		first := st.zips[0]
		if first.ZipCode != "94110" || first.Solar != 200 || first.TotalSolarCapacityKW != 1300.0 {
			t.Errorf("Unexpected first ZIP row: %+v", first)
		}

		// total_solar_kw absent: derived from avg * solar count
		second := st.zips[1]
		if second.TotalSolarCapacityKW != 250.0 {
			t.Errorf("Expected derived total 250.0, got %v", second.TotalSolarCapacityKW)
		}
	})

	t.Run("CorruptFileIsError", func(t *testing.T) {
		path := writeTempFile(t, "energy_infrastructure.json", `{"by_zip": [{`)
		if _, err := LoadZipStats(ctx, newFakeRefStore(), path, logger); err == nil {
			t.Fatal("Expected error for corrupt energy summary")
		}
	})

	t.Run("MissingFileIsError", func(t *testing.T) {
		if _, err := LoadZipStats(ctx, newFakeRefStore(), filepath.Join(t.TempDir(), "absent.json"), logger); err == nil {
			t.Fatal("Expected error for missing energy summary")
		}
	})
}
