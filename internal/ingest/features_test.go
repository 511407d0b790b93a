package ingest

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

// TestLoadFeatureIndex tests the optional LLM annotation index
func TestLoadFeatureIndex(t *testing.T) {
	logger := zap.NewNop()

	t.Run("MissingFileIsEmpty", func(t *testing.T) {
		index, err := LoadFeatureIndex(filepath.Join(t.TempDir(), "absent.json"), logger)
		if err != nil {
			t.Fatalf("Missing annotation file must not error: %v", err)
		}
		if index.Len() != 0 {
			t.Errorf("Expected empty index, got %d entries", index.Len())
		}
		if index.Lookup("P-1") != nil {
			t.Error("Lookup on empty index should return nil")
		}
	})

	t.Run("LoadsAnnotations", func(t *testing.T) {
		path := writeTempFile(t, "llm_categories.json", `{
			"permits": {
				"P-1": {"project_type": "renovation", "building_type": "residential", "scale": "small", "trade": "electrical", "is_green": true},
				"P-2": {"project_type": "new_construction", "is_green": "true"},
				"P-3": {"project_type": "repair", "is_green": "false"}
			}
		}`)

		index, err := LoadFeatureIndex(path, logger)
		if err != nil {
			t.Fatalf("LoadFeatureIndex failed: %v", err)
		}
		if index.Len() != 3 {
			t.Fatalf("Expected 3 annotations, got %d", index.Len())
		}

		ann := index.Lookup("P-1")
		if ann == nil {
			t.Fatal("Expected annotation for P-1")
		}
		if ann.ProjectType != "renovation" || ann.Trade != "electrical" {
			t.Errorf("Unexpected annotation: %+v", ann)
		}
		if !bool(ann.IsGreen) {
			t.Error("JSON bool true not decoded")
		}

		// The original annotation exports mix bool and string encodings
		if !bool(index.Lookup("P-2").IsGreen) {
			t.Error(`String "true" not decoded as green`)
		}
		if bool(index.Lookup("P-3").IsGreen) {
			t.Error(`String "false" decoded as green`)
		}

		if index.Lookup("P-404") != nil {
			t.Error("Unknown permit should return nil")
		}
	})

	t.Run("CorruptFileIsError", func(t *testing.T) {
		path := writeTempFile(t, "llm_categories.json", `{"permits": [not json`)
		if _, err := LoadFeatureIndex(path, logger); err == nil {
			t.Fatal("Expected error for corrupt annotation file")
		}
	})
}
