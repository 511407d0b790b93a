package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Annotation holds the LLM-derived category fields for one permit
type Annotation struct {
	ProjectType  string   `json:"project_type"`
	BuildingType string   `json:"building_type"`
	Scale        string   `json:"scale"`
	Trade        string   `json:"trade"`
	IsGreen      flexBool `json:"is_green"`
}

// flexBool tolerates the annotation file's mixed boolean encoding: JSON
// true/false as well as the strings "true"/"false". Anything else decodes
// to false rather than failing the whole file.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var asBool bool
	if err := json.Unmarshal(data, &asBool); err == nil {
		*b = flexBool(asBool)
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*b = asString == "true"
		return nil
	}

	*b = false
	return nil
}

// annotationFile is the on-disk shape of the secondary annotation source
type annotationFile struct {
	Permits map[string]*Annotation `json:"permits"`
}

// FeatureIndex is the in-memory annotation lookup, built once per run and
// read-only afterwards. Duplicate permit keys in the source resolve
// last-write-wins during JSON decoding.
type FeatureIndex struct {
	annotations map[string]*Annotation
}

// LoadFeatureIndex reads the optional annotation file. A missing file is not
// an error: every joined field simply defaults to null/false.
func LoadFeatureIndex(path string, logger *zap.Logger) (*FeatureIndex, error) {
	index := &FeatureIndex{annotations: map[string]*Annotation{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("No LLM annotation file, joined fields default to null",
				zap.String("file", path))
			return index, nil
		}
		return nil, fmt.Errorf("failed to read annotation file: %w", err)
	}

	var file annotationFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse annotation file: %w", err)
	}
	if file.Permits != nil {
		index.annotations = file.Permits
	}

	logger.Info("LLM annotations loaded",
		zap.String("file", path),
		zap.Int("permits", len(index.annotations)))
	return index, nil
}

// Lookup returns the annotation for a permit, or nil when none exists
func (f *FeatureIndex) Lookup(permitNumber string) *Annotation {
	return f.annotations[permitNumber]
}

// Len reports the number of indexed annotations
func (f *FeatureIndex) Len() int {
	return len(f.annotations)
}
