package ingest

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func drainRows(t *testing.T, it *rowIterator) []rowMap {
	t.Helper()
	var rows []rowMap
	for {
		row, err := it.Next()
		if err == io.EOF {
			return rows
		}
		if err != nil {
			t.Fatalf("Unexpected stream error: %v", err)
		}
		rows = append(rows, row)
	}
}

// TestDetectFileFormat tests extension-based format detection
func TestDetectFileFormat(t *testing.T) {
	cases := map[string]FileFormat{
		"permits.csv":     FormatCSV,
		"permits.csv.gz":  FormatCSV,
		"permits.parquet": FormatParquet,
		"permits.json":    FormatJSON,
		"permits.jsonl":   FormatJSON,
		"permits.dat":     FormatCSV,
	}
	for name, want := range cases {
		if got := DetectFileFormat(name); got != want {
			t.Errorf("DetectFileFormat(%q) = %q, want %q", name, got, want)
		}
	}
}

// TestOpenRowsCSV tests header-mapped CSV streaming
func TestOpenRowsCSV(t *testing.T) {
	logger := zap.NewNop()

	t.Run("HeaderMapping", func(t *testing.T) {
		path := writeTempFile(t, "permits.csv",
			"permit_num,zip_code,description\nP-1,94110,new roof\nP-2,94117,solar install\n")

		it, err := openRows(path, logger)
		if err != nil {
			t.Fatalf("openRows failed: %v", err)
		}
		defer it.Close()

		rows := drainRows(t, it)
		if len(rows) != 2 {
			t.Fatalf("Expected 2 rows, got %d", len(rows))
		}
		if rows[0]["permit_num"] != "P-1" || rows[0]["zip_code"] != "94110" {
			t.Errorf("Unexpected first row: %v", rows[0])
		}
		if rows[1]["description"] != "solar install" {
			t.Errorf("Unexpected second row: %v", rows[1])
		}
	})

	t.Run("RaggedRowIsPartial", func(t *testing.T) {
		path := writeTempFile(t, "permits.csv",
			"permit_num,zip_code,description\nP-1,94110\nP-2,94117,full row,extra\n")

		it, err := openRows(path, logger)
		if err != nil {
			t.Fatalf("openRows failed: %v", err)
		}
		defer it.Close()

		rows := drainRows(t, it)
		if len(rows) != 2 {
			t.Fatalf("Expected 2 rows, got %d", len(rows))
		}
		if _, present := rows[0]["description"]; present {
			t.Error("Short row should leave trailing field absent")
		}
		if rows[0]["zip_code"] != "94110" {
			t.Errorf("Short row lost a present field: %v", rows[0])
		}
		if rows[1]["description"] != "full row" {
			t.Errorf("Long row mismapped: %v", rows[1])
		}
		if it.DecodeFailures() != 1 {
			t.Errorf("Expected 1 decode failure, got %d", it.DecodeFailures())
		}
	})

	t.Run("LazyQuotes", func(t *testing.T) {
		path := writeTempFile(t, "permits.csv",
			"permit_num,description\nP-1,install 20\" duct\n")

		it, err := openRows(path, logger)
		if err != nil {
			t.Fatalf("openRows failed: %v", err)
		}
		defer it.Close()

		rows := drainRows(t, it)
		if len(rows) != 1 {
			t.Fatalf("Expected 1 row, got %d", len(rows))
		}
	})

	t.Run("MissingFileIsError", func(t *testing.T) {
		if _, err := openRows(filepath.Join(t.TempDir(), "absent.csv"), logger); err == nil {
			t.Fatal("Expected error for missing extract")
		}
	})
}

// TestOpenRowsGzip tests transparent gzip decompression
func TestOpenRowsGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permits.csv.gz")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create gz file: %v", err)
	}
	gz := gzip.NewWriter(file)
	if _, err := gz.Write([]byte("permit_num,zip_code\nP-1,94110\n")); err != nil {
		t.Fatalf("Failed to write gz content: %v", err)
	}
	gz.Close()
	file.Close()

	it, err := openRows(path, zap.NewNop())
	if err != nil {
		t.Fatalf("openRows failed: %v", err)
	}
	defer it.Close()

	rows := drainRows(t, it)
	if len(rows) != 1 || rows[0]["permit_num"] != "P-1" {
		t.Fatalf("Unexpected rows from gzip stream: %v", rows)
	}
}

// TestOpenRowsJSON tests the JSON-lines decode path
func TestOpenRowsJSON(t *testing.T) {
	path := writeTempFile(t, "permits.json",
		`{"permit_num":"P-1","zip_code":"94110","f_cluster":3,"latitude":37.76}`+"\n"+
			`{"permit_num":"P-2","description":"solar install","is_new":true}`+"\n")

	it, err := openRows(path, zap.NewNop())
	if err != nil {
		t.Fatalf("openRows failed: %v", err)
	}
	defer it.Close()

	rows := drainRows(t, it)
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0]["f_cluster"] != "3" {
		t.Errorf("Numeric field not stringified: %v", rows[0])
	}
	if rows[0]["latitude"] != "37.76" {
		t.Errorf("Float field not stringified: %v", rows[0])
	}
	if rows[1]["is_new"] != "true" {
		t.Errorf("Bool field not stringified: %v", rows[1])
	}
}
