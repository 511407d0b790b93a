package ingest

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"
)

// rowIterator streams decoded rows from one permit extract. Next returns
// io.EOF at end of input. A malformed row is returned as a best-effort
// partial rowMap rather than an error, so one bad line never discards the
// progress of a multi-million-row run.
type rowIterator struct {
	next    func() (rowMap, error)
	closers []io.Closer

	decodeFailures int64
}

func (it *rowIterator) Next() (rowMap, error) {
	return it.next()
}

// DecodeFailures reports how many rows were returned in degraded, partial form
func (it *rowIterator) DecodeFailures() int64 {
	return it.decodeFailures
}

func (it *rowIterator) Close() error {
	var firstErr error
	for i := len(it.closers) - 1; i >= 0; i-- {
		if err := it.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openRows opens the permit extract at path, detects its format and returns
// a streaming row iterator. Only a failure to open or prepare the file is an
// error; per-row problems are handled inside the iterator.
func openRows(path string, logger *zap.Logger) (*rowIterator, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open permit extract: %w", err)
	}

	it := &rowIterator{closers: []io.Closer{file}}

	var reader io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		it.closers = append(it.closers, gz)
		reader = gz
	}

	format := DetectFileFormat(path)
	logger.Info("Detected permit extract format",
		zap.String("file", path),
		zap.String("format", string(format)))

	switch format {
	case FormatCSV:
		if err := it.initCSV(reader, logger); err != nil {
			it.Close()
			return nil, err
		}
	case FormatParquet:
		it.initParquet(file, logger)
	case FormatJSON:
		it.initJSON(reader, logger)
	}

	return it, nil
}

// initCSV wires the iterator to a header-mapped CSV stream. LazyQuotes and
// FieldsPerRecord=-1 keep quoting irregularities and ragged rows from
// aborting the stream; short rows yield partial records.
func (it *rowIterator) initCSV(r io.Reader, logger *zap.Logger) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make([]string, len(header))
	copy(columns, header)

	logger.Info("CSV header detected", zap.Strings("columns", columns))

	it.next = func() (rowMap, error) {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				// Attribute the malformed line an empty partial record; the
				// pipeline fills in a synthetic permit number downstream.
				it.decodeFailures++
				logger.Warn("Malformed CSV row", zap.Error(err))
				return rowMap{}, nil
			}
			return nil, err
		}

		row := make(rowMap, len(columns))
		for i, col := range columns {
			if i >= len(record) {
				break // ragged row, remaining fields stay null
			}
			row[col] = record[i]
		}
		if len(record) < len(columns) {
			it.decodeFailures++
		}
		return row, nil
	}
	return nil
}

// parquetPermit mirrors the pipeline output columns for Parquet extracts
type parquetPermit struct {
	PermitNum   string  `parquet:"permit_num,optional"`
	Address     string  `parquet:"original_address_1,optional"`
	ZipCode     string  `parquet:"zip_code,optional"`
	Latitude    float64 `parquet:"latitude,optional"`
	Longitude   float64 `parquet:"longitude,optional"`
	Cluster     int64   `parquet:"f_cluster,optional"`
	Description string  `parquet:"description,optional"`
	Valuation   float64 `parquet:"total_job_valuation,optional"`
	IssuedDate  string  `parquet:"issued_date,optional"`
}

func (it *rowIterator) initParquet(file *os.File, logger *zap.Logger) {
	reader := parquet.NewReader(file)
	it.closers = append(it.closers, reader)

	it.next = func() (rowMap, error) {
		var rec parquetPermit
		err := reader.Read(&rec)
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			it.decodeFailures++
			logger.Warn("Failed to read Parquet record", zap.Error(err))
			return rowMap{}, nil
		}

		row := rowMap{
			"permit_num":         rec.PermitNum,
			"original_address_1": rec.Address,
			"zip_code":           rec.ZipCode,
			"description":        rec.Description,
			"issued_date":        rec.IssuedDate,
		}
		if rec.Latitude != 0 {
			row["latitude"] = strconv.FormatFloat(rec.Latitude, 'f', -1, 64)
		}
		if rec.Longitude != 0 {
			row["longitude"] = strconv.FormatFloat(rec.Longitude, 'f', -1, 64)
		}
		if rec.Cluster != 0 {
			row["f_cluster"] = strconv.FormatInt(rec.Cluster, 10)
		}
		if rec.Valuation != 0 {
			row["total_job_valuation"] = strconv.FormatFloat(rec.Valuation, 'f', -1, 64)
		}
		return row, nil
	}
}

// initJSON wires the iterator to a stream of JSON objects (one per line or
// concatenated), each decoded into a loose field map
func (it *rowIterator) initJSON(r io.Reader, logger *zap.Logger) {
	decoder := json.NewDecoder(r)

	it.next = func() (rowMap, error) {
		var record map[string]interface{}
		err := decoder.Decode(&record)
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			it.decodeFailures++
			logger.Warn("Failed to read JSON record", zap.Error(err))
			return nil, io.EOF // a corrupt JSON stream cannot be resynced
		}

		row := make(rowMap, len(record))
		for key, value := range record {
			switch v := value.(type) {
			case nil:
				// absent
			case string:
				row[key] = v
			case float64:
				row[key] = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				row[key] = strconv.FormatBool(v)
			default:
				row[key] = fmt.Sprint(v)
			}
		}
		return row, nil
	}
}
