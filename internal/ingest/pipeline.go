package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/permitatlas/permit-atlas/internal/store"
)

// PermitSink receives assembled permit batches. *store.Store satisfies it;
// tests substitute a fake.
type PermitSink interface {
	UpsertPermits(ctx context.Context, permits []*store.Permit) (*store.BatchResult, error)
}

// Pipeline streams the permit extract through decode, classification and the
// feature join into batched upserts
type Pipeline struct {
	sink     PermitSink
	config   *Config
	logger   *zap.Logger
	progress *rate.Limiter
}

// NewPipeline creates a new permit ingestion pipeline
func NewPipeline(sink PermitSink, config *Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		sink:   sink,
		config: config,
		logger: logger,
		// Throttles per-batch progress lines so large runs stay readable
		progress: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// Run ingests the configured permit extract. Row-decode and batch-write
// failures are logged and counted but never abort the run; only an
// unopenable extract or a broken stream is an error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	p.logger.Info("Starting permit ingestion",
		zap.String("file", p.config.PermitsFile),
		zap.Int("batch_size", p.config.BatchSize))

	features, err := LoadFeatureIndex(p.config.LLMCategoriesFile, p.logger)
	if err != nil {
		// Degrade rather than abort: joined fields stay null/false
		p.logger.Warn("Ignoring unreadable annotation file", zap.Error(err))
		features = &FeatureIndex{annotations: map[string]*Annotation{}}
	}

	rows, err := openRows(p.config.PermitsFile, p.logger)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batchSize := p.config.BatchSize
	if batchSize <= 0 {
		batchSize = 2000
	}
	if batchSize > store.MaxPermitBatchRows {
		p.logger.Warn("Capping batch size at the statement parameter ceiling",
			zap.Int("configured", batchSize),
			zap.Int("max", store.MaxPermitBatchRows))
		batchSize = store.MaxPermitBatchRows
	}

	progressEvery := int64(p.config.ProgressEveryRows)
	if progressEvery <= 0 {
		progressEvery = 100000
	}
	nextProgress := progressEvery

	runUnix := time.Now().Unix()
	var ordinal int64

	// Rows are pulled only between batch writes: while a write is in flight
	// nothing reads from the file, bounding memory to a small multiple of
	// the batch size regardless of input size.
	readBatch := func() ([]*store.Permit, error) {
		batch := make([]*store.Permit, 0, batchSize)
		for len(batch) < batchSize {
			row, err := rows.Next()
			if err == io.EOF {
				return batch, nil
			}
			if err != nil {
				return batch, err
			}
			batch = append(batch, p.buildPermit(row, ordinal, runUnix, features))
			ordinal++
		}
		return batch, nil
	}

	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		batch, readErr := readBatch()
		if len(batch) > 0 {
			p.writeBatch(ctx, batch, ordinal, result)
		}
		if readErr != nil {
			result.DecodeFailures = rows.DecodeFailures()
			result.Duration = time.Since(start)
			return result, fmt.Errorf("permit stream failed after %d rows: %w", result.TotalRecords, readErr)
		}
		if len(batch) < batchSize {
			break // end of stream, trailing partial batch already flushed
		}

		if result.TotalRecords >= nextProgress && p.progress.Allow() {
			nextProgress = result.TotalRecords + progressEvery
			elapsed := time.Since(start)
			p.logger.Info("Ingestion progress",
				zap.Int64("records_read", result.TotalRecords),
				zap.Int64("written", result.Written),
				zap.Int64("failed_rows", result.FailedRows),
				zap.Float64("rate_per_sec", float64(result.TotalRecords)/elapsed.Seconds()),
				zap.Duration("elapsed", elapsed))
		}
	}

	result.DecodeFailures = rows.DecodeFailures()
	result.Duration = time.Since(start)

	p.logger.Info("Permit ingestion completed",
		zap.Int64("total_records", result.TotalRecords),
		zap.Int64("written", result.Written),
		zap.Int64("decode_failures", result.DecodeFailures),
		zap.Int64("failed_batches", result.FailedBatches),
		zap.Int64("failed_rows", result.FailedRows),
		zap.Duration("duration", result.Duration),
		zap.Duration("database_time", result.DatabaseTime))

	return result, nil
}

// writeBatch upserts one batch; a database failure drops the batch, logs its
// row-offset range and lets the stream continue
func (p *Pipeline) writeBatch(ctx context.Context, batch []*store.Permit, nextOrdinal int64, result *Result) {
	dbStart := time.Now()
	batchResult, err := p.sink.UpsertPermits(ctx, batch)
	result.DatabaseTime += time.Since(dbStart)
	result.TotalRecords += int64(len(batch))

	if err != nil {
		result.FailedBatches++
		result.FailedRows += int64(len(batch))
		p.logger.Error("Dropping failed permit batch",
			zap.Int64("first_row", nextOrdinal-int64(len(batch))),
			zap.Int64("last_row", nextOrdinal-1),
			zap.Int("rows", len(batch)),
			zap.Error(err))
		return
	}

	result.Written += batchResult.Written
}

// buildPermit assembles one store row from a decoded field map: classify the
// description, join the optional annotation, normalize identifiers
func (p *Pipeline) buildPermit(row rowMap, ordinal, runUnix int64, features *FeatureIndex) *store.Permit {
	description := row["description"]

	permitNum := strings.TrimSpace(row["permit_num"])
	if permitNum == "" {
		// Unique within a run, intentionally unstable across runs
		permitNum = fmt.Sprintf("PERMIT_%d_%d", ordinal, runUnix)
	}

	zip := strings.TrimSuffix(strings.TrimSpace(row["zip_code"]), ".0")
	if zip == "" {
		zip = "UNKNOWN"
	}

	permit := &store.Permit{
		PermitNumber: permitNum,
		ZipCode:      zip,
	}

	if addr := strings.TrimSpace(row["original_address_1"]); addr != "" {
		permit.Address = sql.NullString{String: addr, Valid: true}
	}
	if lat, err := strconv.ParseFloat(row["latitude"], 64); err == nil && row["latitude"] != "" {
		permit.Latitude = sql.NullFloat64{Float64: lat, Valid: true}
	}
	if lon, err := strconv.ParseFloat(row["longitude"], 64); err == nil && row["longitude"] != "" {
		permit.Longitude = sql.NullFloat64{Float64: lon, Valid: true}
	}
	if clusterID, err := strconv.ParseInt(row["f_cluster"], 10, 64); err == nil && row["f_cluster"] != "" {
		permit.ClusterID = sql.NullInt64{Int64: clusterID, Valid: true}
	}
	if valuation, err := strconv.ParseFloat(row["total_job_valuation"], 64); err == nil && row["total_job_valuation"] != "" {
		permit.Valuation = sql.NullFloat64{Float64: valuation, Valid: true}
	}
	if issued := strings.TrimSpace(row["issued_date"]); issued != "" {
		permit.IssueDate = sql.NullString{String: issued, Valid: true}
	}

	// Classification runs over the full description; storage is truncated
	if energyType, ok := ClassifyEnergyType(description); ok {
		permit.IsEnergyPermit = true
		permit.EnergyType = sql.NullString{String: string(energyType), Valid: true}
		if energyType == EnergySolar {
			if kw, ok := ExtractSolarCapacity(description); ok {
				permit.SolarCapacityKW = sql.NullFloat64{Float64: kw, Valid: true}
			}
		}
	}

	if description != "" {
		if runes := []rune(description); p.config.MaxDescriptionLen > 0 && len(runes) > p.config.MaxDescriptionLen {
			description = string(runes[:p.config.MaxDescriptionLen])
		}
		permit.WorkDescription = sql.NullString{String: description, Valid: true}
	}

	if ann := features.Lookup(permitNum); ann != nil {
		if ann.ProjectType != "" {
			permit.ProjectType = sql.NullString{String: ann.ProjectType, Valid: true}
		}
		if ann.BuildingType != "" {
			permit.BuildingType = sql.NullString{String: ann.BuildingType, Valid: true}
		}
		if ann.Scale != "" {
			permit.Scale = sql.NullString{String: ann.Scale, Valid: true}
		}
		if ann.Trade != "" {
			permit.Trade = sql.NullString{String: ann.Trade, Valid: true}
		}
		permit.IsGreen = bool(ann.IsGreen)
	}

	return permit
}
