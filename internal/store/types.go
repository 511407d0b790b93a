package store

import (
	"database/sql"
	"time"
)

// Permit represents one municipal construction/work authorization row
type Permit struct {
	PermitNumber    string          `db:"permit_number" json:"permit_number"`
	Address         sql.NullString  `db:"address" json:"address"`
	ZipCode         string          `db:"zip_code" json:"zip_code"`
	Latitude        sql.NullFloat64 `db:"latitude" json:"latitude"`
	Longitude       sql.NullFloat64 `db:"longitude" json:"longitude"`
	ClusterID       sql.NullInt64   `db:"cluster_id" json:"cluster_id"`
	WorkDescription sql.NullString  `db:"work_description" json:"work_description"`
	IsEnergyPermit  bool            `db:"is_energy_permit" json:"is_energy_permit"`
	EnergyType      sql.NullString  `db:"energy_type" json:"energy_type"`
	SolarCapacityKW sql.NullFloat64 `db:"solar_capacity_kw" json:"solar_capacity_kw"`
	Valuation       sql.NullFloat64 `db:"valuation" json:"valuation"`
	IssueDate       sql.NullString  `db:"issue_date" json:"issue_date"`
	ProjectType     sql.NullString  `db:"project_type" json:"project_type"`
	BuildingType    sql.NullString  `db:"building_type" json:"building_type"`
	Scale           sql.NullString  `db:"scale" json:"scale"`
	Trade           sql.NullString  `db:"trade" json:"trade"`
	IsGreen         bool            `db:"is_green" json:"is_green"`
}

// Cluster represents one ML-derived permit category
type Cluster struct {
	ID          int64          `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description sql.NullString `db:"description" json:"description"`
	Count       int64          `db:"count" json:"count"`
	Percentage  float64        `db:"percentage" json:"percentage"`
	Color       string         `db:"color" json:"color"`
}

// ClusterKeyword is a ranked term characterizing a cluster
type ClusterKeyword struct {
	ClusterID  int64   `db:"cluster_id" json:"cluster_id"`
	Keyword    string  `db:"keyword" json:"keyword"`
	Prevalence float64 `db:"prevalence" json:"prevalence"`
	Rank       int     `db:"rank" json:"rank"`
}

// ZipEnergyStats holds aggregated energy-permit counts for one ZIP code
type ZipEnergyStats struct {
	ZipCode              string  `db:"zip_code" json:"zip_code"`
	TotalEnergyPermits   int64   `db:"total_energy_permits" json:"total_energy_permits"`
	Solar                int64   `db:"solar" json:"solar"`
	Battery              int64   `db:"battery" json:"battery"`
	EVCharger            int64   `db:"ev_charger" json:"ev_charger"`
	Generator            int64   `db:"generator" json:"generator"`
	PanelUpgrade         int64   `db:"panel_upgrade" json:"panel_upgrade"`
	HVAC                 int64   `db:"hvac" json:"hvac"`
	TotalSolarCapacityKW float64 `db:"total_solar_capacity_kw" json:"total_solar_capacity_kw"`
	AvgSolarCapacityKW   float64 `db:"avg_solar_capacity_kw" json:"avg_solar_capacity_kw"`
}

// CacheMetadata is the freshness record for one logical dataset
type CacheMetadata struct {
	Key         string    `db:"key" json:"key"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
	RecordCount int64     `db:"record_count" json:"record_count"`
	SourceFile  string    `db:"source_file" json:"source_file"`
}

// BatchResult represents the result of a batch upsert operation
type BatchResult struct {
	Written  int64         `json:"written"`
	Failed   int64         `json:"failed"`
	Duration time.Duration `json:"duration"`
}

const (
	// maxParamsPerStatement is the Postgres bind-parameter ceiling per statement.
	maxParamsPerStatement = 65535

	// permitColumns is the number of bound columns per permit row. Recompute
	// MaxPermitBatchRows if the upsert column list changes.
	permitColumns = 17

	// MaxPermitBatchRows bounds a single permit upsert so that
	// rows*permitColumns never exceeds the parameter ceiling.
	MaxPermitBatchRows = maxParamsPerStatement / permitColumns
)
