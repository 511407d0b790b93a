package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// EnergyType is one of the fixed energy-infrastructure categories
type EnergyType string

const (
	EnergySolar        EnergyType = "solar"
	EnergyBattery      EnergyType = "battery"
	EnergyEVCharger    EnergyType = "ev_charger"
	EnergyPanelUpgrade EnergyType = "panel_upgrade"
	EnergyGenerator    EnergyType = "generator"
	EnergyHVAC         EnergyType = "hvac"
)

// classifierPriority is the ordered first-match-wins rule list. The order is
// a deliberate tie-break policy: a description mentioning both "solar" and
// "generator" classifies as solar. Reordering changes historical results.
var classifierPriority = []struct {
	Type     EnergyType
	Keywords []string
}{
	{EnergySolar, []string{"solar", "photovoltaic", "pv system"}},
	{EnergyBattery, []string{"battery", "energy storage", "powerwall"}},
	{EnergyEVCharger, []string{"ev charger", "electric vehicle", "charging station"}},
	{EnergyPanelUpgrade, []string{"panel upgrade", "electrical panel", "service upgrade"}},
	{EnergyGenerator, []string{"generator", "backup power"}},
	{EnergyHVAC, []string{"hvac", "heat pump", "air conditioning"}},
}

// ClassifyEnergyType maps a free-text work description to an energy category.
// Matching is case-insensitive substring; the first matching rule wins. An
// empty description yields no category.
func ClassifyEnergyType(description string) (EnergyType, bool) {
	if description == "" {
		return "", false
	}
	desc := strings.ToLower(description)
	for _, rule := range classifierPriority {
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, kw) {
				return rule.Type, true
			}
		}
	}
	return "", false
}

// Solar capacity patterns, tried in order. The watt form is converted to kW.
var solarCapacityPatterns = []struct {
	re    *regexp.Regexp
	watts bool
}{
	{regexp.MustCompile(`(\d+\.?\d*)\s*kw`), false},        // "10.5 kW", "10kW"
	{regexp.MustCompile(`(\d+\.?\d*)\s*kilowatt`), false},  // "10 kilowatts"
	{regexp.MustCompile(`(\d+,\d+)\s*watt`), true},         // "10,500 watt"
}

// ExtractSolarCapacity pulls a solar system size in kW out of a work
// description. Values outside the 0.5-100 kW residential range are rejected
// as misparses (permit text routinely contains unrelated numbers).
func ExtractSolarCapacity(description string) (float64, bool) {
	if description == "" {
		return 0, false
	}
	desc := strings.ToLower(description)

	for _, pattern := range solarCapacityPatterns {
		match := pattern.re.FindStringSubmatch(desc)
		if match == nil {
			continue
		}
		value := strings.ReplaceAll(match[1], ",", "")
		kw, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		if pattern.watts {
			kw /= 1000
		}
		if kw >= 0.5 && kw <= 100 {
			return math.Round(kw*100) / 100, true
		}
	}
	return 0, false
}
