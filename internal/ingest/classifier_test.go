package ingest

import (
	"testing"
)

// TestClassifyEnergyType tests the first-match-wins energy classification
func TestClassifyEnergyType(t *testing.T) {
	t.Run("PriorityOrder", func(t *testing.T) {
		// Solar must beat generator when both terms appear
		energyType, ok := ClassifyEnergyType("Install 8.5kW rooftop solar PV with Generac generator")
		if !ok {
			t.Fatal("Expected a classification")
		}
		if energyType != EnergySolar {
			t.Errorf("Expected solar, got %s", energyType)
		}

		// Battery beats panel upgrade
		energyType, _ = ClassifyEnergyType("Powerwall install with electrical panel work")
		if energyType != EnergyBattery {
			t.Errorf("Expected battery, got %s", energyType)
		}
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		energyType, ok := ClassifyEnergyType("NEW PHOTOVOLTAIC SYSTEM ON ROOF")
		if !ok || energyType != EnergySolar {
			t.Errorf("Expected solar, got %q (ok=%v)", energyType, ok)
		}
	})

	t.Run("EveryCategory", func(t *testing.T) {
		cases := map[string]EnergyType{
			"pv system on garage":              EnergySolar,
			"energy storage system":            EnergyBattery,
			"install ev charger in carport":    EnergyEVCharger,
			"200A service upgrade":             EnergyPanelUpgrade,
			"standby generator w/ transfer sw": EnergyGenerator,
			"replace heat pump":                EnergyHVAC,
		}
		for desc, want := range cases {
			got, ok := ClassifyEnergyType(desc)
			if !ok || got != want {
				t.Errorf("classify(%q) = %q (ok=%v), want %q", desc, got, ok, want)
			}
		}
	})

	t.Run("NoMatch", func(t *testing.T) {
		if _, ok := ClassifyEnergyType("kitchen remodel with new cabinets"); ok {
			t.Error("Non-energy description should not classify")
		}
	})

	t.Run("EmptyDescription", func(t *testing.T) {
		if _, ok := ClassifyEnergyType(""); ok {
			t.Error("Empty description should not classify")
		}
	})
}

// TestExtractSolarCapacity tests kW extraction from permit text
func TestExtractSolarCapacity(t *testing.T) {
	t.Run("KilowattForms", func(t *testing.T) {
		cases := map[string]float64{
			"install 8.5kW rooftop solar":    8.5,
			"10 kw photovoltaic system":      10,
			"solar array, 12.25 kilowatts":   12.25,
			"roof mount pv - 10,500 watt":    10.5,
		}
		for desc, want := range cases {
			got, ok := ExtractSolarCapacity(desc)
			if !ok {
				t.Errorf("ExtractSolarCapacity(%q): no match", desc)
				continue
			}
			if got != want {
				t.Errorf("ExtractSolarCapacity(%q) = %v, want %v", desc, got, want)
			}
		}
	})

	t.Run("RejectsOutOfRange", func(t *testing.T) {
		// Unrelated numbers routinely precede "kw" in permit text
		if kw, ok := ExtractSolarCapacity("solar farm 500 kw commercial"); ok {
			t.Errorf("Expected out-of-range rejection, got %v", kw)
		}
		if _, ok := ExtractSolarCapacity("0.1 kw trickle system"); ok {
			t.Error("Expected below-range rejection")
		}
	})

	t.Run("NoCapacity", func(t *testing.T) {
		if _, ok := ExtractSolarCapacity("install solar panels on roof"); ok {
			t.Error("Expected no capacity without a number")
		}
		if _, ok := ExtractSolarCapacity(""); ok {
			t.Error("Expected no capacity for empty description")
		}
	})
}
