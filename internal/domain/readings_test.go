package domain_test

import (
	"testing"

	"tplc/internal/domain"
)

func TestParsePowerReading(t *testing.T) {
	t.Run("milli-unit keys", func(t *testing.T) {
		reading, err := domain.ParsePowerReading([]byte(
			`{"voltage_mv":121500,"current_ma":310,"power_mw":36500,"total_wh":1240,"err_code":0}`))
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}
		if reading.VoltageMV != 121500 {
			t.Errorf("voltage: got %v, want 121500", reading.VoltageMV)
		}
		if reading.PowerMW != 36500 {
			t.Errorf("power: got %v, want 36500", reading.PowerMW)
		}
	})

	t.Run("legacy keys", func(t *testing.T) {
		reading, err := domain.ParsePowerReading([]byte(
			`{"voltage":121.5,"current":0.31,"power":36.5,"total":1.24}`))
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}
		if reading.VoltageMV != 121.5 {
			t.Errorf("voltage: got %v, want 121.5", reading.VoltageMV)
		}
		if reading.TotalWH != 1.24 {
			t.Errorf("total: got %v, want 1.24", reading.TotalWH)
		}
	})

	t.Run("not an object", func(t *testing.T) {
		if _, err := domain.ParsePowerReading([]byte(`[1,2,3]`)); err == nil {
			t.Error("expected an error for non-object payload")
		}
	})
}
