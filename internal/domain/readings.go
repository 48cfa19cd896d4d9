package domain

import "encoding/json"

// PowerReading is a realtime emeter sample. Newer firmware reports the
// *_mv/*_ma/*_mw/*_wh keys, older firmware the bare names in base units;
// both decode into the same struct.
type PowerReading struct {
	VoltageMV float64 `json:"voltage_mv"`
	CurrentMA float64 `json:"current_ma"`
	PowerMW   float64 `json:"power_mw"`
	TotalWH   float64 `json:"total_wh"`
}

// ParsePowerReading decodes a realtime emeter payload, falling back to
// the legacy field names when the milli-unit keys are absent.
func ParsePowerReading(data []byte) (PowerReading, error) {
	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return PowerReading{}, err
	}
	return PowerReading{
		VoltageMV: numField(raw, "voltage_mv", "voltage"),
		CurrentMA: numField(raw, "current_ma", "current"),
		PowerMW:   numField(raw, "power_mw", "power"),
		TotalWH:   numField(raw, "total_wh", "total"),
	}, nil
}

func numField(m map[string]json.Number, key, legacy string) float64 {
	if v, ok := m[key]; ok {
		f, _ := v.Float64()
		return f
	}
	if v, ok := m[legacy]; ok {
		f, _ := v.Float64()
		return f
	}
	return 0
}

// DayStat is one day's energy total from get_daystat.
type DayStat struct {
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Day      int     `json:"day"`
	EnergyWH float64 `json:"energy_wh"`
}

// MonthStat is one month's energy total from get_monthstat.
type MonthStat struct {
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	EnergyWH float64 `json:"energy_wh"`
}

// LightState mirrors the lighting service's state object.
type LightState struct {
	OnOff      int    `json:"on_off"`
	Mode       string `json:"mode,omitempty"`
	Hue        int    `json:"hue"`
	Saturation int    `json:"saturation"`
	ColorTemp  int    `json:"color_temp"`
	Brightness int    `json:"brightness"`
}

// NetInfo is the station info reported by netif get_stainfo.
type NetInfo struct {
	SSID    string `json:"ssid"`
	KeyType int    `json:"key_type"`
	RSSI    int    `json:"rssi"`
}

// DeviceTime is the device's local clock from time get_time.
type DeviceTime struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	MDay  int `json:"mday"`
	Hour  int `json:"hour"`
	Min   int `json:"min"`
	Sec   int `json:"sec"`
}

// ChildInfo describes one outlet reported in a parent's sysinfo.
type ChildInfo struct {
	ID    string `json:"id"`
	Alias string `json:"alias"`
	State int    `json:"state"`
}
