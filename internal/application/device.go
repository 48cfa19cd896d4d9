package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"tplc/internal/domain"
)

const lightingService = "smartlife.iot.smartbulb.lightingservice"

// Device is the capability-aware facade over one resolved device. Every
// operation is a single passthrough call (toggle reads then writes) and
// unsupported operations fail before any network traffic.
type Device struct {
	session *Session
	info    domain.ResolvedDevice
	logger  *slog.Logger
}

func NewDevice(session *Session, info domain.ResolvedDevice, logger *slog.Logger) *Device {
	return &Device{session: session, info: info, logger: logger}
}

func (d *Device) Info() domain.ResolvedDevice {
	return d.info
}

func (d *Device) Alias() string {
	return d.info.Alias
}

// passthrough wraps args in the service/command envelope the firmware
// expects and unwraps the matching branch of the reply. Child devices
// get the outlet context injected and their slice of the reply plucked
// out of the children array.
func (d *Device) passthrough(ctx context.Context, service, command string, args any) (json.RawMessage, error) {
	request := map[string]any{service: map[string]any{command: args}}

	response, err := d.session.Passthrough(ctx, d.info.Provider, d.info.AppServerURL, d.info.DeviceID, d.info.ChildID, request)
	if err != nil {
		return nil, err
	}

	var services map[string]json.RawMessage
	if err := json.Unmarshal(response, &services); err != nil {
		return nil, &domain.ProtocolError{Message: "decoding passthrough response", Err: err}
	}
	var commands map[string]json.RawMessage
	if err := json.Unmarshal(services[service], &commands); err != nil {
		return nil, &domain.ProtocolError{Message: fmt.Sprintf("response missing %s", service), Err: err}
	}
	sub, ok := commands[command]
	if !ok {
		return nil, &domain.ProtocolError{Message: fmt.Sprintf("response missing %s.%s", service, command)}
	}

	if d.info.ChildID != "" {
		if child, ok := pluckChild(sub, d.info.ChildID); ok {
			return child, nil
		}
	}
	return sub, nil
}

// pluckChild finds the matching outlet inside a children array, when the
// firmware answers for the whole parent.
func pluckChild(sub json.RawMessage, childID string) (json.RawMessage, bool) {
	var wrapper struct {
		Children []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(sub, &wrapper); err != nil || wrapper.Children == nil {
		return nil, false
	}
	for _, raw := range wrapper.Children {
		var ident struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &ident); err == nil && ident.ID == childID {
			return raw, true
		}
	}
	return nil, false
}

// -- Power --

func (d *Device) PowerOn(ctx context.Context) error {
	return d.setPower(ctx, 1)
}

func (d *Device) PowerOff(ctx context.Context) error {
	return d.setPower(ctx, 0)
}

func (d *Device) setPower(ctx context.Context, state int) error {
	var err error
	if d.info.Type.IsLight() {
		_, err = d.passthrough(ctx, lightingService, "transition_light_state", map[string]any{"on_off": state})
	} else {
		_, err = d.passthrough(ctx, "system", "set_relay_state", map[string]any{"state": state})
	}
	return err
}

// Toggle reads the power state and writes the opposite, returning the
// new state.
func (d *Device) Toggle(ctx context.Context) (bool, error) {
	on, err := d.IsOn(ctx)
	if err != nil {
		return false, err
	}
	if on {
		return false, d.PowerOff(ctx)
	}
	return true, d.PowerOn(ctx)
}

// IsOn reads the relay/light state from sysinfo. Lights report through
// light_state, child outlets through their state field.
func (d *Device) IsOn(ctx context.Context) (bool, error) {
	info, err := d.SysInfo(ctx)
	if err != nil {
		return false, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(info, &fields); err != nil {
		return false, &domain.ProtocolError{Message: "decoding sysinfo", Err: err}
	}

	readInt := func(key string) (int, bool) {
		raw, ok := fields[key]
		if !ok {
			return 0, false
		}
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, false
		}
		return n, true
	}

	if d.info.Type.IsLight() {
		var light struct {
			OnOff *int `json:"on_off"`
		}
		if raw, ok := fields["light_state"]; ok {
			if err := json.Unmarshal(raw, &light); err == nil && light.OnOff != nil {
				return *light.OnOff == 1, nil
			}
		}
	} else if d.info.ChildID != "" {
		if n, ok := readInt("state"); ok {
			return n == 1, nil
		}
	} else if n, ok := readInt("relay_state"); ok {
		return n == 1, nil
	}

	return false, &domain.ProtocolError{Message: "could not determine device power state"}
}

// -- System --

func (d *Device) SysInfo(ctx context.Context) (json.RawMessage, error) {
	return d.passthrough(ctx, "system", "get_sysinfo", nil)
}

// SetLED controls the status LED. The wire flag is inverted: led_off=1
// turns the LED off.
func (d *Device) SetLED(ctx context.Context, on bool) error {
	ledOff := 1
	if on {
		ledOff = 0
	}
	_, err := d.passthrough(ctx, "system", "set_led_off", map[string]any{"off": ledOff})
	return err
}

// Children lists the outlets of a multi-outlet parent; empty for
// everything else.
func (d *Device) Children(ctx context.Context) ([]domain.ChildInfo, error) {
	if !d.info.Type.HasChildren() {
		return nil, nil
	}
	info, err := d.SysInfo(ctx)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Children []domain.ChildInfo `json:"children"`
	}
	if err := json.Unmarshal(info, &wrapper); err != nil {
		return nil, &domain.ProtocolError{Message: "decoding children", Err: err}
	}
	return wrapper.Children, nil
}

// -- Energy --

func (d *Device) EnergyRealtime(ctx context.Context) (domain.PowerReading, error) {
	if !d.info.Type.HasEmeter() {
		return domain.PowerReading{}, &domain.UnsupportedError{Operation: "energy monitoring", Type: d.info.Type}
	}
	resp, err := d.passthrough(ctx, "emeter", "get_realtime", nil)
	if err != nil {
		return domain.PowerReading{}, err
	}
	reading, err := domain.ParsePowerReading(resp)
	if err != nil {
		return domain.PowerReading{}, &domain.ProtocolError{Message: "decoding realtime reading", Err: err}
	}
	return reading, nil
}

func (d *Device) EnergyDayStats(ctx context.Context, year, month int) ([]domain.DayStat, error) {
	if !d.info.Type.HasEmeter() {
		return nil, &domain.UnsupportedError{Operation: "energy monitoring", Type: d.info.Type}
	}
	resp, err := d.passthrough(ctx, "emeter", "get_daystat", map[string]any{"year": year, "month": month})
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		DayList []domain.DayStat `json:"day_list"`
	}
	if err := json.Unmarshal(resp, &wrapper); err != nil {
		return nil, &domain.ProtocolError{Message: "decoding day stats", Err: err}
	}
	return wrapper.DayList, nil
}

func (d *Device) EnergyMonthStats(ctx context.Context, year int) ([]domain.MonthStat, error) {
	if !d.info.Type.HasEmeter() {
		return nil, &domain.UnsupportedError{Operation: "energy monitoring", Type: d.info.Type}
	}
	resp, err := d.passthrough(ctx, "emeter", "get_monthstat", map[string]any{"year": year})
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		MonthList []domain.MonthStat `json:"month_list"`
	}
	if err := json.Unmarshal(resp, &wrapper); err != nil {
		return nil, &domain.ProtocolError{Message: "decoding month stats", Err: err}
	}
	return wrapper.MonthList, nil
}

// -- Light --

// LightStateChange lists the light parameters to modify; nil fields are
// left untouched by the device.
type LightStateChange struct {
	OnOff            *int
	Brightness       *int
	Hue              *int
	Saturation       *int
	ColorTemp        *int
	TransitionPeriod *int
}

func (c LightStateChange) args() map[string]any {
	args := map[string]any{}
	set := func(key string, v *int) {
		if v != nil {
			args[key] = *v
		}
	}
	set("on_off", c.OnOff)
	set("brightness", c.Brightness)
	set("hue", c.Hue)
	set("saturation", c.Saturation)
	set("color_temp", c.ColorTemp)
	set("transition_period", c.TransitionPeriod)
	return args
}

func (d *Device) LightState(ctx context.Context) (domain.LightState, error) {
	if !d.info.Type.IsLight() {
		return domain.LightState{}, &domain.UnsupportedError{Operation: "light control", Type: d.info.Type}
	}
	resp, err := d.passthrough(ctx, lightingService, "get_light_state", map[string]any{})
	if err != nil {
		return domain.LightState{}, err
	}
	var state domain.LightState
	if err := json.Unmarshal(resp, &state); err != nil {
		return domain.LightState{}, &domain.ProtocolError{Message: "decoding light state", Err: err}
	}
	return state, nil
}

func (d *Device) SetLightState(ctx context.Context, change LightStateChange) error {
	if !d.info.Type.IsLight() {
		return &domain.UnsupportedError{Operation: "light control", Type: d.info.Type}
	}
	_, err := d.passthrough(ctx, lightingService, "transition_light_state", change.args())
	return err
}

func (d *Device) SetBrightness(ctx context.Context, brightness int) error {
	on := 1
	return d.SetLightState(ctx, LightStateChange{OnOff: &on, Brightness: &brightness})
}

// SetColor switches the light to hue/saturation mode; color_temp zero
// tells the firmware to leave temperature mode.
func (d *Device) SetColor(ctx context.Context, hue, saturation int, brightness *int) error {
	on, temp := 1, 0
	return d.SetLightState(ctx, LightStateChange{
		OnOff:      &on,
		Brightness: brightness,
		Hue:        &hue,
		Saturation: &saturation,
		ColorTemp:  &temp,
	})
}

func (d *Device) SetColorTemp(ctx context.Context, colorTemp int, brightness *int) error {
	on := 1
	return d.SetLightState(ctx, LightStateChange{
		OnOff:      &on,
		Brightness: brightness,
		ColorTemp:  &colorTemp,
	})
}

// -- Schedules --

func (d *Device) ScheduleRules(ctx context.Context) ([]domain.ScheduleRule, error) {
	resp, err := d.passthrough(ctx, "schedule", "get_rules", map[string]any{})
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		RuleList []domain.ScheduleRule `json:"rule_list"`
	}
	if err := json.Unmarshal(resp, &wrapper); err != nil {
		return nil, &domain.ProtocolError{Message: "decoding schedule rules", Err: err}
	}
	return wrapper.RuleList, nil
}

// AddScheduleRule creates a rule and returns the device-assigned ID.
func (d *Device) AddScheduleRule(ctx context.Context, rule domain.ScheduleRule) (string, error) {
	resp, err := d.passthrough(ctx, "schedule", "add_rule", rule)
	if err != nil {
		return "", err
	}
	var result struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(resp, &result)
	return result.ID, nil
}

func (d *Device) EditScheduleRule(ctx context.Context, rule domain.ScheduleRule) error {
	if rule.ID == "" {
		return &domain.InvalidInputError{Message: "schedule rule id is required for edit"}
	}
	_, err := d.passthrough(ctx, "schedule", "edit_rule", rule)
	return err
}

func (d *Device) DeleteScheduleRule(ctx context.Context, ruleID string) error {
	_, err := d.passthrough(ctx, "schedule", "delete_rule", map[string]any{"id": ruleID})
	return err
}

func (d *Device) ClearScheduleRules(ctx context.Context) error {
	_, err := d.passthrough(ctx, "schedule", "delete_all_rules", nil)
	return err
}

// -- Network and time --

func (d *Device) NetInfo(ctx context.Context) (domain.NetInfo, error) {
	resp, err := d.passthrough(ctx, "netif", "get_stainfo", nil)
	if err != nil {
		return domain.NetInfo{}, err
	}
	var info domain.NetInfo
	if err := json.Unmarshal(resp, &info); err != nil {
		return domain.NetInfo{}, &domain.ProtocolError{Message: "decoding network info", Err: err}
	}
	return info, nil
}

func (d *Device) Time(ctx context.Context) (domain.DeviceTime, error) {
	resp, err := d.passthrough(ctx, "time", "get_time", map[string]any{})
	if err != nil {
		return domain.DeviceTime{}, err
	}
	var t domain.DeviceTime
	if err := json.Unmarshal(resp, &t); err != nil {
		return domain.DeviceTime{}, &domain.ProtocolError{Message: "decoding device time", Err: err}
	}
	return t, nil
}

// TimezoneIndex returns the device's timezone table index.
func (d *Device) TimezoneIndex(ctx context.Context) (int, error) {
	resp, err := d.passthrough(ctx, "time", "get_timezone", map[string]any{})
	if err != nil {
		return 0, err
	}
	var tz struct {
		Index int `json:"index"`
	}
	if err := json.Unmarshal(resp, &tz); err != nil {
		return 0, &domain.ProtocolError{Message: "decoding timezone", Err: err}
	}
	return tz.Index, nil
}
