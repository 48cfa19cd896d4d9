package domain

// StartOption selects how a schedule rule's trigger time is anchored.
const (
	StartTime    = 0
	StartSunrise = 1
	StartSunset  = 2
)

// ScheduleRule is the device's native schedule representation. Field
// names follow the wire format; zero-valued optional fields are omitted
// so edits do not clobber device-side defaults.
type ScheduleRule struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Enable   *int   `json:"enable,omitempty"`
	WDay     []int  `json:"wday,omitempty"`
	STimeOpt *int   `json:"stime_opt,omitempty"`
	SOffset  *int   `json:"soffset,omitempty"`
	SMin     *int   `json:"smin,omitempty"`
	SAct     *int   `json:"sact,omitempty"`
	ETimeOpt *int   `json:"etime_opt,omitempty"`
	EOffset  *int   `json:"eoffset,omitempty"`
	EMin     *int   `json:"emin,omitempty"`
	EAct     *int   `json:"eact,omitempty"`
	Repeat   *int   `json:"repeat,omitempty"`
	Year     int    `json:"year,omitempty"`
	Month    int    `json:"month,omitempty"`
	Day      int    `json:"day,omitempty"`
}

// ScheduleRuleBuilder assembles a rule for add/edit operations without
// the caller juggling the wire format's flag encodings.
type ScheduleRuleBuilder struct {
	rule ScheduleRule
	err  error
}

func NewScheduleRule() *ScheduleRuleBuilder {
	b := &ScheduleRuleBuilder{}
	b.rule.Enable = intPtr(1)
	b.rule.STimeOpt = intPtr(StartTime)
	b.rule.ETimeOpt = intPtr(-1)
	b.rule.EAct = intPtr(-1)
	b.rule.EMin = intPtr(0)
	return b
}

func (b *ScheduleRuleBuilder) Name(name string) *ScheduleRuleBuilder {
	b.rule.Name = name
	return b
}

func (b *ScheduleRuleBuilder) ID(id string) *ScheduleRuleBuilder {
	b.rule.ID = id
	return b
}

func (b *ScheduleRuleBuilder) Enabled(on bool) *ScheduleRuleBuilder {
	b.rule.Enable = intPtr(boolToInt(on))
	return b
}

// Action sets whether the rule turns the device on or off when it fires.
func (b *ScheduleRuleBuilder) Action(on bool) *ScheduleRuleBuilder {
	b.rule.SAct = intPtr(boolToInt(on))
	return b
}

// At schedules the rule at a fixed minutes-past-midnight time.
func (b *ScheduleRuleBuilder) At(minutes int) *ScheduleRuleBuilder {
	if minutes < 0 || minutes >= 24*60 {
		b.err = &InvalidInputError{Message: "schedule time must be between 0 and 1439 minutes"}
		return b
	}
	b.rule.STimeOpt = intPtr(StartTime)
	b.rule.SMin = intPtr(minutes)
	return b
}

// AtSunrise and AtSunset anchor the trigger to solar events with an
// optional offset in minutes.
func (b *ScheduleRuleBuilder) AtSunrise(offset int) *ScheduleRuleBuilder {
	b.rule.STimeOpt = intPtr(StartSunrise)
	b.rule.SOffset = intPtr(offset)
	b.rule.SMin = intPtr(0)
	return b
}

func (b *ScheduleRuleBuilder) AtSunset(offset int) *ScheduleRuleBuilder {
	b.rule.STimeOpt = intPtr(StartSunset)
	b.rule.SOffset = intPtr(offset)
	b.rule.SMin = intPtr(0)
	return b
}

// OnDays makes the rule repeat on the given weekdays (0=Sunday … 6=Saturday).
func (b *ScheduleRuleBuilder) OnDays(days []int) *ScheduleRuleBuilder {
	wday := make([]int, 7)
	for _, d := range days {
		if d < 0 || d > 6 {
			b.err = &InvalidInputError{Message: "weekday must be between 0 and 6"}
			return b
		}
		wday[d] = 1
	}
	b.rule.WDay = wday
	b.rule.Repeat = intPtr(1)
	return b
}

// Once makes the rule fire a single time on the given date.
func (b *ScheduleRuleBuilder) Once(year, month, day int) *ScheduleRuleBuilder {
	b.rule.Repeat = intPtr(0)
	b.rule.Year = year
	b.rule.Month = month
	b.rule.Day = day
	return b
}

func (b *ScheduleRuleBuilder) Build() (ScheduleRule, error) {
	if b.err != nil {
		return ScheduleRule{}, b.err
	}
	if b.rule.SAct == nil {
		return ScheduleRule{}, &InvalidInputError{Message: "schedule rule needs an action (on or off)"}
	}
	if b.rule.SMin == nil && b.rule.SOffset == nil {
		return ScheduleRule{}, &InvalidInputError{Message: "schedule rule needs a trigger time"}
	}
	if b.rule.Repeat == nil {
		b.rule.Repeat = intPtr(0)
	}
	if b.rule.WDay == nil {
		b.rule.WDay = make([]int, 7)
	}
	return b.rule, nil
}

func intPtr(v int) *int { return &v }

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
