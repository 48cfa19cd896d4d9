package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"tplc/internal/application"
	"tplc/internal/domain"
)

func (a *app) runSchedule(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return &domain.InvalidInputError{Message: "usage: tplc schedule <list|add|edit|delete|clear> <device> [args]"}
	}
	sub := args[0]

	dev, rest, err := a.resolveArg(ctx, args[1:], "tplc schedule "+sub+" <device>")
	if err != nil {
		return err
	}
	device := application.NewDevice(a.session, dev, a.logger)

	switch sub {
	case "list":
		rules, err := device.ScheduleRules(ctx)
		if err != nil {
			return err
		}
		a.printRules(dev.Alias, rules)
	case "add":
		rule, err := ruleFromFlags("schedule add", rest, false)
		if err != nil {
			return err
		}
		id, err := device.AddScheduleRule(ctx, rule)
		if err != nil {
			return err
		}
		printJSON(map[string]any{"device": dev.Alias, "rule_id": id})
	case "edit":
		rule, err := ruleFromFlags("schedule edit", rest, true)
		if err != nil {
			return err
		}
		if err := device.EditScheduleRule(ctx, rule); err != nil {
			return err
		}
		printJSON(map[string]any{"device": dev.Alias, "rule_id": rule.ID, "status": "updated"})
	case "delete":
		if len(rest) < 1 {
			return &domain.InvalidInputError{Message: "usage: tplc schedule delete <device> <rule-id>"}
		}
		if err := device.DeleteScheduleRule(ctx, rest[0]); err != nil {
			return err
		}
		printJSON(map[string]any{"device": dev.Alias, "rule_id": rest[0], "status": "deleted"})
	case "clear":
		if err := device.ClearScheduleRules(ctx); err != nil {
			return err
		}
		printJSON(map[string]any{"device": dev.Alias, "status": "cleared"})
	default:
		return &domain.InvalidInputError{Message: "unknown schedule subcommand: " + sub}
	}
	return nil
}

// ruleFromFlags builds a schedule rule from command-line flags. Trigger
// time is one of --at HH:MM, --sunrise, or --sunset.
func ruleFromFlags(name string, args []string, requireID bool) (domain.ScheduleRule, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	id := fs.String("id", "", "rule id (edit only)")
	ruleName := fs.String("name", "", "rule name")
	action := fs.String("action", "", "on or off")
	at := fs.String("at", "", "trigger time as HH:MM")
	sunrise := fs.Bool("sunrise", false, "trigger at sunrise")
	sunset := fs.Bool("sunset", false, "trigger at sunset")
	offset := fs.Int("offset", 0, "minutes before (-) or after (+) the solar event")
	days := fs.String("days", "", "comma-separated weekdays, e.g. mon,wed,fri")
	date := fs.String("date", "", "one-shot date as YYYY-MM-DD")
	disabled := fs.Bool("disabled", false, "create the rule disabled")
	if err := fs.Parse(args); err != nil {
		return domain.ScheduleRule{}, &domain.InvalidInputError{Message: err.Error()}
	}

	b := domain.NewScheduleRule().Name(*ruleName)
	if requireID {
		if *id == "" {
			return domain.ScheduleRule{}, &domain.InvalidInputError{Message: "--id is required for edit"}
		}
		b.ID(*id)
	}

	switch *action {
	case "on":
		b.Action(true)
	case "off":
		b.Action(false)
	default:
		return domain.ScheduleRule{}, &domain.InvalidInputError{Message: "--action must be on or off"}
	}

	switch {
	case *at != "":
		minutes, err := parseClock(*at)
		if err != nil {
			return domain.ScheduleRule{}, err
		}
		b.At(minutes)
	case *sunrise:
		b.AtSunrise(*offset)
	case *sunset:
		b.AtSunset(*offset)
	default:
		return domain.ScheduleRule{}, &domain.InvalidInputError{Message: "one of --at, --sunrise, or --sunset is required"}
	}

	if *days != "" && *date != "" {
		return domain.ScheduleRule{}, &domain.InvalidInputError{Message: "--days and --date are mutually exclusive"}
	}
	if *days != "" {
		wdays, err := parseWeekdays(*days)
		if err != nil {
			return domain.ScheduleRule{}, err
		}
		b.OnDays(wdays)
	}
	if *date != "" {
		year, month, day, err := parseDate(*date)
		if err != nil {
			return domain.ScheduleRule{}, err
		}
		b.Once(year, month, day)
	}

	if *disabled {
		b.Enabled(false)
	}
	return b.Build()
}

// parseClock converts HH:MM to minutes past midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, &domain.InvalidInputError{Message: "time must be HH:MM"}
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, &domain.InvalidInputError{Message: "time must be HH:MM"}
	}
	return hour*60 + minute, nil
}

var weekdayNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

func parseWeekdays(s string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		day, ok := weekdayNames[name]
		if !ok {
			if n, err := strconv.Atoi(name); err == nil && n >= 0 && n <= 6 {
				day = n
			} else {
				return nil, &domain.InvalidInputError{Message: "unknown weekday: " + part}
			}
		}
		days = append(days, day)
	}
	return days, nil
}

func parseDate(s string) (year, month, day int, err error) {
	if _, serr := fmt.Sscanf(s, "%d-%d-%d", &year, &month, &day); serr != nil {
		return 0, 0, 0, &domain.InvalidInputError{Message: "date must be YYYY-MM-DD"}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, &domain.InvalidInputError{Message: "date must be YYYY-MM-DD"}
	}
	return year, month, day, nil
}

func (a *app) printRules(alias string, rules []domain.ScheduleRule) {
	if a.table {
		rows := make([][]string, len(rules))
		for i, r := range rules {
			rows[i] = []string{
				r.ID,
				r.Name,
				enabledWord(r.Enable),
				ruleTrigger(r),
				ruleAction(r.SAct),
			}
		}
		printTable([]string{"ID", "NAME", "ENABLED", "TRIGGER", "ACTION"}, rows)
		return
	}
	printJSON(map[string]any{"device": alias, "rules": rules})
}

func enabledWord(enable *int) string {
	if enable != nil && *enable == 1 {
		return "yes"
	}
	return "no"
}

func ruleTrigger(r domain.ScheduleRule) string {
	opt := domain.StartTime
	if r.STimeOpt != nil {
		opt = *r.STimeOpt
	}
	switch opt {
	case domain.StartSunrise:
		return "sunrise" + offsetSuffix(r.SOffset)
	case domain.StartSunset:
		return "sunset" + offsetSuffix(r.SOffset)
	default:
		if r.SMin == nil {
			return "-"
		}
		return fmt.Sprintf("%02d:%02d", *r.SMin/60, *r.SMin%60)
	}
}

func offsetSuffix(offset *int) string {
	if offset == nil || *offset == 0 {
		return ""
	}
	return fmt.Sprintf("%+dm", *offset)
}

func ruleAction(act *int) string {
	if act == nil {
		return "-"
	}
	return onOff(*act == 1)
}
