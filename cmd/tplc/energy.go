package main

import (
	"context"
	"flag"
	"time"

	"tplc/internal/application"
	"tplc/internal/domain"
)

func (a *app) runEnergy(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return &domain.InvalidInputError{Message: "usage: tplc energy <now|day|month> <device> [flags]"}
	}
	sub := args[0]

	dev, rest, err := a.resolveArg(ctx, args[1:], "tplc energy "+sub+" <device>")
	if err != nil {
		return err
	}
	device := application.NewDevice(a.session, dev, a.logger)
	now := time.Now()

	switch sub {
	case "now":
		reading, err := device.EnergyRealtime(ctx)
		if err != nil {
			return err
		}
		printJSON(map[string]any{
			"device":     dev.Alias,
			"voltage_mv": reading.VoltageMV,
			"current_ma": reading.CurrentMA,
			"power_mw":   reading.PowerMW,
			"total_wh":   reading.TotalWH,
		})
	case "day":
		fs := flag.NewFlagSet("energy day", flag.ContinueOnError)
		year := fs.Int("year", now.Year(), "year to query")
		month := fs.Int("month", int(now.Month()), "month to query")
		if err := fs.Parse(rest); err != nil {
			return &domain.InvalidInputError{Message: err.Error()}
		}
		stats, err := device.EnergyDayStats(ctx, *year, *month)
		if err != nil {
			return err
		}
		a.printDayStats(dev.Alias, stats)
	case "month":
		fs := flag.NewFlagSet("energy month", flag.ContinueOnError)
		year := fs.Int("year", now.Year(), "year to query")
		if err := fs.Parse(rest); err != nil {
			return &domain.InvalidInputError{Message: err.Error()}
		}
		stats, err := device.EnergyMonthStats(ctx, *year)
		if err != nil {
			return err
		}
		a.printMonthStats(dev.Alias, stats)
	default:
		return &domain.InvalidInputError{Message: "unknown energy subcommand: " + sub}
	}
	return nil
}

func (a *app) printDayStats(alias string, stats []domain.DayStat) {
	if a.table {
		rows := make([][]string, len(stats))
		for i, s := range stats {
			rows[i] = []string{
				itoa(s.Year), itoa(s.Month), itoa(s.Day), ftoa(s.EnergyWH),
			}
		}
		printTable([]string{"YEAR", "MONTH", "DAY", "ENERGY WH"}, rows)
		return
	}
	printJSON(map[string]any{"device": alias, "days": stats})
}

func (a *app) printMonthStats(alias string, stats []domain.MonthStat) {
	if a.table {
		rows := make([][]string, len(stats))
		for i, s := range stats {
			rows[i] = []string{itoa(s.Year), itoa(s.Month), ftoa(s.EnergyWH)}
		}
		printTable([]string{"YEAR", "MONTH", "ENERGY WH"}, rows)
		return
	}
	printJSON(map[string]any{"device": alias, "months": stats})
}
