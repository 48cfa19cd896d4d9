package main

import (
	"context"
	"encoding/json"

	"tplc/internal/application"
	"tplc/internal/domain"
)

func (a *app) runInfo(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return &domain.InvalidInputError{Message: "usage: tplc info <sysinfo|net|time> <device>"}
	}
	sub := args[0]

	dev, _, err := a.resolveArg(ctx, args[1:], "tplc info "+sub+" <device>")
	if err != nil {
		return err
	}
	device := application.NewDevice(a.session, dev, a.logger)

	switch sub {
	case "sysinfo":
		info, err := device.SysInfo(ctx)
		if err != nil {
			return err
		}
		printJSON(map[string]any{"device": dev.Alias, "sys_info": json.RawMessage(info)})
	case "net":
		info, err := device.NetInfo(ctx)
		if err != nil {
			return err
		}
		printJSON(map[string]any{"device": dev.Alias, "net_info": info})
	case "time":
		t, err := device.Time(ctx)
		if err != nil {
			return err
		}
		result := map[string]any{"device": dev.Alias, "time": t}
		if idx, err := device.TimezoneIndex(ctx); err == nil {
			result["timezone_index"] = idx
		}
		printJSON(result)
	default:
		return &domain.InvalidInputError{Message: "unknown info subcommand: " + sub}
	}
	return nil
}
