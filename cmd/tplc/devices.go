package main

import (
	"context"
	"encoding/json"
	"strings"

	"tplc/internal/application"
	"tplc/internal/domain"
)

func (a *app) runDevices(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return &domain.InvalidInputError{Message: "usage: tplc devices <list|get|search> [args]"}
	}
	switch args[0] {
	case "list":
		return a.devicesList(ctx)
	case "get":
		if len(args) < 2 {
			return &domain.InvalidInputError{Message: "usage: tplc devices get <device>"}
		}
		return a.devicesGet(ctx, args[1])
	case "search":
		if len(args) < 2 {
			return &domain.InvalidInputError{Message: "usage: tplc devices search <query>"}
		}
		return a.devicesSearch(ctx, args[1])
	default:
		return &domain.InvalidInputError{Message: "unknown devices subcommand: " + args[0]}
	}
}

func (a *app) devicesList(ctx context.Context) error {
	records, err := a.catalog.ListDevices(ctx)
	if err != nil {
		return err
	}
	a.printRecords(records)
	return nil
}

func (a *app) devicesSearch(ctx context.Context, query string) error {
	records, err := a.catalog.ListDevices(ctx)
	if err != nil {
		return err
	}
	lower := strings.ToLower(query)
	var matching []domain.DeviceRecord
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Alias), lower) {
			matching = append(matching, r)
		}
	}
	a.printRecords(matching)
	return nil
}

func (a *app) devicesGet(ctx context.Context, query string) error {
	dev, err := a.catalog.Resolve(ctx, query)
	if err != nil {
		return err
	}

	result := map[string]any{
		"alias":       dev.Alias,
		"model":       dev.Model,
		"device_type": dev.Type.DisplayName(),
		"category":    dev.Type.Category(),
		"device_id":   dev.DeviceID,
		"provider":    dev.Provider,
		"is_child":    dev.ChildID != "",
	}

	device := application.NewDevice(a.session, dev, a.logger)
	if sysInfo, err := device.SysInfo(ctx); err == nil {
		result["sys_info"] = json.RawMessage(sysInfo)
	}

	printJSON(result)
	return nil
}

func (a *app) printRecords(records []domain.DeviceRecord) {
	if a.table {
		rows := make([][]string, len(records))
		for i, r := range records {
			rows[i] = []string{
				r.Alias,
				r.Model,
				r.Type.Category(),
				statusWord(r.Online),
				yesNo(r.Type.HasEmeter()),
				string(r.Provider),
				r.DeviceID,
			}
		}
		printTable([]string{"NAME", "MODEL", "TYPE", "STATUS", "EMETER", "CLOUD", "DEVICE ID"}, rows)
		return
	}

	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = map[string]any{
			"alias":             r.Alias,
			"model":             r.Model,
			"device_type":       r.Type.DisplayName(),
			"category":          r.Type.Category(),
			"device_id":         r.DeviceID,
			"provider":          r.Provider,
			"status":            statusWord(r.Online),
			"energy_monitoring": r.Type.HasEmeter(),
		}
		if r.IsChild() {
			out[i]["child_id"] = r.ChildID
			out[i]["parent_id"] = r.ParentID
		}
	}
	printJSON(out)
}

func statusWord(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
