package main

import (
	"context"

	"tplc/internal/application"
	"tplc/internal/domain"
)

func (a *app) runPower(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return &domain.InvalidInputError{Message: "usage: tplc power <on|off|toggle|status> <device>"}
	}
	sub := args[0]

	dev, _, err := a.resolveArg(ctx, args[1:], "tplc power "+sub+" <device>")
	if err != nil {
		return err
	}
	device := application.NewDevice(a.session, dev, a.logger)

	switch sub {
	case "on":
		if err := device.PowerOn(ctx); err != nil {
			return err
		}
		printJSON(map[string]any{"device": dev.Alias, "power": "on"})
	case "off":
		if err := device.PowerOff(ctx); err != nil {
			return err
		}
		printJSON(map[string]any{"device": dev.Alias, "power": "off"})
	case "toggle":
		on, err := device.Toggle(ctx)
		if err != nil {
			return err
		}
		printJSON(map[string]any{"device": dev.Alias, "power": onOff(on)})
	case "status":
		on, err := device.IsOn(ctx)
		if err != nil {
			return err
		}
		printJSON(map[string]any{"device": dev.Alias, "power": onOff(on)})
	default:
		return &domain.InvalidInputError{Message: "unknown power subcommand: " + sub}
	}
	return nil
}

func (a *app) runLED(ctx context.Context, args []string) error {
	if len(args) < 2 || (args[0] != "on" && args[0] != "off") {
		return &domain.InvalidInputError{Message: "usage: tplc led <on|off> <device>"}
	}
	on := args[0] == "on"

	dev, _, err := a.resolveArg(ctx, args[1:], "tplc led <on|off> <device>")
	if err != nil {
		return err
	}
	device := application.NewDevice(a.session, dev, a.logger)

	if err := device.SetLED(ctx, on); err != nil {
		return err
	}
	printJSON(map[string]any{"device": dev.Alias, "led": onOff(on)})
	return nil
}
