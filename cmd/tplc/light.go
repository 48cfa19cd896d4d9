package main

import (
	"context"
	"flag"
	"strconv"

	"tplc/internal/application"
	"tplc/internal/domain"
)

func (a *app) runLight(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return &domain.InvalidInputError{Message: "usage: tplc light <status|set|brightness|color|temp> <device> [args]"}
	}
	sub := args[0]

	dev, rest, err := a.resolveArg(ctx, args[1:], "tplc light "+sub+" <device>")
	if err != nil {
		return err
	}
	device := application.NewDevice(a.session, dev, a.logger)

	switch sub {
	case "status":
		state, err := device.LightState(ctx)
		if err != nil {
			return err
		}
		printJSON(map[string]any{"device": dev.Alias, "light_state": state})
	case "set":
		change, err := lightChangeFromFlags(rest)
		if err != nil {
			return err
		}
		if err := device.SetLightState(ctx, change); err != nil {
			return err
		}
		state, err := device.LightState(ctx)
		if err != nil {
			return err
		}
		printJSON(map[string]any{"device": dev.Alias, "light_state": state})
	case "brightness":
		if len(rest) < 1 {
			return &domain.InvalidInputError{Message: "usage: tplc light brightness <device> <0-100>"}
		}
		brightness, err := strconv.Atoi(rest[0])
		if err != nil || brightness < 0 || brightness > 100 {
			return &domain.InvalidInputError{Message: "brightness must be between 0 and 100"}
		}
		if err := device.SetBrightness(ctx, brightness); err != nil {
			return err
		}
		printJSON(map[string]any{"device": dev.Alias, "brightness": brightness})
	case "color":
		if len(rest) < 2 {
			return &domain.InvalidInputError{Message: "usage: tplc light color <device> <hue> <saturation> [--brightness N]"}
		}
		hue, err := strconv.Atoi(rest[0])
		if err != nil || hue < 0 || hue > 360 {
			return &domain.InvalidInputError{Message: "hue must be between 0 and 360"}
		}
		saturation, err := strconv.Atoi(rest[1])
		if err != nil || saturation < 0 || saturation > 100 {
			return &domain.InvalidInputError{Message: "saturation must be between 0 and 100"}
		}
		brightness, err := optionalBrightness("light color", rest[2:])
		if err != nil {
			return err
		}
		if err := device.SetColor(ctx, hue, saturation, brightness); err != nil {
			return err
		}
		result := map[string]any{"device": dev.Alias, "hue": hue, "saturation": saturation}
		if brightness != nil {
			result["brightness"] = *brightness
		}
		printJSON(result)
	case "temp":
		if len(rest) < 1 {
			return &domain.InvalidInputError{Message: "usage: tplc light temp <device> <kelvin> [--brightness N]"}
		}
		kelvin, err := strconv.Atoi(rest[0])
		if err != nil || kelvin < 2500 || kelvin > 9000 {
			return &domain.InvalidInputError{Message: "color temperature must be between 2500 and 9000 kelvin"}
		}
		brightness, err := optionalBrightness("light temp", rest[1:])
		if err != nil {
			return err
		}
		if err := device.SetColorTemp(ctx, kelvin, brightness); err != nil {
			return err
		}
		result := map[string]any{"device": dev.Alias, "color_temp": kelvin}
		if brightness != nil {
			result["brightness"] = *brightness
		}
		printJSON(result)
	default:
		return &domain.InvalidInputError{Message: "unknown light subcommand: " + sub}
	}
	return nil
}

// lightChangeFromFlags assembles an arbitrary combination of light
// parameters; flags left unset are not sent to the device.
func lightChangeFromFlags(args []string) (application.LightStateChange, error) {
	fs := flag.NewFlagSet("light set", flag.ContinueOnError)
	on := fs.String("power", "", "on or off")
	brightness := fs.Int("brightness", -1, "brightness 0-100")
	hue := fs.Int("hue", -1, "hue 0-360")
	saturation := fs.Int("saturation", -1, "saturation 0-100")
	temp := fs.Int("temp", -1, "color temperature in kelvin")
	transition := fs.Int("transition", -1, "transition period in milliseconds")
	if err := fs.Parse(args); err != nil {
		return application.LightStateChange{}, &domain.InvalidInputError{Message: err.Error()}
	}

	var change application.LightStateChange
	switch *on {
	case "":
	case "on":
		change.OnOff = intFlag(1)
	case "off":
		change.OnOff = intFlag(0)
	default:
		return application.LightStateChange{}, &domain.InvalidInputError{Message: "--power must be on or off"}
	}
	if *brightness >= 0 {
		change.Brightness = brightness
	}
	if *hue >= 0 {
		change.Hue = hue
	}
	if *saturation >= 0 {
		change.Saturation = saturation
	}
	if *temp >= 0 {
		change.ColorTemp = temp
	}
	if *transition >= 0 {
		change.TransitionPeriod = transition
	}

	if change == (application.LightStateChange{}) {
		return change, &domain.InvalidInputError{Message: "light set needs at least one parameter flag"}
	}
	return change, nil
}

func intFlag(v int) *int { return &v }

// optionalBrightness parses the trailing --brightness flag shared by the
// color and temp subcommands; nil means leave brightness untouched.
func optionalBrightness(name string, args []string) (*int, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	brightness := fs.Int("brightness", -1, "brightness 0-100")
	if err := fs.Parse(args); err != nil {
		return nil, &domain.InvalidInputError{Message: err.Error()}
	}
	if *brightness < 0 {
		return nil, nil
	}
	if *brightness > 100 {
		return nil, &domain.InvalidInputError{Message: "brightness must be between 0 and 100"}
	}
	return brightness, nil
}
