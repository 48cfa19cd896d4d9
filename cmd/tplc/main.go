package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"tplc/config"
	"tplc/internal/application"
	"tplc/internal/domain"
	"tplc/internal/infra/secrets"
)

type app struct {
	session *application.Session
	catalog *application.Catalog
	logger  *slog.Logger
	table   bool
}

type globalFlags struct {
	configPath string
	table      bool
	verbose    bool
}

var errShowUsage = errors.New("show usage")

func main() {
	flags, command, args, err := parseArgs(os.Args[1:])
	if errors.Is(err, errShowUsage) {
		printUsage()
		if len(os.Args) == 1 {
			os.Exit(1)
		}
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log, flags.verbose)

	hosts := map[domain.Provider]string{}
	if cfg.Cloud.KasaHost != "" {
		hosts[domain.ProviderKasa] = cfg.Cloud.KasaHost
	}
	if cfg.Cloud.TapoHost != "" {
		hosts[domain.ProviderTapo] = cfg.Cloud.TapoHost
	}

	session := application.NewSession(
		secrets.NewKeyring(),
		&terminalPrompter{},
		application.SessionOptions{
			Hosts:   hosts,
			Timeout: time.Duration(cfg.Cloud.TimeoutSeconds) * time.Second,
		},
		logger,
	)

	a := &app{
		session: session,
		catalog: application.NewCatalog(session, logger),
		logger:  logger,
		table:   flags.table || cfg.Output.Format == "table",
	}

	ctx := context.Background()

	switch command {
	case "login":
		err = a.runLogin(ctx)
	case "logout":
		err = a.runLogout()
	case "status":
		err = a.runStatus()
	case "devices":
		err = a.runDevices(ctx, args)
	case "power":
		err = a.runPower(ctx, args)
	case "energy":
		err = a.runEnergy(ctx, args)
	case "light":
		err = a.runLight(ctx, args)
	case "schedule":
		err = a.runSchedule(ctx, args)
	case "info":
		err = a.runInfo(ctx, args)
	case "led":
		err = a.runLED(ctx, args)
	case "help", "--help", "-h":
		printUsage()
	default:
		err = &domain.InvalidInputError{Message: fmt.Sprintf("unknown command: %s", command)}
	}

	if err != nil {
		printError(err)
		os.Exit(exitCode(err))
	}
}

func parseArgs(args []string) (globalFlags, string, []string, error) {
	flags := globalFlags{configPath: defaultConfigPath()}

	idx := 0
	for idx < len(args) {
		arg := args[idx]
		if !strings.HasPrefix(arg, "-") {
			break
		}
		switch arg {
		case "--help", "-h":
			return flags, "", nil, errShowUsage
		case "--table", "-t":
			flags.table = true
			idx++
		case "--verbose", "-v":
			flags.verbose = true
			idx++
		case "--config":
			if idx+1 >= len(args) {
				return flags, "", nil, fmt.Errorf("--config requires a value")
			}
			flags.configPath = args[idx+1]
			idx += 2
		default:
			return flags, "", nil, fmt.Errorf("unknown flag: %s", arg)
		}
	}

	if idx >= len(args) {
		return flags, "", nil, errShowUsage
	}
	return flags, args[idx], args[idx+1:], nil
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/tplc/config.yaml"
	}
	return "tplc.yaml"
}

func setupLogger(cfg config.LogConfig, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func printUsage() {
	fmt.Fprint(os.Stderr, `tplc - control Kasa and Tapo devices through the TP-Link cloud

Usage:
  tplc [flags] <command> [args]

Commands:
  login                          authenticate with the TP-Link cloud
  logout                         clear stored tokens
  status                         show authentication status
  devices list                   list all devices
  devices get <device>           show one device
  devices search <query>         search devices by partial name
  power on|off|toggle|status <device>
  energy now <device>            realtime power reading
  energy day <device> [--year N --month N]
  energy month <device> [--year N]
  light status <device>
  light set <device> [--power on|off --brightness N --hue N --saturation N --temp N --transition MS]
  light brightness <device> <0-100>
  light color <device> <hue> <saturation> [--brightness N]
  light temp <device> <kelvin> [--brightness N]
  schedule list <device>
  schedule add <device> [flags]
  schedule edit <device> [flags]
  schedule delete <device> <rule-id>
  schedule clear <device>
  info sysinfo|net|time <device>
  led on|off <device>

Flags:
  -t, --table      render results as a table instead of JSON
  -v, --verbose    log HTTP exchanges
      --config     path to config file
`)
}
