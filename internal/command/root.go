// Package command implements the chargeamps command-line interface.
package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"chargeamps/internal/app"
	"chargeamps/internal/config"
	"chargeamps/internal/models"
	"chargeamps/internal/output"
	"chargeamps/libs/logging"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

const runtimeKey = "runtime"

// API is the part of the Charge Amps client the commands use.
type API interface {
	ListChargePoints(ctx context.Context) ([]models.ChargePoint, error)
	GetStatus(ctx context.Context, chargePointID string) (*models.ChargePointStatus, error)
	GetConnectorSettings(ctx context.Context, chargePointID string, connectorID int) (*models.ChargePointConnectorSettings, error)
	SetConnectorSettings(ctx context.Context, settings *models.ChargePointConnectorSettings) error
	ListSessions(ctx context.Context, chargePointID string) ([]models.ChargingSession, error)
	Logout(ctx context.Context) error
}

// Archive stores and reads back session history.
type Archive interface {
	Archive(ctx context.Context, chargePointID string) (int, error)
	History(ctx context.Context, chargePointID string, limit int) ([]models.ChargingSession, error)
}

// Runtime is what commands run against. It is built once per invocation.
type Runtime struct {
	API     API
	Archive func(ctx context.Context) (Archive, error)
	Logger  *zap.Logger
	Close   func()
}

// Bootstrap builds the runtime from the parsed global flags.
type Bootstrap func(c *cli.Context) (*Runtime, error)

// App creates the CLI application. A nil bootstrap uses DefaultBootstrap.
func App(bootstrap Bootstrap) *cli.App {
	if bootstrap == nil {
		bootstrap = DefaultBootstrap
	}
	return &cli.App{
		Name:    "chargeamps",
		Usage:   "Charge Amps charge point client",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			chargePointsCommand(),
			statusCommand(),
			sessionsCommand(),
			getCommand(),
			setCommand(),
			archiveCommand(),
			historyCommand(),
			logoutCommand(),
		},
		Metadata: map[string]interface{}{"bootstrap": bootstrap},
		Before: func(c *cli.Context) error {
			if _, err := output.ParseFormat(c.String("output")); err != nil {
				return cli.Exit(err.Error(), exitUsage)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok && rt.Close != nil {
				rt.Close()
				delete(c.App.Metadata, runtimeKey)
			}
			return nil
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (YAML or JSON) with username, password and api_key",
			EnvVars: []string{"CONFIG_FILE"},
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: json, yaml, table",
			Value:   string(output.FormatJSON),
		},
	}
}

// DefaultBootstrap loads the config file, builds the logger and wires the app.
func DefaultBootstrap(c *cli.Context) (*Runtime, error) {
	logger, err := logging.NewLogger(c.Bool("debug"))
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		_ = logger.Sync()
		return nil, cli.Exit(err.Error(), exitUsage)
	}

	application, err := app.New(c.Context, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &Runtime{
		API: application.Client(),
		Archive: func(ctx context.Context) (Archive, error) {
			svc, err := application.Archive(ctx)
			if err != nil {
				return nil, err
			}
			return svc, nil
		},
		Logger: logger,
		Close: func() {
			application.Close()
			_ = logger.Sync()
		},
	}, nil
}

// loadRuntime returns the runtime of this invocation, bootstrapping it on first use.
func loadRuntime(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt, nil
	}
	bootstrap, _ := c.App.Metadata["bootstrap"].(Bootstrap)
	if bootstrap == nil {
		bootstrap = DefaultBootstrap
	}
	rt, err := bootstrap(c)
	if err != nil {
		return nil, err
	}
	if rt.Logger == nil {
		rt.Logger = zap.NewNop()
	}
	c.App.Metadata[runtimeKey] = rt
	return rt, nil
}

// render writes data to the app writer in the format chosen by --output,
// which Before has already validated.
func render(c *cli.Context, data any) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(c.App.Writer, data)
}
