package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"chargeamps/internal/models"
)

// Exit codes.
const (
	exitFailure = 1
	exitUsage   = 2
)

func chargePointFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "chargepoint",
		Aliases: []string{"cp"},
		Usage:   "Charge point ID (default: first owned charge point)",
	}
}

func connectorFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "connector",
		Usage: "Connector ID",
	}
}

func chargePointsCommand() *cli.Command {
	return &cli.Command{
		Name:   "chargepoints",
		Usage:  "List all owned charge points",
		Action: chargePointsList,
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Get charge point status",
		Flags:  []cli.Flag{chargePointFlag(), connectorFlag()},
		Action: chargePointStatus,
	}
}

func sessionsCommand() *cli.Command {
	return &cli.Command{
		Name:   "sessions",
		Usage:  "List charging sessions",
		Flags:  []cli.Flag{chargePointFlag(), connectorFlag()},
		Action: sessionsList,
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:   "get",
		Usage:  "Get connector settings",
		Flags:  []cli.Flag{chargePointFlag(), connectorFlag()},
		Action: settingsGet,
	}
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "Change connector settings",
		Flags: []cli.Flag{
			chargePointFlag(),
			connectorFlag(),
			&cli.BoolFlag{Name: "enable", Usage: "Enable connector"},
			&cli.BoolFlag{Name: "disable", Usage: "Disable connector"},
			&cli.Float64Flag{Name: "current", Usage: "Max current in amperes"},
		},
		Action: settingsSet,
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the cached access token",
		Action: credentialLogout,
	}
}

func archiveCommand() *cli.Command {
	return &cli.Command{
		Name:   "archive",
		Usage:  "Copy charging sessions into the configured database",
		Flags:  []cli.Flag{chargePointFlag()},
		Action: sessionsArchive,
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List archived charging sessions",
		Flags: []cli.Flag{
			chargePointFlag(),
			&cli.IntFlag{Name: "limit", Value: 50, Usage: "Maximum number of sessions"},
		},
		Action: sessionsHistory,
	}
}

// chargePointID returns --chargepoint or the first owned charge point.
func chargePointID(c *cli.Context, rt *Runtime) (string, error) {
	if id := c.String("chargepoint"); id != "" {
		return id, nil
	}
	chargePoints, err := rt.API.ListChargePoints(c.Context)
	if err != nil {
		return "", err
	}
	if len(chargePoints) == 0 {
		return "", errors.New("no charge points owned by this account")
	}
	rt.Logger.Debug("defaulting to first charge point", zap.String("charge_point_id", chargePoints[0].ID))
	return chargePoints[0].ID, nil
}

func chargePointsList(c *cli.Context) error {
	rt, err := loadRuntime(c)
	if err != nil {
		return err
	}
	chargePoints, err := rt.API.ListChargePoints(c.Context)
	if err != nil {
		return err
	}
	return render(c, chargePointTable(chargePoints))
}

func chargePointStatus(c *cli.Context) error {
	rt, err := loadRuntime(c)
	if err != nil {
		return err
	}
	id, err := chargePointID(c, rt)
	if err != nil {
		return err
	}
	status, err := rt.API.GetStatus(c.Context, id)
	if err != nil {
		return err
	}
	if !c.IsSet("connector") {
		return render(c, statusTable{status})
	}
	connectorID := c.Int("connector")
	connector, ok := status.Connector(connectorID)
	if !ok {
		return fmt.Errorf("charge point %s reports no connector %d", id, connectorID)
	}
	return render(c, connector)
}

func sessionsList(c *cli.Context) error {
	rt, err := loadRuntime(c)
	if err != nil {
		return err
	}
	id, err := chargePointID(c, rt)
	if err != nil {
		return err
	}
	sessions, err := rt.API.ListSessions(c.Context, id)
	if err != nil {
		return err
	}
	if c.IsSet("connector") {
		sessions = filterSessions(sessions, c.Int("connector"))
	}
	return render(c, sessionTable(sessions))
}

func filterSessions(sessions []models.ChargingSession, connectorID int) []models.ChargingSession {
	filtered := make([]models.ChargingSession, 0, len(sessions))
	for _, s := range sessions {
		if s.ConnectorID == connectorID {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func settingsGet(c *cli.Context) error {
	rt, err := loadRuntime(c)
	if err != nil {
		return err
	}
	id, err := chargePointID(c, rt)
	if err != nil {
		return err
	}

	var connectorIDs []int
	if c.IsSet("connector") {
		connectorIDs = []int{c.Int("connector")}
	} else {
		status, err := rt.API.GetStatus(c.Context, id)
		if err != nil {
			return err
		}
		connectorIDs = status.ConnectorIDs()
	}

	settings := make([]*models.ChargePointConnectorSettings, 0, len(connectorIDs))
	for _, connectorID := range connectorIDs {
		s, err := rt.API.GetConnectorSettings(c.Context, id, connectorID)
		if err != nil {
			return err
		}
		settings = append(settings, s)
	}
	return render(c, settingsTable(settings))
}

func settingsSet(c *cli.Context) error {
	if !c.IsSet("connector") {
		return cli.Exit("--connector is required", exitUsage)
	}
	if c.Bool("enable") && c.Bool("disable") {
		return cli.Exit("--enable and --disable are mutually exclusive", exitUsage)
	}
	if c.IsSet("current") && c.Float64("current") <= 0 {
		return cli.Exit("--current must be positive", exitUsage)
	}

	rt, err := loadRuntime(c)
	if err != nil {
		return err
	}
	id, err := chargePointID(c, rt)
	if err != nil {
		return err
	}

	settings, err := rt.API.GetConnectorSettings(c.Context, id, c.Int("connector"))
	if err != nil {
		return err
	}
	if c.IsSet("current") {
		settings.SetMaxCurrent(c.Float64("current"))
	}
	switch {
	case c.Bool("enable"):
		settings.Mode = models.ModeOn
	case c.Bool("disable"):
		settings.Mode = models.ModeOff
	}

	if err := rt.API.SetConnectorSettings(c.Context, settings); err != nil {
		return err
	}
	rt.Logger.Info("connector settings updated",
		zap.String("charge_point_id", settings.ChargePointID),
		zap.Int("connector_id", settings.ConnectorID),
		zap.String("mode", settings.Mode))
	return render(c, settings)
}

func credentialLogout(c *cli.Context) error {
	rt, err := loadRuntime(c)
	if err != nil {
		return err
	}
	if err := rt.API.Logout(c.Context); err != nil {
		return err
	}
	rt.Logger.Info("cached credential cleared")
	return nil
}

func sessionsArchive(c *cli.Context) error {
	rt, err := loadRuntime(c)
	if err != nil {
		return err
	}
	id, err := chargePointID(c, rt)
	if err != nil {
		return err
	}
	archive, err := rt.Archive(c.Context)
	if err != nil {
		return err
	}
	n, err := archive.Archive(c.Context, id)
	if err != nil {
		return err
	}
	return render(c, map[string]interface{}{"chargePointId": id, "archived": n})
}

func sessionsHistory(c *cli.Context) error {
	rt, err := loadRuntime(c)
	if err != nil {
		return err
	}
	id, err := chargePointID(c, rt)
	if err != nil {
		return err
	}
	archive, err := rt.Archive(c.Context)
	if err != nil {
		return err
	}
	sessions, err := archive.History(c.Context, id, c.Int("limit"))
	if err != nil {
		return err
	}
	return render(c, sessionTable(sessions))
}
