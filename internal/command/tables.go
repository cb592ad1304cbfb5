package command

import (
	"strconv"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"chargeamps/internal/models"
)

// The table types render as plain lists in JSON and YAML.

type chargePointTable []models.ChargePoint

func (t chargePointTable) Header() []string {
	return []string{"ID", "NAME", "TYPE", "FIRMWARE", "CONNECTORS"}
}

func (t chargePointTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, cp := range t {
		rows = append(rows, []string{cp.ID, cp.Name, cp.Type, cp.FirmwareVersion, strconv.Itoa(len(cp.Connectors))})
	}
	return rows
}

func (t chargePointTable) MarshalJSON() ([]byte, error) {
	return json.Marshal([]models.ChargePoint(t))
}

func (t chargePointTable) MarshalYAML() (interface{}, error) {
	return []models.ChargePoint(t), nil
}

// statusTable lists one row per connector, prefixed with the charge point state.
type statusTable struct {
	*models.ChargePointStatus
}

func (t statusTable) Header() []string {
	return []string{"CHARGEPOINT", "CHARGEPOINT STATUS", "CONNECTOR", "STATUS", "TOTAL KWH"}
}

func (t statusTable) Rows() [][]string {
	if len(t.ConnectorStatuses) == 0 {
		return [][]string{{t.ID, t.Status, "-", "-", "-"}}
	}
	rows := make([][]string, 0, len(t.ConnectorStatuses))
	for _, s := range t.ConnectorStatuses {
		rows = append(rows, []string{t.ID, t.Status, strconv.Itoa(s.ConnectorID), s.Status, formatFloat(s.TotalConsumptionKwh)})
	}
	return rows
}

func (t statusTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ChargePointStatus)
}

func (t statusTable) MarshalYAML() (interface{}, error) {
	return t.ChargePointStatus, nil
}

type sessionTable []models.ChargingSession

func (t sessionTable) Header() []string {
	return []string{"ID", "CONNECTOR", "TYPE", "START", "END", "KWH"}
}

func (t sessionTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, s := range t {
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			strconv.Itoa(s.ConnectorID),
			s.SessionType,
			timestampCell(s.StartTime),
			timestampCell(s.EndTime),
			formatFloat(s.TotalConsumptionKwh),
		})
	}
	return rows
}

func (t sessionTable) MarshalJSON() ([]byte, error) {
	return json.Marshal([]models.ChargingSession(t))
}

func (t sessionTable) MarshalYAML() (interface{}, error) {
	return []models.ChargingSession(t), nil
}

type settingsTable []*models.ChargePointConnectorSettings

func (t settingsTable) Header() []string {
	return []string{"CHARGEPOINT", "CONNECTOR", "MODE", "MAX CURRENT", "RFID LOCK", "CABLE LOCK"}
}

func (t settingsTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, s := range t {
		current := "-"
		if s.MaxCurrent != nil {
			current = formatFloat(*s.MaxCurrent)
		}
		rows = append(rows, []string{
			s.ChargePointID,
			strconv.Itoa(s.ConnectorID),
			s.Mode,
			current,
			strconv.FormatBool(s.RfidLock),
			strconv.FormatBool(s.CableLock),
		})
	}
	return rows
}

func (t settingsTable) MarshalJSON() ([]byte, error) {
	return json.Marshal([]*models.ChargePointConnectorSettings(t))
}

func (t settingsTable) MarshalYAML() (interface{}, error) {
	return []*models.ChargePointConnectorSettings(t), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func timestampCell(ts models.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.String()
}

var (
	_ json.Marshaler = chargePointTable(nil)
	_ yaml.Marshaler = sessionTable(nil)
)
