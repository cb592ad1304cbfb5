package models

// ChargePoint is an owned charging station.
type ChargePoint struct {
	ID              string                 `json:"id" yaml:"id"`
	Name            string                 `json:"name" yaml:"name"`
	Password        string                 `json:"password" yaml:"password"`
	Type            string                 `json:"type" yaml:"type"`
	IsLoadbalanced  bool                   `json:"isLoadbalanced" yaml:"isLoadbalanced"`
	FirmwareVersion string                 `json:"firmwareVersion" yaml:"firmwareVersion"`
	HardwareVersion string                 `json:"hardwareVersion" yaml:"hardwareVersion"`
	Connectors      []ChargePointConnector `json:"connectors" yaml:"connectors"`
}

// ChargePointConnector is one outlet of a charge point.
type ChargePointConnector struct {
	ChargePointID string `json:"chargePointId" yaml:"chargePointId"`
	ConnectorID   int    `json:"connectorId" yaml:"connectorId"`
	Type          string `json:"type" yaml:"type"`
}

// ChargePointMeasurement is a per-phase electrical reading.
type ChargePointMeasurement struct {
	Phase   string  `json:"phase" yaml:"phase"`
	Current float64 `json:"current" yaml:"current"`
	Voltage float64 `json:"voltage" yaml:"voltage"`
}

// ChargePointConnectorStatus is the live state of one connector.
type ChargePointConnectorStatus struct {
	ChargePointID       string                   `json:"chargePointId" yaml:"chargePointId"`
	ConnectorID         int                      `json:"connectorId" yaml:"connectorId"`
	TotalConsumptionKwh float64                  `json:"totalConsumptionKwh" yaml:"totalConsumptionKwh"`
	Status              string                   `json:"status" yaml:"status"`
	Measurements        []ChargePointMeasurement `json:"measurements" yaml:"measurements"`
	StartTime           *Timestamp               `json:"startTime" yaml:"startTime"`
	EndTime             *Timestamp               `json:"endTime" yaml:"endTime"`
	SessionID           *int64                   `json:"sessionId" yaml:"sessionId"`
}

// ChargePointStatus is the live state of a charge point and its connectors.
type ChargePointStatus struct {
	ID                string                       `json:"id" yaml:"id"`
	Status            string                       `json:"status" yaml:"status"`
	ConnectorStatuses []ChargePointConnectorStatus `json:"connectorStatuses" yaml:"connectorStatuses"`
}

// Connector returns the status of the given connector, if reported.
func (s *ChargePointStatus) Connector(connectorID int) (*ChargePointConnectorStatus, bool) {
	for i := range s.ConnectorStatuses {
		if s.ConnectorStatuses[i].ConnectorID == connectorID {
			return &s.ConnectorStatuses[i], true
		}
	}
	return nil, false
}

// ConnectorIDs lists connector ids in the order the API reported them.
func (s *ChargePointStatus) ConnectorIDs() []int {
	ids := make([]int, 0, len(s.ConnectorStatuses))
	for _, c := range s.ConnectorStatuses {
		ids = append(ids, c.ConnectorID)
	}
	return ids
}
