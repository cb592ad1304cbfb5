package models

// ChargingSession is a recorded charging event.
type ChargingSession struct {
	ID                  int64     `json:"id" yaml:"id"`
	ChargePointID       string    `json:"chargePointId" yaml:"chargePointId"`
	ConnectorID         int       `json:"connectorId" yaml:"connectorId"`
	SessionType         string    `json:"sessionType" yaml:"sessionType"`
	TotalConsumptionKwh float64   `json:"totalConsumptionKwh" yaml:"totalConsumptionKwh"`
	StartTime           Timestamp `json:"startTime" yaml:"startTime"`
	EndTime             Timestamp `json:"endTime" yaml:"endTime"`
}

// SessionTimeFields are the session keys that receive PatchTimestamp before decoding.
var SessionTimeFields = []string{"startTime", "endTime"}
