package models

import (
	"github.com/goccy/go-json"
)

// Connector modes accepted by the API.
const (
	ModeOn  = "On"
	ModeOff = "Off"
)

// ChargePointConnectorSettings is the writable configuration of a connector.
// It addresses itself through ChargePointID and ConnectorID. Fields the API
// sends that are not modelled here are kept in Extra and written back
// untouched, so a read-modify-write never drops data.
type ChargePointConnectorSettings struct {
	ChargePointID string   `json:"chargePointId" yaml:"chargePointId"`
	ConnectorID   int      `json:"connectorId" yaml:"connectorId"`
	Mode          string   `json:"mode" yaml:"mode"`
	RfidLock      bool     `json:"rfidLock" yaml:"rfidLock"`
	CableLock     bool     `json:"cableLock" yaml:"cableLock"`
	MaxCurrent    *float64 `json:"maxCurrent" yaml:"maxCurrent"`

	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

type settingsFields ChargePointConnectorSettings

var knownSettingsKeys = []string{"chargePointId", "connectorId", "mode", "rfidLock", "cableLock", "maxCurrent"}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ChargePointConnectorSettings) UnmarshalJSON(data []byte) error {
	var fields settingsFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, key := range knownSettingsKeys {
		delete(all, key)
	}
	if len(all) == 0 {
		all = nil
	}
	fields.Extra = all
	*s = ChargePointConnectorSettings(fields)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s ChargePointConnectorSettings) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(settingsFields(s))
	if err != nil || len(s.Extra) == 0 {
		return data, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range s.Extra {
		if _, known := merged[key]; !known {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// SetMaxCurrent sets the connector current limit in amperes.
func (s *ChargePointConnectorSettings) SetMaxCurrent(amps float64) {
	s.MaxCurrent = &amps
}
