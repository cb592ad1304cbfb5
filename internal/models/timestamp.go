package models

import (
	"fmt"
	"regexp"
	"time"

	"github.com/goccy/go-json"
)

// TimestampLayout is the millisecond layout the API uses for session times.
const TimestampLayout = "2006-01-02T15:04:05.000"

// Zone-less layouts accepted on input, keyed by value length. time.Parse
// accepts any fraction after a layout without one, so lengths are matched first.
var localLayouts = map[int]string{
	len("2006-01-02T15:04:05"):        "2006-01-02T15:04:05",
	len(TimestampLayout):              TimestampLayout,
	len("2006-01-02T15:04:05.000000"): "2006-01-02T15:04:05.000000",
}

var twoDigitFraction = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d\d$`)

// PatchTimestamp pads a value carrying exactly two fractional digits to
// millisecond precision. Every other input is returned unchanged.
func PatchTimestamp(value string) string {
	if twoDigitFraction.MatchString(value) {
		return value + "0"
	}
	return value
}

// Timestamp is a wall-clock time without zone as sent by the API.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses a zone-less value with whole seconds, milliseconds or
// microseconds, falling back to RFC 3339 for values that carry a zone.
func ParseTimestamp(value string) (Timestamp, error) {
	if layout, ok := localLayouts[len(value)]; ok {
		if t, err := time.Parse(layout, value); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return Timestamp{}, fmt.Errorf("models: invalid timestamp %q", value)
	}
	return Timestamp{Time: t}, nil
}

func (t Timestamp) String() string {
	if t.Location() == time.UTC {
		return t.Format(TimestampLayout)
	}
	return t.Format(time.RFC3339Nano)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (t Timestamp) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.String(), nil
}
