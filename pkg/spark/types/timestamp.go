package types

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// sparkTimeLayout is the format the history server uses for timestamps
// once the trailing literal "GMT" has been rewritten to a numeric zone
// offset.  The fractional second is optional on parse.
const sparkTimeLayout = "2006-01-02T15:04:05.999-0700"

// Timestamp is a point in time reported by the history server.  The
// server is inconsistent about encoding: some endpoints emit epoch
// milliseconds, others emit ISO-ish strings ending in a literal "GMT".
// Anything else is carried through unparsed in Raw rather than treated
// as an error, so callers can distinguish missing telemetry from
// malformed telemetry.
type Timestamp struct {
	Time  time.Time
	Valid bool
	// Raw holds the original string when it could not be parsed.
	Raw string
}

// TimestampOf wraps a concrete time, mostly for tests and event
// synthesis.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Time: t, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}

	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	// Epoch milliseconds, integer or float.
	var millis float64
	if err := json.Unmarshal(data, &millis); err == nil {
		t.Time = time.UnixMilli(int64(millis)).UTC()
		t.Valid = true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if strings.HasSuffix(s, "GMT") {
		rewritten := strings.TrimSuffix(s, "GMT") + "+0000"
		if parsed, err := time.Parse(sparkTimeLayout, rewritten); err == nil {
			t.Time = parsed.UTC()
			t.Valid = true
			return nil
		}
	}

	t.Raw = s
	return nil
}

// MarshalJSON renders valid timestamps as ISO-8601 so dispatch results
// are directly consumable, and passes unparsed values back out as-is.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Valid {
		return json.Marshal(t.Time.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	}
	if t.Raw != "" {
		return json.Marshal(t.Raw)
	}
	return []byte("null"), nil
}

// Sub returns the duration between two timestamps, or zero when either
// side is absent.  This is the aggregation-boundary defaulting rule:
// analytics treat an open interval as zero length, never as an error.
func (t Timestamp) Sub(other Timestamp) time.Duration {
	if !t.Valid || !other.Valid {
		return 0
	}
	return t.Time.Sub(other.Time)
}

// Before orders timestamps; absent ones sort first.
func (t Timestamp) Before(other Timestamp) bool {
	if !t.Valid {
		return other.Valid
	}
	if !other.Valid {
		return false
	}
	return t.Time.Before(other.Time)
}
