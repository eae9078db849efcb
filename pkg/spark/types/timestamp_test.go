package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTimestamp(t *testing.T, raw string) Timestamp {
	t.Helper()
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(raw), &ts))
	return ts
}

func TestTimestampEpochMillis(t *testing.T) {
	ts := parseTimestamp(t, "1672576496789")
	assert.True(t, ts.Valid)
	assert.Equal(t, int64(1672576496789), ts.Time.UnixMilli())
}

func TestTimestampGMTSuffixEqualsEpochEquivalent(t *testing.T) {
	fromString := parseTimestamp(t, `"2023-01-01T12:34:56.789GMT"`)
	fromMillis := parseTimestamp(t, "1672576496789")

	require.True(t, fromString.Valid)
	assert.True(t, fromString.Time.Equal(fromMillis.Time), "both encodings must land on the same instant")
}

func TestTimestampFloatMillis(t *testing.T) {
	ts := parseTimestamp(t, "1672576496789.0")
	assert.True(t, ts.Valid)
	assert.Equal(t, int64(1672576496789), ts.Time.UnixMilli())
}

func TestTimestampUnparsedStringPassesThrough(t *testing.T) {
	ts := parseTimestamp(t, `"sometime yesterday"`)
	assert.False(t, ts.Valid)
	assert.Equal(t, "sometime yesterday", ts.Raw)

	marshaled, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"sometime yesterday"`, string(marshaled))
}

func TestTimestampNull(t *testing.T) {
	ts := parseTimestamp(t, "null")
	assert.False(t, ts.Valid)
	assert.Empty(t, ts.Raw)

	marshaled, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, "null", string(marshaled))
}

func TestTimestampMarshalISO8601(t *testing.T) {
	ts := TimestampOf(time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC))
	marshaled, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2023-11-14T22:13:20.000Z"`, string(marshaled))
}

func TestTimestampSubOpenIntervalIsZero(t *testing.T) {
	valid := TimestampOf(time.Now())
	var missing Timestamp

	assert.Zero(t, valid.Sub(missing))
	assert.Zero(t, missing.Sub(valid))
	assert.Equal(t, time.Minute, TimestampOf(valid.Time.Add(time.Minute)).Sub(valid))
}

func TestTimestampOrdering(t *testing.T) {
	early := TimestampOf(time.Unix(100, 0))
	late := TimestampOf(time.Unix(200, 0))
	var missing Timestamp

	assert.True(t, early.Before(late))
	assert.False(t, late.Before(early))
	assert.True(t, missing.Before(early), "absent timestamps sort first")
	assert.False(t, early.Before(missing))
}
