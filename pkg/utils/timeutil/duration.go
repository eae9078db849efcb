package timeutil

import (
	"time"

	"github.com/pkg/errors"
)

// Duration is a time.Duration that can be deserialized from a YAML
// duration string (e.g. "30s") as accepted by time.ParseDuration.
type Duration time.Duration

// AsDuration converts back to the stdlib type.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "%s is not a valid duration string", s)
	}

	*d = Duration(parsed)
	return nil
}

// UnmarshalText makes Duration usable with the defaults package's
// `default:` struct tags.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
