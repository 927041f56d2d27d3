package speed

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrUnknownUnit = errors.New("unknown rate unit")

type Unit int

const (
	WordsPerMinute Unit = iota
	CharsPerMinute
)

func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wpm", "":
		return WordsPerMinute, nil
	case "cpm":
		return CharsPerMinute, nil
	}

	return WordsPerMinute, errors.Wrapf(ErrUnknownUnit, "%q", s)
}

func (u Unit) String() string {
	switch u {
	case CharsPerMinute:
		return "cpm"
	case WordsPerMinute:
		return "wpm"
	}

	return fmt.Sprintf("Unit(%d)", int(u))
}

func (u *Unit) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	parsed, err := ParseUnit(s)
	if err != nil {
		return err
	}
	*u = parsed

	return nil
}

func (u Unit) MarshalYAML() (interface{}, error) {
	return u.String(), nil
}

// Format renders a rate the way the status surface displays it, e.g. "42.3 wpm".
func Format(rate float64, unit Unit) string {
	return fmt.Sprintf("%.1f %s", rate, unit)
}
