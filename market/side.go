package market

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Side is the direction of a position: +1 long, -1 short.
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

// ParseSide accepts "long"/"buy" and "short"/"sell". Empty means Long.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (want long or short)", s)
	}
}

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return fmt.Sprintf("side(%d)", int8(s))
	}
}

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	parsed, err := ParseSide(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
