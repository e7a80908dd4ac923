package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timeframe is a bar period in seconds. Backtests run on daily bars; the
// timeframe of a request is recorded with its result.
type Timeframe int32

const (
	M1  Timeframe = 60
	M5  Timeframe = 300
	M15 Timeframe = 900
	M30 Timeframe = 1800
	H1  Timeframe = 3600
	H4  Timeframe = 14400
	D1  Timeframe = 86400
	W1  Timeframe = 604800
	MN1 Timeframe = 2592000
)

// ParseTimeframe accepts the MetaTrader style labels (M15, H4, D1, W1, MN1)
// and the compact ones used by the journal UI (15m, 4h, 1d, 1w).
func ParseTimeframe(s string) (Timeframe, error) {
	label := strings.TrimSpace(s)
	switch strings.ToUpper(label) {
	case "M1":
		return M1, nil
	case "M5":
		return M5, nil
	case "M15":
		return M15, nil
	case "M30":
		return M30, nil
	case "H1":
		return H1, nil
	case "H4":
		return H4, nil
	case "D1", "DAILY":
		return D1, nil
	case "W1", "WEEKLY":
		return W1, nil
	case "MN1", "MONTHLY":
		return MN1, nil
	}

	if len(label) < 2 {
		return 0, fmt.Errorf("unsupported timeframe %q", s)
	}
	n, err := strconv.Atoi(label[:len(label)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("unsupported timeframe %q", s)
	}
	var unit Timeframe
	switch label[len(label)-1] {
	case 'm':
		unit = M1
	case 'h', 'H':
		unit = H1
	case 'd', 'D':
		unit = D1
	case 'w', 'W':
		unit = W1
	default:
		return 0, fmt.Errorf("unsupported timeframe %q", s)
	}
	return Timeframe(n) * unit, nil
}

// Duration is the length of one bar.
func (tf Timeframe) Duration() time.Duration {
	return time.Duration(tf) * time.Second
}

// String returns the MetaTrader style label, e.g. H4 or D1.
func (tf Timeframe) String() string {
	sec := int32(tf)
	switch {
	case sec <= 0:
		return fmt.Sprintf("timeframe(%d)", sec)
	case sec < 3600 && sec%60 == 0:
		return fmt.Sprintf("M%d", sec/60)
	case sec < 86400 && sec%3600 == 0:
		return fmt.Sprintf("H%d", sec/3600)
	case tf == W1:
		return "W1"
	case tf == MN1:
		return "MN1"
	case sec%86400 == 0:
		return fmt.Sprintf("D%d", sec/86400)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}
