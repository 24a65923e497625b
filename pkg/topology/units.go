package topology

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Bandwidth is a link or interface rate in bits per second.
type Bandwidth uint64

const (
	Bit  Bandwidth = 1
	Kbit           = 1000 * Bit
	Mbit           = 1000 * Kbit
	Gbit           = 1000 * Mbit
	Tbit           = 1000 * Gbit
)

var bandwidthUnits = []struct {
	suffix string
	scale  Bandwidth
}{
	{"Tbit", Tbit},
	{"Gbit", Gbit},
	{"Mbit", Mbit},
	{"Kbit", Kbit},
	{"bit", Bit},
}

// ErrBadUnit is returned for an unparseable bandwidth or latency string.
var ErrBadUnit = errors.New("invalid unit value")

// String renders the rate in the largest unit that divides it exactly,
// e.g. "1Gbit", "500Mbit".
func (b Bandwidth) String() string {
	if b == 0 {
		return "0bit"
	}
	for _, u := range bandwidthUnits {
		if b%u.scale == 0 {
			return strconv.FormatUint(uint64(b/u.scale), 10) + u.suffix
		}
	}
	return strconv.FormatUint(uint64(b), 10) + "bit"
}

// ParseBandwidth parses strings such as "10Gbit" or "100Mbit". Unit
// matching is case-insensitive and "bps" is read as "bit".
func ParseBandwidth(s string) (Bandwidth, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if strings.HasSuffix(v, "bps") {
		v = strings.TrimSuffix(v, "bps") + "bit"
	}
	for _, u := range bandwidthUnits {
		suffix := strings.ToLower(u.suffix)
		if !strings.HasSuffix(v, suffix) {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(v, suffix), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bandwidth %q", ErrBadUnit, s)
		}
		return Bandwidth(n) * u.scale, nil
	}
	return 0, fmt.Errorf("%w: bandwidth %q", ErrBadUnit, s)
}

// FormatLatency renders whole milliseconds as "10ms" and anything finer with
// time.Duration's notation.
func FormatLatency(d time.Duration) string {
	if d%time.Millisecond == 0 {
		return strconv.FormatInt(int64(d/time.Millisecond), 10) + "ms"
	}
	return d.String()
}

// ParseLatency accepts any time.ParseDuration string.
func ParseLatency(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: latency %q", ErrBadUnit, s)
	}
	return d, nil
}

// FormatLoss renders a packet-loss percentage as "0.5%".
func FormatLoss(pct float64) string {
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}

// ParseLoss parses "0.5%" or a bare number into a percentage.
func ParseLoss(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: packet loss %q", ErrBadUnit, s)
	}
	return v, nil
}
