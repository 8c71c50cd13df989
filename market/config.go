package market

import (
	"fmt"
	"time"
)

// Config names a trading session: the timezone bars are evaluated in, and
// the regular-session open/close clock times within that timezone.
// OpenTime and CloseTime are interpreted as time-of-day only; the date
// component is ignored.
type Config struct {
	Name      string
	ZoneID    *time.Location
	OpenTime  time.Duration // offset from midnight, e.g. 9h30m
	CloseTime time.Duration
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Without the IANA tzdata database the session falls back to UTC.
		return time.UTC
	}
	return loc
}

// NYSE, LSE and TSE are the market sessions known out of the box. Callers
// may construct additional Config values for other exchanges.
var (
	NYSE = Config{
		Name:      "NYSE",
		ZoneID:    mustLoadLocation("America/New_York"),
		OpenTime:  9*time.Hour + 30*time.Minute,
		CloseTime: 16 * time.Hour,
	}
	LSE = Config{
		Name:      "LSE",
		ZoneID:    mustLoadLocation("Europe/London"),
		OpenTime:  8 * time.Hour,
		CloseTime: 16*time.Hour + 30*time.Minute,
	}
	TSE = Config{
		Name:      "TSE",
		ZoneID:    mustLoadLocation("Asia/Tokyo"),
		OpenTime:  9 * time.Hour,
		CloseTime: 15*time.Hour + 30*time.Minute,
	}
)

// SessionByName resolves one of the built-in market sessions by name.
func SessionByName(name string) (Config, error) {
	switch name {
	case "NYSE":
		return NYSE, nil
	case "LSE":
		return LSE, nil
	case "TSE":
		return TSE, nil
	default:
		return Config{}, fmt.Errorf("unknown market session: %q", name)
	}
}

// InSession reports whether t, interpreted in c.ZoneID, falls on a weekday
// within [OpenTime, CloseTime] inclusive of both ends, admitting bars
// timestamped exactly at the closing minute.
func (c Config) InSession(t time.Time) bool {
	local := t.In(c.ZoneID)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.ZoneID)
	offset := local.Sub(midnight)
	return offset >= c.OpenTime && offset <= c.CloseTime
}
