package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LegacyOffset is the correction the previous harvester added after parsing
// a source date in the host's local timezone.
const LegacyOffset = 8 * time.Hour

var (
	relativePattern = regexp.MustCompile(`^(\d+)\s*(秒|分钟|小时)前$`)
	todayPattern    = regexp.MustCompile(`^今天\s*(\d{1,2}:\d{2})$`)
	yesterdayPat    = regexp.MustCompile(`^昨天\s*(\d{1,2}:\d{2})$`)
	justNow         = []string{"刚刚", "刚才"}
)

type DateParser struct {
	loc    *time.Location
	host   *time.Location
	legacy bool
	now    func() time.Time
}

// NewDateParser parses source dates as wall-clock time in loc.
func NewDateParser(loc *time.Location) *DateParser {
	return &DateParser{loc: loc, now: time.Now}
}

// WithLegacyOffset switches absolute dates to the historical behaviour: a
// naive parse in host followed by +8h. On a host already at UTC+8 this
// shifts twice.
func (dp *DateParser) WithLegacyOffset(host *time.Location) *DateParser {
	cp := *dp
	cp.legacy = true
	cp.host = host
	return &cp
}

// WithClock replaces the clock used for relative dates.
func (dp *DateParser) WithClock(now func() time.Time) *DateParser {
	cp := *dp
	cp.now = now
	return &cp
}

// Parse понимает "2022-01-27 15:57", "22-1-27 15:57", "1-27 15:57",
// "今天 15:57", "昨天 15:57", "5分钟前", "刚刚"
func (dp *DateParser) Parse(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	now := dp.now().In(dp.loc)

	for _, s := range justNow {
		if dateStr == s {
			return now.Truncate(time.Minute), nil
		}
	}

	if m := relativePattern.FindStringSubmatch(dateStr); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid relative amount: %q: %w", m[1], err)
		}
		unit := map[string]time.Duration{"秒": time.Second, "分钟": time.Minute, "小时": time.Hour}[m[2]]
		return now.Add(-time.Duration(n) * unit).Truncate(time.Minute), nil
	}

	if m := todayPattern.FindStringSubmatch(dateStr); m != nil {
		return dp.atClock(now, m[1])
	}
	if m := yesterdayPat.FindStringSubmatch(dateStr); m != nil {
		return dp.atClock(now.AddDate(0, 0, -1), m[1])
	}

	return dp.parseAbsolute(dateStr, now)
}

// parseAbsolute splits "date time" on the space, the date on '-' and the time on ':'.
func (dp *DateParser) parseAbsolute(dateStr string, now time.Time) (time.Time, error) {
	parts := strings.Fields(dateStr)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("unable to parse date: %q", dateStr)
	}

	dateParts, err := parseInts(strings.Split(parts[0], "-"))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	timeParts, err := parseInts(strings.Split(parts[1], ":"))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", dateStr, err)
	}

	var year, month, day int
	switch len(dateParts) {
	case 3:
		year, month, day = dateParts[0], dateParts[1], dateParts[2]
		if year < 100 {
			year += 2000
		}
	case 2:
		year, month, day = now.Year(), dateParts[0], dateParts[1]
	default:
		return time.Time{}, fmt.Errorf("unable to parse date: %q", dateStr)
	}

	var hour, minute, second int
	switch len(timeParts) {
	case 3:
		second = timeParts[2]
		fallthrough
	case 2:
		hour, minute = timeParts[0], timeParts[1]
	default:
		return time.Time{}, fmt.Errorf("unable to parse time: %q", dateStr)
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month: %d", month)
	}
	if day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, fmt.Errorf("invalid day: %d", day)
	}
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("invalid time of day: %q", parts[1])
	}

	if dp.legacy {
		return time.Date(year, time.Month(month), day, hour, minute, second, 0, dp.host).Add(LegacyOffset), nil
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, dp.loc), nil
}

func (dp *DateParser) atClock(day time.Time, clock string) (time.Time, error) {
	hm, err := parseInts(strings.Split(clock, ":"))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	if hm[0] > 23 || hm[1] > 59 {
		return time.Time{}, fmt.Errorf("invalid time of day: %q", clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hm[0], hm[1], 0, 0, dp.loc), nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func parseInts(parts []string) ([]int, error) {
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := parseIntSafe(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func parseIntSafe(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("failed to parse %q as int", s)
	}
	return n, nil
}
