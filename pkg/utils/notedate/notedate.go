// Package notedate derives logical dates from journal note names and renders them relative
// to now.
package notedate

import (
	"fmt"
	"math"
	"path"
	"regexp"
	"strconv"
	"time"

	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

var filenamePattern = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})(?:_(\d{2})-(\d{2}))?`)

// FromFilename extracts a YYYY-MM-DD[_HH-mm] date from the base name of name, in local time.
// A missing or invalid time of day means midnight. Invalid calendar dates are rejected.
func FromFilename(name string) (time.Time, bool) {
	m := filenamePattern.FindStringSubmatch(path.Base(name))
	if m == nil {
		return time.Time{}, false
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}

	if m[4] != "" {
		hour, _ := strconv.Atoi(m[4])
		minute, _ := strconv.Atoi(m[5])
		if hour < 24 && minute < 60 {
			d = d.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
		}
	}

	return d, true
}

// AgeDays returns the age of t at now in fractional days. Future dates have age 0.
func AgeDays(t, now time.Time) float64 {
	return math.Max(0, now.Sub(t).Hours()/24)
}

// Relative renders t as "today", "yesterday", "N days ago", "N weeks ago" or a long date.
func Relative(t, now time.Time) string {
	days := int(math.Floor(now.Sub(t).Hours() / 24))
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		if weeks := days / 7; weeks > 1 {
			return fmt.Sprintf("%d weeks ago", weeks)
		}
		return "1 week ago"
	default:
		return t.Format("January 2, 2006")
	}
}

// RangeForFrame returns the window [now - days(frame), now].
func RangeForFrame(frame types.TimeFrame, now time.Time, tuning *model.Tuning) (model.TimeRange, error) {
	if !frame.IsValid() {
		return model.TimeRange{}, goerr.Wrap(types.ErrInvalidTimeFrame, "cannot resolve time range", goerr.V("frame", frame))
	}
	return model.TimeRange{
		Start: now.AddDate(0, 0, -tuning.Days(frame)),
		End:   now,
	}, nil
}
