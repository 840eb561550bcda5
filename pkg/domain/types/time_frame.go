package types

import "github.com/m-mizutani/goerr/v2"

// TimeFrame names a window ending now, used by temporal search.
type TimeFrame string

const (
	TimeFrameRecent TimeFrame = "recent"
	TimeFrameWeek   TimeFrame = "week"
	TimeFrameMonth  TimeFrame = "month"
)

var ErrInvalidTimeFrame = goerr.New("invalid time frame")

func AllTimeFrames() []TimeFrame {
	return []TimeFrame{TimeFrameRecent, TimeFrameWeek, TimeFrameMonth}
}

func (f TimeFrame) IsValid() bool {
	switch f {
	case TimeFrameRecent, TimeFrameWeek, TimeFrameMonth:
		return true
	default:
		return false
	}
}

func (f TimeFrame) String() string {
	return string(f)
}

// ParseTimeFrame parses a string into a TimeFrame
func ParseTimeFrame(s string) (TimeFrame, error) {
	f := TimeFrame(s)
	if !f.IsValid() {
		return "", goerr.Wrap(ErrInvalidTimeFrame, "unknown time frame", goerr.V("value", s))
	}
	return f, nil
}
