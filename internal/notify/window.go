package notify

import (
	"fmt"
	"time"
)

// Policy decides whether a message may be delivered at the given local time.
type Policy func(time.Time) bool

// AlwaysDeliver is a Policy with no quiet hours.
func AlwaysDeliver(time.Time) bool { return true }

// DeliveryWindow is a daily time-of-day range, both ends inclusive. A window
// whose start is after its end wraps past midnight.
type DeliveryWindow struct {
	Start time.Duration // offset from local midnight
	End   time.Duration
}

// DefaultDeliveryWindow is 07:00:00 to 23:59:59.
func DefaultDeliveryWindow() DeliveryWindow {
	return DeliveryWindow{
		Start: 7 * time.Hour,
		End:   23*time.Hour + 59*time.Minute + 59*time.Second,
	}
}

// ParseDeliveryWindow parses two "HH:MM:SS" (or "HH:MM") clock times.
func ParseDeliveryWindow(start, end string) (DeliveryWindow, error) {
	s, err := parseClock(start)
	if err != nil {
		return DeliveryWindow{}, fmt.Errorf("window start: %w", err)
	}
	e, err := parseClock(end)
	if err != nil {
		return DeliveryWindow{}, fmt.Errorf("window end: %w", err)
	}
	return DeliveryWindow{Start: s, End: e}, nil
}

func parseClock(v string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, v)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid clock time %q", v)
}

// Contains reports whether t falls inside the window on t's own clock.
// Sub-second precision is ignored, so 23:59:59.5 is still inside a window
// ending at 23:59:59.
func (w DeliveryWindow) Contains(t time.Time) bool {
	h, m, s := t.Clock()
	tod := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second

	if w.Start <= w.End {
		return tod >= w.Start && tod <= w.End
	}
	return tod >= w.Start || tod <= w.End
}

func (w DeliveryWindow) String() string {
	return fmt.Sprintf("%s-%s", formatClock(w.Start), formatClock(w.End))
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute), int(d%time.Minute/time.Second))
}
