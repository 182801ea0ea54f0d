package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TicksPerSecond is the fixed resolution of Time.
const TicksPerSecond int64 = 1000

// Time is an absolute or relative moment on a timeline, counted in ticks.
type Time int64

const (
	TimeZero Time = 0
	TimeMin  Time = math.MinInt64
	TimeMax  Time = math.MaxInt64
)

func FromSeconds(seconds float64) Time {
	return Time(seconds * float64(TicksPerSecond))
}

func FromMinutes(minutes float64) Time {
	return FromSeconds(minutes * 60)
}

func FromHours(hours float64) Time {
	return FromSeconds(hours * 3600)
}

// tick is the wall-clock length of one tick.
const tick = time.Second / time.Duration(TicksPerSecond)

// FromDuration converts a wall-clock duration, truncating below tick resolution.
func FromDuration(d time.Duration) Time {
	return Time(d / tick)
}

func (t Time) Ticks() int64 { return int64(t) }

func (t Time) Seconds() float64 {
	return float64(t) / float64(TicksPerSecond)
}

// Duration converts t to wall-clock time, saturating outside the range of
// time.Duration.
func (t Time) Duration() time.Duration {
	switch {
	case t > Time(math.MaxInt64/tick):
		return math.MaxInt64
	case t < Time(math.MinInt64/tick):
		return math.MinInt64
	}
	return time.Duration(t) * tick
}

func (t Time) Add(d Time) Time { return t + d }

func (t Time) Sub(d Time) Time { return t - d }

// Scale multiplies the tick count by factor, truncating toward zero.
func (t Time) Scale(factor float64) Time {
	return Time(float64(t) * factor)
}

// Div divides the tick count by factor, truncating toward zero.
func (t Time) Div(factor float64) Time {
	return Time(float64(t) / factor)
}

func (t Time) Before(o Time) bool { return t < o }

func (t Time) After(o Time) bool { return t > o }

// Compare returns -1, 0 or +1. Unlike a tick difference it never overflows.
func (t Time) Compare(o Time) int {
	switch {
	case t < o:
		return -1
	case t > o:
		return 1
	default:
		return 0
	}
}

// String renders the time as "[m:ss]" or "[h:mm:ss]", with ".mmm" when there
// is a sub-second part.
func (t Time) String() string {
	ticks := int64(t)
	neg := ticks < 0
	if neg {
		ticks = -ticks
	}
	if ticks < 0 {
		// TimeMin has no positive counterpart.
		return fmt.Sprintf("[%d ticks]", int64(t))
	}

	secs := ticks / TicksPerSecond
	h := secs / 3600
	m := (secs / 60) % 60
	s := secs % 60
	ms := (ticks % TicksPerSecond) * 1000 / TicksPerSecond

	var sb strings.Builder
	sb.WriteByte('[')
	if neg {
		sb.WriteByte('-')
	}
	if h == 0 {
		fmt.Fprintf(&sb, "%d", m)
	} else {
		fmt.Fprintf(&sb, "%d:%02d", h, m)
	}
	fmt.Fprintf(&sb, ":%02d", s)
	if ms > 0 {
		fmt.Fprintf(&sb, ".%03d", ms)
	}
	sb.WriteByte(']')
	return sb.String()
}
