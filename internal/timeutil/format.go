// Package timeutil formats durations and angles for marker messages.
package timeutil

import (
	"fmt"
	"math"
	"time"
)

const (
	MsPerSecond = int64(1000)
	MsPerMinute = 60 * MsPerSecond
	MsPerHour   = 60 * MsPerMinute
)

// MinutesSeconds renders a millisecond duration as M:SS, truncating to whole seconds.
// Durations of an hour or more keep counting minutes (90 minutes is "90:00").
func MinutesSeconds(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	secs := ms / MsPerSecond
	return fmt.Sprintf("%s%d:%02d", sign, secs/60, secs%60)
}

// HoursMinutesSeconds renders fractional hours as HH:MM:SS, rounding to the nearest second.
func HoursMinutesSeconds(hours float64) string {
	sign := ""
	if hours < 0 {
		sign = "-"
		hours = -hours
	}
	total := int64(math.Round(hours * 3600))
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, total/3600, (total/60)%60, total%60)
}

// ClockSpan renders the interval [start, end) (epoch ms) as "(HH:MM, HH:MM)" in loc.
func ClockSpan(start, end int64, loc *time.Location) string {
	return fmt.Sprintf("(%s, %s)", time.UnixMilli(start).In(loc).Format("15:04"), time.UnixMilli(end).In(loc).Format("15:04"))
}
