package azimuth

import (
	"math"
	"time"

	"github.com/kilianp07/nightplan/core/model"
)

const deg = math.Pi / 180

// j2000 is 2000-01-01T12:00:00Z.
var j2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// Pointing converts an equatorial position to azimuth (degrees east of north) using
// mean sidereal time. It ignores precession and refraction, which is ample for
// deciding whether a dome faces the wind.
func Pointing(site model.Site, c model.Coords, t int64) float64 {
	lst := LocalSiderealTime(site.Longitude, t)
	ha := (lst*15 - c.RA) * deg
	dec := c.Dec * deg
	lat := site.Latitude * deg
	az := math.Atan2(math.Sin(ha), math.Cos(ha)*math.Sin(lat)-math.Tan(dec)*math.Cos(lat))
	// atan2 measures from south; shift to north-based azimuth
	return math.Mod(az/deg+180+360, 360)
}

// LocalSiderealTime returns the local mean sidereal time in hours.
func LocalSiderealTime(longitude float64, t int64) float64 {
	days := float64(t-j2000.UnixMilli()) / float64(24*time.Hour/time.Millisecond)
	gmst := 18.697374558 + 24.06570982441908*days
	lst := math.Mod(gmst+longitude/15, 24)
	if lst < 0 {
		lst += 24
	}
	return lst
}

// HourAngle returns the hour angle of c in hours, normalised to [-12, 12).
func HourAngle(site model.Site, c model.Coords, t int64) float64 {
	ha := LocalSiderealTime(site.Longitude, t) - c.RA/15
	ha = math.Mod(ha+12, 24)
	if ha < 0 {
		ha += 24
	}
	return ha - 12
}
