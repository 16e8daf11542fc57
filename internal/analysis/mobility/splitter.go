package mobility

import (
	"sort"

	"github.com/jengzang/mobility-backend-go/internal/models"
)

// HourSet is a set of two-character hour labels such as "09" or "23"
type HourSet map[string]struct{}

// NewHourSet builds a set from hour labels
func NewHourSet(labels []string) HourSet {
	s := make(HourSet, len(labels))
	for _, l := range labels {
		s[l] = struct{}{}
	}
	return s
}

// Contains reports whether label is in the set
func (s HourSet) Contains(label string) bool {
	_, ok := s[label]
	return ok
}

// Labels returns the hour labels in sorted order
func (s HourSet) Labels() []string {
	labels := make([]string, 0, len(s))
	for l := range s {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// HourLabel returns the last two characters of a bucket timestamp,
// or the whole string when it is shorter.
func HourLabel(ts string) string {
	if len(ts) < 2 {
		return ts
	}
	return ts[len(ts)-2:]
}

// SplitDayNight routes each point to the daytime or nighttime bucket by its hour
// label and counts geohash cells per bucket. The day set is checked first, so a
// label in both sets counts as daytime. Labels in neither set are dropped.
func SplitDayNight(points []models.TimedPoint, day, night HourSet, precision int) models.DayNightCounts {
	var dayPoints, nightPoints []models.LatLon
	for _, p := range points {
		label := HourLabel(p.Timestamp)
		switch {
		case day.Contains(label):
			dayPoints = append(dayPoints, p.Point)
		case night.Contains(label):
			nightPoints = append(nightPoints, p.Point)
		}
	}

	return models.DayNightCounts{
		Daytime:   CountGeohashes(dayPoints, precision),
		Nighttime: CountGeohashes(nightPoints, precision),
	}
}

