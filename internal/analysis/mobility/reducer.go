package mobility

import (
	"sort"

	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/spatial"
)

// RankCounts returns a copy of counts sorted by descending count.
// The sort is stable, so equal counts keep their first-occurrence order.
func RankCounts(counts []models.GeohashCount) []models.GeohashCount {
	ranked := make([]models.GeohashCount, len(counts))
	copy(ranked, counts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

// MajorityVote returns the most frequent geohash, or "none" for an empty list
func MajorityVote(counts []models.GeohashCount) string {
	if len(counts) == 0 {
		return models.NoneHash
	}
	return RankCounts(counts)[0].Hash
}

// ReduceStayPoint picks the majority daytime and nighttime cells
func ReduceStayPoint(dn models.DayNightCounts) (day, night string) {
	return MajorityVote(dn.Daytime), MajorityVote(dn.Nighttime)
}

// NewStayPoint reduces a subscriber's buckets to a stay point. The commute
// distance between the two cell centres is set when both cells are known.
func NewStayPoint(subscriberID string, dn models.DayNightCounts) models.StayPoint {
	day, night := ReduceStayPoint(dn)
	sp := models.StayPoint{
		SubscriberID:  subscriberID,
		DaytimeHash:   day,
		NighttimeHash: night,
	}
	if day != models.NoneHash && night != models.NoneHash {
		meters := spatial.GeohashDistance(day, night)
		sp.CommuteMeters = &meters
	}
	return sp
}

// ProfileEntries flattens a location dict into ranked rows for one date.
// Subscribers are emitted in sorted order; ranks start at 1.
func ProfileEntries(date int, dict models.LocationDict) []models.ProfileEntry {
	subscribers := make([]string, 0, len(dict))
	for sub := range dict {
		subscribers = append(subscribers, sub)
	}
	sort.Strings(subscribers)

	var entries []models.ProfileEntry
	for _, sub := range subscribers {
		for i, c := range RankCounts(dict[sub]) {
			entries = append(entries, models.ProfileEntry{
				SampleDate:   date,
				SubscriberID: sub,
				Geohash:      c.Hash,
				VisitCount:   c.Count,
				Rank:         i + 1,
			})
		}
	}
	return entries
}
