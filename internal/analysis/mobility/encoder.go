package mobility

import (
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/spatial"
)

// orderedCounter counts keys and remembers the order each key was first seen
type orderedCounter struct {
	index  map[string]int
	counts []models.GeohashCount
}

func newOrderedCounter() *orderedCounter {
	return &orderedCounter{
		index:  make(map[string]int),
		counts: []models.GeohashCount{},
	}
}

func (c *orderedCounter) add(key string) {
	i, ok := c.index[key]
	if !ok {
		i = len(c.counts)
		c.index[key] = i
		c.counts = append(c.counts, models.GeohashCount{Hash: key})
	}
	c.counts[i].Count++
}

func (c *orderedCounter) result() []models.GeohashCount {
	return c.counts
}

// CountGeohashes encodes each point at the given precision and counts the cells
// in order of first occurrence. The result is never nil.
func CountGeohashes(points []models.LatLon, precision int) []models.GeohashCount {
	counter := newOrderedCounter()
	for _, p := range points {
		counter.add(spatial.EncodeGeohash(p.Lat, p.Lon, precision))
	}
	return counter.result()
}
