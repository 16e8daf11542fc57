package models

// DayNightCounts holds the geohash counts of the daytime and nighttime buckets
type DayNightCounts struct {
	Daytime   []GeohashCount `json:"daytime"`
	Nighttime []GeohashCount `json:"nighttime"`
}

// StayPoint is a subscriber's most frequent daytime and nighttime cells
type StayPoint struct {
	SubscriberID  string   `json:"msisdn_no"`
	DaytimeHash   string   `json:"daytime"`   // "none" when no daytime points
	NighttimeHash string   `json:"nighttime"` // "none" when no nighttime points
	CommuteMeters *float64 `json:"commute_meters,omitempty"`
}

// StayPointRow is one row of the stay-point table
type StayPointRow struct {
	SubscriberID          string         `json:"msisdn_no"`
	Points                []TimedPoint   `json:"mobility_gene_points_w_time,omitempty"`
	DayNightLocations     DayNightCounts `json:"day_night_locations"`
	MajorDayNightLocation StayPoint      `json:"major_day_night_location"`
}

// StoredStayPoint is a persisted stay point of an analysis run
type StoredStayPoint struct {
	ID            int64    `json:"id" db:"id"`
	TaskID        int64    `json:"taskId" db:"task_id"`
	PeriodStart   int      `json:"periodStart" db:"period_start"`
	PeriodEnd     int      `json:"periodEnd" db:"period_end"`
	SubscriberID  string   `json:"msisdn_no" db:"msisdn_no"`
	DaytimeHash   string   `json:"daytime" db:"day_geohash"`
	NighttimeHash string   `json:"nighttime" db:"night_geohash"`
	DayCount      int      `json:"dayCount" db:"day_count"`
	NightCount    int      `json:"nightCount" db:"night_count"`
	CommuteMeters *float64 `json:"commuteMeters,omitempty" db:"commute_m"`
	CreatedAt     string   `json:"createdAt,omitempty" db:"created_at"`
}

// StayPointsResponse represents a paginated response of stored stay points
type StayPointsResponse struct {
	Data       []StoredStayPoint `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// ProfileEntry is one ranked cell of a persisted location profile
type ProfileEntry struct {
	SampleDate   int    `json:"sampleDate" db:"sample_date"`
	SubscriberID string `json:"msisdn_no" db:"msisdn_no"`
	Geohash      string `json:"geohash" db:"geohash"`
	VisitCount   int    `json:"visitCount" db:"visit_count"`
	Rank         int    `json:"rank" db:"rank_order"`
}

// ProfileSummary describes how concentrated a subscriber's visits were on one date
type ProfileSummary struct {
	SampleDate        int     `json:"sampleDate"`
	SubscriberID      string  `json:"msisdn_no"`
	Cells             int     `json:"cells"`
	Visits            int     `json:"visits"`
	TopGeohash        string  `json:"topGeohash"`
	TopShare          float64 `json:"topShare"`
	Entropy           float64 `json:"entropy"`
	NormalizedEntropy float64 `json:"normalizedEntropy"`
	Centroid          LatLon  `json:"centroid"`
	GyrationMeters    float64 `json:"radiusOfGyrationMeters"`
}
