package models

// StayPointFilter represents filter parameters for querying stored stay points
type StayPointFilter struct {
	SubscriberID  string `form:"msisdn_no"`
	PeriodStart   int    `form:"start"`
	PeriodEnd     int    `form:"end"`
	DaytimeHash   string `form:"daytime"`
	NighttimeHash string `form:"nighttime"`
	TaskID        int64  `form:"taskId"`
	Page          int    `form:"page"`
	PageSize      int    `form:"pageSize"`
}

// Normalize applies the default and maximum page sizes
func (f *StayPointFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 100
	}
	if f.PageSize > 1000 {
		f.PageSize = 1000
	}
}

// StayPointQuery is the input of an on-demand stay-point computation
type StayPointQuery struct {
	Start      int    `form:"start" binding:"required"`
	End        int    `form:"end" binding:"required"`
	DayHours   string `form:"day_hours"`   // comma-separated, e.g. 10,11,12
	NightHours string `form:"night_hours"` // comma-separated, e.g. 22,23,00
	WithPoints bool   `form:"with_points"`
}

// ProfileQuery is the input of an on-demand location-profile computation
type ProfileQuery struct {
	Dates string `form:"dates" binding:"required"` // comma-separated YYYYMMDD
}
