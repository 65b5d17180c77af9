package entities

import "time"

const (
	SourceClock  = "clock"
	SourceManual = "manual"
)

// AttendanceRecord is one worked interval. ClockOut is nil while the
// record is open; TotalHours holds the raw duration in hours once the
// record is closed.
type AttendanceRecord struct {
	RecordID   string
	UserID     string
	ProjectID  string
	ClockIn    time.Time
	ClockOut   *time.Time
	Source     string
	Note       string
	TotalHours float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsOpen reports whether the record has not been clocked out yet.
func (r AttendanceRecord) IsOpen() bool {
	return r.ClockOut == nil
}

// DaySummary aggregates one calendar day (UTC). TotalHours is clamped
// to the workday window.
type DaySummary struct {
	Date        time.Time
	TotalHours  float64
	RecordCount int
}

// PeriodSummary aggregates a date range.
type PeriodSummary struct {
	From        time.Time
	To          time.Time
	TotalHours  float64
	RecordCount int
	Days        []DaySummary
}
