package httptransport

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ClockInRequest struct {
	ProjectID string `json:"project_id,omitempty"`
	Note      string `json:"note,omitempty"`
}

type ClockOutRequest struct {
	Note string `json:"note,omitempty"`
}

type ManualEntryRequest struct {
	UserID    string    `json:"user_id,omitempty"`
	ProjectID string    `json:"project_id,omitempty"`
	ClockIn   time.Time `json:"clock_in"`
	ClockOut  time.Time `json:"clock_out"`
	Note      string    `json:"note,omitempty"`
}

type UpdateRecordRequest struct {
	ClockIn  *time.Time `json:"clock_in,omitempty"`
	ClockOut *time.Time `json:"clock_out,omitempty"`
	Note     *string    `json:"note,omitempty"`
}

type RecordResponse struct {
	RecordID   string     `json:"record_id"`
	UserID     string     `json:"user_id"`
	ProjectID  string     `json:"project_id,omitempty"`
	ClockIn    time.Time  `json:"clock_in"`
	ClockOut   *time.Time `json:"clock_out,omitempty"`
	Source     string     `json:"source"`
	Note       string     `json:"note,omitempty"`
	TotalHours float64    `json:"total_hours"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type ListRecordsResponse struct {
	UserID  string           `json:"user_id"`
	Records []RecordResponse `json:"records"`
}

type DaySummaryDTO struct {
	Date        string  `json:"date"`
	TotalHours  float64 `json:"total_hours"`
	RecordCount int     `json:"record_count"`
}

type DailySummaryResponse struct {
	UserID      string  `json:"user_id"`
	Date        string  `json:"date"`
	TotalHours  float64 `json:"total_hours"`
	RecordCount int     `json:"record_count"`
}

type PeriodSummaryResponse struct {
	UserID      string          `json:"user_id"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	TotalHours  float64         `json:"total_hours"`
	RecordCount int             `json:"record_count"`
	Days        []DaySummaryDTO `json:"days"`
}
