package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"crewdeck/contexts/workforce/attendance-service/application"
	"crewdeck/contexts/workforce/attendance-service/domain/entities"
	httptransport "crewdeck/contexts/workforce/attendance-service/transport/http"
)

// Handler maps HTTP DTOs to application service calls.
type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) ClockInHandler(ctx context.Context, userID string, request httptransport.ClockInRequest) (httptransport.RecordResponse, error) {
	record, err := h.Service.ClockIn(ctx, userID, request.ProjectID, request.Note)
	if err != nil {
		return httptransport.RecordResponse{}, err
	}
	return recordDTO(record), nil
}

func (h Handler) ClockOutHandler(ctx context.Context, userID string, request httptransport.ClockOutRequest) (httptransport.RecordResponse, error) {
	record, err := h.Service.ClockOut(ctx, userID, request.Note)
	if err != nil {
		return httptransport.RecordResponse{}, err
	}
	return recordDTO(record), nil
}

func (h Handler) CreateManualEntryHandler(ctx context.Context, actorID string, request httptransport.ManualEntryRequest) (httptransport.RecordResponse, error) {
	userID := request.UserID
	if userID == "" {
		userID = actorID
	}
	record, err := h.Service.CreateManualEntry(ctx, actorID, userID, request.ProjectID, request.ClockIn, request.ClockOut, request.Note)
	if err != nil {
		return httptransport.RecordResponse{}, err
	}
	return recordDTO(record), nil
}

func (h Handler) GetRecordHandler(ctx context.Context, actorID string, recordID string) (httptransport.RecordResponse, error) {
	record, err := h.Service.GetRecord(ctx, actorID, recordID)
	if err != nil {
		return httptransport.RecordResponse{}, err
	}
	return recordDTO(record), nil
}

func (h Handler) UpdateRecordHandler(ctx context.Context, actorID string, recordID string, request httptransport.UpdateRecordRequest) (httptransport.RecordResponse, error) {
	record, err := h.Service.UpdateRecord(ctx, actorID, recordID, application.UpdateRecordInput{
		ClockIn:  request.ClockIn,
		ClockOut: request.ClockOut,
		Note:     request.Note,
	})
	if err != nil {
		return httptransport.RecordResponse{}, err
	}
	return recordDTO(record), nil
}

func (h Handler) DeleteRecordHandler(ctx context.Context, actorID string, recordID string) error {
	return h.Service.DeleteRecord(ctx, actorID, recordID)
}

func (h Handler) ListRecordsHandler(ctx context.Context, actorID string, userID string, from time.Time, to time.Time) (httptransport.ListRecordsResponse, error) {
	records, err := h.Service.ListRecords(ctx, actorID, userID, from, to)
	if err != nil {
		return httptransport.ListRecordsResponse{}, err
	}
	items := make([]httptransport.RecordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, recordDTO(record))
	}
	return httptransport.ListRecordsResponse{
		UserID:  userID,
		Records: items,
	}, nil
}

func (h Handler) DailySummaryHandler(ctx context.Context, actorID string, userID string, date time.Time) (httptransport.DailySummaryResponse, error) {
	summary, err := h.Service.DailySummary(ctx, actorID, userID, date)
	if err != nil {
		return httptransport.DailySummaryResponse{}, err
	}
	return httptransport.DailySummaryResponse{
		UserID:      userID,
		Date:        summary.Date.Format("2006-01-02"),
		TotalHours:  summary.TotalHours,
		RecordCount: summary.RecordCount,
	}, nil
}

func (h Handler) PeriodSummaryHandler(ctx context.Context, actorID string, userID string, from time.Time, to time.Time) (httptransport.PeriodSummaryResponse, error) {
	summary, err := h.Service.PeriodSummary(ctx, actorID, userID, from, to)
	if err != nil {
		return httptransport.PeriodSummaryResponse{}, err
	}

	days := make([]httptransport.DaySummaryDTO, 0, len(summary.Days))
	for _, day := range summary.Days {
		days = append(days, httptransport.DaySummaryDTO{
			Date:        day.Date.Format("2006-01-02"),
			TotalHours:  day.TotalHours,
			RecordCount: day.RecordCount,
		})
	}
	return httptransport.PeriodSummaryResponse{
		UserID:      userID,
		From:        summary.From,
		To:          summary.To,
		TotalHours:  summary.TotalHours,
		RecordCount: summary.RecordCount,
		Days:        days,
	}, nil
}

func recordDTO(record entities.AttendanceRecord) httptransport.RecordResponse {
	return httptransport.RecordResponse{
		RecordID:   record.RecordID,
		UserID:     record.UserID,
		ProjectID:  record.ProjectID,
		ClockIn:    record.ClockIn,
		ClockOut:   record.ClockOut,
		Source:     record.Source,
		Note:       record.Note,
		TotalHours: record.TotalHours,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}
