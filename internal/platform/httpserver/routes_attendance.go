package httpserver

import (
	"errors"
	"net/http"
	"time"

	attendanceerrors "crewdeck/contexts/workforce/attendance-service/domain/errors"
	attendancehttp "crewdeck/contexts/workforce/attendance-service/transport/http"
)

const defaultRecordLookback = 7 * 24 * time.Hour

func (s *Server) handleClockIn(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "attendance.log") {
		return
	}
	var req attendancehttp.ClockInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.attendance.Handler.ClockInHandler(r.Context(), claims.UserID, req)
	if err != nil {
		writeAttendanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleClockOut(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "attendance.log") {
		return
	}
	var req attendancehttp.ClockOutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.attendance.Handler.ClockOutHandler(r.Context(), claims.UserID, req)
	if err != nil {
		writeAttendanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateManualEntry(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "attendance.log") {
		return
	}
	var req attendancehttp.ManualEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.attendance.Handler.CreateManualEntryHandler(r.Context(), claims.UserID, req)
	if err != nil {
		writeAttendanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetAttendanceRecord(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.attendance.Handler.GetRecordHandler(r.Context(), claims.UserID, r.PathValue("record_id"))
	if err != nil {
		writeAttendanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateAttendanceRecord(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req attendancehttp.UpdateRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.attendance.Handler.UpdateRecordHandler(r.Context(), claims.UserID, r.PathValue("record_id"), req)
	if err != nil {
		writeAttendanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAttendanceRecord(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if err := s.attendance.Handler.DeleteRecordHandler(r.Context(), claims.UserID, r.PathValue("record_id")); err != nil {
		writeAttendanceDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAttendanceRecords(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = claims.UserID
	}
	now := time.Now().UTC()
	from, to, ok := parsePeriod(w, r, now.Add(-defaultRecordLookback), now)
	if !ok {
		return
	}
	resp, err := s.attendance.Handler.ListRecordsHandler(r.Context(), claims.UserID, userID, from, to)
	if err != nil {
		writeAttendanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = claims.UserID
	}
	now := time.Now().UTC()
	from, to, ok := parsePeriod(w, r, now.Add(-defaultRecordLookback), now)
	if !ok {
		return
	}
	resp, err := s.attendance.Handler.PeriodSummaryHandler(r.Context(), claims.UserID, userID, from, to)
	if err != nil {
		writeAttendanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = claims.UserID
	}
	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := parseTimestamp(raw)
		if err != nil {
			writeAttendanceError(w, http.StatusBadRequest, "invalid_date", "date must be RFC 3339 or YYYY-MM-DD")
			return
		}
		date = parsed
	}
	resp, err := s.attendance.Handler.DailySummaryHandler(r.Context(), claims.UserID, userID, date)
	if err != nil {
		writeAttendanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// parsePeriod reads from/to query parameters, falling back to the given
// defaults. Writes a 400 response and returns false on a malformed value.
func parsePeriod(w http.ResponseWriter, r *http.Request, defaultFrom time.Time, defaultTo time.Time) (time.Time, time.Time, bool) {
	from := defaultFrom
	to := defaultTo
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := parseTimestamp(raw)
		if err != nil {
			writeAttendanceError(w, http.StatusBadRequest, "invalid_from", "from must be RFC 3339 or YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := parseTimestamp(raw)
		if err != nil {
			writeAttendanceError(w, http.StatusBadRequest, "invalid_to", "to must be RFC 3339 or YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	if !to.After(from) {
		writeAttendanceError(w, http.StatusBadRequest, "invalid_period", "to must be after from")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func parseTimestamp(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

func writeAttendanceDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attendanceerrors.ErrInvalidRequest),
		errors.Is(err, attendanceerrors.ErrDurationTooLong):
		writeAttendanceError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, attendanceerrors.ErrRecordNotFound):
		writeAttendanceError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, attendanceerrors.ErrAlreadyClockedIn):
		writeAttendanceError(w, http.StatusConflict, "already_clocked_in", err.Error())
	case errors.Is(err, attendanceerrors.ErrNotClockedIn):
		writeAttendanceError(w, http.StatusConflict, "not_clocked_in", err.Error())
	case errors.Is(err, attendanceerrors.ErrForbidden):
		writeAttendanceError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeAttendanceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAttendanceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, attendancehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
