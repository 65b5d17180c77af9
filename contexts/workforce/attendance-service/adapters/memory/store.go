package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"crewdeck/contexts/workforce/attendance-service/domain/entities"
	domainerrors "crewdeck/contexts/workforce/attendance-service/domain/errors"
	"crewdeck/contexts/workforce/attendance-service/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing the attendance repository
// and permission ports. Managers are seeded by the caller.
type Store struct {
	mu sync.RWMutex

	records  map[string]entities.AttendanceRecord
	managers map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		records:  make(map[string]entities.AttendanceRecord),
		managers: make(map[string]struct{}),
	}
}

// SeedManager grants the manage permission to a user.
func (s *Store) SeedManager(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.managers[userID] = struct{}{}
}

func (s *Store) HasPermission(_ context.Context, userID string, _ string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.managers[userID]
	return ok, nil
}

func (s *Store) CreateRecord(_ context.Context, input ports.CreateRecordInput) (entities.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if input.ClockOut == nil {
		for _, record := range s.records {
			if record.UserID == input.UserID && record.IsOpen() {
				return entities.AttendanceRecord{}, domainerrors.ErrAlreadyClockedIn
			}
		}
	}

	record := entities.AttendanceRecord{
		RecordID:   input.RecordID,
		UserID:     input.UserID,
		ProjectID:  input.ProjectID,
		ClockIn:    input.ClockIn.UTC(),
		ClockOut:   input.ClockOut,
		Source:     input.Source,
		Note:       input.Note,
		TotalHours: input.TotalHours,
		CreatedAt:  input.CreatedAt.UTC(),
		UpdatedAt:  input.CreatedAt.UTC(),
	}
	s.records[record.RecordID] = record
	return record, nil
}

func (s *Store) GetRecord(_ context.Context, recordID string) (entities.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[recordID]
	if !ok {
		return entities.AttendanceRecord{}, domainerrors.ErrRecordNotFound
	}
	return record, nil
}

func (s *Store) GetOpenRecord(_ context.Context, userID string) (entities.AttendanceRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.UserID == userID && record.IsOpen() {
			return record, true, nil
		}
	}
	return entities.AttendanceRecord{}, false, nil
}

func (s *Store) CloseRecord(_ context.Context, recordID string, clockOut time.Time, totalHours float64, note string, updatedAt time.Time) (entities.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[recordID]
	if !ok {
		return entities.AttendanceRecord{}, domainerrors.ErrRecordNotFound
	}
	if !record.IsOpen() {
		return entities.AttendanceRecord{}, domainerrors.ErrNotClockedIn
	}

	out := clockOut.UTC()
	record.ClockOut = &out
	record.TotalHours = totalHours
	if strings.TrimSpace(note) != "" {
		record.Note = strings.TrimSpace(note)
	}
	record.UpdatedAt = updatedAt.UTC()
	s.records[recordID] = record
	return record, nil
}

func (s *Store) UpdateRecord(_ context.Context, recordID string, input ports.UpdateRecordInput) (entities.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[recordID]
	if !ok {
		return entities.AttendanceRecord{}, domainerrors.ErrRecordNotFound
	}
	if input.ClockIn != nil {
		record.ClockIn = input.ClockIn.UTC()
	}
	if input.ClockOut != nil {
		out := input.ClockOut.UTC()
		record.ClockOut = &out
	}
	if input.Note != nil {
		record.Note = strings.TrimSpace(*input.Note)
	}
	if input.TotalHours != nil {
		record.TotalHours = *input.TotalHours
	}
	record.UpdatedAt = input.UpdatedAt.UTC()
	s.records[recordID] = record
	return record, nil
}

func (s *Store) DeleteRecord(_ context.Context, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[recordID]; !ok {
		return domainerrors.ErrRecordNotFound
	}
	delete(s.records, recordID)
	return nil
}

func (s *Store) ListRecords(_ context.Context, userID string, from time.Time, to time.Time) ([]entities.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.AttendanceRecord, 0)
	for _, record := range s.records {
		if record.UserID != userID {
			continue
		}
		if !record.ClockIn.Before(to) {
			continue
		}
		if record.ClockOut != nil && !record.ClockOut.After(from) {
			continue
		}
		items = append(items, record)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ClockIn.Before(items[j].ClockIn)
	})
	return items, nil
}

func (s *Store) ListOpenRecords(_ context.Context, before time.Time) ([]entities.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.AttendanceRecord, 0)
	for _, record := range s.records {
		if record.IsOpen() && record.ClockIn.Before(before) {
			items = append(items, record)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ClockIn.Before(items[j].ClockIn)
	})
	return items, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
