package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"crewdeck/contexts/workspace/task-service/domain/entities"
	domainerrors "crewdeck/contexts/workspace/task-service/domain/errors"
	"crewdeck/contexts/workspace/task-service/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing the task repository and the
// project directory ports. Projects and memberships are seeded by the
// caller; production wiring resolves them through the project module.
type Store struct {
	mu sync.RWMutex

	tasks       map[string]entities.Task
	projects    map[string]struct{}
	memberships map[string]map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		tasks:       make(map[string]entities.Task),
		projects:    make(map[string]struct{}),
		memberships: make(map[string]map[string]struct{}),
	}
}

// SeedProject registers a project with the directory.
func (s *Store) SeedProject(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[projectID] = struct{}{}
}

// SeedMembership registers an active member of a project.
func (s *Store) SeedMembership(projectID string, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[projectID] = struct{}{}
	if s.memberships[projectID] == nil {
		s.memberships[projectID] = make(map[string]struct{})
	}
	s.memberships[projectID][userID] = struct{}{}
}

func (s *Store) ProjectExists(_ context.Context, projectID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.projects[projectID]
	return ok, nil
}

func (s *Store) IsActiveMember(_ context.Context, projectID string, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members, ok := s.memberships[projectID]
	if !ok {
		return false, nil
	}
	_, ok = members[userID]
	return ok, nil
}

func (s *Store) CreateTask(_ context.Context, input ports.CreateTaskInput) (entities.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := entities.Task{
		TaskID:         input.TaskID,
		ProjectID:      input.ProjectID,
		Title:          input.Title,
		Description:    input.Description,
		Status:         entities.TaskStatusTodo,
		Priority:       input.Priority,
		AssigneeUserID: input.AssigneeUserID,
		CreatedBy:      input.CreatedBy,
		DueDate:        input.DueDate,
		CreatedAt:      input.CreatedAt.UTC(),
		UpdatedAt:      input.CreatedAt.UTC(),
	}
	s.tasks[task.TaskID] = task
	return task, nil
}

func (s *Store) GetTask(_ context.Context, taskID string) (entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return entities.Task{}, domainerrors.ErrTaskNotFound
	}
	return task, nil
}

func (s *Store) ListTasks(_ context.Context, filter ports.TaskFilter) ([]entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Task, 0)
	for _, task := range s.tasks {
		if strings.TrimSpace(filter.ProjectID) != "" && task.ProjectID != filter.ProjectID {
			continue
		}
		if strings.TrimSpace(filter.AssigneeUserID) != "" && task.AssigneeUserID != filter.AssigneeUserID {
			continue
		}
		if strings.TrimSpace(filter.Status) != "" && task.Status != filter.Status {
			continue
		}
		if strings.TrimSpace(filter.Priority) != "" && task.Priority != filter.Priority {
			continue
		}
		items = append(items, task)
	}
	return items, nil
}

func (s *Store) UpdateTask(_ context.Context, taskID string, input ports.UpdateTaskInput) (entities.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return entities.Task{}, domainerrors.ErrTaskNotFound
	}
	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.ClearDue {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	task.UpdatedAt = input.UpdatedAt.UTC()
	s.tasks[taskID] = task
	return task, nil
}

func (s *Store) SetAssignee(_ context.Context, taskID string, assigneeUserID string, updatedAt time.Time) (entities.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return entities.Task{}, domainerrors.ErrTaskNotFound
	}
	task.AssigneeUserID = assigneeUserID
	task.UpdatedAt = updatedAt.UTC()
	s.tasks[taskID] = task
	return task, nil
}

func (s *Store) SetStatus(_ context.Context, taskID string, status string, completedAt *time.Time, updatedAt time.Time) (entities.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return entities.Task{}, domainerrors.ErrTaskNotFound
	}
	task.Status = status
	task.CompletedAt = completedAt
	task.UpdatedAt = updatedAt.UTC()
	s.tasks[taskID] = task
	return task, nil
}

func (s *Store) DeleteTask(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return domainerrors.ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

func (s *Store) DeleteProjectTasks(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, task := range s.tasks {
		if task.ProjectID == projectID {
			delete(s.tasks, id)
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
