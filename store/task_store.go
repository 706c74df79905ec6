package store

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	maxTaskTitleLength       = 200
	maxTaskDescriptionLength = 1000
)

func validateTaskTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.Wrap(ErrValidation, "title cannot be empty")
	}
	if utf8.RuneCountInString(title) > maxTaskTitleLength {
		return "", errors.Wrapf(ErrValidation, "title must be at most %d characters", maxTaskTitleLength)
	}
	return title, nil
}

func validateTaskDescription(description string) error {
	if utf8.RuneCountInString(description) > maxTaskDescriptionLength {
		return errors.Wrapf(ErrValidation, "description must be at most %d characters", maxTaskDescriptionLength)
	}
	return nil
}

// CreateTask persists a new task for its creator.
func (s *Store) CreateTask(ctx context.Context, create *Task) (*Task, error) {
	if create.CreatorID == "" {
		return nil, errors.Wrap(ErrValidation, "creator id is required")
	}
	title, err := validateTaskTitle(create.Title)
	if err != nil {
		return nil, err
	}
	create.Title = title
	if err := validateTaskDescription(create.Description); err != nil {
		return nil, err
	}
	return s.driver.CreateTask(ctx, create)
}

// ListTasks lists the owner's tasks, newest first. An empty result is valid.
func (s *Store) ListTasks(ctx context.Context, find *FindTask) ([]*Task, error) {
	if find.CreatorID == "" {
		return nil, errors.Wrap(ErrValidation, "creator id is required")
	}
	return s.driver.ListTasks(ctx, find)
}

// GetTask returns one task of the given owner. A task that exists but belongs
// to someone else reports the same ErrNotFound as one that does not exist.
func (s *Store) GetTask(ctx context.Context, find *FindTask) (*Task, error) {
	if find.ID == nil {
		return nil, errors.Wrap(ErrValidation, "task id is required")
	}
	list, err := s.ListTasks(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "task %d", *find.ID)
	}
	return list[0], nil
}

// CompleteTask marks a task completed. Completing an already-completed task
// succeeds and leaves it completed.
func (s *Store) CompleteTask(ctx context.Context, update *UpdateTask) (*Task, error) {
	if _, err := s.GetTask(ctx, &FindTask{ID: &update.ID, CreatorID: update.CreatorID}); err != nil {
		return nil, err
	}
	completed := true
	return s.driver.UpdateTask(ctx, &UpdateTask{
		ID:        update.ID,
		CreatorID: update.CreatorID,
		Completed: &completed,
	})
}

// UpdateTask applies a partial update. At least one field must be supplied.
func (s *Store) UpdateTask(ctx context.Context, update *UpdateTask) (*Task, error) {
	if update.Title == nil && update.Description == nil && update.Completed == nil {
		return nil, errors.Wrap(ErrValidation, "at least one field must be provided")
	}
	if update.Title != nil {
		title, err := validateTaskTitle(*update.Title)
		if err != nil {
			return nil, err
		}
		update.Title = &title
	}
	if update.Description != nil {
		if err := validateTaskDescription(*update.Description); err != nil {
			return nil, err
		}
	}
	if _, err := s.GetTask(ctx, &FindTask{ID: &update.ID, CreatorID: update.CreatorID}); err != nil {
		return nil, err
	}
	return s.driver.UpdateTask(ctx, update)
}

// DeleteTask removes one task of the given owner.
func (s *Store) DeleteTask(ctx context.Context, delete *DeleteTask) error {
	if _, err := s.GetTask(ctx, &FindTask{ID: &delete.ID, CreatorID: delete.CreatorID}); err != nil {
		return err
	}
	return s.driver.DeleteTask(ctx, delete)
}
