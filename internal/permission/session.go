package permission

import (
	"context"
	"sync"

	"github.com/Kyz7/dashboard/internal/apperror"
	"github.com/Kyz7/dashboard/internal/models"
)

type State int

const (
	StateLoaded State = iota
	StateDirty
	StateSubmitting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateDirty:
		return "dirty"
	case StateSubmitting:
		return "submitting"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type RoleDraft struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Submission is what a session sends when the user saves.
type Submission struct {
	Role        RoleDraft           `json:"role"`
	Permissions []models.Permission `json:"permissions"`
}

// Submitter persists a submission, typically the role service's atomic
// role + permissions update.
type Submitter func(ctx context.Context, roleID uint, sub Submission) error

// EditSession tracks one user editing one role:
// Loaded -> Dirty on any edit -> Submitting -> Loaded on commit, or
// Failed on error with all edits kept for a retry.
type EditSession struct {
	mu          sync.Mutex
	state       State
	role        RoleDraft
	baseline    Submission
	store       *Store
	actorRoleID uint
	editedAgain bool
	lastErr     error
}

// NewEditSession starts a session for role with its permission rows.
// actorRoleID is the signed-in user's role; when it equals the edited
// role, a successful save also refreshes the actor's resolved permissions.
func NewEditSession(role models.Role, perms []models.Permission, actorRoleID uint) *EditSession {
	draft := RoleDraft{ID: role.ID, Name: role.Name}
	if role.Description != nil {
		draft.Description = *role.Description
	}

	store := NewStore()
	store.SetPermissions(perms)

	return &EditSession{
		state:       StateLoaded,
		role:        draft,
		baseline:    Submission{Role: draft, Permissions: clone(perms)},
		store:       store,
		actorRoleID: actorRoleID,
	}
}

func (s *EditSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *EditSession) Store() *Store {
	return s.store
}

func (s *EditSession) Role() RoleDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// LastError is the error of the most recent failed submit.
func (s *EditSession) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Baseline is the last loaded or committed submission.
func (s *EditSession) Baseline() Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Submission{Role: s.baseline.Role, Permissions: clone(s.baseline.Permissions)}
}

func (s *EditSession) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role.Name = name
	s.markDirty()
}

func (s *EditSession) SetDescription(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role.Description = description
	s.markDirty()
}

func (s *EditSession) Toggle(id uint, field Action) bool {
	if !s.store.TogglePermission(id, field) {
		return false
	}
	s.mu.Lock()
	s.markDirty()
	s.mu.Unlock()
	return true
}

func (s *EditSession) ToggleEntity(id uint) bool {
	if !ToggleEntity(s.store, id) {
		return false
	}
	s.mu.Lock()
	s.markDirty()
	s.mu.Unlock()
	return true
}

func (s *EditSession) markDirty() {
	if s.state == StateSubmitting {
		s.editedAgain = true
		return
	}
	s.state = StateDirty
}

// Submit sends the current edits. A second Submit while one is in flight
// is rejected.
func (s *EditSession) Submit(ctx context.Context, submit Submitter) error {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return apperror.Validation("a save for this role is already in progress")
	}
	s.state = StateSubmitting
	s.editedAgain = false
	sub := Submission{Role: s.role, Permissions: s.store.Permissions()}
	s.mu.Unlock()

	err := submit(ctx, sub.Role.ID, sub)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastErr = err
		s.state = StateFailed
		return err
	}

	s.lastErr = nil
	s.baseline = Submission{Role: sub.Role, Permissions: clone(sub.Permissions)}
	if s.actorRoleID != 0 && s.actorRoleID == sub.Role.ID {
		s.store.SetCurrentUserPermissions(sub.Permissions)
	}

	s.state = StateLoaded
	if s.editedAgain {
		s.state = StateDirty
	}
	return nil
}
