package permission

import (
	"sync"

	"github.com/Kyz7/dashboard/internal/models"
)

// Store is the editable permission set of one role edit session plus the
// acting user's resolved permissions. Every mutation swaps in a fresh
// slice, so snapshots returned earlier are never modified.
type Store struct {
	mu          sync.RWMutex
	permissions []models.Permission
	current     []models.Permission
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SetPermissions(list []models.Permission) {
	cp := clone(list)

	s.mu.Lock()
	s.permissions = cp
	s.mu.Unlock()
}

// Permissions returns a copy of the editable rows.
func (s *Store) Permissions() []models.Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.permissions)
}

func (s *Store) Permission(id uint) (models.Permission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.permissions {
		if p.ID == id {
			return p, true
		}
	}
	return models.Permission{}, false
}

// TogglePermission flips one capability on the row with the given id and
// reports whether such a row exists.
func (s *Store) TogglePermission(id uint, field Action) bool {
	if !field.Valid() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.permissions {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	updated := clone(s.permissions)
	set(&updated[idx], field, !Allows(&updated[idx], field))
	s.permissions = updated
	return true
}

func (s *Store) SetCurrentUserPermissions(list []models.Permission) {
	cp := clone(list)

	s.mu.Lock()
	s.current = cp
	s.mu.Unlock()
}

func (s *Store) CurrentUserPermissions() []models.Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.current)
}

// CurrentUserCan answers UI gating questions such as whether to enable a
// delete button. Unknown entities are denied.
func (s *Store) CurrentUserCan(entityName string, a Action) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.current {
		if s.current[i].EntityName == entityName {
			return Allows(&s.current[i], a)
		}
	}
	return false
}

func clone(list []models.Permission) []models.Permission {
	if list == nil {
		return nil
	}
	out := make([]models.Permission, len(list))
	copy(out, list)
	return out
}
