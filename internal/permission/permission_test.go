package permission_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Kyz7/dashboard/internal/apperror"
	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePermissions() []models.Permission {
	return []models.Permission{
		{ID: 1, RoleID: 7, EntityName: "blog-post", EntityType: models.EntityCollection, CanCreate: true, CanRead: true},
		{ID: 2, RoleID: 7, EntityName: "site-settings", EntityType: models.EntitySettings, CanRead: true},
		{ID: 3, RoleID: 7, EntityName: "homepage", EntityType: models.EntitySingle, CanCreate: true, CanRead: true, CanUpdate: true, CanDelete: true},
	}
}

// ============================================
// ACTION TABLE
// ============================================

func TestActionTable(t *testing.T) {
	t.Run("Every action maps to its own field", func(t *testing.T) {
		seen := map[string]bool{}
		for _, a := range permission.Actions() {
			assert.True(t, a.Valid())
			assert.NotEmpty(t, a.Field())
			assert.False(t, seen[a.Field()], "duplicate field %s", a.Field())
			seen[a.Field()] = true

			p := &models.Permission{}
			assert.False(t, permission.Allows(p, a))
		}
		assert.Len(t, seen, 4)
	})

	t.Run("Allows reads the matching flag", func(t *testing.T) {
		p := &models.Permission{CanUpdate: true}
		assert.False(t, permission.Allows(p, permission.ActionCreate))
		assert.False(t, permission.Allows(p, permission.ActionRead))
		assert.True(t, permission.Allows(p, permission.ActionUpdate))
		assert.False(t, permission.Allows(p, permission.ActionDelete))
		assert.False(t, permission.Allows(nil, permission.ActionUpdate))
	})

	t.Run("Parse names", func(t *testing.T) {
		a, err := permission.ParseAction("delete")
		require.NoError(t, err)
		assert.Equal(t, permission.ActionDelete, a)

		a, err = permission.ParseField("canRead")
		require.NoError(t, err)
		assert.Equal(t, permission.ActionRead, a)

		a, err = permission.ParseField("can_update")
		require.NoError(t, err)
		assert.Equal(t, permission.ActionUpdate, a)

		_, err = permission.ParseAction("approve")
		assert.True(t, errors.Is(err, apperror.ErrValidation))

		_, err = permission.ParseField("entityName")
		assert.True(t, errors.Is(err, apperror.ErrValidation))
	})
}

// ============================================
// STORE
// ============================================

func TestStoreTogglePermission(t *testing.T) {
	t.Run("Toggle flips exactly one field", func(t *testing.T) {
		store := permission.NewStore()
		store.SetPermissions(samplePermissions())

		assert.True(t, store.TogglePermission(1, permission.ActionDelete))

		p, ok := store.Permission(1)
		require.True(t, ok)
		assert.True(t, p.CanCreate)
		assert.True(t, p.CanRead)
		assert.False(t, p.CanUpdate)
		assert.True(t, p.CanDelete)

		other, _ := store.Permission(2)
		assert.Equal(t, samplePermissions()[1], other)
	})

	t.Run("Toggle twice restores the value", func(t *testing.T) {
		store := permission.NewStore()
		store.SetPermissions(samplePermissions())

		for _, a := range permission.Actions() {
			for _, id := range []uint{1, 2, 3} {
				before, _ := store.Permission(id)
				store.TogglePermission(id, a)
				store.TogglePermission(id, a)
				after, _ := store.Permission(id)
				assert.Equal(t, before, after)
			}
		}
	})

	t.Run("Unknown id is a no-op", func(t *testing.T) {
		store := permission.NewStore()
		store.SetPermissions(samplePermissions())

		assert.False(t, store.TogglePermission(99, permission.ActionRead))
		assert.Equal(t, samplePermissions(), store.Permissions())
	})

	t.Run("Snapshots are not aliased", func(t *testing.T) {
		input := samplePermissions()
		store := permission.NewStore()
		store.SetPermissions(input)

		snapshot := store.Permissions()
		store.TogglePermission(1, permission.ActionCreate)

		assert.True(t, snapshot[0].CanCreate)
		assert.True(t, input[0].CanCreate)

		snapshot[1].CanDelete = true
		p, _ := store.Permission(2)
		assert.False(t, p.CanDelete)
	})

	t.Run("Concurrent toggles on different fields all land", func(t *testing.T) {
		store := permission.NewStore()
		store.SetPermissions([]models.Permission{{ID: 1, EntityType: models.EntityCollection}})

		var wg sync.WaitGroup
		for _, a := range permission.Actions() {
			wg.Add(1)
			go func(a permission.Action) {
				defer wg.Done()
				store.TogglePermission(1, a)
			}(a)
		}
		wg.Wait()

		p, _ := store.Permission(1)
		assert.True(t, p.CanCreate && p.CanRead && p.CanUpdate && p.CanDelete)
	})
}

func TestStoreCurrentUserPermissions(t *testing.T) {
	store := permission.NewStore()
	assert.False(t, store.CurrentUserCan("blog-post", permission.ActionRead))

	store.SetCurrentUserPermissions([]models.Permission{
		{EntityName: "blog-post", CanRead: true, CanDelete: false},
	})

	assert.True(t, store.CurrentUserCan("blog-post", permission.ActionRead))
	assert.False(t, store.CurrentUserCan("blog-post", permission.ActionDelete))
	assert.False(t, store.CurrentUserCan("site-settings", permission.ActionRead))
	assert.Len(t, store.CurrentUserPermissions(), 1)

	// The editable set is independent from the actor's set.
	assert.Empty(t, store.Permissions())
}

// ============================================
// MATRIX
// ============================================

func TestBuildMatrix(t *testing.T) {
	rows := append(samplePermissions(), models.Permission{ID: 4, EntityName: "odd", EntityType: "unknown"})
	sections := permission.BuildMatrix(rows)

	require.Len(t, sections, 4)
	assert.Equal(t, models.EntityCollection, sections[0].EntityType)
	assert.Equal(t, models.EntitySingle, sections[1].EntityType)
	assert.Equal(t, models.EntityPlugin, sections[2].EntityType)
	assert.Equal(t, models.EntitySettings, sections[3].EntityType)

	assert.Len(t, sections[0].Rows, 1)
	assert.Len(t, sections[1].Rows, 1)
	assert.Empty(t, sections[2].Rows)
	assert.NotNil(t, sections[2].Rows)
	assert.Len(t, sections[3].Rows, 1)

	assert.True(t, sections[1].Rows[0].AllChecked)
	assert.False(t, sections[0].Rows[0].AllChecked)
	assert.False(t, sections[0].Rows[0].NoneChecked)
}

func TestToggleEntity(t *testing.T) {
	store := permission.NewStore()
	store.SetPermissions(samplePermissions())

	t.Run("Partially checked row becomes fully checked", func(t *testing.T) {
		assert.True(t, permission.ToggleEntity(store, 1))
		p, _ := store.Permission(1)
		assert.True(t, p.CanCreate && p.CanRead && p.CanUpdate && p.CanDelete)
	})

	t.Run("Fully checked row is cleared", func(t *testing.T) {
		assert.True(t, permission.ToggleEntity(store, 3))
		p, _ := store.Permission(3)
		assert.False(t, p.CanCreate || p.CanRead || p.CanUpdate || p.CanDelete)
	})

	t.Run("Unknown row", func(t *testing.T) {
		assert.False(t, permission.ToggleEntity(store, 42))
	})
}

// ============================================
// EDIT SESSION
// ============================================

func newSession(actorRoleID uint) *permission.EditSession {
	desc := "Editor with limited access"
	role := models.Role{ID: 7, Name: "editor", Description: &desc}
	return permission.NewEditSession(role, samplePermissions(), actorRoleID)
}

func TestEditSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Edits move Loaded to Dirty", func(t *testing.T) {
		s := newSession(0)
		assert.Equal(t, permission.StateLoaded, s.State())
		assert.Equal(t, "Editor with limited access", s.Role().Description)

		assert.False(t, s.Toggle(99, permission.ActionRead))
		assert.Equal(t, permission.StateLoaded, s.State())

		assert.True(t, s.Toggle(1, permission.ActionUpdate))
		assert.Equal(t, permission.StateDirty, s.State())
	})

	t.Run("Commit resets to Loaded with submitted values", func(t *testing.T) {
		s := newSession(7)
		s.SetName("chief-editor")
		s.Toggle(2, permission.ActionUpdate)

		var got permission.Submission
		err := s.Submit(ctx, func(ctx context.Context, roleID uint, sub permission.Submission) error {
			assert.Equal(t, uint(7), roleID)
			got = sub
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, permission.StateLoaded, s.State())
		assert.Equal(t, "chief-editor", got.Role.Name)
		assert.Equal(t, "chief-editor", s.Baseline().Role.Name)
		assert.True(t, s.Baseline().Permissions[1].CanUpdate)
		assert.True(t, s.Store().CurrentUserCan("site-settings", permission.ActionUpdate))
	})

	t.Run("Actor set untouched when editing another role", func(t *testing.T) {
		s := newSession(1)
		s.Toggle(2, permission.ActionUpdate)
		require.NoError(t, s.Submit(ctx, func(context.Context, uint, permission.Submission) error { return nil }))
		assert.Empty(t, s.Store().CurrentUserPermissions())
	})

	t.Run("Failure keeps edits for retry", func(t *testing.T) {
		s := newSession(0)
		s.SetDescription("changed")
		s.Toggle(1, permission.ActionDelete)

		boom := apperror.Persistence("Failed to update role", errors.New("db down"))
		err := s.Submit(ctx, func(context.Context, uint, permission.Submission) error { return boom })
		assert.ErrorIs(t, err, apperror.ErrPersistence)

		assert.Equal(t, permission.StateFailed, s.State())
		assert.Equal(t, boom, s.LastError())
		assert.Equal(t, "changed", s.Role().Description)
		p, _ := s.Store().Permission(1)
		assert.True(t, p.CanDelete)
		assert.Equal(t, "Editor with limited access", s.Baseline().Role.Description)

		require.NoError(t, s.Submit(ctx, func(context.Context, uint, permission.Submission) error { return nil }))
		assert.Equal(t, permission.StateLoaded, s.State())
		assert.Nil(t, s.LastError())
	})

	t.Run("Concurrent submit is rejected and late edits stay dirty", func(t *testing.T) {
		s := newSession(0)
		s.Toggle(1, permission.ActionUpdate)

		entered := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- s.Submit(ctx, func(context.Context, uint, permission.Submission) error {
				close(entered)
				<-release
				return nil
			})
		}()

		<-entered
		assert.Equal(t, permission.StateSubmitting, s.State())

		err := s.Submit(ctx, func(context.Context, uint, permission.Submission) error { return nil })
		assert.ErrorIs(t, err, apperror.ErrValidation)

		s.Toggle(2, permission.ActionDelete)
		close(release)
		require.NoError(t, <-done)

		assert.Equal(t, permission.StateDirty, s.State())
	})
}
