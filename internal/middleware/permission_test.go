package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kyz7/dashboard/internal/middleware"
	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/permission"
	"github.com/Kyz7/dashboard/internal/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPermission(t *testing.T) {
	db := testutils.SeededDB(t)
	ctx := context.Background()
	editor := testutils.CreateTestUser(t, db, "editor@example.com", "password123", "editor")

	orphan := models.User{Name: "No Role", Email: "orphan@example.com", Password: "x"}
	require.NoError(t, db.Create(&orphan).Error)

	tests := []struct {
		name   string
		userID uint
		entity string
		action permission.Action
		want   bool
	}{
		{"granted", editor.ID, models.EntityBlogPost, permission.ActionUpdate, true},
		{"flag off", editor.ID, models.EntityBlogPost, permission.ActionDelete, false},
		{"settings read", editor.ID, models.EntitySiteSettings, permission.ActionRead, true},
		{"no row for entity", editor.ID, "newsletter", permission.ActionRead, false},
		{"user without role", orphan.ID, models.EntityBlogPost, permission.ActionRead, false},
		{"unknown user", 9999, models.EntityBlogPost, permission.ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := middleware.HasPermission(ctx, db, tt.userID, tt.entity, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("lookup failure", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		got, err := middleware.HasPermission(cancelled, db, editor.ID, models.EntityBlogPost, permission.ActionRead)
		assert.Error(t, err)
		assert.False(t, got)
	})
}

func TestUserPermissions(t *testing.T) {
	db := testutils.SeededDB(t)
	ctx := context.Background()
	admin := testutils.CreateTestUser(t, db, "admin@example.com", "password123", "admin")

	perms, err := middleware.UserPermissions(ctx, db, admin.ID)
	require.NoError(t, err)
	assert.Len(t, perms, 2)

	perms, err = middleware.UserPermissions(ctx, db, 9999)
	require.NoError(t, err)
	assert.NotNil(t, perms)
	assert.Empty(t, perms)
}

func TestPermissionProtected(t *testing.T) {
	db := testutils.SeededDB(t)
	author := testutils.CreateTestUser(t, db, "author@example.com", "password123", "author")

	newApp := func(userID *uint) *fiber.App {
		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error {
			if userID != nil {
				c.Locals("user_id", *userID)
			}
			return c.Next()
		})
		app.Get("/create", middleware.PermissionProtected(db, models.EntityBlogPost, permission.ActionCreate), func(c *fiber.Ctx) error {
			return c.SendString("ok")
		})
		app.Get("/delete", middleware.PermissionProtected(db, models.EntityBlogPost, permission.ActionDelete), func(c *fiber.Ctx) error {
			return c.SendString("ok")
		})
		return app
	}

	tests := []struct {
		name   string
		userID *uint
		path   string
		want   int
	}{
		{"allowed", &author.ID, "/create", http.StatusOK},
		{"denied", &author.ID, "/delete", http.StatusForbidden},
		{"no user", nil, "/create", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newApp(tt.userID).Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
