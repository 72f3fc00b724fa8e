package auth

import (
	"errors"

	"github.com/Kyz7/dashboard/internal/activity"
	"github.com/Kyz7/dashboard/internal/logger"
	"github.com/Kyz7/dashboard/internal/middleware"
	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/permission"
	"github.com/Kyz7/dashboard/internal/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Handler struct {
	svc *Service
	db  *gorm.DB
}

func NewHandler(svc *Service, db *gorm.DB) *Handler {
	return &Handler{svc: svc, db: db}
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Email == "" || body.Password == "" {
		return response.ValidationError(c, map[string]string{
			"email":    "email is required",
			"password": "password is required",
		})
	}

	ctx := activity.ContextWithIP(c.UserContext(), c.IP())
	session, err := h.svc.LoginUser(ctx, body.Email, body.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		return response.Unauthorized(c, "Invalid email or password")
	}
	if err != nil {
		logger.Log.WithError(err).Error("Login failed")
		return response.InternalError(c, "Failed to sign in")
	}

	return response.Success(c, session, "Login successful")
}

type permissionsView struct {
	Permissions []models.Permission        `json:"permissions"`
	Can         map[string]map[string]bool `json:"can"`
}

// MyPermissions returns the caller's resolved permission set, plus a
// per-entity lookup for gating buttons.
func (h *Handler) MyPermissions(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(uint)

	perms, err := middleware.UserPermissions(c.UserContext(), h.db, userID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to load permissions")
		return response.InternalError(c, "Failed to load permissions")
	}

	store := permission.NewStore()
	store.SetCurrentUserPermissions(perms)

	can := make(map[string]map[string]bool, len(perms))
	for _, p := range perms {
		actions := make(map[string]bool, len(permission.Actions()))
		for _, a := range permission.Actions() {
			actions[a.String()] = store.CurrentUserCan(p.EntityName, a)
		}
		can[p.EntityName] = actions
	}

	return response.Success(c, permissionsView{Permissions: perms, Can: can}, "Permissions retrieved successfully")
}
