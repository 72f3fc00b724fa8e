package role

import (
	"github.com/Kyz7/dashboard/internal/apperror"
	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/permission"
	"github.com/Kyz7/dashboard/internal/response"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func roleID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.svc.GetAllRolesWithUserCount(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, roles, "Roles retrieved successfully")
}

func (h *Handler) GetRole(c *fiber.Ctx) error {
	id, ok := roleID(c)
	if !ok {
		return response.BadRequest(c, "Invalid role ID", nil)
	}

	data, err := h.svc.GetRoleData(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, data, "Role retrieved successfully")
}

type matrixView struct {
	Role      Summary                    `json:"role"`
	UserCount int64                      `json:"user_count"`
	Sections  []permission.MatrixSection `json:"sections"`
}

func (h *Handler) GetMatrix(c *fiber.Ctx) error {
	id, ok := roleID(c)
	if !ok {
		return response.BadRequest(c, "Invalid role ID", nil)
	}

	data, err := h.svc.GetRoleData(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, matrixView{
		Role:      data.Role,
		UserCount: data.UserCount,
		Sections:  permission.BuildMatrix(data.Permissions),
	}, "Permission matrix retrieved successfully")
}

func (h *Handler) CreateRole(c *fiber.Ctx) error {
	var body Fields
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	res := h.svc.CreateRole(c.UserContext(), body)
	if res.Err != nil {
		return response.FromError(c, res.Err)
	}
	return response.Created(c, res.Role, "Role created")
}

func (h *Handler) UpdateRolePermissions(c *fiber.Ctx) error {
	id, ok := roleID(c)
	if !ok {
		return response.BadRequest(c, "Invalid role ID", nil)
	}

	var body UpdateInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	res := h.svc.UpdateRolePermissions(c.UserContext(), id, body)
	if res.Err != nil {
		return response.FromError(c, res.Err)
	}

	data, err := h.svc.GetRoleData(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, data, "Role updated")
}

type toggleRequest struct {
	PermissionID uint   `json:"permission_id"`
	Field        string `json:"field"`
	All          bool   `json:"all"`
}

type toggleView struct {
	State                  string                     `json:"state"`
	Sections               []permission.MatrixSection `json:"sections"`
	CurrentUserPermissions []models.Permission        `json:"current_user_permissions,omitempty"`
}

// TogglePermission flips one capability, or a whole entity row when "all"
// is set, and saves the role right away.
func (h *Handler) TogglePermission(c *fiber.Ctx) error {
	id, ok := roleID(c)
	if !ok {
		return response.BadRequest(c, "Invalid role ID", nil)
	}

	var body toggleRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	actorRoleID, _ := c.Locals("role_id").(uint)
	session, err := h.svc.LoadEditSession(c.UserContext(), id, actorRoleID)
	if err != nil {
		return response.FromError(c, err)
	}

	var toggled bool
	if body.All {
		toggled = session.ToggleEntity(body.PermissionID)
	} else {
		field, err := permission.ParseField(body.Field)
		if err != nil {
			return response.FromError(c, err)
		}
		toggled = session.Toggle(body.PermissionID, field)
	}
	if !toggled {
		return response.FromError(c, apperror.NotFound("Permission"))
	}

	if err := session.Submit(c.UserContext(), h.svc.Submitter()); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, toggleView{
		State:                  session.State().String(),
		Sections:               permission.BuildMatrix(session.Store().Permissions()),
		CurrentUserPermissions: session.Store().CurrentUserPermissions(),
	}, "Permission updated")
}

func (h *Handler) DeleteRoles(c *fiber.Ctx) error {
	var body DeleteInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	res := h.svc.DeleteRoles(c.UserContext(), body)
	if res.Err != nil {
		return response.FromError(c, res.Err)
	}
	return response.Success(c, res.Data, "Roles deleted")
}

func (h *Handler) DuplicateRole(c *fiber.Ctx) error {
	id, ok := roleID(c)
	if !ok {
		return response.BadRequest(c, "Invalid role ID", nil)
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	res := h.svc.DuplicateRole(c.UserContext(), id, body.Name)
	if res.Err != nil {
		return response.FromError(c, res.Err)
	}
	return response.Created(c, res.Role, "Role duplicated successfully")
}

func (h *Handler) AssignRole(c *fiber.Ctx) error {
	var body AssignInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	res := h.svc.AssignRole(c.UserContext(), body)
	if res.Err != nil {
		return response.FromError(c, res.Err)
	}
	return response.Success(c, res.Data, "Role assigned successfully")
}
