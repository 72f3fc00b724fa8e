package user

import (
	"github.com/Kyz7/dashboard/internal/response"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var body CreateInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	u, err := h.svc.CreateUser(c.UserContext(), body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, u, "User created successfully")
}

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.svc.ListUsers(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, users, "Users retrieved successfully")
}
