package blog

import (
	"context"

	"github.com/Kyz7/dashboard/internal/activity"
	"github.com/Kyz7/dashboard/internal/apperror"
	"github.com/Kyz7/dashboard/internal/logger"
	"github.com/Kyz7/dashboard/internal/response"
	"github.com/Kyz7/dashboard/internal/storage"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc   *Service
	store storage.Storage
}

func NewHandler(svc *Service, store storage.Storage) *Handler {
	return &Handler{svc: svc, store: store}
}

func requestContext(c *fiber.Ctx) context.Context {
	return activity.ContextWithIP(c.UserContext(), c.IP())
}

func currentUser(c *fiber.Ctx) uint {
	id, _ := c.Locals("user_id").(uint)
	return id
}

func blogID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) ListBlogs(c *fiber.Ctx) error {
	var params ListParams
	if err := c.QueryParser(&params); err != nil {
		return response.BadRequest(c, "Invalid query parameters", err.Error())
	}

	page, err := h.svc.GetBlogs(c.UserContext(), params)
	if err != nil {
		return response.FromError(c, err)
	}

	p := params.normalize()
	return response.SuccessWithMeta(c, page, &response.Meta{
		Page:       p.Page,
		Limit:      p.PerPage,
		TotalPages: page.PageCount,
	}, "Blog posts retrieved successfully")
}

func (h *Handler) CreateBlog(c *fiber.Ctx) error {
	var body CreateInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	res := h.svc.CreateBlog(requestContext(c), body, currentUser(c))
	if res.Err != nil {
		return response.FromError(c, res.Err)
	}
	return response.Created(c, res.Data, "Blog post created")
}

func (h *Handler) UpdateBlog(c *fiber.Ctx) error {
	id, ok := blogID(c)
	if !ok {
		return response.BadRequest(c, "Invalid blog post ID", nil)
	}

	var body UpdateInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	body.ID = id

	res := h.svc.UpdateBlog(requestContext(c), body, currentUser(c))
	if res.Err != nil {
		return response.FromError(c, res.Err)
	}
	return response.Success(c, res.Data, "Blog post updated")
}

func (h *Handler) DeleteBlog(c *fiber.Ctx) error {
	id, ok := blogID(c)
	if !ok {
		return response.BadRequest(c, "Invalid blog post ID", nil)
	}

	res := h.svc.DeleteBlog(requestContext(c), DeleteInput{ID: id}, currentUser(c))
	if res.Err != nil {
		return response.FromError(c, res.Err)
	}
	return response.Success(c, res.Data, "Blog post deleted")
}

func (h *Handler) DeleteBlogs(c *fiber.Ctx) error {
	var body DeleteManyInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	res := h.svc.DeleteBlogs(requestContext(c), body, currentUser(c))
	if res.Err != nil {
		return response.FromError(c, res.Err)
	}
	return response.Success(c, res.Data, "Blog posts deleted")
}

// UploadFeatureImage stores an image and returns the URL to put in a
// post's feature_image.
func (h *Handler) UploadFeatureImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		file = nil
	}
	if err := storage.ValidateImage(file); err != nil {
		return response.FromError(c, err)
	}

	url, err := h.store.Upload(file)
	if err != nil {
		logger.Log.WithError(err).WithField("storage", h.store.Mode()).Error("Feature image upload failed")
		return response.FromError(c, apperror.Persistence("Failed to upload image", err))
	}

	return response.Created(c, fiber.Map{
		"url":     url,
		"storage": h.store.Mode(),
	}, "Image uploaded")
}

func (h *Handler) ListActivity(c *fiber.Ctx) error {
	id, ok := blogID(c)
	if !ok {
		return response.BadRequest(c, "Invalid blog post ID", nil)
	}

	logs, err := h.svc.Activity(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, logs, "Activity retrieved successfully")
}
