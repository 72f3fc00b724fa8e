package server

import (
	"time"

	"github.com/Kyz7/dashboard/internal/cache"
	"github.com/Kyz7/dashboard/internal/response"
	"github.com/Kyz7/dashboard/internal/storage"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Cache    cache.Cache
	CacheTTL time.Duration
	Storage  storage.Storage
	// LoginLimit caps login attempts per IP per 15 minutes. Zero means 5.
	LoginLimit int
}

func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return response.Error(c, e.Code, "HTTP_ERROR", e.Message, nil)
			}
			return response.FromError(c, err)
		},
	})

	app.Static("/uploads", storage.UploadBasePath, fiber.Static{
		Compress:  true,
		ByteRange: true,
		Browse:    false,
		MaxAge:    3600,
	})

	SetupRoutes(app, deps)

	return app
}
