package server

import (
	"time"

	"github.com/Kyz7/dashboard/internal/auth"
	"github.com/Kyz7/dashboard/internal/blog"
	"github.com/Kyz7/dashboard/internal/middleware"
	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/permission"
	"github.com/Kyz7/dashboard/internal/role"
	"github.com/Kyz7/dashboard/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App, deps Deps) {
	db := deps.DB

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Dashboard API is running",
		})
	})

	authHandler := auth.NewHandler(auth.NewService(db), db)
	blogHandler := blog.NewHandler(blog.NewService(db, deps.Cache, deps.CacheTTL), deps.Storage)
	roleHandler := role.NewHandler(role.NewService(db))
	userHandler := user.NewHandler(user.NewService(db))

	loginLimit := deps.LoginLimit
	if loginLimit == 0 {
		loginLimit = 5
	}

	// ==========================================
	// AUTH
	// ==========================================
	authGroup := app.Group("/auth")
	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:        loginLimit,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), authHandler.Login)
	authGroup.Get("/me/permissions", auth.JWTProtected(), authHandler.MyPermissions)

	// ==========================================
	// BLOG POSTS
	// ==========================================
	// Mutations run their own permission gate so a denial carries the
	// blog-specific message.
	blogGroup := app.Group("/blogs")
	blogGroup.Use(auth.JWTProtected())
	blogGroup.Get("/",
		middleware.PermissionProtected(db, models.EntityBlogPost, permission.ActionRead),
		blogHandler.ListBlogs)
	blogGroup.Post("/", blogHandler.CreateBlog)
	blogGroup.Post("/bulk-delete", blogHandler.DeleteBlogs)
	blogGroup.Post("/feature-image",
		middleware.PermissionProtected(db, models.EntityBlogPost, permission.ActionCreate),
		blogHandler.UploadFeatureImage)
	blogGroup.Put("/:id", blogHandler.UpdateBlog)
	blogGroup.Delete("/:id", blogHandler.DeleteBlog)
	blogGroup.Get("/:id/activity",
		middleware.PermissionProtected(db, models.EntityBlogPost, permission.ActionRead),
		blogHandler.ListActivity)

	// ==========================================
	// ROLE MANAGEMENT (Admin only)
	// ==========================================
	roleGroup := app.Group("/roles")
	roleGroup.Use(auth.JWTProtected())
	roleGroup.Use(auth.RoleProtected(db, "admin"))
	roleGroup.Get("/", roleHandler.ListRoles)
	roleGroup.Post("/", roleHandler.CreateRole)
	roleGroup.Post("/delete", roleHandler.DeleteRoles)
	roleGroup.Post("/assign", roleHandler.AssignRole)
	roleGroup.Get("/:id", roleHandler.GetRole)
	roleGroup.Get("/:id/matrix", roleHandler.GetMatrix)
	roleGroup.Put("/:id/permissions", roleHandler.UpdateRolePermissions)
	roleGroup.Post("/:id/toggle", roleHandler.TogglePermission)
	roleGroup.Post("/:id/duplicate", roleHandler.DuplicateRole)

	// ==========================================
	// USER MANAGEMENT (Admin only)
	// ==========================================
	userGroup := app.Group("/users")
	userGroup.Use(auth.JWTProtected())
	userGroup.Use(auth.RoleProtected(db, "admin"))
	userGroup.Get("/", userHandler.ListUsers)
	userGroup.Post("/", userHandler.CreateUser)
}
