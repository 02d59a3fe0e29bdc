package api

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"invoice-scanner/docs"
	"invoice-scanner/internal/api/handlers"
	"invoice-scanner/internal/dto"
	"invoice-scanner/pkg/auth"
	"invoice-scanner/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

const (
	// multipartOverhead leaves room for form boundaries and headers around the file.
	multipartOverhead = 1 << 20
	defaultBodyLimit  = 32 << 20
)

type Options struct {
	MaxUploadBytes int64
	// BodyLimit is the transport cap. Uploads between MaxUploadBytes and
	// BodyLimit are rejected by ingestion with a JSON error.
	BodyLimit      int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type Handlers struct {
	Analyze   *handlers.AnalyzeHandler
	Documents *handlers.DocumentHandler
	Dashboard *handlers.DashboardHandler
	Health    *handlers.HealthHandler
}

// SetupRouter wires middleware and routes. A nil jwtManager leaves mutating
// routes open.
func SetupRouter(
	h Handlers,
	jwtManager *auth.JWTManager,
	opts Options,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    bodyLimit(opts),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				appLogger.Error("Unhandled request error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(dto.ErrorResponse{Error: err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	requireAuth := middleware.AuthMiddleware(jwtManager, appLogger)

	api := app.Group("/api")
	api.Get("/health", h.Health.Health)

	analyze := api.Group("/analyze", requireAuth)
	analyze.Post("/invoice", h.Analyze.AnalyzeInvoice)
	analyze.Post("/receipt", h.Analyze.AnalyzeReceipt)
	analyze.Post("", h.Analyze.Analyze)

	documents := api.Group("/documents")
	documents.Get("", h.Documents.ListDocuments)
	documents.Get("/categories", h.Documents.ListCategories)
	documents.Get("/export", h.Documents.ExportDocuments)
	documents.Get("/:id", h.Documents.GetDocument)
	documents.Put("/:id", requireAuth, h.Documents.UpdateDocument)
	documents.Delete("/:id", requireAuth, h.Documents.DeleteDocument)

	dashboard := api.Group("/dashboard")
	dashboard.Get("/summary", h.Dashboard.Summary)
	dashboard.Get("/by-category", h.Dashboard.ByCategory)
	dashboard.Get("/by-month", h.Dashboard.ByMonth)
	dashboard.Get("/top-vendors", h.Dashboard.TopVendors)
	dashboard.Get("/recent", h.Dashboard.Recent)

	if webStaticPath := findWebStaticPath(appLogger); webStaticPath != "" {
		appLogger.Info("Serving static files", zap.String("path", webStaticPath))
		app.Static("/", webStaticPath)
	} else {
		appLogger.Warn("Web static directory not found, dashboard UI will not be served")
	}

	return app
}

func bodyLimit(opts Options) int {
	limit := opts.BodyLimit
	if limit <= 0 {
		limit = defaultBodyLimit
	}
	if floor := opts.MaxUploadBytes + multipartOverhead; limit < floor {
		limit = floor
	}
	return int(limit)
}

// findWebStaticPath looks for web/static relative to the working directory.
func findWebStaticPath(logger *zap.Logger) string {
	paths := []string{
		"./web/static",
		"../web/static",
		"../../web/static",
	}

	for _, path := range paths {
		if fileExists(filepath.Join(path, "index.html")) {
			return path
		}
		logger.Debug("Tried static path", zap.String("path", path))
	}

	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
