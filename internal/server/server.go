package server

import (
	"log"

	"video-intel-be/internal/bootstrap"
	"video-intel-be/internal/config"
	"video-intel-be/internal/pkg/serverutils"
	ws "video-intel-be/internal/websocket"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		// Uploads are full videos; keep the limit generous.
		BodyLimit: 512 * 1024 * 1024,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Stored media for the playback UI. File names are random UUIDs, which
	// keeps them unguessable without per-request auth on range requests.
	app.Static("/media", cfg.App.UploadDir, fiber.Static{
		ByteRange: true,
	})

	// Routes
	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.AuthController.RegisterRoutes(api)
	c.VideoController.RegisterRoutes(api)
	c.ChatController.RegisterRoutes(api)

	registerWebSocket(app, c)
}

// registerWebSocket exposes the ingestion-progress feed. The token travels
// as a query parameter because browsers cannot set headers on websocket
// upgrades.
func registerWebSocket(app *fiber.App, c *bootstrap.Container) {
	app.Use("/ws", func(ctx *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}
		userId, err := serverutils.UserIdFromToken(ctx.Query("token"))
		if err != nil {
			return fiber.ErrUnauthorized
		}
		ctx.Locals("ws_user_id", userId)
		return ctx.Next()
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		userId := conn.Locals("ws_user_id").(uuid.UUID)
		ws.ServeWs(c.WebSocketHub, conn, userId)
	}))
}
