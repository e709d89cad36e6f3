package server

import (
	"context"
	"time"

	"backend-trailforge/internal/config"
	"backend-trailforge/internal/routestore"
	"backend-trailforge/internal/stream"
	"backend-trailforge/internal/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Stream  *stream.Hub
	Uploads *upload.Service

	janitorCancel context.CancelFunc
}

// NewServer wires the HTTP app. It fails when the upload service
// cannot be constructed, which includes the missing-credential fatal
// startup condition.
func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client) (*Server, error) {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	store := upload.NewMemoryStore(cfg.UploadTTL)

	deps := upload.Deps{
		Store: store,
		Redis: redisClient,
		Hub:   hub,
	}
	if pool != nil {
		deps.Saver = routestore.NewService(pool)
	}

	uploads, err := upload.NewService(cfg, deps)
	if err != nil {
		return nil, err
	}

	janitorCtx, cancel := context.WithCancel(context.Background())
	go store.Janitor(janitorCtx, time.Hour)

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      pool,
		Redis:   redisClient,
		Stream:  hub,
		Uploads: uploads,

		janitorCancel: cancel,
	}

	registerRoutes(s)
	return s, nil
}

// Close stops background workers owned by the server.
func (s *Server) Close() {
	if s.janitorCancel != nil {
		s.janitorCancel()
	}
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	upload.RegisterRoutes(s.App.Group("/gpx"), s.Uploads)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
