package server

import (
	"backend-fieldtrack/internal/auth"
	"backend-fieldtrack/internal/config"
	"backend-fieldtrack/internal/employee"
	"backend-fieldtrack/internal/position"
	"backend-fieldtrack/internal/site"
	"backend-fieldtrack/internal/stream"
	"backend-fieldtrack/internal/visit"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Live   *position.Store
	Visits *visit.Service
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
		Live:   position.NewStore(),
	}
	s.Visits = visit.NewService(db, s.Live)

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	recorder := position.NewRecorder(s.DB)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	employee.RegisterRoutes(s.App.Group("/employees"), employee.NewService(s.DB), jwtMiddleware)
	site.RegisterRoutes(s.App.Group("/sites"), site.NewService(s.DB), jwtMiddleware)
	visit.RegisterRoutes(s.App.Group("/visits"), s.Visits, recorder, s.Cfg.StaleAfter, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, stream.NewService(recorder, s.Live, s.Stream), jwtMiddleware)
}
