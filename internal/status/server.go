package status

import (
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes run health, progress and metrics over HTTP while a paced
// run is in flight. It never affects the run outcome.
type Server struct {
	app  *fiber.App
	addr string
	log  zerolog.Logger
}

func NewServer(addr string, tracker *Tracker, gatherer prometheus.Gatherer, log zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/status", func(c *fiber.Ctx) error { return c.JSON(tracker.Snapshot()) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return &Server{app: app, addr: addr, log: log}
}

// Start serves in the background. Listen errors are logged, not fatal.
func (s *Server) Start() {
	go func() {
		if err := s.app.Listen(s.addr); err != nil {
			s.log.Error().Err(err).Str("addr", s.addr).Msg("status server exit")
		}
	}()
	s.log.Info().Str("addr", s.addr).Msg("status server listening")
}

func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(2 * time.Second)
}

// App exposes the fiber app for in-process tests.
func (s *Server) App() *fiber.App { return s.app }
