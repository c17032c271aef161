package relayd

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github/chapool/go-chapay/internal/config"
)

// Router keeps the route groups of the relay daemon.
type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
}

// InitRouter builds the echo instance and mounts all handlers. It must run
// after Init so the metrics registry exists.
func InitRouter(s *Server) {
	e := echo.New()
	e.Debug = s.Config.Echo.Debug
	e.HideBanner = true
	e.HidePort = true

	if s.Config.Echo.EnableTrailingSlashMiddleware {
		e.Pre(middleware.RemoveTrailingSlash())
	}
	if s.Config.Echo.EnableRecoverMiddleware {
		e.Use(middleware.Recover())
	}
	if s.Config.Echo.EnableRequestIDMiddleware {
		e.Use(middleware.RequestID())
	}
	if s.Config.Echo.EnableLoggerMiddleware {
		e.Use(requestLoggerMiddleware(s.Config.Logger))
	}
	if s.Config.Logger.LogRequestBody {
		e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
			log.Debug().
				Bytes("request_body", reqBody).
				Bytes("response_body", resBody).
				Msg("Request body dump")
		}))
	}
	if s.Config.Echo.EnableCORSMiddleware {
		e.Use(middleware.CORS())
	}

	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "chapay_relayd",
		Registerer: s.Metrics.Registry,
	}))

	s.Echo = e
	s.Router = &Router{
		Root:       e.Group(""),
		Management: e.Group("/-"),
	}

	s.Router.Root.POST("/", s.handleRPC)
	s.Router.Management.GET("/ready", s.handleReady)
	s.Router.Management.GET("/healthy", s.handleHealthy)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: s.Metrics.Registry,
	}))

	s.Router.Routes = e.Routes()
}

func requestLoggerMiddleware(cfg config.LoggerServer) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogRequestID: true,
		LogLatency:   true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.WithLevel(cfg.RequestLevel).
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency)
			if cfg.LogRequestQuery {
				ev = ev.Str("query", c.QueryString())
			}
			if cfg.LogRequestHeader {
				ev = ev.Interface("header", c.Request().Header)
			}
			if v.Error != nil {
				ev = ev.Err(v.Error)
			}
			ev.Msg("Handled request")
			return nil
		},
	})
}
