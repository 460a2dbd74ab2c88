package http

import (
	"context"
	stdhttp "net/http"
	"strings"

	"gallery-service/internal/config"
	"gallery-service/internal/http/handler"
	"gallery-service/internal/http/middleware"
	"gallery-service/internal/storage/local"
	apperrors "gallery-service/pkg/errors"
	"gallery-service/pkg/metrics"
	"gallery-service/pkg/profiling"
	"gallery-service/pkg/tracing"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"
)

const (
	jsonKeyStatus = "status"
	statusOK      = "ok"
	routeHealth   = "/health"
	apiPrefix     = "/api"
	msgNoSuchFile = "File not found"
)

// GatewayService is everything the HTTP surface needs from the gateway.
type GatewayService interface {
	handler.BucketService
	handler.FileService
}

type ServerDependencies struct {
	Config  *config.Config
	Gateway GatewayService
	Metrics *metrics.Metrics
	// PublicFS is served under /public when set. Only the local backend
	// provides one.
	PublicFS afero.Fs
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = CustomHTTPErrorHandler

	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	// Request ID middleware (first, so all logs have request ID)
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(tracing.Middleware(routeHealth, metrics.Route))
	if deps.Metrics != nil {
		e.Use(deps.Metrics.Middleware())
		deps.Metrics.RegisterRoute(e)
	}
	e.Use(echomiddleware.BodyLimit(deps.Config.App.MaxUploadSize))

	rateLimiter := middleware.NewRateLimiter(
		deps.Config.Server.RateLimitRPS,
		deps.Config.Server.RateLimitBurst,
		routeHealth, metrics.Route,
	)
	e.Use(rateLimiter.Middleware())

	bucketHandler := handler.NewBucketHandler(deps.Gateway)
	fileHandler := handler.NewFileHandler(deps.Gateway)

	e.GET(routeHealth, healthCheck)

	// The browser client has always used the /api paths.
	for _, g := range []*echo.Group{e.Group(""), e.Group(apiPrefix)} {
		g.GET("/buckets", bucketHandler.ListBuckets)
		g.POST("/buckets", bucketHandler.CreateBucket)
		g.GET("/files", fileHandler.ListFiles)
		g.POST("/upload", fileHandler.Upload)
	}

	if deps.Config.Server.EnableProfiling {
		profiling.Register(e)
	}

	if deps.PublicFS != nil {
		e.GET(local.PublicPrefix+"/*", publicFiles(deps.PublicFS))
	}

	return &Server{
		echo: e,
		deps: deps,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() stdhttp.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func healthCheck(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]string{
		jsonKeyStatus: statusOK,
	})
}

// publicFiles serves stored objects read-only. Directory listings are not
// exposed.
func publicFiles(fs afero.Fs) echo.HandlerFunc {
	files := stdhttp.StripPrefix(local.PublicPrefix, stdhttp.FileServer(afero.NewHttpFs(fs)))

	return func(c echo.Context) error {
		name := c.Param("*")
		if name == "" || strings.HasSuffix(name, "/") {
			return apperrors.NotFound(msgNoSuchFile)
		}
		if info, err := fs.Stat("/" + name); err != nil || info.IsDir() {
			return apperrors.NotFound(msgNoSuchFile)
		}

		files.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}
