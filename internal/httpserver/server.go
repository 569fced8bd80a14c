// Package httpserver exposes the telephony webhook, the media-stream
// websocket, and the transcript endpoints.
package httpserver

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/vancelk/switchboard/core/telephony"
	"github.com/vancelk/switchboard/core/tools"
	"github.com/vancelk/switchboard/internal/config"
	"github.com/vancelk/switchboard/internal/transcripts"
)

// Server bundles the router and per-process dependencies. Per-call state is
// built in the connection handler, one pipeline per websocket.
type Server struct {
	echo       *echo.Echo
	cfg        config.Config
	store      *transcripts.Store
	registry   *tools.Registry
	controller *telephony.CallController
	upgrader   websocket.Upgrader
}

func New(cfg config.Config, store *transcripts.Store, registry *tools.Registry, controller *telephony.CallController) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:       e,
		cfg:        cfg,
		store:      store,
		registry:   registry,
		controller: controller,
		upgrader: websocket.Upgrader{
			// Twilio's media stream client sends no Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.POST("/incoming", s.handleIncoming)
	e.GET("/connection", s.handleConnection)
	e.GET("/transcripts", s.handleListTranscripts)
	e.GET("/transcripts/:callSid", s.handleTranscript)
	e.GET("/transcript-updates", s.handleTranscriptUpdates)

	return s
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
