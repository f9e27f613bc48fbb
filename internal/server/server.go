package server

import (
	"ctchen222/tictactoe-timetravel/internal/api/auth"
	"ctchen222/tictactoe-timetravel/internal/api/controller"
	"ctchen222/tictactoe-timetravel/internal/api/middleware"
	"ctchen222/tictactoe-timetravel/internal/events"
	"ctchen222/tictactoe-timetravel/internal/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

type Server struct {
	engine     *gin.Engine
	sessions   session.SessionService
	subscriber events.Subscriber
	upgrader   websocket.Upgrader
}

// NewServer builds the gin engine and registers every route.
func NewServer(sessions session.SessionService, subscriber events.Subscriber, tokens *auth.Tokens, userController *controller.UserController, sessionController *controller.SessionController) *Server {
	s := &Server{
		engine:     gin.New(),
		sessions:   sessions,
		subscriber: subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.engine.Use(gin.Recovery(), tracing())
	s.registerHandlers(tokens, userController, sessionController)
	return s
}

// Engine returns the http.Handler serving every route.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHandlers(tokens *auth.Tokens, uc *controller.UserController, sc *controller.SessionController) {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	users := s.engine.Group("/api/users")
	users.POST("/register", uc.Register)
	users.POST("/login", uc.Login)
	users.POST("/guest", uc.GuestLogin)

	requireAuth := middleware.RequireAuth(tokens)

	sessions := s.engine.Group("/api/sessions", requireAuth)
	sessions.POST("", sc.Create)
	sessions.GET("/:id", sc.Get)
	sessions.POST("/:id/moves", sc.Move)
	sessions.POST("/:id/jump", sc.Jump)
	sessions.DELETE("/:id", sc.Delete)

	s.engine.GET("/ws/sessions/:id", requireAuth, s.handleWebSocket)
}

// tracing starts a server span per request, continuing any trace the caller propagated.
func tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+c.FullPath(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", c.FullPath()),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
