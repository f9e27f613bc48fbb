package controller

import (
	"ctchen222/tictactoe-timetravel/internal/api/middleware"
	"ctchen222/tictactoe-timetravel/internal/api/models"
	"ctchen222/tictactoe-timetravel/internal/api/response"
	"ctchen222/tictactoe-timetravel/internal/game"
	"ctchen222/tictactoe-timetravel/internal/repository"
	"ctchen222/tictactoe-timetravel/internal/session"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionController exposes game sessions over HTTP.
type SessionController struct {
	sessions session.SessionService
}

func NewSessionController(sessions session.SessionService) *SessionController {
	return &SessionController{sessions: sessions}
}

// Create starts a new session for the authenticated player.
func (sc *SessionController) Create(c *gin.Context) {
	view, err := sc.sessions.Create(c.Request.Context(), middleware.PlayerID(c))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	response.SuccessResponse(c, view)
}

func (sc *SessionController) Get(c *gin.Context) {
	view, err := sc.sessions.Get(c.Request.Context(), middleware.PlayerID(c), c.Param("id"))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	response.SuccessResponse(c, view)
}

// Move handles a click on a board cell.
func (sc *SessionController) Move(c *gin.Context) {
	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := sc.sessions.Move(c.Request.Context(), middleware.PlayerID(c), c.Param("id"), *req.Cell)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	response.SuccessResponse(c, view)
}

// Jump handles a click on the move list.
func (sc *SessionController) Jump(c *gin.Context) {
	var req models.JumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := sc.sessions.Jump(c.Request.Context(), middleware.PlayerID(c), c.Param("id"), *req.Step)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	response.SuccessResponse(c, view)
}

func (sc *SessionController) Delete(c *gin.Context) {
	if err := sc.sessions.Delete(c.Request.Context(), middleware.PlayerID(c), c.Param("id")); err != nil {
		writeSessionError(c, err)
		return
	}
	response.SuccessResponse(c, gin.H{"message": "Session deleted"})
}

func writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrRejected):
		response.ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrSessionNotFound):
		response.ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrForbidden):
		response.ErrorResponse(c, http.StatusForbidden, err.Error())
	default:
		slog.ErrorContext(c.Request.Context(), "session request failed", "error", err)
		response.ErrorResponse(c, http.StatusInternalServerError, "internal error")
	}
}
