package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/service"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	if err := WriteJSON(w, status, errorBody{Error: msg}); err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	writeError(w, http.StatusBadRequest, msg)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	writeError(w, http.StatusNotFound, msg)
}

func Conflict(w http.ResponseWriter, msg string, err error) {
	slog.Warn("conflict", "message", msg, "error", err)
	writeError(w, http.StatusConflict, msg)
}

// Unavailable is for transient failures the client may retry.
func Unavailable(w http.ResponseWriter, msg string, err error) {
	slog.Warn("unavailable", "message", msg, "error", err)
	w.Header().Set("Retry-After", "1")
	writeError(w, http.StatusServiceUnavailable, msg)
}

// Guards that reject the request payload rather than the match state.
var inputGuards = []error{
	bracket.ErrTieScore,
	bracket.ErrNegativeScore,
	bracket.ErrInvalidSlot,
	bracket.ErrUnsupportedBestOf,
	bracket.ErrSameTeam,
	bracket.ErrMapUnknown,
}

// StatusFor maps a service error onto an HTTP status.
func StatusFor(err error) int {
	var te *service.TransitionError
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConcurrentUpdate):
		return http.StatusServiceUnavailable
	case errors.Is(err, bracket.ErrConfiguration):
		return http.StatusInternalServerError
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrTeamCount),
		errors.Is(err, service.ErrUnknownTeam):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrBracketExists):
		return http.StatusConflict
	case errors.As(err, &te):
		for _, target := range inputGuards {
			if errors.Is(te.Err, target) {
				return http.StatusBadRequest
			}
		}
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Error writes err with the status StatusFor picks. msg is logged for
// server errors; clients get the error text otherwise.
func Error(w http.ResponseWriter, msg string, err error) {
	switch status := StatusFor(err); status {
	case http.StatusNotFound:
		NotFound(w, err.Error(), err)
	case http.StatusBadRequest:
		BadRequest(w, err.Error(), err)
	case http.StatusConflict:
		Conflict(w, err.Error(), err)
	case http.StatusServiceUnavailable:
		Unavailable(w, err.Error(), err)
	default:
		InternalServerError(w, msg, err)
	}
}
