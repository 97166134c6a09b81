package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"scooper-dashboard/services"
	"scooper-dashboard/storage"
	"scooper-dashboard/table"
)

var ErrInvalidRequest = errors.New("invalid_request")

type errorPayload struct {
	Type    string   `json:"type"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware renders the last error recorded on the context
// unless the handler already wrote a response.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var sm *table.SchemaMismatchError
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: err.Error()}
	case errors.Is(err, services.ErrUnknownRegistry):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: err.Error()}
	case errors.As(err, &sm):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "schema_mismatch",
			Message: err.Error(),
			Missing: sm.Missing,
		}
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusServiceUnavailable, errorPayload{Type: "feed_unavailable", Message: err.Error()}
	}

	var fe *services.FeedError
	if errors.As(err, &fe) {
		return http.StatusBadGateway, errorPayload{Type: "feed_error", Message: err.Error()}
	}
	return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
}
