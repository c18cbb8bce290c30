package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"sneakerstore/internal/domain"
)

var statusByCode = map[domain.Code]int{
	domain.CodeUnauthenticated:  http.StatusUnauthorized,
	domain.CodePermissionDenied: http.StatusForbidden,
	domain.CodeNotFound:         http.StatusNotFound,
	domain.CodeInvalidInput:     http.StatusBadRequest,
	domain.CodeConflict:         http.StatusConflict,
	domain.CodeInternal:         http.StatusInternalServerError,
}

type errorBody struct {
	Code    domain.Code `json:"code"`
	Message string      `json:"message"`
	Details any         `json:"details,omitempty"`
}

func statusFor(code domain.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error": {...}}. Internal causes are logged,
// never returned.
func writeError(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	body := errorBody{Code: code, Message: "internal server error"}
	if typed := domain.AsError(err); typed != nil && code != domain.CodeInternal {
		body.Message = typed.Message()
		body.Details = typed.Details()
	} else if code == domain.CodeNotFound {
		body.Message = "not found"
	}
	if code == domain.CodeInternal {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
	}
	c.JSON(statusFor(code), gin.H{"error": body})
}

func invalidBody(err error) error {
	return domain.WrapError(domain.CodeInvalidInput, err, "invalid request body")
}
