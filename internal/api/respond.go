package api

import (
	"net/http"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Requested int    `json:"requested,omitempty"`
	Available int    `json:"available,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// respondError maps an error kind to a transport status. Anything without a
// kind is an internal error and logged with its cause.
func respondError(c *gin.Context, err error) {
	e := apperr.From(err)
	if e == nil {
		logger.FromCtx(c.Request.Context()).Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error: errorBody{Code: "internal", Message: "internal server error"},
		})
		return
	}

	c.JSON(statusFor(e.Kind), errorResponse{
		Error: errorBody{
			Code:      e.Code,
			Message:   e.Message,
			Requested: e.Requested,
			Available: e.Available,
		},
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindOutOfStock, apperr.KindInsufficientStock, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
