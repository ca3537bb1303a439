package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mockskills/collabzone/internal/domain/registration"
)

// Error codes returned in the envelope.
const (
	CodeInvalidRequest  = "invalid_request"
	CodeEmailTaken      = "email_taken"
	CodeNotFound        = "not_found"
	CodePayloadTooLarge = "payload_too_large"
	CodeInternal        = "internal_error"
)

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

func requestIDFrom(ctx *gin.Context) string {
	if id := ctx.GetString("request_id"); id != "" {
		return id
	}
	// set by the request id middleware before handlers run
	return ctx.Writer.Header().Get("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details any) {
	ctx.JSON(status, errorEnvelope{Error: APIError{
		Code:      code,
		Message:   message,
		RequestID: requestIDFrom(ctx),
		Details:   details,
	}})
}

func RespondBadRequest(ctx *gin.Context, message string, details any) {
	RespondError(ctx, http.StatusBadRequest, CodeInvalidRequest, message, details)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, CodeInternal, message, nil)
}

// RespondRegistrationError maps workflow errors onto the envelope. Anything
// that is not a rejection or a miss is reported as fallback.
func RespondRegistrationError(ctx *gin.Context, err error, fallback string) {
	var rej *registration.RejectionError

	switch {
	case errors.As(err, &rej) && errors.Is(err, registration.ErrEmailTaken):
		RespondError(ctx, http.StatusConflict, CodeEmailTaken, rej.Reason, nil)
	case errors.As(err, &rej):
		RespondBadRequest(ctx, rej.Reason, gin.H{"field": rej.Field})
	case errors.Is(err, registration.ErrNotFound):
		RespondError(ctx, http.StatusNotFound, CodeNotFound, registration.MsgNotFound, nil)
	default:
		RespondInternal(ctx, fallback)
	}
}
