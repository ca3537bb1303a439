package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mockskills/collabzone/internal/validation"
)

const msgInvalidBody = "Invalid request body"

// FieldError is one entry of details.fields. Field is the JSON path,
// e.g. "skills[1]".
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

func BindJSON(ctx *gin.Context, out any) bool {
	return BindJSONWithMessage(ctx, out, nil)
}

// BindJSONWithMessage lets the caller pick the top-level message from the
// field errors. A nil picker or an empty result keeps the generic one.
func BindJSONWithMessage(ctx *gin.Context, out any, pick func([]FieldError) string) bool {
	err := ctx.ShouldBindJSON(out)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(ctx, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body is too large", nil)
		return false
	}

	details := bindErrorDetails(err)

	message := msgInvalidBody
	if fields, ok := details["fields"].([]FieldError); ok && pick != nil {
		if m := pick(fields); m != "" {
			message = m
		}
	}

	RespondBadRequest(ctx, message, details)
	return false
}

func bindErrorDetails(err error) gin.H {
	var (
		validationErrs validator.ValidationErrors
		syntaxErr      *json.SyntaxError
		typeErr        *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &validationErrs):
		fields := make([]FieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, FieldError{
				Field:   jsonPath(fe),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: validationMessage(fe.Tag(), fe.Param()),
			})
		}
		return gin.H{"fields": fields}

	case errors.Is(err, io.EOF):
		return gin.H{"json": "empty_body"}

	case errors.As(err, &syntaxErr):
		return gin.H{"json": "invalid_json_syntax", "offset": syntaxErr.Offset}

	case errors.As(err, &typeErr):
		// encoding/json reports the path in JSON key names already
		field := strings.TrimSpace(typeErr.Field)
		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
			}},
		}
	}

	return gin.H{"reason": err.Error()}
}

// jsonPath drops the root struct name from the namespace. Field names are
// JSON names because validation.RegisterTags installs a tag name func.
func jsonPath(fe validator.FieldError) string {
	if _, path, ok := strings.Cut(fe.Namespace(), "."); ok && path != "" {
		return path
	}
	return fe.Field()
}

func validationMessage(rule, param string) string {
	if msg, ok := validation.TagMessage(rule); ok {
		return msg
	}

	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	}

	if param != "" {
		return fmt.Sprintf("failed %s validation (%s)", rule, param)
	}
	return "failed " + rule + " validation"
}
