package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mockskills/collabzone/internal/domain/registration"
	"github.com/mockskills/collabzone/internal/http/handlers"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/registration", func(ctx *gin.Context) {
		var req registration.CreateRegistrationRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/registration", bytes.NewBufferString(`{"name":"Ada","email":"ada@example.com","skills":["Go","C++"]}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"department": "required",
		"skills[1]":  "skill",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/registration", func(ctx *gin.Context) {
		var req registration.CreateRegistrationRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	body := `{"name":"Ada","email":"ada@example.com","department":"TECH","skills":"Go"}`
	req := httptest.NewRequest(http.MethodPost, "/registration", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "skills" {
		t.Fatalf("expected detail field to be skills, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 {
		t.Fatalf("expected at least one field error in details.fields")
	}

	fieldErr := resp.Error.Details.Fields[0]
	if fieldErr.Field != "skills" {
		t.Fatalf("expected fields[0].field=skills, got %q", fieldErr.Field)
	}
	if fieldErr.Rule != "type" {
		t.Fatalf("expected fields[0].rule=type, got %q", fieldErr.Rule)
	}
	if fieldErr.Message == "" {
		t.Fatalf("expected non-empty fields[0].message")
	}
}

func TestBindJSON_EmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/registration", func(ctx *gin.Context) {
		var req registration.CreateRegistrationRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/registration", http.NoBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}
	if resp.Error.Details.JSON != "empty_body" {
		t.Fatalf("expected empty_body, got %q", resp.Error.Details.JSON)
	}
}

func TestBindJSON_CustomTagMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/registration", func(ctx *gin.Context) {
		var req registration.CreateRegistrationRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	body := `{"name":"Ada","email":"ada@example.com","department":"TECH","skills":["Go"],"githubUrl":"https://gitlab.com/ada"}`
	req := httptest.NewRequest(http.MethodPost, "/registration", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}
	if len(resp.Error.Details.Fields) != 1 {
		t.Fatalf("expected one field error, got %+v", resp.Error.Details.Fields)
	}

	fieldErr := resp.Error.Details.Fields[0]
	if fieldErr.Field != "githubUrl" || fieldErr.Rule != "githuburl" {
		t.Fatalf("unexpected field error: %+v", fieldErr)
	}
	if fieldErr.Message != "must be a valid GitHub profile or repository URL" {
		t.Fatalf("unexpected message: %q", fieldErr.Message)
	}
}
