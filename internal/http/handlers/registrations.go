package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mockskills/collabzone/internal/cache"
	"github.com/mockskills/collabzone/internal/domain/registration"
	"github.com/mockskills/collabzone/internal/service"
)

type RegistrationService interface {
	Create(ctx context.Context, candidate registration.Registration) (service.Confirmation, error)
	Get(ctx context.Context, id int64) (registration.Registration, error)
	List(ctx context.Context) ([]registration.Registration, error)
}

type RegistrationsHandler struct {
	svc     RegistrationService
	cache   *cache.Cache[int64, registration.Registration]
	timeout time.Duration
}

// NewRegistrationsHandler wires the workflow. A nil cache disables read caching.
func NewRegistrationsHandler(svc RegistrationService, c *cache.Cache[int64, registration.Registration]) *RegistrationsHandler {
	return &RegistrationsHandler{
		svc:     svc,
		cache:   c,
		timeout: 5 * time.Second,
	}
}

type createRegistrationResponse struct {
	Name        string `json:"name"`
	FormattedID string `json:"formattedId"`
	Message     string `json:"message"`
}

func (h *RegistrationsHandler) Create(ctx *gin.Context) {
	var req registration.CreateRegistrationRequest

	if !BindJSONWithMessage(ctx, &req, registrationBindMessage) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	conf, err := h.svc.Create(cctx, registration.NewFromCreateRequest(req))
	if err != nil {
		RespondRegistrationError(ctx, err, "Could not complete registration")
		return
	}

	ctx.JSON(http.StatusCreated, createRegistrationResponse{
		Name:        conf.Name,
		FormattedID: conf.FormattedID,
		Message:     conf.Message(),
	})
}

func (h *RegistrationsHandler) List(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	regs, err := h.svc.List(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not list registrations")
		return
	}

	if regs == nil {
		regs = []registration.Registration{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, regs)
}

func (h *RegistrationsHandler) GetByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "registration id must be a positive integer", gin.H{"field": "id"})
		return
	}

	if h.cache != nil {
		if reg, ok := h.cache.Get(id); ok {
			ctx.Header("X-Cache", "HIT")
			RespondJSONWithETag(ctx, http.StatusOK, reg)
			return
		}
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	reg, err := h.svc.Get(cctx, id)
	if err != nil {
		RespondRegistrationError(ctx, err, "Could not fetch registration")
		return
	}

	// half-written records are not cached so a later repair is visible
	if h.cache != nil && reg.Identified() {
		h.cache.Set(id, reg)
	}

	ctx.Header("X-Cache", "MISS")
	RespondJSONWithETag(ctx, http.StatusOK, reg)
}

// registrationBindMessage keeps the registrant-facing messages for the two
// mandatory fields, name first.
func registrationBindMessage(fields []FieldError) string {
	for _, want := range []struct{ field, message string }{
		{"name", registration.MsgNameMissing},
		{"email", registration.MsgEmailMissing},
	} {
		for _, f := range fields {
			if f.Field == want.field {
				return want.message
			}
		}
	}
	return ""
}
