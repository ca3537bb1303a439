package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type FormattedIDRepairer interface {
	RepairFormattedIDs(ctx context.Context, batch int) (int, error)
}

type AdminHandler struct {
	repairer     FormattedIDRepairer
	defaultBatch int
}

func NewAdminHandler(repairer FormattedIDRepairer, defaultBatch int) *AdminHandler {
	if defaultBatch <= 0 {
		defaultBatch = 100
	}
	return &AdminHandler{repairer: repairer, defaultBatch: defaultBatch}
}

// RepairFormattedIDs runs the repair pass on demand. ?batch= overrides the
// page size.
func (h *AdminHandler) RepairFormattedIDs(ctx *gin.Context) {
	batch := h.defaultBatch
	if raw := ctx.Query("batch"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			RespondBadRequest(ctx, "batch must be between 1 and 1000", gin.H{"field": "batch"})
			return
		}
		batch = n
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 30*time.Second)
	defer cancel()

	n, err := h.repairer.RepairFormattedIDs(cctx, batch)
	if err != nil {
		RespondError(ctx, http.StatusInternalServerError, CodeInternal, "Repair pass failed", gin.H{"repaired": n})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"repaired": n})
}
