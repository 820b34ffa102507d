// controller/audit_controller.go
package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gateguard/gateguard/audit"
	"github.com/gateguard/gateguard/util"
)

// AuditController exposes the decision audit trail for operators.
type AuditController struct {
	auditService audit.Service
}

func NewAuditController(auditService audit.Service) *AuditController {
	return &AuditController{auditService: auditService}
}

func (ctrl *AuditController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/decisions", ctrl.QueryDecisions)
}

// QueryDecisions returns decision records in a time window, optionally
// filtered by client address. Defaults to the last 24 hours.
func (ctrl *AuditController) QueryDecisions(c *gin.Context) {
	to := time.Now()
	from := to.Add(-24 * time.Hour)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			util.RespondWithError(c, http.StatusBadRequest, "invalid 'from' timestamp", err)
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			util.RespondWithError(c, http.StatusBadRequest, "invalid 'to' timestamp", err)
			return
		}
		to = parsed
	}

	records, err := ctrl.auditService.QueryDecisions(c.Request.Context(), from, to, c.Query("ip"))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "failed to query decision records", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"decisions": records})
}
