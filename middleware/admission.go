// middleware/admission.go

package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gateguard/gateguard/audit"
	"github.com/gateguard/gateguard/config"
	"github.com/gateguard/gateguard/engine"
	logger "github.com/gateguard/gateguard/logging"
	"github.com/gateguard/gateguard/model"
	"github.com/gateguard/gateguard/util"
)

// Event types published for decision consumers.
const (
	EventDecisionBlocked = "decision.blocked"
	EventDecisionError   = "decision.error"
)

// Admission runs the access decision engine once per request and renders
// its outcome. Allow and Skip let the request proceed; everything else
// short-circuits it with the decided status.
func Admission(eng *engine.Engine, policies *config.PolicySet, bus *util.EventBus) gin.HandlerFunc {
	return func(c *gin.Context) {
		policy := policies.ForPath(c.Request.URL.Path)
		req := requestContext(c)

		decision := eng.Check(c.Request.Context(), policy, req)

		switch decision.Kind {
		case model.Skip, model.Allow:
			c.Next()
			return

		case model.Redirect:
			publishDecision(c, bus, EventDecisionBlocked, req, decision)
			c.Header("Location", decision.RedirectTarget)
			c.AbortWithStatusJSON(decision.StatusCode, gin.H{
				"error":    "request blocked",
				"location": decision.RedirectTarget,
			})

		case model.Block:
			publishDecision(c, bus, EventDecisionBlocked, req, decision)
			c.AbortWithStatusJSON(decision.StatusCode, gin.H{
				"error": "request blocked",
			})

		default: // model.InternalError
			publishDecision(c, bus, EventDecisionError, req, decision)
			note := decision.Note
			if note == "" {
				note = "internal server error"
			}
			logger.Error("admission check failed",
				zap.String("ip", req.ClientIP),
				zap.String("path", req.Path))
			c.AbortWithStatusJSON(decision.StatusCode, gin.H{
				"error": note,
			})
		}
	}
}

// requestContext captures the engine's view of the request, including the
// attributes redirect expressions may reference.
func requestContext(c *gin.Context) *model.RequestContext {
	headers := make(map[string]string, len(c.Request.Header))
	for name := range c.Request.Header {
		headers[name] = c.Request.Header.Get(name)
	}

	return &model.RequestContext{
		ClientIP: c.ClientIP(),
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		Method:   c.Request.Method,
		Headers:  headers,
	}
}

func publishDecision(c *gin.Context, bus *util.EventBus, eventType string, req *model.RequestContext, decision model.Decision) {
	if bus == nil {
		return
	}

	record := audit.DecisionRecord{
		Timestamp:      time.Now(),
		RequestID:      c.GetString(RequestIDKey),
		ClientIP:       req.ClientIP,
		Host:           req.Host,
		Path:           req.Path,
		Outcome:        decision.Kind.String(),
		StatusCode:     decision.StatusCode,
		RedirectTarget: decision.RedirectTarget,
	}

	// detached context: the audit write must outlive an aborted request
	bus.Publish(context.WithoutCancel(c.Request.Context()), eventType, record)
}
