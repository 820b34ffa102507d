// engine/engine.go

// Package engine implements the access decision pipeline: cache-first
// lookup, remote query, best-effort cache store, and policy-driven
// interpretation of the result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/gateguard/gateguard/cache"
	gateguard_errors "github.com/gateguard/gateguard/errors"
	"github.com/gateguard/gateguard/lapi"
	logger "github.com/gateguard/gateguard/logging"
	"github.com/gateguard/gateguard/model"
)

// notBlockedPayload is the decision-service sentinel for "not blocked". Any
// other payload is opaque evidence of a block and is never parsed further.
const notBlockedPayload = "null"

// fallbackFailNote is surfaced upstream when fallback=fail rejects a request
// the service could not verify.
const fallbackFailNote = "Could not verify the request against the threat " +
	"intelligence service, the request has been rejected."

// Querier is the decision-service capability the engine consumes.
type Querier interface {
	Query(ctx context.Context, addr string) (string, error)
	QueryURL(addr string) string
}

// Engine evaluates one request at a time against the shared cache and the
// remote decision service. It performs at most one cache read, one remote
// query and one cache write per request, strictly sequentially; concurrent
// misses for the same address are tolerated, not deduplicated.
type Engine struct {
	cache  *cache.Adapter
	client Querier
}

func New(cacheAdapter *cache.Adapter, client Querier) *Engine {
	return &Engine{
		cache:  cacheAdapter,
		client: client,
	}
}

var _ Querier = (*lapi.Client)(nil)

// Check runs the admission pipeline for one request and returns a terminal
// decision. It never returns an error: every failure mode maps to a
// decision per the configured policy.
func (e *Engine) Check(ctx context.Context, policy *model.AccessPolicy, req *model.RequestContext) model.Decision {
	if policy == nil || !policy.Enabled || req.Internal {
		return model.Decision{Kind: model.Skip}
	}

	payload, hit := e.cache.Get(ctx, req.ClientIP)

	if !hit {
		var decided bool
		var decision model.Decision

		payload, decision, decided = e.fetch(ctx, policy, req)
		if decided {
			return decision
		}
	}

	return e.interpret(policy, req, payload)
}

// fetch queries the decision service and applies fallback policy. It either
// yields a payload to interpret, or a terminal decision (decided=true) for
// the failure modes fallback does not cover.
func (e *Engine) fetch(ctx context.Context, policy *model.AccessPolicy, req *model.RequestContext) (string, model.Decision, bool) {
	payload, err := e.client.Query(ctx, req.ClientIP)
	if err == nil {
		e.cache.Put(ctx, req.ClientIP, payload)
		return payload, model.Decision{}, false
	}

	target := e.client.QueryURL(req.ClientIP)

	// 404 and a missing body mean we are not talking to the service we
	// think we are; masking that as allow or block would be misleading.
	if errors.Is(err, gateguard_errors.ErrNotDecisionService) ||
		errors.Is(err, gateguard_errors.ErrResponseNotRecorded) {
		logger.Error("request rejected",
			zap.String("ip", req.ClientIP),
			zap.String("url", target),
			zap.Error(err))
		return "", model.Decision{
			Kind:       model.InternalError,
			StatusCode: http.StatusInternalServerError,
		}, true
	}

	var serviceErr *gateguard_errors.ServiceError
	if !errors.As(err, &serviceErr) {
		serviceErr = &gateguard_errors.ServiceError{Err: err}
	}

	switch policy.Fallback {
	case model.FallbackBlock:
		logger.Error("decision service unreachable, request blocked",
			zap.String("ip", req.ClientIP),
			zap.String("url", target),
			zap.Error(serviceErr))
		synthesized := fmt.Sprintf("[{\"error\":\"'%s' returned %d\"}]",
			target, serviceErr.Status)
		return synthesized, model.Decision{}, false

	case model.FallbackAllow:
		logger.Error("decision service unreachable, request accepted anyway",
			zap.String("ip", req.ClientIP),
			zap.String("url", target),
			zap.Error(serviceErr))
		return notBlockedPayload, model.Decision{}, false

	default: // model.FallbackFail
		logger.Error("decision service unreachable, request failed",
			zap.String("ip", req.ClientIP),
			zap.String("url", target),
			zap.Error(serviceErr))
		return "", model.Decision{
			Kind:       model.InternalError,
			StatusCode: http.StatusInternalServerError,
			Note:       fallbackFailNote,
		}, true
	}
}

// interpret maps a payload to a terminal decision.
func (e *Engine) interpret(policy *model.AccessPolicy, req *model.RequestContext, payload string) model.Decision {
	if payload == notBlockedPayload {
		logger.Debug("ip not blocked, request accepted",
			zap.String("ip", req.ClientIP))
		return model.Decision{Kind: model.Allow, StatusCode: http.StatusOK}
	}

	if policy.Redirect != nil {
		target, err := policy.Redirect.Eval(req)
		if err != nil {
			logger.Error("cannot evaluate redirect expression",
				zap.String("ip", req.ClientIP), zap.Error(err))
			return model.Decision{
				Kind:       model.InternalError,
				StatusCode: http.StatusInternalServerError,
			}
		}

		logger.Debug("ip blocked, request redirected",
			zap.String("ip", req.ClientIP),
			zap.String("payload", payload),
			zap.String("location", target))
		return model.Decision{
			Kind:           model.Redirect,
			StatusCode:     policy.BlockedStatusCode,
			RedirectTarget: target,
		}
	}

	logger.Debug("ip blocked, request rejected",
		zap.String("ip", req.ClientIP),
		zap.String("payload", payload))
	return model.Decision{
		Kind:       model.Block,
		StatusCode: policy.BlockedStatusCode,
	}
}
