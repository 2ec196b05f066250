// Package authz bridges the request context, the policy engine, and the
// error taxonomy. Handlers call Require before touching any data.
package authz

import (
	"context"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/platform/apperror"
	"taskboard/backend/internal/policy/engine"
	"taskboard/backend/internal/server/middleware"
)

// Require evaluates the policy for the request identity and action.
// Returns the caller's claims when allowed, or an apperror carrying the
// deny reason. Evaluation failures deny the request.
func Require(ctx context.Context, eval engine.Evaluator, action string, res engine.Resource) (*auth.Claims, error) {
	claims := middleware.GetIdentity(ctx)
	id := engine.Identity{}
	if claims != nil {
		id = engine.Identity{Present: true, UserID: claims.UserID, IsAdmin: claims.IsAdmin}
	}
	decision, err := eval.Authorize(ctx, id, action, res)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindForbidden, "forbidden", err)
	}
	if !decision.Allowed {
		if decision.Reason == engine.ReasonUnauthenticated {
			return nil, apperror.New(apperror.KindUnauthenticated, "authentication required")
		}
		return nil, apperror.New(apperror.KindForbidden, "forbidden")
	}
	return claims, nil
}
