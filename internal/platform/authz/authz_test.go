package authz

import (
	"context"
	"testing"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/platform/apperror"
	"taskboard/backend/internal/policy/engine"
	"taskboard/backend/internal/server/middleware"
)

func newEngine(t *testing.T) engine.Evaluator {
	t.Helper()
	e, err := engine.NewOPAEvaluator()
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	return e
}

func TestRequire_Anonymous(t *testing.T) {
	eval := newEngine(t)
	_, err := Require(context.Background(), eval, engine.ActionTeamList, engine.Resource{})
	if apperror.KindOf(err) != apperror.KindUnauthenticated {
		t.Errorf("err = %v, want unauthenticated", err)
	}
}

func TestRequire_MemberDenied(t *testing.T) {
	eval := newEngine(t)
	ctx := middleware.WithIdentity(context.Background(), &auth.Claims{UserID: 2, Email: "m@example.com"})
	_, err := Require(ctx, eval, engine.ActionTeamCreate, engine.Resource{})
	if apperror.KindOf(err) != apperror.KindForbidden {
		t.Errorf("err = %v, want forbidden", err)
	}
}

func TestRequire_Allowed(t *testing.T) {
	eval := newEngine(t)
	ctx := middleware.WithIdentity(context.Background(), &auth.Claims{UserID: 3, Email: "a@example.com", IsAdmin: true})
	claims, err := Require(ctx, eval, engine.ActionTeamCreate, engine.Resource{})
	if err != nil {
		t.Fatalf("Require: %v", err)
	}
	if claims == nil || claims.UserID != 3 {
		t.Errorf("claims = %+v", claims)
	}
}
