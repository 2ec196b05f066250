package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

// Default Rego policy. Admins may do everything; members get read access
// and their own profile; anonymous callers get nothing.
const defaultRegoPolicy = `package taskboard.authz

default allow = false
default reason = "forbidden"

reason = "unauthenticated" if {
	not input.identity.present
}

allow if {
	input.identity.present
	input.identity.is_admin
}

allow if {
	input.identity.present
	member_action
}

member_action if {
	input.action == "user.me"
}

member_action if {
	input.action == "team.list"
}

member_action if {
	input.action == "task.list"
}

member_action if {
	input.action == "team.members.list"
	input.resource.is_member == true
}
`

// OPAEvaluator evaluates access policy using OPA Rego. The policy module
// is compiled once at construction; each Authorize call is a pure query.
type OPAEvaluator struct {
	compiler *ast.Compiler
}

// NewOPAEvaluator compiles the default policy and returns the evaluator.
func NewOPAEvaluator() (*OPAEvaluator, error) {
	modules := map[string]string{"authz.rego": defaultRegoPolicy}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	return &OPAEvaluator{compiler: compiler}, nil
}

// Authorize evaluates the policy for the identity and action. Any
// evaluation failure denies the request.
func (e *OPAEvaluator) Authorize(ctx context.Context, id Identity, action string, res Resource) (Decision, error) {
	input := map[string]interface{}{
		"identity": map[string]interface{}{
			"present":  id.Present,
			"user_id":  id.UserID,
			"is_admin": id.IsAdmin,
		},
		"action": action,
		"resource": map[string]interface{}{
			"is_member": res.IsMember,
		},
	}

	allowed, err := e.queryBool(ctx, "data.taskboard.authz.allow", input)
	if err != nil {
		return Decision{Allowed: false, Reason: ReasonForbidden}, err
	}
	if allowed {
		return Decision{Allowed: true}, nil
	}
	reason, err := e.queryString(ctx, "data.taskboard.authz.reason", input)
	if err != nil || reason == "" {
		reason = ReasonForbidden
	}
	return Decision{Allowed: false, Reason: reason}, nil
}

func (e *OPAEvaluator) queryBool(ctx context.Context, query string, input map[string]interface{}) (bool, error) {
	rs, err := rego.New(
		rego.Query(query),
		rego.Compiler(e.compiler),
		rego.Input(input),
	).Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval %s: %w", query, err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("query %s returned no result", query)
	}
	v, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("query %s returned non-bool", query)
	}
	return v, nil
}

func (e *OPAEvaluator) queryString(ctx context.Context, query string, input map[string]interface{}) (string, error) {
	rs, err := rego.New(
		rego.Query(query),
		rego.Compiler(e.compiler),
		rego.Input(input),
	).Eval(ctx)
	if err != nil {
		return "", fmt.Errorf("eval %s: %w", query, err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return "", fmt.Errorf("query %s returned no result", query)
	}
	v, ok := rs[0].Expressions[0].Value.(string)
	if !ok {
		return "", fmt.Errorf("query %s returned non-string", query)
	}
	return v, nil
}
