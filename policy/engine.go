// Package policy gates assistant access with an OPA rego document, so
// operators can change who may use the assistant without a rebuild.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.assistant_access.allow"),
		rego.Module("assistant_access.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Allow evaluates the access policy for one request.
// Input keys: user_id, role, department.
func (e *Engine) Allow(ctx context.Context, input interface{}) (bool, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy returned non-boolean decision")
	}
	return allowed, nil
}

// DefaultPolicy admits every authenticated employee except service accounts.
const DefaultPolicy = `
package assistant_access

default allow = false

allow {
	input.user_id != ""
	input.role != "service-account"
}
`
