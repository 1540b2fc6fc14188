package tools

import "context"

/*
Tool is a named capability the agent can invoke on a user's behalf.
Implementations declare the credentials they need; the registry checks
those against the environment and runs Initialize before a tool is
considered available. Execute receives the raw argument string from
the command and returns a payload mapping.
*/
type Tool interface {
	Name() string
	Description() string
	RequiredEnv() []string
	Initialize(ctx context.Context) error
	Execute(ctx context.Context, argument string) (map[string]any, error)
}

/*
Result is the outcome of a dispatch, success or failure, always
returned as data. Err is one of the typed errors from pkg/errors;
nothing a tool does propagates past the dispatch boundary any other
way.
*/
type Result struct {
	Tool    string         `json:"tool"`
	Payload map[string]any `json:"payload,omitempty"`
	Err     error          `json:"-"`
}

func (r Result) Success() bool {
	return r.Err == nil
}

func success(tool string, payload map[string]any) Result {
	return Result{Tool: tool, Payload: payload}
}

func failure(tool string, err error) Result {
	return Result{Tool: tool, Err: err}
}

// Status describes one registry slot for listings and admin surfaces.
type Status struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	Reason      string `json:"reason,omitempty"`
}
