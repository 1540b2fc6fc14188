package tools

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/concierge/pkg/errors"
	"github.com/theapemachine/concierge/pkg/logging"
)

// entry pairs a tool with its availability state.
type entry struct {
	tool    Tool
	enabled bool
	reason  string
}

/*
Registry is the catalog of invocable tools and the only path through
which tool-originated side effects run. It is constructed once at
startup and handed to whoever needs to dispatch; there is no package
singleton.
*/
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]*entry
	order   []string
	timeout time.Duration
	audit   *logging.Audit
}

type RegistryOption func(*Registry)

func NewRegistry(options ...RegistryOption) *Registry {
	registry := &Registry{
		tools:   make(map[string]*entry),
		timeout: 15 * time.Second,
	}

	for _, option := range options {
		option(registry)
	}

	return registry
}

// WithTimeout bounds every Execute call. A tool that blows the budget
// reports a timeout failure instead of hanging the exchange.
func WithTimeout(d time.Duration) RegistryOption {
	return func(registry *Registry) {
		if d > 0 {
			registry.timeout = d
		}
	}
}

// WithAudit attaches the durable dispatch trail.
func WithAudit(audit *logging.Audit) RegistryOption {
	return func(registry *Registry) {
		registry.audit = audit
	}
}

/*
Register adds a tool under its name. A duplicate name fails with
DuplicateToolError and leaves the original registration untouched.
The credential check and Initialize run here: failing either leaves
the tool registered but disabled, so one misconfigured tool never
takes the agent down.
*/
func (registry *Registry) Register(ctx context.Context, tool Tool) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	name := tool.Name()

	if _, exists := registry.tools[name]; exists {
		return &errors.DuplicateToolError{Name: name}
	}

	ent := &entry{tool: tool}
	ent.enabled, ent.reason = registry.check(ctx, tool)

	registry.tools[name] = ent
	registry.order = append(registry.order, name)

	if ent.enabled {
		log.Info("registered tool", "name", name)
	} else {
		log.Warn("registered tool in disabled state", "name", name, "reason", ent.reason)
	}

	return nil
}

/*
Enable re-runs the credential check and Initialize, so exporting the
missing variable and enabling is enough to bring a tool online without
restarting the process.
*/
func (registry *Registry) Enable(ctx context.Context, name string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	ent, ok := registry.tools[name]
	if !ok {
		return &errors.UnknownToolError{Name: name}
	}

	ent.enabled, ent.reason = registry.check(ctx, ent.tool)

	if !ent.enabled {
		return &errors.NotAvailableError{Name: name, Reason: ent.reason}
	}

	log.Info("enabled tool", "name", name)

	return nil
}

// Disable takes a tool out of rotation without unregistering it.
func (registry *Registry) Disable(name string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	ent, ok := registry.tools[name]
	if !ok {
		return &errors.UnknownToolError{Name: name}
	}

	ent.enabled = false
	ent.reason = "disabled by operator"

	log.Info("disabled tool", "name", name)

	return nil
}

/*
Dispatch routes an argument to the named tool and normalizes whatever
happens into a Result. Unknown names, disabled tools, errors, panics
and timeouts all come back as failures; no fault propagates past this
boundary. This is also the single point where tool-originated network
I/O is allowed to happen.
*/
func (registry *Registry) Dispatch(ctx context.Context, name, argument string) Result {
	registry.mu.RLock()
	ent, ok := registry.tools[name]

	var (
		enabled bool
		reason  string
	)

	if ok {
		enabled = ent.enabled
		reason = ent.reason
	}
	registry.mu.RUnlock()

	started := time.Now()

	var result Result

	switch {
	case !ok:
		result = failure(name, &errors.UnknownToolError{Name: name})
	case !enabled:
		result = failure(name, &errors.NotAvailableError{Name: name, Reason: reason})
	default:
		result = registry.execute(ctx, ent.tool, argument)
	}

	if !result.Success() {
		log.Warn("tool dispatch failed", "name", name, "error", result.Err)
	}

	registry.audit.ToolDispatched(name, argument, result.Success(), result.Err, time.Since(started))

	return result
}

// List reports every registered tool in registration order.
func (registry *Registry) List() []Status {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	out := make([]Status, 0, len(registry.order))

	for _, name := range registry.order {
		ent := registry.tools[name]
		out = append(out, Status{
			Name:        name,
			Description: ent.tool.Description(),
			Enabled:     ent.enabled,
			Reason:      ent.reason,
		})
	}

	return out
}

// check verifies required credentials are present, then initializes.
func (registry *Registry) check(ctx context.Context, tool Tool) (bool, string) {
	var missing []string

	for _, key := range tool.RequiredEnv() {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return false, fmt.Sprintf("missing credentials: %s", strings.Join(missing, ", "))
	}

	if err := tool.Initialize(ctx); err != nil {
		return false, fmt.Sprintf("initialization failed: %v", err)
	}

	return true, ""
}

// execute runs the tool under the per-call timeout with panic recovery.
func (registry *Registry) execute(parent context.Context, tool Tool, argument string) Result {
	name := tool.Name()

	ctx, cancel := context.WithTimeout(parent, registry.timeout)
	defer cancel()

	type outcome struct {
		payload map[string]any
		err     error
	}

	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()

		payload, err := tool.Execute(ctx, argument)
		done <- outcome{payload: payload, err: err}
	}()

	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return failure(name, &errors.TimeoutError{Tool: name, Timeout: registry.timeout})
		}

		return failure(name, &errors.ExecutionError{Tool: name, Err: ctx.Err()})

	case out := <-done:
		if out.err != nil {
			return failure(name, &errors.ExecutionError{Tool: name, Err: out.err})
		}

		return success(name, out.payload)
	}
}
