package shop

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/mcn-showcase/internal/checkout"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
)

// WorkflowFactory builds a fresh workflow for one catalog of a new workspace.
type WorkflowFactory func(kind enums.CatalogKind) (*checkout.Workflow, error)

// Workspace groups the workflows of one cart session, one per catalog.
type Workspace struct {
	id        string
	workflows map[enums.CatalogKind]*checkout.Workflow
}

func (w *Workspace) ID() string {
	return w.id
}

// Workflow returns the workflow of kind, or false for an unknown catalog.
func (w *Workspace) Workflow(kind enums.CatalogKind) (*checkout.Workflow, bool) {
	wf, ok := w.workflows[kind]
	return wf, ok
}

func (w *Workspace) busy() bool {
	for _, wf := range w.workflows {
		if wf.State() == enums.CheckoutStateSubmitting {
			return true
		}
	}
	return false
}

type registryEntry struct {
	workspace *Workspace
	lastSeen  time.Time
}

// Registry maps cart session ids to workspaces and evicts idle ones.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	kinds   []enums.CatalogKind
	factory WorkflowFactory
	idleTTL time.Duration
	now     func() time.Time
}

func NewRegistry(kinds []enums.CatalogKind, factory WorkflowFactory, idleTTL time.Duration) (*Registry, error) {
	if len(kinds) == 0 {
		return nil, fmt.Errorf("at least one catalog kind required")
	}
	if factory == nil {
		return nil, fmt.Errorf("workflow factory required")
	}
	if idleTTL <= 0 {
		return nil, fmt.Errorf("idle ttl must be positive")
	}
	return &Registry{
		entries: make(map[string]*registryEntry),
		kinds:   append([]enums.CatalogKind(nil), kinds...),
		factory: factory,
		idleTTL: idleTTL,
		now:     time.Now,
	}, nil
}

// Workspace returns the workspace of sessionID, creating it on first use.
func (r *Registry) Workspace(sessionID string) (*Workspace, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("cart session id required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if entry, ok := r.entries[sessionID]; ok {
		entry.lastSeen = now
		return entry.workspace, nil
	}

	ws := &Workspace{id: sessionID, workflows: make(map[enums.CatalogKind]*checkout.Workflow, len(r.kinds))}
	for _, kind := range r.kinds {
		wf, err := r.factory(kind)
		if err != nil {
			return nil, fmt.Errorf("building %s workflow: %w", kind, err)
		}
		ws.workflows[kind] = wf
	}
	r.entries[sessionID] = &registryEntry{workspace: ws, lastSeen: now}
	return ws, nil
}

// Sweep evicts workspaces idle for longer than the TTL and returns how many were removed.
// Workspaces with a submission in flight are kept.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	evicted := 0
	for id, entry := range r.entries {
		if entry.lastSeen.After(cutoff) || entry.workspace.busy() {
			continue
		}
		delete(r.entries, id)
		evicted++
	}
	return evicted
}

// Run sweeps every interval until ctx is done. onSweep, when set, receives each eviction count.
func (r *Registry) Run(ctx context.Context, interval time.Duration, onSweep func(evicted int)) {
	if interval <= 0 {
		interval = r.idleTTL
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := r.Sweep()
			if onSweep != nil {
				onSweep(n)
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
