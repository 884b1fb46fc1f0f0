package shop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/mcn-showcase/internal/cart"
	"github.com/angelmondragon/mcn-showcase/internal/checkout"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instantConfirmer() checkout.Confirmer {
	return checkout.ConfirmerFunc(func(context.Context, checkout.Request) (checkout.OrderRef, error) {
		return "MCN-TEST", nil
	})
}

func newTestRegistry(t *testing.T, confirmer checkout.Confirmer) *Registry {
	t.Helper()
	r, err := NewRegistry(enums.CatalogKinds(), NewWorkflowFactory(confirmer, checkout.Policy{}), time.Hour)
	require.NoError(t, err)
	return r
}

func TestRegistryCreatesOneWorkflowPerCatalog(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t, instantConfirmer())

	ws, err := r.Workspace("session-a")
	require.NoError(t, err)

	tickets, ok := ws.Workflow(enums.CatalogTickets)
	require.True(t, ok)
	merch, ok := ws.Workflow(enums.CatalogMerchandise)
	require.True(t, ok)
	assert.NotSame(t, tickets, merch)
	assert.Equal(t, enums.CatalogTickets, tickets.Catalog())

	again, err := r.Workspace("session-a")
	require.NoError(t, err)
	assert.Same(t, ws, again)
	assert.Equal(t, 1, r.Len())

	_, err = r.Workspace("  ")
	require.Error(t, err)
}

func TestRegistrySweepEvictsIdleWorkspaces(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t, instantConfirmer())
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	_, err := r.Workspace("old")
	require.NoError(t, err)
	now = now.Add(90 * time.Minute)
	_, err = r.Workspace("fresh")
	require.NoError(t, err)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 0, r.Len())
}

func TestRegistrySweepKeepsWorkspaceWithSubmissionInFlight(t *testing.T) {
	t.Parallel()
	gate := make(chan struct{})
	entered := make(chan struct{})
	confirmer := checkout.ConfirmerFunc(func(ctx context.Context, _ checkout.Request) (checkout.OrderRef, error) {
		close(entered)
		<-gate
		return "MCN-SLOW", nil
	})
	r := newTestRegistry(t, confirmer)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	ws, err := r.Workspace("busy")
	require.NoError(t, err)
	wf, _ := ws.Workflow(enums.CatalogTickets)
	_, err = wf.Mutate(func(e *cart.Engine) { e.AddItem(fullRateTicket(), 1) })
	require.NoError(t, err)
	_, err = wf.Begin(checkout.Anonymous{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = wf.Submit(context.Background(), checkout.BuyerInfo{FirstName: "A", LastName: "B", Email: "a@b.sn"})
	}()
	<-entered

	now = now.Add(3 * time.Hour)
	assert.Equal(t, 0, r.Sweep())

	close(gate)
	wg.Wait()
	assert.Equal(t, 1, r.Sweep())
}

func TestRegistryRunStopsWithContext(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t, instantConfirmer())
	ctx, cancel := context.WithCancel(context.Background())

	sweeps := make(chan int, 10)
	done := make(chan struct{})
	go func() {
		r.Run(ctx, 5*time.Millisecond, func(n int) { sweeps <- n })
		close(done)
	}()

	select {
	case <-sweeps:
	case <-time.After(time.Second):
		t.Fatal("expected at least one sweep")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewRegistryValidation(t *testing.T) {
	t.Parallel()
	factory := NewWorkflowFactory(instantConfirmer(), checkout.Policy{})

	_, err := NewRegistry(nil, factory, time.Hour)
	require.Error(t, err)
	_, err = NewRegistry(enums.CatalogKinds(), nil, time.Hour)
	require.Error(t, err)
	_, err = NewRegistry(enums.CatalogKinds(), factory, 0)
	require.Error(t, err)
}
