package shop

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/mcn-showcase/internal/catalog"
	"github.com/angelmondragon/mcn-showcase/internal/checkout"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	pkgerrors "github.com/angelmondragon/mcn-showcase/pkg/errors"
	"github.com/angelmondragon/mcn-showcase/pkg/logger"
	"github.com/angelmondragon/mcn-showcase/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullRateTicket() catalog.Item {
	return catalog.Item{ID: "libre-plein", Label: "Visite libre - Tarif plein", UnitPrice: decimal.NewFromInt(3000), IsAvailable: true}
}

var buyer = checkout.BuyerInfo{FirstName: "Aminata", LastName: "Sow", Email: "aminata.sow@example.sn"}

type fixture struct {
	svc  Service
	logs *bytes.Buffer
}

func newFixture(t *testing.T, confirmer checkout.Confirmer, policy checkout.Policy) fixture {
	t.Helper()

	tickets, err := catalog.Load(enums.CatalogTickets, "")
	require.NoError(t, err)
	stock := 40
	merch, err := catalog.New(enums.CatalogMerchandise, []catalog.Item{
		{ID: "mug-mcn", Label: "Mug MCN", Category: "Accessoires", UnitPrice: decimal.NewFromInt(12), AvailableStock: &stock, IsAvailable: true},
		{ID: "poster-epuise", Label: "Poster", Category: "Papeterie", UnitPrice: decimal.NewFromInt(15), IsAvailable: false},
	})
	require.NoError(t, err)

	registry, err := NewRegistry(enums.CatalogKinds(), NewWorkflowFactory(confirmer, policy), time.Hour)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	svc, err := NewService(ServiceParams{
		Catalogs: []*catalog.Catalog{tickets, merch},
		Registry: registry,
		Metrics:  metrics.NewShopMetrics(prometheus.NewRegistry()),
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: buf}),
	})
	require.NoError(t, err)
	return fixture{svc: svc, logs: buf}
}

func TestCatalogFilter(t *testing.T) {
	t.Parallel()
	f := newFixture(t, instantConfirmer(), checkout.Policy{})

	view, err := f.svc.Catalog(enums.CatalogMerchandise, "Accessoires")
	require.NoError(t, err)
	assert.Equal(t, []string{"Accessoires", "Papeterie"}, view.Categories)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "mug-mcn", view.Items[0].ID)

	_, err = f.svc.Catalog("posters", "")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestAddItemValidatesAgainstCatalog(t *testing.T) {
	t.Parallel()
	f := newFixture(t, instantConfirmer(), checkout.Policy{})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "s1", enums.CatalogMerchandise, "unknown", 1)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddItem(ctx, "s1", enums.CatalogMerchandise, "poster-epuise", 1)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddItem(ctx, "s1", enums.CatalogMerchandise, "mug-mcn", 0)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	view, err := f.svc.AddItem(ctx, "s1", enums.CatalogMerchandise, "mug-mcn", 45)
	require.NoError(t, err)
	assert.Equal(t, 40, view.Cart.ItemCount)
	assert.True(t, view.Cart.Total.Equal(decimal.NewFromInt(480)))
}

func TestCartsAreIsolatedPerCatalogAndSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t, instantConfirmer(), checkout.Policy{})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "s1", enums.CatalogTickets, "libre-plein", 5)
	require.NoError(t, err)

	merch, err := f.svc.Cart(ctx, "s1", enums.CatalogMerchandise)
	require.NoError(t, err)
	assert.Equal(t, 0, merch.Cart.ItemCount)

	other, err := f.svc.Cart(ctx, "s2", enums.CatalogTickets)
	require.NoError(t, err)
	assert.Equal(t, 0, other.Cart.ItemCount)

	mine, err := f.svc.Cart(ctx, "s1", enums.CatalogTickets)
	require.NoError(t, err)
	assert.Equal(t, 5, mine.Cart.ItemCount)
	assert.True(t, mine.Cart.Total.Equal(decimal.NewFromInt(15000)))
}

func TestUpdateRemoveAndClear(t *testing.T) {
	t.Parallel()
	f := newFixture(t, instantConfirmer(), checkout.Policy{})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "s1", enums.CatalogTickets, "libre-plein", 2)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "s1", enums.CatalogTickets, "guidee-groupe", 1)
	require.NoError(t, err)

	view, err := f.svc.UpdateQuantity(ctx, "s1", enums.CatalogTickets, "libre-plein", 4)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Cart.ItemCount)

	view, err = f.svc.UpdateQuantity(ctx, "s1", enums.CatalogTickets, "libre-plein", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Cart.ItemCount)

	view, err = f.svc.RemoveItem(ctx, "s1", enums.CatalogTickets, "absent")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Cart.ItemCount)

	view, err = f.svc.ClearCart(ctx, "s1", enums.CatalogTickets)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Cart.ItemCount)
}

func TestCheckoutFlowConfirmsAndLogs(t *testing.T) {
	t.Parallel()
	f := newFixture(t, instantConfirmer(), checkout.Policy{RequireIdentifiedBuyer: true})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "s1", enums.CatalogTickets, "libre-plein", 2)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "s1", enums.CatalogTickets, "guidee-etudiant", 1)
	require.NoError(t, err)

	_, err = f.svc.BeginCheckout(ctx, "s1", enums.CatalogTickets, checkout.Anonymous{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	view, err := f.svc.BeginCheckout(ctx, "s1", enums.CatalogTickets, checkout.KnownBuyer(buyer))
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateAwaitingBuyerInfo, view.State)
	require.NotNil(t, view.Buyer)
	assert.Equal(t, "Aminata", view.Buyer.FirstName)

	order, err := f.svc.SubmitCheckout(ctx, "s1", enums.CatalogTickets, buyer)
	require.NoError(t, err)
	assert.Equal(t, checkout.OrderRef("MCN-TEST"), order.Reference)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(7500)))

	status, err := f.svc.CheckoutStatus(ctx, "s1", enums.CatalogTickets)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateConfirmed, status.State)
	assert.Equal(t, 0, status.Cart.ItemCount)

	view, err = f.svc.AcknowledgeCheckout(ctx, "s1", enums.CatalogTickets)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateBrowsing, view.State)

	assert.Contains(t, f.logs.String(), "checkout.confirmed")
	assert.Contains(t, f.logs.String(), `"order_ref":"MCN-TEST"`)
}

func TestSubmitFailureKeepsCart(t *testing.T) {
	t.Parallel()
	failing := checkout.ConfirmerFunc(func(context.Context, checkout.Request) (checkout.OrderRef, error) {
		return "", errors.New("payment backend down")
	})
	f := newFixture(t, failing, checkout.Policy{})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "s1", enums.CatalogMerchandise, "mug-mcn", 3)
	require.NoError(t, err)
	_, err = f.svc.BeginCheckout(ctx, "s1", enums.CatalogMerchandise, checkout.Anonymous{})
	require.NoError(t, err)

	_, err = f.svc.SubmitCheckout(ctx, "s1", enums.CatalogMerchandise, buyer)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))

	view, err := f.svc.CancelCheckout(ctx, "s1", enums.CatalogMerchandise)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Cart.ItemCount)
	assert.Contains(t, f.logs.String(), "checkout.failed")
}

func TestEmptySessionIDIsRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t, instantConfirmer(), checkout.Policy{})

	_, err := f.svc.Cart(context.Background(), "", enums.CatalogTickets)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestSubmitSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()
	confirmer := checkout.SimulatedConfirmer{Latency: 20 * time.Millisecond}
	f := newFixture(t, confirmer, checkout.Policy{ConfirmTimeout: time.Second})
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, "s1", enums.CatalogTickets, "libre-plein", 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := f.svc.BeginCheckout(ctx, "s1", enums.CatalogTickets, checkout.Anonymous{}); err != nil {
		t.Fatalf("begin checkout: %v", err)
	}

	gone, cancel := context.WithCancel(ctx)
	cancel()
	order, err := f.svc.SubmitCheckout(gone, "s1", enums.CatalogTickets, buyer)
	if err != nil {
		t.Fatalf("a client disconnect must not abandon the confirmation: %v", err)
	}
	if order.ItemCount != 2 {
		t.Fatalf("order item count = %d, want 2", order.ItemCount)
	}

	view, err := f.svc.CheckoutStatus(ctx, "s1", enums.CatalogTickets)
	if err != nil {
		t.Fatalf("checkout status: %v", err)
	}
	if view.State != enums.CheckoutStateConfirmed {
		t.Fatalf("state = %s, want %s", view.State, enums.CheckoutStateConfirmed)
	}
}
