// Package shop exposes the ticket and boutique carts of a visitor session.
package shop

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/mcn-showcase/internal/cart"
	"github.com/angelmondragon/mcn-showcase/internal/catalog"
	"github.com/angelmondragon/mcn-showcase/internal/checkout"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	pkgerrors "github.com/angelmondragon/mcn-showcase/pkg/errors"
	"github.com/angelmondragon/mcn-showcase/pkg/logger"
	"github.com/angelmondragon/mcn-showcase/pkg/metrics"
)

// CatalogView is the browsable content of one catalog.
type CatalogView struct {
	Kind       enums.CatalogKind `json:"kind"`
	Categories []string          `json:"categories"`
	Items      []catalog.Item    `json:"items"`
}

// Service defines the cart and checkout operations used by the shop handlers.
type Service interface {
	Catalog(kind enums.CatalogKind, category string) (*CatalogView, error)
	Cart(ctx context.Context, sessionID string, kind enums.CatalogKind) (checkout.View, error)
	AddItem(ctx context.Context, sessionID string, kind enums.CatalogKind, itemID string, qty int) (checkout.View, error)
	UpdateQuantity(ctx context.Context, sessionID string, kind enums.CatalogKind, itemID string, qty int) (checkout.View, error)
	RemoveItem(ctx context.Context, sessionID string, kind enums.CatalogKind, itemID string) (checkout.View, error)
	ClearCart(ctx context.Context, sessionID string, kind enums.CatalogKind) (checkout.View, error)
	BeginCheckout(ctx context.Context, sessionID string, kind enums.CatalogKind, identity checkout.Identity) (checkout.View, error)
	CancelCheckout(ctx context.Context, sessionID string, kind enums.CatalogKind) (checkout.View, error)
	SubmitCheckout(ctx context.Context, sessionID string, kind enums.CatalogKind, info checkout.BuyerInfo) (*checkout.Order, error)
	AcknowledgeCheckout(ctx context.Context, sessionID string, kind enums.CatalogKind) (checkout.View, error)
	CheckoutStatus(ctx context.Context, sessionID string, kind enums.CatalogKind) (checkout.View, error)
}

type service struct {
	catalogs map[enums.CatalogKind]*catalog.Catalog
	registry *Registry
	metrics  *metrics.ShopMetrics
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build the shop service.
type ServiceParams struct {
	Catalogs []*catalog.Catalog
	Registry *Registry
	Metrics  *metrics.ShopMetrics
	Logger   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if len(params.Catalogs) == 0 {
		return nil, fmt.Errorf("at least one catalog required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("workspace registry required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	catalogs := make(map[enums.CatalogKind]*catalog.Catalog, len(params.Catalogs))
	for _, c := range params.Catalogs {
		if c == nil {
			return nil, fmt.Errorf("nil catalog")
		}
		catalogs[c.Kind()] = c
	}
	return &service{
		catalogs: catalogs,
		registry: params.Registry,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// NewWorkflowFactory returns the factory used by the registry: a fresh cart engine per
// catalog sharing one confirmer and policy.
func NewWorkflowFactory(confirmer checkout.Confirmer, policy checkout.Policy) WorkflowFactory {
	return func(kind enums.CatalogKind) (*checkout.Workflow, error) {
		return checkout.NewWorkflow(cart.New(kind), confirmer, policy)
	}
}

func (s *service) Catalog(kind enums.CatalogKind, category string) (*CatalogView, error) {
	c, err := s.catalog(kind)
	if err != nil {
		return nil, err
	}
	return &CatalogView{
		Kind:       c.Kind(),
		Categories: c.Categories(),
		Items:      c.Filter(category),
	}, nil
}

func (s *service) Cart(ctx context.Context, sessionID string, kind enums.CatalogKind) (checkout.View, error) {
	wf, err := s.workflow(sessionID, kind)
	if err != nil {
		return checkout.View{}, err
	}
	return wf.View(), nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, kind enums.CatalogKind, itemID string, qty int) (checkout.View, error) {
	if qty < 1 {
		return checkout.View{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": qty})
	}
	item, err := s.item(kind, itemID)
	if err != nil {
		return checkout.View{}, err
	}
	if !item.IsAvailable {
		return checkout.View{}, pkgerrors.New(pkgerrors.CodeValidation, "item is not available").
			WithDetails(map[string]string{"item_id": item.ID})
	}
	return s.mutate(ctx, sessionID, kind, "add", func(e *cart.Engine) { e.AddItem(item, qty) })
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID string, kind enums.CatalogKind, itemID string, qty int) (checkout.View, error) {
	item, err := s.item(kind, itemID)
	if err != nil {
		return checkout.View{}, err
	}
	return s.mutate(ctx, sessionID, kind, "update", func(e *cart.Engine) { e.UpdateQuantity(item.ID, qty) })
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, kind enums.CatalogKind, itemID string) (checkout.View, error) {
	return s.mutate(ctx, sessionID, kind, "remove", func(e *cart.Engine) { e.RemoveItem(itemID) })
}

func (s *service) ClearCart(ctx context.Context, sessionID string, kind enums.CatalogKind) (checkout.View, error) {
	return s.mutate(ctx, sessionID, kind, "clear", func(e *cart.Engine) { e.Clear() })
}

func (s *service) BeginCheckout(ctx context.Context, sessionID string, kind enums.CatalogKind, identity checkout.Identity) (checkout.View, error) {
	wf, err := s.workflow(sessionID, kind)
	if err != nil {
		return checkout.View{}, err
	}
	view, err := wf.Begin(identity)
	if err != nil {
		return view, err
	}
	s.transition(ctx, sessionID, kind, view.State)
	return view, nil
}

func (s *service) CancelCheckout(ctx context.Context, sessionID string, kind enums.CatalogKind) (checkout.View, error) {
	wf, err := s.workflow(sessionID, kind)
	if err != nil {
		return checkout.View{}, err
	}
	view, err := wf.Cancel()
	if err != nil {
		return view, err
	}
	s.transition(ctx, sessionID, kind, view.State)
	return view, nil
}

func (s *service) SubmitCheckout(ctx context.Context, sessionID string, kind enums.CatalogKind, info checkout.BuyerInfo) (*checkout.Order, error) {
	wf, err := s.workflow(sessionID, kind)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"cart_session": sessionID, "catalog": kind.String()})
	start := time.Now()
	order, err := wf.Submit(ctx, info)
	switch {
	case err == nil:
		s.metrics.ObserveConfirm(kind.String(), "success", time.Since(start))
		s.metrics.IncTransition(kind.String(), enums.CheckoutStateConfirmed.String())
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_ref":  string(order.Reference),
			"item_count": order.ItemCount,
			"total":      order.Total.String(),
		}), "checkout.confirmed")
	case pkgerrors.HasCode(err, pkgerrors.CodeDependency):
		s.metrics.ObserveConfirm(kind.String(), "failure", time.Since(start))
		s.metrics.IncTransition(kind.String(), enums.CheckoutStateAwaitingBuyerInfo.String())
		s.logg.Error(ctx, "checkout.failed", err)
	}
	return order, err
}

func (s *service) AcknowledgeCheckout(ctx context.Context, sessionID string, kind enums.CatalogKind) (checkout.View, error) {
	wf, err := s.workflow(sessionID, kind)
	if err != nil {
		return checkout.View{}, err
	}
	view, err := wf.Acknowledge()
	if err != nil {
		return view, err
	}
	s.transition(ctx, sessionID, kind, view.State)
	return view, nil
}

func (s *service) CheckoutStatus(ctx context.Context, sessionID string, kind enums.CatalogKind) (checkout.View, error) {
	return s.Cart(ctx, sessionID, kind)
}

func (s *service) mutate(ctx context.Context, sessionID string, kind enums.CatalogKind, op string, fn func(*cart.Engine)) (checkout.View, error) {
	wf, err := s.workflow(sessionID, kind)
	if err != nil {
		return checkout.View{}, err
	}
	view, err := wf.Mutate(fn)
	if err != nil {
		return view, err
	}
	s.metrics.IncCartMutation(kind.String(), op)
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"cart_session": sessionID,
		"catalog":      kind.String(),
		"op":           op,
		"item_count":   view.Cart.ItemCount,
	}), "cart.mutated")
	return view, nil
}

func (s *service) transition(ctx context.Context, sessionID string, kind enums.CatalogKind, state enums.CheckoutState) {
	s.metrics.IncTransition(kind.String(), state.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cart_session": sessionID,
		"catalog":      kind.String(),
		"state":        state.String(),
	}), "checkout.transition")
}

func (s *service) workflow(sessionID string, kind enums.CatalogKind) (*checkout.Workflow, error) {
	if _, err := s.catalog(kind); err != nil {
		return nil, err
	}
	ws, err := s.registry.Workspace(sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cart session required")
	}
	wf, ok := ws.Workflow(kind)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("catalog %s not found", kind))
	}
	return wf, nil
}

func (s *service) catalog(kind enums.CatalogKind) (*catalog.Catalog, error) {
	c, ok := s.catalogs[kind]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("catalog %s not found", kind))
	}
	return c, nil
}

func (s *service) item(kind enums.CatalogKind, itemID string) (catalog.Item, error) {
	c, err := s.catalog(kind)
	if err != nil {
		return catalog.Item{}, err
	}
	item, ok := c.Get(itemID)
	if !ok {
		return catalog.Item{}, pkgerrors.New(pkgerrors.CodeNotFound, "item not found").
			WithDetails(map[string]string{"item_id": itemID})
	}
	return item, nil
}
