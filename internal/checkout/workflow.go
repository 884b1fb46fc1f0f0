// Package checkout runs the purchase state machine layered on a cart engine.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/mcn-showcase/internal/cart"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	"github.com/shopspring/decimal"
)

// Policy configures the guards of a workflow.
type Policy struct {
	RequireIdentifiedBuyer bool
	ConfirmTimeout         time.Duration
}

// Order is the success record of a confirmed submission.
type Order struct {
	Reference   OrderRef          `json:"reference"`
	Catalog     enums.CatalogKind `json:"catalog"`
	Buyer       BuyerInfo         `json:"buyer"`
	Entries     []cart.Entry      `json:"entries"`
	ItemCount   int               `json:"item_count"`
	Total       decimal.Decimal   `json:"total"`
	ConfirmedAt time.Time         `json:"confirmed_at"`
}

// View is a consistent snapshot of the workflow.
type View struct {
	State     enums.CheckoutState `json:"state"`
	Cart      cart.Snapshot       `json:"cart"`
	Buyer     *BuyerInfo          `json:"buyer,omitempty"`
	LastOrder *Order              `json:"last_order,omitempty"`
}

// Workflow owns one cart engine and serializes every access to it.
// Browsing -> AwaitingBuyerInfo -> Submitting -> Confirmed -> Browsing, with cancel and
// confirmation failure both returning to the previous stable state.
type Workflow struct {
	mu        sync.Mutex
	engine    *cart.Engine
	confirmer Confirmer
	policy    Policy
	now       func() time.Time

	state     enums.CheckoutState
	buyer     BuyerInfo
	lastOrder *Order
}

func NewWorkflow(engine *cart.Engine, confirmer Confirmer, policy Policy) (*Workflow, error) {
	if engine == nil {
		return nil, fmt.Errorf("cart engine required")
	}
	if confirmer == nil {
		return nil, fmt.Errorf("confirmer required")
	}
	return &Workflow{
		engine:    engine,
		confirmer: confirmer,
		policy:    policy,
		now:       time.Now,
		state:     enums.CheckoutStateBrowsing,
	}, nil
}

func (w *Workflow) Catalog() enums.CatalogKind {
	return w.engine.Kind()
}

func (w *Workflow) State() enums.CheckoutState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Mutate applies fn to the cart. The cart is frozen while a submission is in flight.
// Mutating after a confirmation starts a new purchase.
func (w *Workflow) Mutate(fn func(*cart.Engine)) (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == enums.CheckoutStateSubmitting {
		return w.viewLocked(), ErrCartLocked
	}
	if w.state == enums.CheckoutStateConfirmed {
		w.state = enums.CheckoutStateBrowsing
	}
	fn(w.engine)
	return w.viewLocked(), nil
}

// Begin enters AwaitingBuyerInfo, prefilling buyer info from identity.
func (w *Workflow) Begin(identity Identity) (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != enums.CheckoutStateBrowsing {
		return w.viewLocked(), invalidTransition(w.state, "begin checkout")
	}
	if w.engine.IsEmpty() {
		return w.viewLocked(), ErrEmptyCart
	}
	if identity == nil {
		identity = Anonymous{}
	}
	if w.policy.RequireIdentifiedBuyer && !identity.IsIdentified() {
		return w.viewLocked(), ErrIdentificationRequired
	}

	w.buyer = BuyerInfo{}
	if buyer, ok := identity.CurrentBuyer(); ok {
		w.buyer = buyer.Normalize()
	}
	w.state = enums.CheckoutStateAwaitingBuyerInfo
	return w.viewLocked(), nil
}

// Cancel leaves the buyer form; the cart is untouched.
func (w *Workflow) Cancel() (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != enums.CheckoutStateAwaitingBuyerInfo {
		return w.viewLocked(), invalidTransition(w.state, "cancel checkout")
	}
	w.state = enums.CheckoutStateBrowsing
	return w.viewLocked(), nil
}

// Submit validates info and confirms the order. The lock is not held while the
// confirmer runs; a concurrent Submit observes ErrSubmissionInFlight. The cart is
// cleared only once confirmation succeeds.
func (w *Workflow) Submit(ctx context.Context, info BuyerInfo) (*Order, error) {
	w.mu.Lock()
	switch w.state {
	case enums.CheckoutStateAwaitingBuyerInfo:
	case enums.CheckoutStateSubmitting:
		w.mu.Unlock()
		return nil, ErrSubmissionInFlight
	default:
		state := w.state
		w.mu.Unlock()
		return nil, invalidTransition(state, "submit checkout")
	}

	info = info.Normalize()
	w.buyer = info
	if err := info.Validate(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.engine.IsEmpty() {
		w.mu.Unlock()
		return nil, ErrEmptyCart
	}

	req := Request{Catalog: w.engine.Kind(), Buyer: info, Cart: w.engine.Snapshot()}
	w.state = enums.CheckoutStateSubmitting
	w.mu.Unlock()

	ref, err := w.confirm(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state = enums.CheckoutStateAwaitingBuyerInfo
		return nil, confirmationFailed(err)
	}

	order := &Order{
		Reference:   ref,
		Catalog:     req.Catalog,
		Buyer:       info,
		Entries:     req.Cart.Entries,
		ItemCount:   req.Cart.ItemCount,
		Total:       req.Cart.Total,
		ConfirmedAt: w.now().UTC(),
	}
	w.engine.Clear()
	w.lastOrder = order
	w.state = enums.CheckoutStateConfirmed
	return order, nil
}

// Acknowledge returns to browsing after a confirmation.
func (w *Workflow) Acknowledge() (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != enums.CheckoutStateConfirmed {
		return w.viewLocked(), invalidTransition(w.state, "acknowledge order")
	}
	w.state = enums.CheckoutStateBrowsing
	w.buyer = BuyerInfo{}
	return w.viewLocked(), nil
}

func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked()
}

// confirm runs detached from the caller's cancellation: once Submitting is entered the
// confirmation is not abandoned by a client disconnect. ConfirmTimeout bounds it.
func (w *Workflow) confirm(ctx context.Context, req Request) (OrderRef, error) {
	ctx = context.WithoutCancel(ctx)
	if w.policy.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.policy.ConfirmTimeout)
		defer cancel()
	}
	ref, err := w.confirmer.ConfirmOrder(ctx, req)
	if err != nil {
		return "", err
	}
	if ref == "" {
		return "", fmt.Errorf("confirmer returned an empty order reference")
	}
	return ref, nil
}

func (w *Workflow) viewLocked() View {
	v := View{
		State:     w.state,
		Cart:      w.engine.Snapshot(),
		LastOrder: w.lastOrder,
	}
	if w.state == enums.CheckoutStateAwaitingBuyerInfo || w.state == enums.CheckoutStateSubmitting {
		buyer := w.buyer
		v.Buyer = &buyer
	}
	return v
}
