package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/mcn-showcase/internal/cart"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	"github.com/google/uuid"
)

// Request is what the confirmation channel receives for one submission.
type Request struct {
	Catalog enums.CatalogKind `json:"catalog"`
	Buyer   BuyerInfo         `json:"buyer"`
	Cart    cart.Snapshot     `json:"cart"`
}

// OrderRef is the reference minted by the confirmation channel.
type OrderRef string

// Confirmer confirms an order with whatever backend takes payment.
type Confirmer interface {
	ConfirmOrder(ctx context.Context, req Request) (OrderRef, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, req Request) (OrderRef, error)

func (f ConfirmerFunc) ConfirmOrder(ctx context.Context, req Request) (OrderRef, error) {
	return f(ctx, req)
}

// SimulatedConfirmer stands in for a payment backend: it waits Latency and always succeeds
// unless the context ends first.
type SimulatedConfirmer struct {
	Latency time.Duration
}

func (s SimulatedConfirmer) ConfirmOrder(ctx context.Context, _ Request) (OrderRef, error) {
	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}
	return NewOrderRef(), nil
}

// NewOrderRef mints a short human-readable order reference.
func NewOrderRef() OrderRef {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return OrderRef("MCN-" + strings.ToUpper(raw[:10]))
}
