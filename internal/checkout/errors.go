package checkout

import (
	"fmt"

	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	pkgerrors "github.com/angelmondragon/mcn-showcase/pkg/errors"
)

// LoginRedirect is where an unidentified buyer is sent before checkout.
const LoginRedirect = "/login"

var (
	ErrEmptyCart           = pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	ErrInvalidBuyer        = pkgerrors.New(pkgerrors.CodeValidation, "invalid buyer information")
	ErrSubmissionInFlight  = pkgerrors.New(pkgerrors.CodeConflict, "checkout submission already in flight")
	ErrCartLocked          = pkgerrors.New(pkgerrors.CodeStateConflict, "cart is locked while the order is confirmed")
	ErrConfirmationFailure = pkgerrors.New(pkgerrors.CodeDependency, "order confirmation failed")
)

// ErrIdentificationRequired carries the redirect the client follows to log in.
var ErrIdentificationRequired = pkgerrors.New(pkgerrors.CodeUnauthorized, "identification required before checkout").
	WithDetails(map[string]string{"redirect": LoginRedirect})

func invalidTransition(from enums.CheckoutState, action string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s while %s", action, from)).
		WithDetails(map[string]string{"state": from.String()})
}

func confirmationFailed(cause error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, ErrConfirmationFailure.Message()).
		WithDetails(map[string]any{"retryable": true, "state": enums.CheckoutStateAwaitingBuyerInfo.String()})
}
