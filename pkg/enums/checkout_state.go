package enums

import "fmt"

// CheckoutState tracks where a cart sits in the purchase flow.
type CheckoutState string

const (
	CheckoutStateBrowsing          CheckoutState = "browsing"
	CheckoutStateAwaitingBuyerInfo CheckoutState = "awaiting_buyer_info"
	CheckoutStateSubmitting        CheckoutState = "submitting"
	CheckoutStateConfirmed         CheckoutState = "confirmed"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateBrowsing,
	CheckoutStateAwaitingBuyerInfo,
	CheckoutStateSubmitting,
	CheckoutStateConfirmed,
}

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutState.
func (c CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}
