package shop

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/mcn-showcase/api/middleware"
	"github.com/angelmondragon/mcn-showcase/api/validators"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	pkgerrors "github.com/angelmondragon/mcn-showcase/pkg/errors"
)

const (
	maxItemIDLen = 64
	// maxLineQuantity is the most units one request can place on a cart line.
	maxLineQuantity = 1000
)

// AddItemRequest adds quantity units of a catalog item to the cart. Quantities above
// maxLineQuantity are lowered to it, the same way the cart lowers them to the stock.
type AddItemRequest struct {
	ItemID   string `json:"item_id" validate:"required,max=64"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// UpdateQuantityRequest sets the quantity of a cart entry. Zero or less removes it.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func capQuantity(qty int) int {
	if qty > maxLineQuantity {
		return maxLineQuantity
	}
	return qty
}

// SubmitRequest carries the buyer details entered on the checkout form.
type SubmitRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

func catalogFromPath(r *http.Request) (enums.CatalogKind, error) {
	raw := chi.URLParam(r, "catalog")
	kind, err := enums.ParseCatalogKind(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "catalog not found").
			WithDetails(map[string]string{"catalog": validators.SanitizeString(raw, 32)})
	}
	return kind, nil
}

func itemIDFromPath(r *http.Request) (string, error) {
	id := validators.SanitizeString(chi.URLParam(r, "itemId"), maxItemIDLen)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	return id, nil
}

func cartSessionFromRequest(r *http.Request) (string, error) {
	id := middleware.CartSessionFromContext(r.Context())
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart session required")
	}
	return id, nil
}

// scope resolves the catalog and the cart session shared by every cart route.
func scope(r *http.Request) (enums.CatalogKind, string, error) {
	kind, err := catalogFromPath(r)
	if err != nil {
		return "", "", err
	}
	sessionID, err := cartSessionFromRequest(r)
	if err != nil {
		return "", "", err
	}
	return kind, sessionID, nil
}
