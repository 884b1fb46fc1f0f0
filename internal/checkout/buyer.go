package checkout

import (
	"fmt"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/mcn-showcase/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// BuyerInfo is the contact information collected before an order is submitted.
type BuyerInfo struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty"`
}

// Normalize trims every field.
func (b BuyerInfo) Normalize() BuyerInfo {
	return BuyerInfo{
		FirstName: strings.TrimSpace(b.FirstName),
		LastName:  strings.TrimSpace(b.LastName),
		Email:     strings.TrimSpace(b.Email),
		Phone:     strings.TrimSpace(b.Phone),
	}
}

// Validate checks the required fields and the email format.
func (b BuyerInfo) Validate() error {
	err := validate.Struct(b)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid buyer information")
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "is required"
		case "email":
			details[fe.Field()] = "must be a valid email"
		default:
			details[fe.Field()] = fmt.Sprintf("failed %s", fe.Tag())
		}
	}
	return ErrInvalidBuyer.WithDetails(details)
}

// Identity is the read-only view of the visitor's identification used at checkout.
type Identity interface {
	CurrentBuyer() (BuyerInfo, bool)
	IsIdentified() bool
}

// Anonymous is the identity of a visitor who has not logged in.
type Anonymous struct{}

func (Anonymous) CurrentBuyer() (BuyerInfo, bool) { return BuyerInfo{}, false }
func (Anonymous) IsIdentified() bool              { return false }

// KnownBuyer is an identified visitor whose profile prefills the buyer form.
type KnownBuyer BuyerInfo

func (k KnownBuyer) CurrentBuyer() (BuyerInfo, bool) { return BuyerInfo(k), true }
func (KnownBuyer) IsIdentified() bool                { return true }
