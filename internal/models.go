package internal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Amount is a price in minor currency units (paise)
type Amount int64

// AmountFromFloat converts a decimal price to minor units, rounding to the
// nearest unit.
func AmountFromFloat(v float64) Amount {
	return Amount(math.Round(v * 100))
}

// Float returns the amount as a decimal value
func (a Amount) Float() float64 {
	return float64(a) / 100
}

// String formats the amount without a currency symbol: "449" or "449.50"
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v%100 == 0 {
		return fmt.Sprintf("%s%d", sign, v/100)
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Format prefixes the amount with a currency symbol
func (a Amount) Format(symbol string) string {
	return symbol + a.String()
}

// MarshalJSON encodes the amount as a decimal number
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(a.Float(), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	*a = AmountFromFloat(v)
	return nil
}

// CartItem represents one line of the cart as assigned by the server
type CartItem struct {
	ID       string  `json:"id" yaml:"id" validate:"required"`
	Title    string  `json:"title" yaml:"title" validate:"required"`
	Author   string  `json:"author,omitempty" yaml:"author,omitempty"`
	Price    *Amount `json:"price,omitempty" yaml:"price,omitempty" validate:"omitempty,gte=0"`
	ISBN     string  `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	ImageURL string  `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// ValidateStruct validates a struct based on its validation tags. The first
// failing field is reported as a ValidationError.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return toValidationError(err)
	}
	return nil
}

// Validate checks the item's required fields
func (it CartItem) Validate() error {
	return ValidateStruct(it)
}

// PriceOrZero returns the item price, or zero for server-priced items
func (it CartItem) PriceOrZero() Amount {
	if it.Price == nil {
		return 0
	}
	return *it.Price
}

// CartState is the ordered cart as last reported by the server. The total
// is always derived from the items it holds.
type CartState struct {
	Items []CartItem
}

// Total sums the prices of the items in the state
func (s *CartState) Total() Amount {
	var total Amount
	for _, it := range s.Items {
		total += it.PriceOrZero()
	}
	return total
}

// Upsert replaces the item with the same id in place, or appends it
func (s *CartState) Upsert(item CartItem) {
	for i, it := range s.Items {
		if it.ID == item.ID {
			s.Items[i] = item
			return
		}
	}
	s.Items = append(s.Items, item)
}

// Remove deletes the item with the given id and reports whether it existed
func (s *CartState) Remove(id string) bool {
	for i, it := range s.Items {
		if it.ID == id {
			s.Items = append(s.Items[:i:i], s.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the item with the given id
func (s *CartState) Find(id string) (CartItem, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return CartItem{}, false
}

// Replace swaps the whole cart for a fresh server listing
func (s *CartState) Replace(items []CartItem) {
	s.Items = append([]CartItem(nil), items...)
}

// Snapshot returns a copy of the items
func (s *CartState) Snapshot() []CartItem {
	return append([]CartItem(nil), s.Items...)
}

// NotificationKind distinguishes success toasts from error toasts
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification is a transient status message
type Notification struct {
	ID        string           `json:"id"`
	Message   string           `json:"message"`
	Kind      NotificationKind `json:"kind"`
	CreatedAt time.Time        `json:"created_at"`
}

func toValidationError(err error) error {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return &ValidationError{Field: field, Reason: "is required"}
		case "gte":
			return &ValidationError{Field: field, Reason: "must be at least " + fe.Param()}
		default:
			return &ValidationError{Field: field, Reason: "is invalid"}
		}
	}
	return err
}
