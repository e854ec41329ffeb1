package enums

import "fmt"

// CartItemStatus is the availability of a cart line computed on read.
type CartItemStatus string

const (
	CartItemStatusOK                CartItemStatus = "ok"
	CartItemStatusInsufficientStock CartItemStatus = "insufficient_stock"
	CartItemStatusOutOfStock        CartItemStatus = "out_of_stock"
	CartItemStatusNotAvailable      CartItemStatus = "not_available"
)

var validCartItemStatuses = []CartItemStatus{
	CartItemStatusOK,
	CartItemStatusInsufficientStock,
	CartItemStatusOutOfStock,
	CartItemStatusNotAvailable,
}

// String implements fmt.Stringer.
func (c CartItemStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c CartItemStatus) IsValid() bool {
	for _, candidate := range validCartItemStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartItemStatus converts raw input into a CartItemStatus.
func ParseCartItemStatus(value string) (CartItemStatus, error) {
	for _, candidate := range validCartItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart item status %q", value)
}
