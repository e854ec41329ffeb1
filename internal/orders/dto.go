package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
)

// PlaceOrderInput is the POST /orders body. Billing defaults to the shipping
// address when omitted.
type PlaceOrderInput struct {
	ShippingAddressID uuid.UUID  `json:"shipping_address_id" validate:"required"`
	BillingAddressID  *uuid.UUID `json:"billing_address_id"`
	PaymentMethodID   uuid.UUID  `json:"payment_method_id" validate:"required"`
	ShippingMethodID  uuid.UUID  `json:"shipping_method_id" validate:"required"`
	DiscountCode      *string    `json:"discount_code" validate:"omitempty,max=40"`
	Note              *string    `json:"note" validate:"omitempty,max=1000"`
}

// UpdateStatusInput is the admin PATCH /admin/orders/{id}/status body.
type UpdateStatusInput struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
	Note   *string           `json:"note" validate:"omitempty,max=1000"`
}

// CancelInput is the customer cancel body.
type CancelInput struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// ListFilters narrows order lists. UserID is set by the customer endpoints.
type ListFilters struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
	Search string
}

// Actor identifies who performs a state change.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

type ItemDTO struct {
	ID            uuid.UUID       `json:"id"`
	ProductItemID uuid.UUID       `json:"product_item_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	SKU           string          `json:"sku"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

type HistoryDTO struct {
	FromStatus *enums.OrderStatus `json:"from_status,omitempty"`
	ToStatus   enums.OrderStatus  `json:"to_status"`
	Note       *string            `json:"note,omitempty"`
	ChangedBy  *uuid.UUID         `json:"changed_by,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

type AddressDTO struct {
	RecipientName string  `json:"recipient_name"`
	Phone         string  `json:"phone"`
	Line1         string  `json:"line1"`
	Line2         *string `json:"line2,omitempty"`
	Ward          *string `json:"ward,omitempty"`
	District      *string `json:"district,omitempty"`
	City          string  `json:"city"`
	Country       string  `json:"country"`
	PostalCode    *string `json:"postal_code,omitempty"`
}

// OrderDTO is the order payload. Items, history and addresses are only filled
// on detail reads.
type OrderDTO struct {
	ID                uuid.UUID         `json:"id"`
	OrderNumber       string            `json:"order_number"`
	UserID            uuid.UUID         `json:"user_id"`
	Status            enums.OrderStatus `json:"status"`
	Subtotal          decimal.Decimal   `json:"subtotal"`
	DiscountAmount    decimal.Decimal   `json:"discount_amount"`
	ShippingFee       decimal.Decimal   `json:"shipping_fee"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	DiscountCode      *string           `json:"discount_code,omitempty"`
	Note              *string           `json:"note,omitempty"`
	ShippingAddressID uuid.UUID         `json:"shipping_address_id"`
	BillingAddressID  uuid.UUID         `json:"billing_address_id"`
	PaymentMethodID   uuid.UUID         `json:"payment_method_id"`
	ShippingMethodID  uuid.UUID         `json:"shipping_method_id"`
	ShippingMethod    string            `json:"shipping_method,omitempty"`
	PaymentType       string            `json:"payment_type,omitempty"`
	ShippingAddress   *AddressDTO       `json:"shipping_address,omitempty"`
	BillingAddress    *AddressDTO       `json:"billing_address,omitempty"`
	ItemCount         int               `json:"item_count"`
	Items             []ItemDTO         `json:"items,omitempty"`
	History           []HistoryDTO      `json:"history,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func addressFromModel(m *models.Address) *AddressDTO {
	if m == nil {
		return nil
	}
	return &AddressDTO{
		RecipientName: m.RecipientName,
		Phone:         m.Phone,
		Line1:         m.Line1,
		Line2:         m.Line2,
		Ward:          m.Ward,
		District:      m.District,
		City:          m.City,
		Country:       m.Country,
		PostalCode:    m.PostalCode,
	}
}

// FromModel maps whatever associations were loaded on m.
func FromModel(m models.ShopOrder) OrderDTO {
	dto := OrderDTO{
		ID:                m.ID,
		OrderNumber:       m.OrderNumber,
		UserID:            m.UserID,
		Status:            m.Status,
		Subtotal:          m.Subtotal,
		DiscountAmount:    m.DiscountAmount,
		ShippingFee:       m.ShippingFee,
		TotalAmount:       m.TotalAmount,
		DiscountCode:      m.DiscountCode,
		Note:              m.Note,
		ShippingAddressID: m.ShippingAddressID,
		BillingAddressID:  m.BillingAddressID,
		PaymentMethodID:   m.PaymentMethodID,
		ShippingMethodID:  m.ShippingMethodID,
		ShippingAddress:   addressFromModel(m.ShippingAddress),
		BillingAddress:    addressFromModel(m.BillingAddress),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.ShippingMethod != nil {
		dto.ShippingMethod = m.ShippingMethod.Name
	}
	if m.PaymentMethod != nil {
		dto.PaymentType = string(m.PaymentMethod.Type)
	}
	for _, item := range m.Items {
		dto.ItemCount += item.Quantity
		dto.Items = append(dto.Items, ItemDTO{
			ID:            item.ID,
			ProductItemID: item.ProductItemID,
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			SKU:           item.SKU,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			LineTotal:     item.LineTotal,
		})
	}
	for _, h := range m.History {
		dto.History = append(dto.History, HistoryDTO{
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			Note:       h.Note,
			ChangedBy:  h.ChangedBy,
			CreatedAt:  h.CreatedAt,
		})
	}
	return dto
}
