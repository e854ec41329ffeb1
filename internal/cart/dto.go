package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
)

// AddItemInput is the POST /cart/items body.
type AddItemInput struct {
	ProductItemID uuid.UUID `json:"product_item_id" validate:"required"`
	Quantity      int       `json:"quantity" validate:"required,min=1,max=999"`
}

// UpdateItemInput is the PATCH /cart/items/{itemId} body.
type UpdateItemInput struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=999"`
}

// LineDTO is one cart line with live price and availability.
type LineDTO struct {
	ID             uuid.UUID            `json:"id"`
	ProductItemID  uuid.UUID            `json:"product_item_id"`
	ProductID      uuid.UUID            `json:"product_id"`
	ProductName    string               `json:"product_name"`
	ProductSlug    string               `json:"product_slug"`
	ImageURL       *string              `json:"image_url,omitempty"`
	SKU            string               `json:"sku"`
	ItemName       *string              `json:"item_name,omitempty"`
	UnitPrice      decimal.Decimal      `json:"unit_price"`
	Quantity       int                  `json:"quantity"`
	LineTotal      decimal.Decimal      `json:"line_total"`
	WeightKg       decimal.Decimal      `json:"weight_kg"`
	StockAvailable int                  `json:"stock_available"`
	Status         enums.CartItemStatus `json:"status"`
}

// CartDTO totals only count lines whose status is ok.
type CartDTO struct {
	ID            uuid.UUID       `json:"id"`
	Items         []LineDTO       `json:"items"`
	TotalItems    int             `json:"total_items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalWeightKg decimal.Decimal `json:"total_weight_kg"`
	HasIssues     bool            `json:"has_issues"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// LineStatus checks a line against the item's current stock and both active flags.
func LineStatus(item *models.ProductItem, quantity int) enums.CartItemStatus {
	if item == nil || !item.IsActive || item.Product == nil || !item.Product.IsActive {
		return enums.CartItemStatusNotAvailable
	}
	if item.StockQuantity <= 0 {
		return enums.CartItemStatusOutOfStock
	}
	if quantity > item.StockQuantity {
		return enums.CartItemStatusInsufficientStock
	}
	return enums.CartItemStatusOK
}

func FromModel(cart models.ShoppingCart) CartDTO {
	dto := CartDTO{
		ID:            cart.ID,
		Items:         make([]LineDTO, 0, len(cart.Items)),
		Subtotal:      decimal.Zero,
		TotalWeightKg: decimal.Zero,
		UpdatedAt:     cart.UpdatedAt,
	}
	for _, line := range cart.Items {
		l := LineDTO{
			ID:            line.ID,
			ProductItemID: line.ProductItemID,
			Quantity:      line.Quantity,
			Status:        LineStatus(line.ProductItem, line.Quantity),
		}
		if item := line.ProductItem; item != nil {
			qty := decimal.NewFromInt(int64(line.Quantity))
			l.SKU = item.SKU
			l.ItemName = item.Name
			l.UnitPrice = item.Price
			l.LineTotal = item.Price.Mul(qty)
			l.WeightKg = item.WeightKg
			l.StockAvailable = item.StockQuantity
			l.ProductID = item.ProductID
			if item.Product != nil {
				l.ProductName = item.Product.Name
				l.ProductSlug = item.Product.Slug
				l.ImageURL = item.Product.ImageURL
			}
			if l.Status == enums.CartItemStatusOK {
				dto.Subtotal = dto.Subtotal.Add(l.LineTotal)
				dto.TotalWeightKg = dto.TotalWeightKg.Add(item.WeightKg.Mul(qty))
				dto.TotalItems += line.Quantity
			}
		}
		if l.Status != enums.CartItemStatusOK {
			dto.HasIssues = true
		}
		dto.Items = append(dto.Items, l)
	}
	return dto
}
