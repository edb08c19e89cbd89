package catalog

import (
	"time"

	"github.com/boxstock/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product.
// Absent pricing fields are resolved by catalog.NormalizeProduct.
type CreateProductRequest struct {
	Code         string           `json:"code" binding:"required,min=1,max=50"`
	Name         string           `json:"name" binding:"required,min=1,max=200"`
	ItemsPerBox  *int             `json:"items_per_box" binding:"required"`
	PricePerItem *decimal.Decimal `json:"price_per_item"`
	BoxPrice     *decimal.Decimal `json:"box_price"`
	IsActive     *bool            `json:"is_active"`
}

func (r CreateProductRequest) toDraft() catalog.ProductDraft {
	return catalog.ProductDraft{
		Code:         r.Code,
		Name:         r.Name,
		ItemsPerBox:  r.ItemsPerBox,
		PricePerItem: r.PricePerItem,
		BoxPrice:     r.BoxPrice,
		IsActive:     r.IsActive,
	}
}

// UpdatePricingRequest replaces a product's prices. A nil BoxPrice reverts
// to the derived box price.
type UpdatePricingRequest struct {
	PricePerItem decimal.Decimal  `json:"price_per_item" binding:"required"`
	BoxPrice     *decimal.Decimal `json:"box_price"`
}

// ChangeItemsPerBoxRequest changes the packaging size
type ChangeItemsPerBoxRequest struct {
	ItemsPerBox int `json:"items_per_box" binding:"required,min=1"`
}

// ListProductsRequest filters product listings
type ListProductsRequest struct {
	ActiveOnly bool
	Page       int
	PageSize   int
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	ItemsPerBox    int             `json:"items_per_box"`
	PricePerItem   decimal.Decimal `json:"price_per_item"`
	BoxPrice       decimal.Decimal `json:"box_price"`
	CustomBoxPrice bool            `json:"custom_box_price"`
	PerBoxSavings  decimal.Decimal `json:"per_box_savings"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Code:           p.Code,
		Name:           p.Name,
		ItemsPerBox:    p.ItemsPerBox,
		PricePerItem:   p.PricePerItem,
		BoxPrice:       p.BoxPrice,
		CustomBoxPrice: p.CustomBoxPrice,
		PerBoxSavings:  p.PerBoxSavings(),
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Version:        p.Version,
	}
}

// ToProductResponses converts a slice of domain Products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}

// QuoteResponse prices a number of boxes of one product
type QuoteResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Boxes         int             `json:"boxes"`
	Items         int             `json:"items"`
	UseBoxPrice   bool            `json:"use_box_price"`
	BoxPrice      decimal.Decimal `json:"box_price"`
	PerBoxSavings decimal.Decimal `json:"per_box_savings"`
	Total         decimal.Decimal `json:"total"`
}
