package catalog

import (
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated          = "ProductCreated"
	EventTypeProductPriceChanged     = "ProductPriceChanged"
	EventTypeProductPackagingChanged = "ProductPackagingChanged"
	EventTypeProductStatusChanged    = "ProductStatusChanged"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID       `json:"product_id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	ItemsPerBox  int             `json:"items_per_box"`
	PricePerItem decimal.Decimal `json:"price_per_item"`
	BoxPrice     decimal.Decimal `json:"box_price"`
}

func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		Code:            p.Code,
		Name:            p.Name,
		ItemsPerBox:     p.ItemsPerBox,
		PricePerItem:    p.PricePerItem,
		BoxPrice:        p.BoxPrice,
	}
}

// ProductPriceChangedEvent is published when item or box pricing changes
type ProductPriceChangedEvent struct {
	shared.BaseDomainEvent
	ProductID       uuid.UUID       `json:"product_id"`
	OldPricePerItem decimal.Decimal `json:"old_price_per_item"`
	NewPricePerItem decimal.Decimal `json:"new_price_per_item"`
	OldBoxPrice     decimal.Decimal `json:"old_box_price"`
	NewBoxPrice     decimal.Decimal `json:"new_box_price"`
}

func NewProductPriceChangedEvent(p *Product, oldPricePerItem, oldBoxPrice decimal.Decimal) *ProductPriceChangedEvent {
	return &ProductPriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductPriceChanged, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		OldPricePerItem: oldPricePerItem,
		NewPricePerItem: p.PricePerItem,
		OldBoxPrice:     oldBoxPrice,
		NewBoxPrice:     p.BoxPrice,
	}
}

// ProductPackagingChangedEvent is published when items per box changes
type ProductPackagingChangedEvent struct {
	shared.BaseDomainEvent
	ProductID      uuid.UUID `json:"product_id"`
	OldItemsPerBox int       `json:"old_items_per_box"`
	NewItemsPerBox int       `json:"new_items_per_box"`
}

func NewProductPackagingChangedEvent(p *Product, oldItemsPerBox int) *ProductPackagingChangedEvent {
	return &ProductPackagingChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductPackagingChanged, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		OldItemsPerBox:  oldItemsPerBox,
		NewItemsPerBox:  p.ItemsPerBox,
	}
}

// ProductStatusChangedEvent is published on activation and deactivation
type ProductStatusChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	IsActive  bool      `json:"is_active"`
}

func NewProductStatusChangedEvent(p *Product) *ProductStatusChangedEvent {
	return &ProductStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStatusChanged, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		IsActive:        p.IsActive,
	}
}
