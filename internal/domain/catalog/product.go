package catalog

import (
	"strings"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/shared/service"
	"github.com/shopspring/decimal"
)

var converter = service.NewUnitConverter()

// Product is a sellable SKU stocked and sold in whole boxes.
// It is the aggregate root for catalog operations.
type Product struct {
	shared.BaseAggregateRoot
	Code         string
	Name         string
	ItemsPerBox  int
	PricePerItem decimal.Decimal
	// BoxPrice is always resolved; CustomBoxPrice records whether it was set
	// explicitly or derived from PricePerItem × ItemsPerBox.
	BoxPrice       decimal.Decimal
	CustomBoxPrice bool
	IsActive       bool
}

// ProductDraft carries raw catalog input where every field may be absent.
// NormalizeProduct is the only place a draft is turned into a Product.
type ProductDraft struct {
	Code         string
	Name         string
	ItemsPerBox  *int
	PricePerItem *decimal.Decimal
	BoxPrice     *decimal.Decimal
	IsActive     *bool
}

// NormalizeProduct validates a draft and resolves its defaults:
// a missing price is zero, a missing box price is derived, a missing
// active flag means active. A missing or non-positive ItemsPerBox is an
// invalid configuration.
func NormalizeProduct(d ProductDraft) (*Product, error) {
	code := strings.ToUpper(strings.TrimSpace(d.Code))
	if code == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product code cannot exceed 50 characters")
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product name cannot be empty")
	}
	if d.ItemsPerBox == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidConfiguration, "Items per box is required")
	}
	if err := converter.ValidateItemsPerBox(*d.ItemsPerBox); err != nil {
		return nil, err
	}

	pricePerItem := decimal.Zero
	if d.PricePerItem != nil {
		pricePerItem = *d.PricePerItem
	}
	boxPrice, err := converter.ResolveBoxPrice(d.BoxPrice, pricePerItem, *d.ItemsPerBox)
	if err != nil {
		return nil, err
	}

	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		ItemsPerBox:       *d.ItemsPerBox,
		PricePerItem:      pricePerItem,
		BoxPrice:          boxPrice,
		CustomBoxPrice:    d.BoxPrice != nil,
		IsActive:          active,
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// UpdatePricing replaces the per-item price and, optionally, the box price.
// A nil boxPrice reverts the product to the derived box price.
func (p *Product) UpdatePricing(pricePerItem decimal.Decimal, boxPrice *decimal.Decimal) error {
	resolved, err := converter.ResolveBoxPrice(boxPrice, pricePerItem, p.ItemsPerBox)
	if err != nil {
		return err
	}

	oldItem, oldBox := p.PricePerItem, p.BoxPrice
	p.PricePerItem = pricePerItem
	p.BoxPrice = resolved
	p.CustomBoxPrice = boxPrice != nil
	p.IncrementVersion()

	p.AddDomainEvent(NewProductPriceChangedEvent(p, oldItem, oldBox))
	return nil
}

// ChangeItemsPerBox changes the packaging size. It is refused once any stock
// exists for the product because outstanding reservations are box-denominated.
func (p *Product) ChangeItemsPerBox(itemsPerBox int, stockExists bool) error {
	if stockExists {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Items per box cannot change once stock exists for the product")
	}
	if err := converter.ValidateItemsPerBox(itemsPerBox); err != nil {
		return err
	}
	if itemsPerBox == p.ItemsPerBox {
		return nil
	}

	old := p.ItemsPerBox
	p.ItemsPerBox = itemsPerBox
	if !p.CustomBoxPrice {
		p.BoxPrice, _ = converter.ResolveBoxPrice(nil, p.PricePerItem, itemsPerBox)
	}
	p.IncrementVersion()

	p.AddDomainEvent(NewProductPackagingChangedEvent(p, old))
	return nil
}

// Deactivate soft-deletes the product. Orders keep referencing it.
func (p *Product) Deactivate() {
	if !p.IsActive {
		return
	}
	p.IsActive = false
	p.IncrementVersion()
	p.AddDomainEvent(NewProductStatusChangedEvent(p))
}

// Activate makes a deactivated product orderable again
func (p *Product) Activate() {
	if p.IsActive {
		return
	}
	p.IsActive = true
	p.IncrementVersion()
	p.AddDomainEvent(NewProductStatusChangedEvent(p))
}

// PerBoxSavings returns the discount embedded in the box price
func (p *Product) PerBoxSavings() decimal.Decimal {
	savings, _ := converter.PerBoxSavings(p.BoxPrice, p.PricePerItem, p.ItemsPerBox)
	return savings
}

// PriceFor prices a number of boxes at the box price or item by item
func (p *Product) PriceFor(boxes int, useBoxPrice bool) (decimal.Decimal, error) {
	return converter.TotalPrice(boxes, p.BoxPrice, p.ItemsPerBox, p.PricePerItem, useBoxPrice)
}

// CanOrder reports whether the product can be ordered in the requested quantity
func (p *Product) CanOrder(requestedBoxes, availableBoxes int) bool {
	return converter.CanOrder(requestedBoxes, availableBoxes, service.DefaultMinimumBoxes, p.IsActive)
}
