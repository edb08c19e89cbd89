package service

import (
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultMinimumBoxes is the smallest order line accepted by CanOrder
const DefaultMinimumBoxes = 1

// UnitConverter converts between boxes and items and derives box-level prices.
// It is a stateless domain service; every method is pure.
type UnitConverter struct{}

// NewUnitConverter creates a new unit converter
func NewUnitConverter() *UnitConverter {
	return &UnitConverter{}
}

// ValidateItemsPerBox rejects malformed product packaging
func (c *UnitConverter) ValidateItemsPerBox(itemsPerBox int) error {
	if itemsPerBox <= 0 {
		return shared.NewDomainErrorf(shared.CodeInvalidConfiguration, "items per box must be at least 1, got %d", itemsPerBox)
	}
	return nil
}

// BoxesFromItems returns the number of boxes needed to cover items.
// Rounds up, so ItemsFromBoxes(BoxesFromItems(n)) >= n.
func (c *UnitConverter) BoxesFromItems(items, itemsPerBox int) (int, error) {
	if err := c.ValidateItemsPerBox(itemsPerBox); err != nil {
		return 0, err
	}
	if items < 0 {
		return 0, shared.NewDomainError(shared.CodeInvalidInput, "item count cannot be negative")
	}
	return (items + itemsPerBox - 1) / itemsPerBox, nil
}

// ItemsFromBoxes returns the exact item count held in boxes
func (c *UnitConverter) ItemsFromBoxes(boxes, itemsPerBox int) (int, error) {
	if err := c.ValidateItemsPerBox(itemsPerBox); err != nil {
		return 0, err
	}
	if boxes < 0 {
		return 0, shared.NewDomainError(shared.CodeInvalidInput, "box count cannot be negative")
	}
	return boxes * itemsPerBox, nil
}

// ResolveBoxPrice returns boxPrice when set, otherwise pricePerItem × itemsPerBox.
// A box price below the per-item total is allowed and encodes a bulk discount.
func (c *UnitConverter) ResolveBoxPrice(boxPrice *decimal.Decimal, pricePerItem decimal.Decimal, itemsPerBox int) (decimal.Decimal, error) {
	if err := c.ValidateItemsPerBox(itemsPerBox); err != nil {
		return decimal.Zero, err
	}
	if pricePerItem.IsNegative() {
		return decimal.Zero, shared.NewDomainError(shared.CodeInvalidConfiguration, "price per item cannot be negative")
	}
	if boxPrice != nil {
		if boxPrice.IsNegative() {
			return decimal.Zero, shared.NewDomainError(shared.CodeInvalidConfiguration, "box price cannot be negative")
		}
		return *boxPrice, nil
	}
	return pricePerItem.Mul(decimal.NewFromInt(int64(itemsPerBox))), nil
}

// TotalPrice prices a box count either at the box price or item by item.
func (c *UnitConverter) TotalPrice(
	boxes int,
	boxPrice decimal.Decimal,
	itemsPerBox int,
	pricePerItem decimal.Decimal,
	useBoxPrice bool,
) (decimal.Decimal, error) {
	if err := c.ValidateItemsPerBox(itemsPerBox); err != nil {
		return decimal.Zero, err
	}
	if boxes < 0 {
		return decimal.Zero, shared.NewDomainError(shared.CodeInvalidInput, "box count cannot be negative")
	}
	n := decimal.NewFromInt(int64(boxes))
	if useBoxPrice {
		return n.Mul(boxPrice), nil
	}
	return n.Mul(decimal.NewFromInt(int64(itemsPerBox))).Mul(pricePerItem), nil
}

// PerBoxSavings is what a buyer saves per box by paying the box price instead
// of the per-item price. Never negative.
func (c *UnitConverter) PerBoxSavings(boxPrice, pricePerItem decimal.Decimal, itemsPerBox int) (decimal.Decimal, error) {
	if err := c.ValidateItemsPerBox(itemsPerBox); err != nil {
		return decimal.Zero, err
	}
	savings := pricePerItem.Mul(decimal.NewFromInt(int64(itemsPerBox))).Sub(boxPrice)
	if savings.IsNegative() {
		return decimal.Zero, nil
	}
	return savings, nil
}

// CanOrder reports whether requestedBoxes lies in [minimumBoxes, availableBoxes]
// for an active product. A minimum below 1 is treated as DefaultMinimumBoxes.
func (c *UnitConverter) CanOrder(requestedBoxes, availableBoxes, minimumBoxes int, active bool) bool {
	if !active {
		return false
	}
	if minimumBoxes < DefaultMinimumBoxes {
		minimumBoxes = DefaultMinimumBoxes
	}
	return requestedBoxes >= minimumBoxes && requestedBoxes <= availableBoxes
}
