package warehouse

import (
	"context"

	"github.com/google/uuid"
)

// ActiveWarehouseLookup resolves the active warehouses serving a set of districts
type ActiveWarehouseLookup interface {
	// FindActiveByDistricts returns active warehouses in any of the districts,
	// ordered by creation time then code.
	FindActiveByDistricts(ctx context.Context, districtIDs []uuid.UUID) ([]Warehouse, error)
}

// WarehouseAssigner picks the warehouse a person or order is bound to.
// It only reads; callers persist the binding.
type WarehouseAssigner struct {
	lookup ActiveWarehouseLookup
}

// NewWarehouseAssigner creates a new assigner
func NewWarehouseAssigner(lookup ActiveWarehouseLookup) *WarehouseAssigner {
	return &WarehouseAssigner{lookup: lookup}
}

// AssignForDistricts scans districtIDs in the caller's order and returns the
// warehouse of the first district that has an active one. Returns nil when the
// set is empty or no district has an active warehouse.
func (a *WarehouseAssigner) AssignForDistricts(ctx context.Context, districtIDs []uuid.UUID) (*uuid.UUID, error) {
	if len(districtIDs) == 0 {
		return nil, nil
	}

	warehouses, err := a.lookup.FindActiveByDistricts(ctx, districtIDs)
	if err != nil {
		return nil, err
	}

	byDistrict := make(map[uuid.UUID]uuid.UUID, len(warehouses))
	for _, w := range warehouses {
		if !w.IsActive() {
			continue
		}
		if _, taken := byDistrict[w.DistrictID]; !taken {
			byDistrict[w.DistrictID] = w.ID
		}
	}

	for _, districtID := range districtIDs {
		if id, ok := byDistrict[districtID]; ok {
			return &id, nil
		}
	}
	return nil, nil
}

// AssignForOrder returns the active warehouse of the delivery district, or nil
func (a *WarehouseAssigner) AssignForOrder(ctx context.Context, deliveryDistrictID uuid.UUID) (*uuid.UUID, error) {
	if deliveryDistrictID == uuid.Nil {
		return nil, nil
	}
	return a.AssignForDistricts(ctx, []uuid.UUID{deliveryDistrictID})
}
