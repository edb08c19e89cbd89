package warehouse

import (
	"strings"

	"github.com/boxstock/backend/internal/domain/shared"
)

// District is a delivery area. Employees and orders reference districts,
// and each district is served by at most one warehouse for auto-assignment.
type District struct {
	shared.BaseEntity
	Name string
}

// NewDistrict creates a district
func NewDistrict(name string) (*District, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "District name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "District name cannot exceed 100 characters")
	}
	return &District{BaseEntity: shared.NewBaseEntity(), Name: name}, nil
}
