package models

import (
	"github.com/boxstock/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	AggregateModel
	Code           string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name           string          `gorm:"type:varchar(200);not null"`
	ItemsPerBox    int             `gorm:"not null"`
	PricePerItem   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BoxPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CustomBoxPrice bool            `gorm:"not null;default:false"`
	IsActive       bool            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		ItemsPerBox:       m.ItemsPerBox,
		PricePerItem:      m.PricePerItem,
		BoxPrice:          m.BoxPrice,
		CustomBoxPrice:    m.CustomBoxPrice,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.ItemsPerBox = p.ItemsPerBox
	m.PricePerItem = p.PricePerItem
	m.BoxPrice = p.BoxPrice
	m.CustomBoxPrice = p.CustomBoxPrice
	m.IsActive = p.IsActive
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
