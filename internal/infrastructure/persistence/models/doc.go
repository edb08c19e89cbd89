// Package models contains GORM persistence models that map to database tables.
// Domain entities carry no GORM tags; every model converts to and from its
// domain type with ToDomain / FromDomain.
//
// Structure:
// - base.go: BaseModel and AggregateModel (optimistic version)
// - catalog.go: products
// - warehouse.go: warehouses, districts, employees
// - inventory.go: stock records, reservations, sales history, stagnant returns
// - fulfillment.go: orders and order lines
package models
