package catalog

import (
	"context"

	"github.com/boxstock/backend/internal/domain/catalog"
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/shared/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockPresence tells whether any stock has been recorded for a product.
// Packaging is frozen once it has.
type StockPresence interface {
	ExistsForProduct(ctx context.Context, productID uuid.UUID) (bool, error)
}

// ProductService handles product-related business operations
type ProductService struct {
	productRepo    catalog.ProductRepository
	stock          StockPresence
	converter      *service.UnitConverter
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, stock StockPresence, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		stock:       stock,
		converter:   service.NewUnitConverter(),
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NormalizeProduct(req.toDraft())
	if err != nil {
		return nil, err
	}

	exists, err := s.productRepo.ExistsByCode(ctx, product.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Product with this code already exists")
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("code", product.Code),
		zap.Int("items_per_box", product.ItemsPerBox),
		zap.String("box_price", product.BoxPrice.String()),
	)
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByCode retrieves a product by its code
func (s *ProductService) GetByCode(ctx context.Context, code string) (*ProductResponse, error) {
	product, err := s.productRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List retrieves a page of products ordered by code
func (s *ProductService) List(ctx context.Context, req ListProductsRequest) ([]ProductResponse, int64, error) {
	filter := shared.DefaultFilter()
	filter.OrderBy = "code"
	filter.OrderDir = "asc"
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}

	products, total, err := s.productRepo.FindAll(ctx, req.ActiveOnly, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// UpdatePricing replaces the per-item price and optionally the box price
func (s *ProductService) UpdatePricing(ctx context.Context, id uuid.UUID, req UpdatePricingRequest) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		return p.UpdatePricing(req.PricePerItem, req.BoxPrice)
	})
}

// ChangeItemsPerBox changes the packaging size. Refused with
// INVALID_TRANSITION once any stock record exists for the product.
func (s *ProductService) ChangeItemsPerBox(ctx context.Context, id uuid.UUID, req ChangeItemsPerBoxRequest) (*ProductResponse, error) {
	stocked, err := s.stock.ExistsForProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		return p.ChangeItemsPerBox(req.ItemsPerBox, stocked)
	})
}

// Deactivate soft-deletes a product
func (s *ProductService) Deactivate(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		p.Deactivate()
		return nil
	})
}

// Activate makes a product orderable again
func (s *ProductService) Activate(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		p.Activate()
		return nil
	})
}

// Quote prices boxes of a product either at the box price or item by item
func (s *ProductService) Quote(ctx context.Context, id uuid.UUID, boxes int, useBoxPrice bool) (*QuoteResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	total, err := product.PriceFor(boxes, useBoxPrice)
	if err != nil {
		return nil, err
	}
	items, err := s.converter.ItemsFromBoxes(boxes, product.ItemsPerBox)
	if err != nil {
		return nil, err
	}

	savings := product.PerBoxSavings()
	if !useBoxPrice {
		savings = decimal.Zero
	}
	return &QuoteResponse{
		ProductID:     product.ID,
		Boxes:         boxes,
		Items:         items,
		UseBoxPrice:   useBoxPrice,
		BoxPrice:      product.BoxPrice,
		PerBoxSavings: savings,
		Total:         total,
	}, nil
}

func (s *ProductService) mutate(ctx context.Context, id uuid.UUID, fn func(*catalog.Product) error) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	events := product.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
