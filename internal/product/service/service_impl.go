package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/crm/internal/clock"
	obsmetrics "github.com/smallbiznis/crm/internal/observability/metrics"
	"github.com/smallbiznis/crm/internal/product/domain"
	"github.com/smallbiznis/crm/internal/validator"
	"github.com/smallbiznis/crm/pkg/db/option"
	"github.com/smallbiznis/crm/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock         `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("product.service"),
		repo:    p.Repo,
		genID:   p.GenID,
		clock:   clk,
		metrics: p.Metrics,
	}
}

var sortableColumns = map[string]bool{
	"name":       true,
	"price":      true,
	"stock":      true,
	"created_at": true,
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	category := strings.ToLower(strings.TrimSpace(req.PriceCategory))
	switch category {
	case "", domain.PriceCategoryBudget, domain.PriceCategoryMid, domain.PriceCategoryPremium:
	default:
		return domain.ListResponse{}, domain.ErrInvalidPriceCategory
	}

	filter := domain.ListFilter{
		Name:          strings.TrimSpace(req.Name),
		PriceMin:      req.PriceMin,
		PriceMax:      req.PriceMax,
		StockMin:      req.StockMin,
		StockMax:      req.StockMax,
		LowStock:      req.LowStock,
		OutOfStock:    req.OutOfStock,
		PriceCategory: category,
		Search:        strings.TrimSpace(req.Search),
	}

	sortBy := strings.TrimSpace(req.SortBy)
	orderBy := strings.TrimSpace(req.OrderBy)
	if sortBy == "" {
		sortBy, orderBy = "name", "asc"
	}

	pageSize := pagination.NormalizePageSize(req.PageSize)
	items, err := s.repo.List(ctx, s.db, filter,
		option.ApplyOffsetPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  int(pageSize),
		}),
		option.WithSortBy(option.WithQuerySortBy(sortBy, orderBy, sortableColumns)),
	)
	if err != nil {
		return domain.ListResponse{}, err
	}

	offset := pagination.OffsetFromToken(req.PageToken)
	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(*domain.Product) string {
		return pagination.OffsetToken(offset, int(pageSize))
	})
	if pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	resp := domain.ListResponse{
		PageInfo: *pageInfo,
		Products: make([]domain.Response, 0, len(items)),
	}
	for _, item := range items {
		resp.Products = append(resp.Products, s.toResponse(item))
	}

	return resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if err := validator.ValidateName(name, validator.ProductNameMaxLength); err != nil {
		return nil, err
	}

	if err := validator.ValidatePrice(req.Price); err != nil {
		return nil, err
	}

	stock := 0
	if req.Stock != nil {
		stock = *req.Stock
	}
	if err := validator.ValidateStock(stock); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p := &domain.Product{
		ID:        s.genID.Generate(),
		Name:      name,
		Price:     req.Price.Round(2),
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, s.db, p); err != nil {
		return nil, err
	}

	s.metrics.RecordProductCreated(ctx)
	s.log.Info("product.created", zap.String("product_id", p.ID.String()))

	resp := s.toResponse(p)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || productID == 0 {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(item)
	return &resp, nil
}

// RestockLowStock adds increment to every product whose stock is below
// threshold, in one transaction, and returns the updated products.
func (s *Service) RestockLowStock(ctx context.Context, threshold, increment int) ([]domain.Response, error) {
	if threshold < 0 || increment <= 0 {
		return nil, domain.ErrInvalidRestock
	}

	var updated []domain.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := s.repo.FindIDsBelowStock(ctx, tx, threshold)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if _, err := s.repo.IncrementStock(ctx, tx, ids, increment, s.clock.Now()); err != nil {
			return err
		}
		updated, err = s.repo.FindByIDs(ctx, tx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(updated))
	for i := range updated {
		resp = append(resp, s.toResponse(&updated[i]))
	}

	s.metrics.RecordProductsRestocked(ctx, len(resp))
	s.log.Info("product.restocked",
		zap.Int("count", len(resp)),
		zap.Int("threshold", threshold),
		zap.Int("increment", increment),
	)
	return resp, nil
}

func (s *Service) toResponse(p *domain.Product) domain.Response {
	return domain.Response{
		ID:        p.ID.String(),
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
