package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/crm/internal/clock"
	customerdomain "github.com/smallbiznis/crm/internal/customer/domain"
	obsmetrics "github.com/smallbiznis/crm/internal/observability/metrics"
	"github.com/smallbiznis/crm/internal/order/domain"
	productdomain "github.com/smallbiznis/crm/internal/product/domain"
	"github.com/smallbiznis/crm/internal/validator"
	"github.com/smallbiznis/crm/pkg/db"
	"github.com/smallbiznis/crm/pkg/db/option"
	"github.com/smallbiznis/crm/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         domain.Repository
	CustomerRepo customerdomain.Repository
	ProductRepo  productdomain.Repository
	Clock        clock.Clock         `optional:"true"`
	Metrics      *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	customerRepo customerdomain.Repository
	productRepo  productdomain.Repository
	clock        clock.Clock
	metrics      *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("order.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		productRepo:  p.ProductRepo,
		clock:        clk,
		metrics:      p.Metrics,
	}
}

var sortableColumns = map[string]bool{
	"order_date":   true,
	"total_amount": true,
	"created_at":   true,
}

// Create places an order for an existing customer with one item of quantity
// one per product. Nothing is written unless every step succeeds.
func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customerID, err := s.lookupCustomer(ctx, tx, req.CustomerID)
		if err != nil {
			return err
		}

		productIDs, err := parseProductIDs(req.ProductIDs)
		if err != nil {
			return err
		}

		products := make([]*productdomain.Product, 0, len(productIDs))
		for i, id := range productIDs {
			if id == 0 {
				return domain.ProductNotFound(strings.TrimSpace(req.ProductIDs[i]))
			}
			product, err := s.productRepo.FindByID(ctx, tx, id)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.ProductNotFound(id.String())
			}
			products = append(products, product)
		}

		now := s.clock.Now()
		orderDate := now
		if req.OrderDate != nil && !req.OrderDate.IsZero() {
			orderDate = req.OrderDate.UTC()
		}

		order = domain.Order{
			ID:          s.genID.Generate(),
			CustomerID:  customerID,
			TotalAmount: decimal.Zero,
			OrderDate:   orderDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Insert(ctx, tx, &order); err != nil {
			return err
		}

		items := make([]domain.OrderItem, 0, len(products))
		total := decimal.Zero
		for _, product := range products {
			quantity := 1
			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
			items = append(items, domain.OrderItem{
				ID:         s.genID.Generate(),
				OrderID:    order.ID,
				ProductID:  product.ID,
				Quantity:   quantity,
				UnitPrice:  product.Price,
				TotalPrice: lineTotal,
				CreatedAt:  now,
			})
			total = total.Add(lineTotal)
		}
		if total.GreaterThan(validator.MaxAmount) {
			return domain.ErrTotalTooLarge
		}
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			// product removed between lookup and insert
			if db.IsForeignKeyErr(err) {
				return domain.ProductNotFound(missingProduct(err, items))
			}
			return err
		}

		if err := s.repo.UpdateTotal(ctx, tx, order.ID, total, now); err != nil {
			return err
		}
		order.TotalAmount = total
		order.Items = items
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.metrics.RecordOrderCreated(ctx, len(order.Items))
	s.log.Info("order.created",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", order.CustomerID.String()),
		zap.Int("item_count", len(order.Items)),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
	)
	return order, nil
}

func (s *Service) lookupCustomer(ctx context.Context, tx *gorm.DB, raw string) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, domain.CustomerNotFound(raw)
	}
	customer, err := s.customerRepo.FindByID(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	if customer == nil {
		return 0, domain.CustomerNotFound(raw)
	}
	return customer.ID, nil
}

// parseProductIDs rejects an empty list and any id given twice, however it
// is spelled. Unparseable ids come back as zero so the caller can report them
// in request order.
func parseProductIDs(raw []string) ([]snowflake.ID, error) {
	if len(raw) == 0 {
		return nil, domain.ErrEmptyProducts
	}
	ids := make([]snowflake.ID, 0, len(raw))
	seen := make(map[snowflake.ID]struct{}, len(raw))
	for _, value := range raw {
		id, err := snowflake.ParseString(strings.TrimSpace(value))
		if err != nil || id == 0 {
			ids = append(ids, 0)
			continue
		}
		if _, ok := seen[id]; ok {
			return nil, domain.ErrDuplicateProduct
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// missingProduct names the product behind a failed item insert. Errors
// wrapped in *domain.ItemError carry it; otherwise the first item is named.
func missingProduct(err error, items []domain.OrderItem) string {
	var itemErr *domain.ItemError
	if errors.As(err, &itemErr) {
		return itemErr.ProductID.String()
	}
	if len(items) > 0 {
		return items[0].ProductID.String()
	}
	return ""
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Order, error) {
	orderID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || orderID == 0 {
		return domain.Order{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if item == nil {
		return domain.Order{}, domain.ErrNotFound
	}

	orders := []*domain.Order{item}
	if err := s.attachItems(ctx, orders); err != nil {
		return domain.Order{}, err
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListOrderRequest) (domain.ListOrderResponse, error) {
	filter := domain.ListOrderFilter{
		TotalMin:      req.TotalMin,
		TotalMax:      req.TotalMax,
		OrderDateFrom: req.OrderDateFrom,
		OrderDateTo:   req.OrderDateTo,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		ProductName:   req.ProductName,
		HighValue:     req.HighValue,
		Search:        req.Search,
	}
	if raw := strings.TrimSpace(req.ProductID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return domain.ListOrderResponse{}, domain.ErrInvalidID
		}
		filter.ProductID = id.Int64()
	}
	if req.Recent {
		since := s.clock.Now().Add(-domain.RecentWindow)
		if filter.OrderDateFrom == nil || filter.OrderDateFrom.Before(since) {
			filter.OrderDateFrom = &since
		}
	}

	pageSize := pagination.NormalizePageSize(req.PageSize)
	page := pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	}

	sort := option.WithQuerySortBy(req.SortBy, req.OrderBy, sortableColumns)
	keyset := !sort.Valid()
	pageOpt := option.ApplyOffsetPagination(page)
	if keyset {
		sort = option.WithQuerySortBy("order_date", "desc", sortableColumns)
		pageOpt = option.ApplyKeysetPagination(page, "order_date")
	}

	items, err := s.repo.List(ctx, s.db, filter, pageOpt, option.WithSortBy(sort))
	if err != nil {
		return domain.ListOrderResponse{}, err
	}

	offset := pagination.OffsetFromToken(req.PageToken)
	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(order *domain.Order) string {
		if !keyset {
			return pagination.OffsetToken(offset, int(pageSize))
		}
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        order.ID.String(),
			CreatedAt: order.OrderDate.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	if err := s.attachItems(ctx, items); err != nil {
		return domain.ListOrderResponse{}, err
	}

	resp := domain.ListOrderResponse{
		PageInfo: *pageInfo,
		Orders:   make([]domain.Order, 0, len(items)),
	}
	for _, item := range items {
		resp.Orders = append(resp.Orders, *item)
	}
	return resp, nil
}

func (s *Service) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]snowflake.ID, 0, len(orders))
	byID := make(map[snowflake.ID]*domain.Order, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
		byID[order.ID] = order
		order.Items = []domain.OrderItem{}
	}

	items, err := s.repo.FindItems(ctx, s.db, ids)
	if err != nil {
		return err
	}
	for _, item := range items {
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return nil
}
