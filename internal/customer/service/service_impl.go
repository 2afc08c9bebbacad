package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/crm/internal/clock"
	"github.com/smallbiznis/crm/internal/customer/domain"
	obsmetrics "github.com/smallbiznis/crm/internal/observability/metrics"
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
	genID   *snowflake.Node
	repo    domain.Repository
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
		log:     p.Log.Named("customer.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   clk,
		metrics: p.Metrics,
	}
}

var sortableColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"email":      true,
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	customer, err := s.create(ctx, req)
	if err != nil {
		return domain.Customer{}, err
	}

	s.metrics.RecordCustomerCreated(ctx, "single")
	s.log.Info("customer.created", zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

// BulkCreate inserts each row on its own. A failing row is reported in the
// result and does not affect rows before or after it.
func (s *Service) BulkCreate(ctx context.Context, reqs []domain.CreateCustomerRequest) (domain.BulkCreateResult, error) {
	result := domain.BulkCreateResult{
		Customers: make([]domain.Customer, 0, len(reqs)),
		Errors:    []string{},
	}

	for idx, req := range reqs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		customer, err := s.create(ctx, req)
		if err != nil {
			msg, known := validator.Describe(err)
			if !known {
				s.log.Error("bulk customer row failed",
					zap.Int("row", idx+1),
					zap.Error(err),
				)
				msg = "internal error"
			}
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", idx+1, msg))
			continue
		}
		result.Customers = append(result.Customers, customer)
		s.metrics.RecordCustomerCreated(ctx, "bulk")
	}

	s.metrics.RecordBulkCustomerRows(ctx, result.SuccessCount(), result.ErrorCount())
	s.log.Info("customer.bulk_created",
		zap.Int("rows", len(reqs)),
		zap.Int("success_count", result.SuccessCount()),
		zap.Int("error_count", result.ErrorCount()),
	)
	return result, nil
}

func (s *Service) create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if err := validator.ValidateName(name, validator.CustomerNameMaxLength); err != nil {
		return domain.Customer{}, err
	}

	email := validator.NormalizeEmail(req.Email)
	if err := validator.ValidateEmail(email); err != nil {
		return domain.Customer{}, err
	}

	var phone *string
	if req.Phone != nil {
		value := strings.TrimSpace(*req.Phone)
		if err := validator.ValidatePhone(value); err != nil {
			return domain.Customer{}, err
		}
		if value != "" {
			phone = &value
		}
	}

	if err := validator.ValidateUniqueEmail(ctx, s.emailLookup(s.db), email, 0); err != nil {
		return domain.Customer{}, err
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		// lost a race with a concurrent insert of the same address
		if db.IsDuplicateKeyErr(err) {
			return domain.Customer{}, &validator.DuplicateEmailError{Email: email}
		}
		return domain.Customer{}, err
	}

	return customer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	filter := domain.ListCustomerFilter{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		PhonePrefix: strings.TrimSpace(req.PhonePrefix),
		Search:      strings.ToLower(strings.TrimSpace(req.Search)),
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}

	pageSize := pagination.NormalizePageSize(req.PageSize)
	page := pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	}

	sort := option.WithQuerySortBy(req.SortBy, req.OrderBy, sortableColumns)
	keyset := !sort.Valid()

	pageOpt := option.ApplyPagination(page)
	if !keyset {
		pageOpt = option.ApplyOffsetPagination(page)
	}

	items, err := s.repo.List(ctx, s.db, filter, pageOpt, option.WithSortBy(sort))
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	offset := pagination.OffsetFromToken(req.PageToken)
	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(customer *domain.Customer) string {
		if !keyset {
			return pagination.OffsetToken(offset, int(pageSize))
		}
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        customer.ID.String(),
			CreatedAt: customer.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	resp := domain.ListCustomerResponse{Customers: customers}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func (s *Service) emailLookup(tx *gorm.DB) validator.EmailLookup {
	return &emailLookup{db: tx, repo: s.repo}
}

type emailLookup struct {
	db   *gorm.DB
	repo domain.Repository
}

func (l *emailLookup) FindIDByEmail(ctx context.Context, email string) (snowflake.ID, error) {
	customer, err := l.repo.FindByEmail(ctx, l.db, email)
	if err != nil {
		return 0, err
	}
	if customer == nil {
		return 0, nil
	}
	return customer.ID, nil
}

var _ validator.EmailLookup = (*emailLookup)(nil)

