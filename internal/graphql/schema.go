package graphql

import (
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"
	customerdomain "github.com/smallbiznis/crm/internal/customer/domain"
	orderdomain "github.com/smallbiznis/crm/internal/order/domain"
	productdomain "github.com/smallbiznis/crm/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultRestockAmount = 10

type Params struct {
	fx.In

	Log         *zap.Logger
	CustomerSvc customerdomain.Service
	ProductSvc  productdomain.Service
	OrderSvc    orderdomain.Service
}

type schemaBuilder struct {
	log         *zap.Logger
	customerSvc customerdomain.Service
	productSvc  productdomain.Service
	orderSvc    orderdomain.Service
}

// NewSchema builds the query and mutation roots over the domain services.
func NewSchema(p Params) (graphql.Schema, error) {
	s := &schemaBuilder{
		log:         p.Log.Named("graphql"),
		customerSvc: p.CustomerSvc,
		productSvc:  p.ProductSvc,
		orderSvc:    p.OrderSvc,
	}
	t := s.buildTypes()

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"hello": &graphql.Field{
				Type: graphql.String,
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return "Hello, GraphQL!", nil
				},
			},
			"customer": &graphql.Field{
				Type:    t.customer,
				Args:    idArgs(),
				Resolve: s.resolveCustomer,
			},
			"allCustomers": &graphql.Field{
				Type:    graphql.NewNonNull(t.customerConnection),
				Args:    listArgs(customerFilterInput),
				Resolve: s.resolveAllCustomers,
			},
			"product": &graphql.Field{
				Type:    t.product,
				Args:    idArgs(),
				Resolve: s.resolveProduct,
			},
			"allProducts": &graphql.Field{
				Type:    graphql.NewNonNull(t.productConnection),
				Args:    listArgs(productFilterInput),
				Resolve: s.resolveAllProducts,
			},
			"order": &graphql.Field{
				Type:    t.order,
				Args:    idArgs(),
				Resolve: s.resolveOrder,
			},
			"allOrders": &graphql.Field{
				Type:    graphql.NewNonNull(t.orderConnection),
				Args:    listArgs(orderFilterInput),
				Resolve: s.resolveAllOrders,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createCustomer": &graphql.Field{
				Type: t.createCustomer,
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(customerInput)},
				},
				Resolve: s.createCustomer,
			},
			"bulkCreateCustomers": &graphql.Field{
				Type: t.bulkCreate,
				Args: graphql.FieldConfigArgument{
					"inputs": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(customerInput)))},
				},
				Resolve: s.bulkCreateCustomers,
			},
			"createProduct": &graphql.Field{
				Type: t.createProduct,
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(productInput)},
				},
				Resolve: s.createProduct,
			},
			"createOrder": &graphql.Field{
				Type: t.createOrder,
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(orderInput)},
				},
				Resolve: s.createOrder,
			},
			"updateLowStockProducts": &graphql.Field{
				Type: t.restock,
				Args: graphql.FieldConfigArgument{
					"threshold": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: productdomain.LowStockThreshold},
					"increment": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultRestockAmount},
				},
				Resolve: s.updateLowStockProducts,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

func idArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
	}
}

func listArgs(filter *graphql.InputObject) graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"filter":  &graphql.ArgumentConfig{Type: filter},
		"first":   &graphql.ArgumentConfig{Type: graphql.Int},
		"after":   &graphql.ArgumentConfig{Type: graphql.String},
		"orderBy": &graphql.ArgumentConfig{Type: graphql.String},
	}
}

// isMissing reports lookups that resolve to null rather than an error.
func isMissing(err error, notFound, invalidID error) bool {
	return errors.Is(err, notFound) || errors.Is(err, invalidID)
}

func (s *schemaBuilder) resolveCustomer(p graphql.ResolveParams) (interface{}, error) {
	id := argString(p.Args, "id")
	customer, err := s.customerSvc.GetByID(p.Context, customerdomain.GetCustomerRequest{ID: id})
	if err != nil {
		if isMissing(err, customerdomain.ErrNotFound, customerdomain.ErrInvalidID) {
			return nil, notFound("Customer", id)
		}
		return nil, toError(s.log, err, "customer")
	}
	return customerNode(customer), nil
}

func (s *schemaBuilder) resolveAllCustomers(p graphql.ResolveParams) (interface{}, error) {
	filter := argMap(p.Args, "filter")
	size, token := pageArgs(p.Args)
	sortBy, orderBy := sortArgs(p.Args)

	resp, err := s.customerSvc.List(p.Context, customerdomain.ListCustomerRequest{
		PageToken:   token,
		PageSize:    size,
		Name:        argString(filter, "nameIcontains"),
		Email:       argString(filter, "emailIcontains"),
		Phone:       argString(filter, "phoneIcontains"),
		PhonePrefix: argString(filter, "phonePattern"),
		Search:      argString(filter, "search"),
		CreatedFrom: argTimePtr(filter, "createdAtGte"),
		CreatedTo:   argTimePtr(filter, "createdAtLte"),
		SortBy:      sortBy,
		OrderBy:     orderBy,
	})
	if err != nil {
		return nil, toError(s.log, err, "allCustomers")
	}

	nodes := make([]interface{}, 0, len(resp.Customers))
	for _, c := range resp.Customers {
		nodes = append(nodes, customerNode(c))
	}
	return connection(nodes, resp.PageInfo), nil
}

func (s *schemaBuilder) resolveProduct(p graphql.ResolveParams) (interface{}, error) {
	id := argString(p.Args, "id")
	product, err := s.productSvc.Get(p.Context, id)
	if err != nil {
		if isMissing(err, productdomain.ErrNotFound, productdomain.ErrInvalidID) {
			return nil, notFound("Product", id)
		}
		return nil, toError(s.log, err, "product")
	}
	return productNode(*product), nil
}

func (s *schemaBuilder) resolveAllProducts(p graphql.ResolveParams) (interface{}, error) {
	filter := argMap(p.Args, "filter")
	size, token := pageArgs(p.Args)
	sortBy, orderBy := sortArgs(p.Args)

	resp, err := s.productSvc.List(p.Context, productdomain.ListRequest{
		PageToken:     token,
		PageSize:      size,
		Name:          argString(filter, "nameIcontains"),
		PriceMin:      argDecimalPtr(filter, "priceGte"),
		PriceMax:      argDecimalPtr(filter, "priceLte"),
		StockMin:      argIntPtr(filter, "stockGte"),
		StockMax:      argIntPtr(filter, "stockLte"),
		LowStock:      argBool(filter, "lowStock"),
		OutOfStock:    argBool(filter, "outOfStock"),
		PriceCategory: argString(filter, "priceCategory"),
		Search:        argString(filter, "search"),
		SortBy:        sortBy,
		OrderBy:       orderBy,
	})
	if err != nil {
		return nil, toError(s.log, err, "allProducts")
	}

	nodes := make([]interface{}, 0, len(resp.Products))
	for _, item := range resp.Products {
		nodes = append(nodes, productNode(item))
	}
	return connection(nodes, resp.PageInfo), nil
}

func (s *schemaBuilder) resolveOrder(p graphql.ResolveParams) (interface{}, error) {
	id := argString(p.Args, "id")
	order, err := s.orderSvc.GetByID(p.Context, id)
	if err != nil {
		if isMissing(err, orderdomain.ErrNotFound, orderdomain.ErrInvalidID) {
			return nil, notFound("Order", id)
		}
		return nil, toError(s.log, err, "order")
	}
	return orderNode(order), nil
}

func (s *schemaBuilder) resolveAllOrders(p graphql.ResolveParams) (interface{}, error) {
	filter := argMap(p.Args, "filter")
	size, token := pageArgs(p.Args)
	sortBy, orderBy := sortArgs(p.Args)

	resp, err := s.orderSvc.List(p.Context, orderdomain.ListOrderRequest{
		PageToken:     token,
		PageSize:      size,
		TotalMin:      argDecimalPtr(filter, "totalAmountGte"),
		TotalMax:      argDecimalPtr(filter, "totalAmountLte"),
		OrderDateFrom: argTimePtr(filter, "orderDateGte"),
		OrderDateTo:   argTimePtr(filter, "orderDateLte"),
		CustomerName:  argString(filter, "customerNameIcontains"),
		CustomerEmail: argString(filter, "customerEmailIcontains"),
		ProductName:   argString(filter, "productNameIcontains"),
		ProductID:     argString(filter, "productId"),
		HighValue:     argBool(filter, "highValue"),
		Recent:        argBool(filter, "recent"),
		Search:        argString(filter, "search"),
		SortBy:        sortBy,
		OrderBy:       orderBy,
	})
	if err != nil {
		return nil, toError(s.log, err, "allOrders")
	}

	nodes := make([]interface{}, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		nodes = append(nodes, orderNode(o))
	}
	return connection(nodes, resp.PageInfo), nil
}

func (s *schemaBuilder) resolveOrderCustomer(p graphql.ResolveParams) (interface{}, error) {
	source, _ := p.Source.(map[string]interface{})
	id, _ := source["customerId"].(string)
	customer, err := s.customerSvc.GetByID(p.Context, customerdomain.GetCustomerRequest{ID: id})
	if err != nil {
		if isMissing(err, customerdomain.ErrNotFound, customerdomain.ErrInvalidID) {
			return nil, nil
		}
		return nil, toError(s.log, err, "order.customer")
	}
	return customerNode(customer), nil
}

func (s *schemaBuilder) resolveOrderProducts(p graphql.ResolveParams) (interface{}, error) {
	source, _ := p.Source.(map[string]interface{})
	ids, _ := source["productIds"].([]string)
	products := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		product, err := s.productSvc.Get(p.Context, id)
		if err != nil {
			if isMissing(err, productdomain.ErrNotFound, productdomain.ErrInvalidID) {
				continue
			}
			return nil, toError(s.log, err, "order.products")
		}
		products = append(products, productNode(*product))
	}
	return products, nil
}

func (s *schemaBuilder) resolveItemProduct(p graphql.ResolveParams) (interface{}, error) {
	source, _ := p.Source.(map[string]interface{})
	id, _ := source["productId"].(string)
	product, err := s.productSvc.Get(p.Context, id)
	if err != nil {
		if isMissing(err, productdomain.ErrNotFound, productdomain.ErrInvalidID) {
			return nil, nil
		}
		return nil, toError(s.log, err, "orderItem.product")
	}
	return productNode(*product), nil
}

func customerRequest(input map[string]interface{}) customerdomain.CreateCustomerRequest {
	return customerdomain.CreateCustomerRequest{
		Name:  argString(input, "name"),
		Email: argString(input, "email"),
		Phone: argStringPtr(input, "phone"),
	}
}

func (s *schemaBuilder) createCustomer(p graphql.ResolveParams) (interface{}, error) {
	customer, err := s.customerSvc.Create(p.Context, customerRequest(argMap(p.Args, "input")))
	if err != nil {
		return nil, toError(s.log, err, "createCustomer")
	}
	return map[string]interface{}{
		"customer": customerNode(customer),
		"message":  "Customer created successfully",
	}, nil
}

func (s *schemaBuilder) bulkCreateCustomers(p graphql.ResolveParams) (interface{}, error) {
	raw, _ := p.Args["inputs"].([]interface{})
	reqs := make([]customerdomain.CreateCustomerRequest, 0, len(raw))
	for _, item := range raw {
		input, _ := item.(map[string]interface{})
		reqs = append(reqs, customerRequest(input))
	}

	result, err := s.customerSvc.BulkCreate(p.Context, reqs)
	if err != nil {
		return nil, toError(s.log, err, "bulkCreateCustomers")
	}

	customers := make([]interface{}, 0, len(result.Customers))
	for _, c := range result.Customers {
		customers = append(customers, customerNode(c))
	}
	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	return map[string]interface{}{
		"customers":    customers,
		"errors":       errs,
		"successCount": result.SuccessCount(),
		"errorCount":   result.ErrorCount(),
	}, nil
}

func (s *schemaBuilder) createProduct(p graphql.ResolveParams) (interface{}, error) {
	input := argMap(p.Args, "input")
	product, err := s.productSvc.Create(p.Context, productdomain.CreateRequest{
		Name:  argString(input, "name"),
		Price: argDecimal(input, "price"),
		Stock: argIntPtr(input, "stock"),
	})
	if err != nil {
		return nil, toError(s.log, err, "createProduct")
	}
	return map[string]interface{}{"product": productNode(*product)}, nil
}

func (s *schemaBuilder) createOrder(p graphql.ResolveParams) (interface{}, error) {
	input := argMap(p.Args, "input")
	order, err := s.orderSvc.Create(p.Context, orderdomain.CreateOrderRequest{
		CustomerID: argString(input, "customerId"),
		ProductIDs: argStrings(input, "productIds"),
		OrderDate:  argTimePtr(input, "orderDate"),
	})
	if err != nil {
		return nil, toError(s.log, err, "createOrder")
	}
	return map[string]interface{}{"order": orderNode(order)}, nil
}

func (s *schemaBuilder) updateLowStockProducts(p graphql.ResolveParams) (interface{}, error) {
	threshold, ok := argInt(p.Args, "threshold")
	if !ok {
		threshold = productdomain.LowStockThreshold
	}
	increment, ok := argInt(p.Args, "increment")
	if !ok {
		increment = defaultRestockAmount
	}

	updated, err := s.productSvc.RestockLowStock(p.Context, threshold, increment)
	if err != nil {
		return nil, toError(s.log, err, "updateLowStockProducts")
	}

	products := make([]interface{}, 0, len(updated))
	for _, item := range updated {
		products = append(products, productNode(item))
	}
	return map[string]interface{}{
		"updatedProducts": products,
		"message":         fmt.Sprintf("Restocked %d products", len(updated)),
	}, nil
}
