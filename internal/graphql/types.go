package graphql

import (
	"github.com/graphql-go/graphql"
)

type objectTypes struct {
	customer           *graphql.Object
	product            *graphql.Object
	orderItem          *graphql.Object
	order              *graphql.Object
	customerConnection *graphql.Object
	productConnection  *graphql.Object
	orderConnection    *graphql.Object
	createCustomer     *graphql.Object
	bulkCreate         *graphql.Object
	createProduct      *graphql.Object
	createOrder        *graphql.Object
	restock            *graphql.Object
}

var pageInfoType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PageInfo",
	Fields: graphql.Fields{
		"hasNextPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"endCursor":   &graphql.Field{Type: graphql.String},
	},
})

var customerInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CustomerInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"email": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"phone": &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

var productInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "ProductInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"price": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(Decimal)},
		"stock": &graphql.InputObjectFieldConfig{Type: graphql.Int},
	},
})

var orderInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "OrderInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"customerId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
		"productIds": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.ID)))},
		"orderDate":  &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
	},
})

var customerFilterInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CustomerFilterInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"nameIcontains":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		"emailIcontains": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"phoneIcontains": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"phonePattern":   &graphql.InputObjectFieldConfig{Type: graphql.String},
		"search":         &graphql.InputObjectFieldConfig{Type: graphql.String},
		"createdAtGte":   &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
		"createdAtLte":   &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
	},
})

var productFilterInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "ProductFilterInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"nameIcontains": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"priceGte":      &graphql.InputObjectFieldConfig{Type: Decimal},
		"priceLte":      &graphql.InputObjectFieldConfig{Type: Decimal},
		"stockGte":      &graphql.InputObjectFieldConfig{Type: graphql.Int},
		"stockLte":      &graphql.InputObjectFieldConfig{Type: graphql.Int},
		"lowStock":      &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		"outOfStock":    &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		"priceCategory": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"search":        &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

var orderFilterInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "OrderFilterInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"totalAmountGte":         &graphql.InputObjectFieldConfig{Type: Decimal},
		"totalAmountLte":         &graphql.InputObjectFieldConfig{Type: Decimal},
		"orderDateGte":           &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
		"orderDateLte":           &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
		"customerNameIcontains":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		"customerEmailIcontains": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"productNameIcontains":   &graphql.InputObjectFieldConfig{Type: graphql.String},
		"productId":              &graphql.InputObjectFieldConfig{Type: graphql.ID},
		"highValue":              &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		"recent":                 &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		"search":                 &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

func connectionType(name string, node *graphql.Object) *graphql.Object {
	edge := graphql.NewObject(graphql.ObjectConfig{
		Name: name + "Edge",
		Fields: graphql.Fields{
			"node":   &graphql.Field{Type: node},
			"cursor": &graphql.Field{Type: graphql.String},
		},
	})
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name + "Connection",
		Fields: graphql.Fields{
			"edges":    &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(edge))},
			"pageInfo": &graphql.Field{Type: graphql.NewNonNull(pageInfoType)},
		},
	})
}

func (s *schemaBuilder) buildTypes() objectTypes {
	var t objectTypes

	t.customer = graphql.NewObject(graphql.ObjectConfig{
		Name: "Customer",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"phone":     &graphql.Field{Type: graphql.String},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
			"updatedAt": &graphql.Field{Type: graphql.DateTime},
		},
	})

	t.product = graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"price":     &graphql.Field{Type: graphql.NewNonNull(Decimal)},
			"stock":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
			"updatedAt": &graphql.Field{Type: graphql.DateTime},
		},
	})

	t.orderItem = graphql.NewObject(graphql.ObjectConfig{
		Name: "OrderItem",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"quantity":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"unitPrice":  &graphql.Field{Type: graphql.NewNonNull(Decimal)},
			"totalPrice": &graphql.Field{Type: graphql.NewNonNull(Decimal)},
			"product": &graphql.Field{
				Type:    t.product,
				Resolve: s.resolveItemProduct,
			},
		},
	})

	t.order = graphql.NewObject(graphql.ObjectConfig{
		Name: "Order",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"totalAmount": &graphql.Field{Type: graphql.NewNonNull(Decimal)},
			"orderDate":   &graphql.Field{Type: graphql.DateTime},
			"createdAt":   &graphql.Field{Type: graphql.DateTime},
			"updatedAt":   &graphql.Field{Type: graphql.DateTime},
			"items":       &graphql.Field{Type: graphql.NewList(t.orderItem)},
			"customer": &graphql.Field{
				Type:    t.customer,
				Resolve: s.resolveOrderCustomer,
			},
			"products": &graphql.Field{
				Type:    graphql.NewList(t.product),
				Resolve: s.resolveOrderProducts,
			},
		},
	})

	t.customerConnection = connectionType("Customer", t.customer)
	t.productConnection = connectionType("Product", t.product)
	t.orderConnection = connectionType("Order", t.order)

	t.createCustomer = graphql.NewObject(graphql.ObjectConfig{
		Name: "CreateCustomerPayload",
		Fields: graphql.Fields{
			"customer": &graphql.Field{Type: t.customer},
			"message":  &graphql.Field{Type: graphql.String},
		},
	})
	t.bulkCreate = graphql.NewObject(graphql.ObjectConfig{
		Name: "BulkCreateCustomersPayload",
		Fields: graphql.Fields{
			"customers":    &graphql.Field{Type: graphql.NewList(t.customer)},
			"errors":       &graphql.Field{Type: graphql.NewList(graphql.String)},
			"successCount": &graphql.Field{Type: graphql.Int},
			"errorCount":   &graphql.Field{Type: graphql.Int},
		},
	})
	t.createProduct = graphql.NewObject(graphql.ObjectConfig{
		Name: "CreateProductPayload",
		Fields: graphql.Fields{
			"product": &graphql.Field{Type: t.product},
		},
	})
	t.createOrder = graphql.NewObject(graphql.ObjectConfig{
		Name: "CreateOrderPayload",
		Fields: graphql.Fields{
			"order": &graphql.Field{Type: t.order},
		},
	})
	t.restock = graphql.NewObject(graphql.ObjectConfig{
		Name: "UpdateLowStockProductsPayload",
		Fields: graphql.Fields{
			"updatedProducts": &graphql.Field{Type: graphql.NewList(t.product)},
			"message":         &graphql.Field{Type: graphql.String},
		},
	})

	return t
}
