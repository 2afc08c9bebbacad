package graphql

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/crm/internal/customer/domain"
	orderdomain "github.com/smallbiznis/crm/internal/order/domain"
	productdomain "github.com/smallbiznis/crm/internal/product/domain"
	"github.com/smallbiznis/crm/pkg/db/pagination"
)

func customerNode(c customerdomain.Customer) map[string]interface{} {
	var phone interface{}
	if c.Phone != nil {
		phone = *c.Phone
	}
	return map[string]interface{}{
		"id":        c.ID.String(),
		"name":      c.Name,
		"email":     c.Email,
		"phone":     phone,
		"createdAt": c.CreatedAt,
		"updatedAt": c.UpdatedAt,
	}
}

func productNode(p productdomain.Response) map[string]interface{} {
	return map[string]interface{}{
		"id":        p.ID,
		"name":      p.Name,
		"price":     p.Price,
		"stock":     p.Stock,
		"createdAt": p.CreatedAt,
		"updatedAt": p.UpdatedAt,
	}
}

func orderNode(o orderdomain.Order) map[string]interface{} {
	items := make([]interface{}, 0, len(o.Items))
	productIDs := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, map[string]interface{}{
			"id":         item.ID.String(),
			"productId":  item.ProductID.String(),
			"quantity":   item.Quantity,
			"unitPrice":  item.UnitPrice,
			"totalPrice": item.TotalPrice,
		})
		productIDs = append(productIDs, item.ProductID.String())
	}
	return map[string]interface{}{
		"id":          o.ID.String(),
		"customerId":  o.CustomerID.String(),
		"totalAmount": o.TotalAmount,
		"orderDate":   o.OrderDate,
		"createdAt":   o.CreatedAt,
		"updatedAt":   o.UpdatedAt,
		"items":       items,
		"productIds":  productIDs,
	}
}

func connection(nodes []interface{}, info pagination.PageInfo) map[string]interface{} {
	edges := make([]interface{}, 0, len(nodes))
	for _, node := range nodes {
		edges = append(edges, map[string]interface{}{"node": node})
	}
	var endCursor interface{}
	if info.NextPageToken != "" {
		endCursor = info.NextPageToken
	}
	return map[string]interface{}{
		"edges": edges,
		"pageInfo": map[string]interface{}{
			"hasNextPage": info.HasMore,
			"endCursor":   endCursor,
		},
	}
}

func argMap(args map[string]interface{}, key string) map[string]interface{} {
	if m, ok := args[key].(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func argString(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func argStringPtr(args map[string]interface{}, key string) *string {
	v, ok := args[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func argBool(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func argInt(args map[string]interface{}, key string) (int, bool) {
	v, ok := args[key].(int)
	return v, ok
}

func argIntPtr(args map[string]interface{}, key string) *int {
	v, ok := args[key].(int)
	if !ok {
		return nil
	}
	return &v
}

func argDecimal(args map[string]interface{}, key string) decimal.Decimal {
	if v, ok := args[key].(decimal.Decimal); ok {
		return v
	}
	return decimal.Zero
}

func argDecimalPtr(args map[string]interface{}, key string) *decimal.Decimal {
	v, ok := args[key].(decimal.Decimal)
	if !ok {
		return nil
	}
	return &v
}

func argTimePtr(args map[string]interface{}, key string) *time.Time {
	switch v := args[key].(type) {
	case time.Time:
		return &v
	case *time.Time:
		return v
	}
	return nil
}

func argStrings(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// pageArgs reads the first/after connection arguments.
func pageArgs(args map[string]interface{}) (int32, string) {
	size := int32(0)
	if first, ok := argInt(args, "first"); ok {
		size = int32(first)
	}
	return size, argString(args, "after")
}

// sortArgs splits "-createdAt" into ("created_at", "desc").
func sortArgs(args map[string]interface{}) (string, string) {
	raw := argString(args, "orderBy")
	if raw == "" {
		return "", ""
	}
	direction := "asc"
	if strings.HasPrefix(raw, "-") {
		direction = "desc"
		raw = strings.TrimPrefix(raw, "-")
	}
	return toSnake(raw), direction
}

func toSnake(value string) string {
	var b strings.Builder
	for i, r := range value {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
