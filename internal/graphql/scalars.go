package graphql

import (
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/shopspring/decimal"
)

// Decimal carries money as a fixed two-place string on output and accepts
// strings or numbers on input.
var Decimal = graphql.NewScalar(graphql.ScalarConfig{
	Name:         "Decimal",
	Description:  "Fixed-point decimal, serialized as a string with two places.",
	Serialize:    serializeDecimal,
	ParseValue:   parseDecimal,
	ParseLiteral: parseDecimalLiteral,
})

func serializeDecimal(value interface{}) interface{} {
	switch v := value.(type) {
	case decimal.Decimal:
		return v.StringFixed(2)
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		return v.StringFixed(2)
	case string:
		return v
	}
	return nil
}

func parseDecimal(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return d
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case decimal.Decimal:
		return v
	}
	return nil
}

func parseDecimalLiteral(valueAST ast.Value) interface{} {
	switch v := valueAST.(type) {
	case *ast.StringValue:
		return parseDecimal(v.Value)
	case *ast.FloatValue:
		return parseDecimal(v.Value)
	case *ast.IntValue:
		return parseDecimal(v.Value)
	}
	return nil
}
