package adapter

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/relgrid-labs/relgrid/pkg/core"
)

// filtersToSqlizer conjoins the filter conditions into one WHERE predicate.
// Callers validate column names against live metadata first; only quoted,
// validated identifiers reach the generated SQL.
func filtersToSqlizer(filters []core.FilterCondition, d Dialect) (squirrel.Sqlizer, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	and := make(squirrel.And, 0, len(filters))
	for _, f := range filters {
		s, err := filterToSqlizer(f, d)
		if err != nil {
			return nil, err
		}
		and = append(and, s)
	}
	return and, nil
}

func filterToSqlizer(f core.FilterCondition, d Dialect) (squirrel.Sqlizer, error) {
	col := d.QuoteIdentifier(f.Column)
	switch f.Operator {
	case core.OpEq:
		return squirrel.Eq{col: valueArg(f.Value)}, nil
	case core.OpNeq:
		return squirrel.NotEq{col: valueArg(f.Value)}, nil
	case core.OpGt:
		return squirrel.Gt{col: valueArg(f.Value)}, nil
	case core.OpGte:
		return squirrel.GtOrEq{col: valueArg(f.Value)}, nil
	case core.OpLt:
		return squirrel.Lt{col: valueArg(f.Value)}, nil
	case core.OpLte:
		return squirrel.LtOrEq{col: valueArg(f.Value)}, nil
	case core.OpLike:
		return squirrel.Like{col: valueArg(f.Value)}, nil
	case core.OpILike:
		if d.SupportsILike {
			return squirrel.ILike{col: valueArg(f.Value)}, nil
		}
		return squirrel.Expr("LOWER("+col+") LIKE LOWER(?)", valueArg(f.Value)), nil
	case core.OpIn:
		vals := f.Values
		if len(vals) == 0 {
			vals = []core.Value{f.Value}
		}
		args := make([]any, len(vals))
		for i, v := range vals {
			args[i] = valueArg(v)
		}
		return squirrel.Eq{col: args}, nil
	case core.OpIsNull:
		return squirrel.Eq{col: nil}, nil
	case core.OpIsNotNull:
		return squirrel.NotEq{col: nil}, nil
	default:
		return nil, fmt.Errorf("unknown filter operator %q", f.Operator)
	}
}
