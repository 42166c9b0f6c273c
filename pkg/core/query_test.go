package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relgrid-labs/relgrid/pkg/core"
)

func TestFilterConditionValidate(t *testing.T) {
	columns := []string{"id", "name", "email"}

	tests := []struct {
		name    string
		cond    core.FilterCondition
		wantErr string
	}{
		{
			name: "valid equality",
			cond: core.FilterCondition{Column: "name", Operator: core.OpEq, Value: core.Text("bob")},
		},
		{
			name: "valid unary",
			cond: core.FilterCondition{Column: "email", Operator: core.OpIsNull},
		},
		{
			name:    "unknown operator",
			cond:    core.FilterCondition{Column: "name", Operator: "between"},
			wantErr: "unknown filter operator",
		},
		{
			name:    "unknown column",
			cond:    core.FilterCondition{Column: "age", Operator: core.OpGt, Value: core.Int(1)},
			wantErr: "unknown filter column",
		},
		{
			name:    "in without values",
			cond:    core.FilterCondition{Column: "id", Operator: core.OpIn},
			wantErr: "requires at least one value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate(columns)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestFilterOperatorUnary(t *testing.T) {
	assert.True(t, core.OpIsNull.Unary())
	assert.True(t, core.OpIsNotNull.Unary())
	assert.False(t, core.OpEq.Unary())
	assert.False(t, core.OpIn.Unary())
}

func TestValidPageSize(t *testing.T) {
	assert.True(t, core.ValidPageSize(50))
	assert.True(t, core.ValidPageSize(500))
	assert.False(t, core.ValidPageSize(37))
	assert.False(t, core.ValidPageSize(0))
}

func TestDefaultQueryOptions(t *testing.T) {
	opts := core.DefaultQueryOptions()
	assert.Equal(t, 1, opts.Page)
	assert.Equal(t, core.DefaultPageSize, opts.PageSize)
	assert.False(t, opts.Sorted())
	assert.Empty(t, opts.Filters)
}

func TestColumnConfigKey(t *testing.T) {
	key := core.ColumnConfigKey("conn-1", "public", "users")
	assert.Equal(t, "column_config_conn-1_public_users", key)
}
