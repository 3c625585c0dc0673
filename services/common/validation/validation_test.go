package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hanktran/aws-microservices/services/common/errors"
)

type line struct {
	Price *float64 `json:"price" validate:"required"`
	Qty   int      `json:"quantity" validate:"gte=0"`
}

type order struct {
	UserName string `json:"userName" validate:"required"`
	Items    []line `json:"items" validate:"dive"`
}

func TestStruct_Valid(t *testing.T) {
	p := 1.0
	assert.NoError(t, New().Struct(order{UserName: "swn", Items: []line{{Price: &p}}}))
}

func TestStruct_ReportsJSONFieldPaths(t *testing.T) {
	p := 1.0
	err := New().Struct(&order{Items: []line{{Price: &p}, {Qty: -1}}})
	require.Error(t, err)

	appErr := apperrors.As(err)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, appErr.Message, "userName is required")
	assert.Contains(t, appErr.Message, "items[1].price is required")
	assert.Contains(t, appErr.Message, "items[1].quantity must be gte 0")
}

func TestRequired(t *testing.T) {
	v := New()
	assert.NoError(t, v.Required("userName", "swn"))
	err := v.Required("userName", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "userName is required")
}
