package validator_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/validator"
)

type sample struct {
	Name        string          `json:"productName" validate:"required,usable_name"`
	Supplier    string          `json:"supplierName" validate:"required_if=Consignment true"`
	Amount      decimal.Decimal `json:"cost" validate:"gte=0"`
	Consignment bool            `json:"isConsignment"`
}

func TestValidateStruct_Valido(t *testing.T) {
	errs := validator.ValidateStruct(sample{Name: "Café 500g", Amount: decimal.NewFromInt(3)})
	assert.Empty(t, errs)
}

func TestValidateStruct_Reglas(t *testing.T) {
	errs := validator.ValidateStruct(sample{
		Name:        "---",
		Amount:      decimal.NewFromInt(-1),
		Consignment: true,
	})
	require.Len(t, errs, 3)

	byField := map[string]string{}
	for _, e := range errs {
		byField[e.Field] = e.Tag
	}
	assert.Equal(t, "usable_name", byField["productName"])
	assert.Equal(t, "required_if", byField["supplierName"])
	assert.Equal(t, "gte", byField["cost"])

	msgs := validator.Messages(errs)
	assert.Contains(t, msgs, "cost: debe ser mayor o igual que 0")
}

func TestValidateStruct_Requerido(t *testing.T) {
	errs := validator.ValidateStruct(sample{})
	require.Len(t, errs, 1)
	assert.Equal(t, "productName: requerido", errs[0].Message())
}
