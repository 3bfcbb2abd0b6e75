package inventory_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWeightedAverage_EscenarioDeReferencia(t *testing.T) {
	res, err := inventory.WeightedAverage(d("24"), d("130"), d("24"), d("150"))
	require.NoError(t, err)

	assert.True(t, res.NewCost.Equal(d("140")), "got %s", res.NewCost)
	assert.True(t, res.NewQty.Equal(d("48")))
	assert.True(t, res.PriorValue.Equal(d("3120")))
	assert.True(t, res.IncomingTotal.Equal(d("3600")))
	assert.True(t, res.NewValue.Equal(d("6720")))
}

func TestWeightedAverage_PrimeraCompraAdoptaCostoEntrante(t *testing.T) {
	for _, cost := range []string{"0.3333333333333333333", "150", "7.77", "0.01"} {
		res, err := inventory.WeightedAverage(decimal.Zero, d("999"), d("3"), d(cost))
		require.NoError(t, err)
		assert.True(t, res.NewCost.Equal(d(cost)), "costo %s => %s", cost, res.NewCost)
	}
}

func TestWeightedAverage_ConservaValor(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tolerance := d("0.000001")

	for i := 0; i < 500; i++ {
		priorQty := decimal.NewFromInt(rng.Int63n(10_000))
		priorCost := decimal.NewFromFloat(rng.Float64() * 1000).Round(4)
		inQty := decimal.NewFromInt(rng.Int63n(10_000) + 1)
		inCost := decimal.NewFromFloat(rng.Float64()*1000 + 0.01).Round(4)

		res, err := inventory.WeightedAverage(priorQty, priorCost, inQty, inCost)
		require.NoError(t, err)

		expectedValue := priorQty.Mul(priorCost).Add(inQty.Mul(inCost))
		assert.True(t, res.NewQty.Equal(priorQty.Add(inQty)))
		diff := res.NewCost.Mul(res.NewQty).Sub(expectedValue).Abs()
		assert.True(t, diff.LessThanOrEqual(tolerance),
			"prior=%s@%s in=%s@%s: diff %s", priorQty, priorCost, inQty, inCost, diff)
	}
}

func TestWeightedAverage_Precondiciones(t *testing.T) {
	cases := []struct {
		name                           string
		priorQty, priorCost, qty, cost string
		wantMessage                    string
	}{
		{"cantidad cero", "1", "1", "0", "1", "la cantidad entrante debe ser mayor que cero"},
		{"cantidad negativa", "1", "1", "-2", "1", "la cantidad entrante debe ser mayor que cero"},
		{"costo cero", "1", "1", "1", "0", "el costo unitario entrante debe ser mayor que cero"},
		{"existencia negativa", "-1", "1", "1", "1", "la existencia anterior no puede ser negativa"},
		{"costo anterior negativo", "1", "-1", "1", "1", "el costo anterior no puede ser negativo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := inventory.WeightedAverage(d(tc.priorQty), d(tc.priorCost), d(tc.qty), d(tc.cost))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrPrecondition)
			assert.Contains(t, err.Error(), tc.wantMessage)
		})
	}
}

func TestFractionCost(t *testing.T) {
	assert.True(t, inventory.FractionCost(d("120"), 12).Equal(d("10")))
	assert.True(t, inventory.FractionCost(d("120"), 0).IsZero())
}
