package entity_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
)

func TestMovementType_Tablas(t *testing.T) {
	expected := map[entity.MovementType]struct {
		dir         entity.Direction
		costBearing bool
	}{
		entity.MovementPurchase:          {entity.DirectionIn, true},
		entity.MovementSale:              {entity.DirectionOut, false},
		entity.MovementAdjustmentIn:      {entity.DirectionIn, false},
		entity.MovementAdjustmentOut:     {entity.DirectionOut, false},
		entity.MovementConsignmentIn:     {entity.DirectionIn, true},
		entity.MovementConsignmentReturn: {entity.DirectionOut, false},
		entity.MovementTransferOut:       {entity.DirectionOut, false},
		entity.MovementTransferIn:        {entity.DirectionIn, true},
	}

	all := entity.MovementTypes()
	require.Len(t, all, len(expected), "cada tipo declarado debe tener fila en las tablas")
	for _, mt := range all {
		want, ok := expected[mt]
		require.True(t, ok, "tipo sin expectativa: %s", mt)
		assert.Equal(t, want.dir, mt.Direction(), mt.String())
		assert.Equal(t, want.costBearing, mt.IsCostBearing(), mt.String())

		parsed, err := entity.ParseMovementType(mt.String())
		require.NoError(t, err)
		assert.Equal(t, mt, parsed)
	}
}

func TestMovementType_Invalido(t *testing.T) {
	var zero entity.MovementType
	assert.False(t, zero.Valid())
	assert.Equal(t, entity.Direction(0), zero.Direction())
	assert.False(t, zero.IsCostBearing())

	_, err := entity.ParseMovementType("venta")
	assert.Error(t, err)
}

func TestMovementType_JSON(t *testing.T) {
	var payload struct {
		Type entity.MovementType `json:"type"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"type":"TRANSFER_OUT"}`), &payload))
	assert.Equal(t, entity.MovementTransferOut, payload.Type)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"TRANSFER_OUT"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"type":"OTRO"}`), &payload))
}

func TestMovement_HasCostData(t *testing.T) {
	one := decimal.NewFromInt(1)
	full := entity.Movement{
		Type:          entity.MovementPurchase,
		PriorQuantity: &one,
		UnitCost:      &one,
		TotalCost:     &one,
		PriorCost:     &one,
		NewCost:       &one,
	}
	assert.True(t, full.HasCostData())

	legacy := full
	legacy.PriorCost = nil
	assert.False(t, legacy.HasCostData(), "movimiento previo a la instrumentación")

	sale := full
	sale.Type = entity.MovementSale
	assert.False(t, sale.HasCostData())
}

func TestProduct_Validate(t *testing.T) {
	parent := "p-1"
	self := "p-2"

	ok := entity.Product{ID: "p-2", Name: "Unidad", FractionOfID: &parent, UnitsPerFraction: 12}
	assert.NoError(t, ok.Validate())

	selfRef := entity.Product{ID: "p-2", Name: "Unidad", FractionOfID: &self, UnitsPerFraction: 12}
	assert.Error(t, selfRef.Validate())

	noFactor := entity.Product{ID: "p-2", Name: "Unidad", FractionOfID: &parent}
	assert.Error(t, noFactor.Validate())

	plain := entity.Product{ID: "p-3", Name: "Caja"}
	assert.NoError(t, plain.Validate())
	assert.False(t, plain.IsFraction())
}
