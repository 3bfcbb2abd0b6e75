package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/inventory"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/infrastructure/memory"
)

func seed(t *testing.T, s *memory.Store) (entity.Location, entity.Product) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Businesses().Create(ctx, &entity.Business{ID: "b-1", Name: "Negocio"}))
	loc := entity.Location{ID: "l-1", BusinessID: "b-1", Name: "Centro"}
	require.NoError(t, s.Locations().Create(ctx, &loc))
	prod := entity.Product{ID: "p-1", BusinessID: "b-1", Name: "Arroz"}
	require.NoError(t, s.Products().Create(ctx, &prod))
	return loc, prod
}

func TestStore_RunConfirmaCambios(t *testing.T) {
	s := memory.NewStore()
	loc, prod := seed(t, s)
	ctx := context.Background()
	key := entity.StockKey{ProductID: prod.ID, LocationID: loc.ID}

	err := s.Run(ctx, func(repos inventory.TxRepos) error {
		item, created, err := repos.StockItems.GetOrCreateForUpdate(ctx, key)
		require.NoError(t, err)
		assert.True(t, created)
		item.Quantity = decimal.NewFromInt(5)
		return repos.StockItems.Update(ctx, item)
	})
	require.NoError(t, err)

	item, err := s.StockItems().GetForUpdate(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(5)))

	again, created, err := s.StockItems().GetOrCreateForUpdate(ctx, key)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, again.ID)
}

func TestStore_RunRollbackDescartaTodo(t *testing.T) {
	s := memory.NewStore()
	loc, prod := seed(t, s)
	ctx := context.Background()
	before := s.Counts()

	boom := errors.New("boom")
	err := s.Run(ctx, func(repos inventory.TxRepos) error {
		_, _, err := repos.StockItems.GetOrCreateForUpdate(ctx, entity.StockKey{ProductID: prod.ID, LocationID: loc.ID})
		require.NoError(t, err)
		require.NoError(t, repos.Categories.Create(ctx, &entity.Category{BusinessID: "b-1", Name: "Granos"}))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, before, s.Counts())
}

func TestStore_InjectFault(t *testing.T) {
	s := memory.NewStore()
	seed(t, s)
	ctx := context.Background()

	injected := errors.New("disco lleno")
	s.InjectFault(func(op, key string) error {
		if op == memory.OpProductCreate && key == "Frijol" {
			return injected
		}
		return nil
	})

	err := s.Products().Create(ctx, &entity.Product{BusinessID: "b-1", Name: "Frijol"})
	assert.ErrorIs(t, err, injected)
	require.NoError(t, s.Products().Create(ctx, &entity.Product{BusinessID: "b-1", Name: "Azúcar"}))

	s.InjectFault(nil)
	require.NoError(t, s.Products().Create(ctx, &entity.Product{BusinessID: "b-1", Name: "Frijol"}))
}

func TestProductRepo_NombreDuplicadoYFracciones(t *testing.T) {
	s := memory.NewStore()
	_, prod := seed(t, s)
	ctx := context.Background()

	err := s.Products().Create(ctx, &entity.Product{BusinessID: "b-1", Name: "Arroz"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	parent := prod.ID
	child := entity.Product{ID: "p-2", BusinessID: "b-1", Name: "Arroz (libra)", FractionOfID: &parent, UnitsPerFraction: 10}
	require.NoError(t, s.Products().Create(ctx, &child))

	childID := child.ID
	grandChild := entity.Product{BusinessID: "b-1", Name: "Arroz (onza)", FractionOfID: &childID, UnitsPerFraction: 16}
	assert.ErrorIs(t, s.Products().Create(ctx, &grandChild), domain.ErrValidation)

	children, err := s.Products().ListFractionChildren(ctx, prod.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "p-2", children[0].ID)

	names, err := s.Products().ExistingNames(ctx, "b-1", []string{"Arroz", "Café"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"Arroz": true}, names)
}

func TestMovementRepo_ApproveTransfer(t *testing.T) {
	s := memory.NewStore()
	loc, prod := seed(t, s)
	ctx := context.Background()

	item, _, err := s.StockItems().GetOrCreateForUpdate(ctx, entity.StockKey{ProductID: prod.ID, LocationID: loc.ID})
	require.NoError(t, err)

	pending := entity.StatePending
	mov := entity.Movement{
		StockItemID: item.ID,
		BusinessID:  "b-1",
		LocationID:  loc.ID,
		ProductID:   prod.ID,
		Type:        entity.MovementTransferOut,
		Quantity:    decimal.NewFromInt(2),
		State:       &pending,
	}
	require.NoError(t, s.Movements().Create(ctx, &mov))

	require.NoError(t, s.Movements().ApproveTransfer(ctx, mov.ID))
	got, err := s.Movements().GetByID(ctx, mov.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StateApproved, *got.State)

	assert.ErrorIs(t, s.Movements().ApproveTransfer(ctx, mov.ID), domain.ErrConflict)
	assert.ErrorIs(t, s.Movements().ApproveTransfer(ctx, "no-existe"), domain.ErrNotFound)
}
