package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItem es la presencia de un producto en un local: existencia, costo promedio ponderado (CPP)
// y precio de venta. SupplierID distingue el stock en consignación del stock propio del mismo producto.
type StockItem struct {
	ID         string
	ProductID  string
	LocationID string
	SupplierID *string
	Quantity   decimal.Decimal // existencia
	Cost       decimal.Decimal // costo (CPP), nunca negativo
	Price      decimal.Decimal // precio de venta
	UpdatedAt  time.Time
}

// StockKey identifica un StockItem por (producto, local, proveedor-o-ninguno).
type StockKey struct {
	ProductID  string
	LocationID string
	SupplierID string // vacío = stock propio
}

// Key devuelve la clave natural del StockItem.
func (s *StockItem) Key() StockKey {
	k := StockKey{ProductID: s.ProductID, LocationID: s.LocationID}
	if s.SupplierID != nil {
		k.SupplierID = *s.SupplierID
	}
	return k
}

// SupplierPtr convierte el proveedor de la clave a puntero (nil si es stock propio).
func (k StockKey) SupplierPtr() *string {
	if k.SupplierID == "" {
		return nil
	}
	s := k.SupplierID
	return &s
}
