package entity

import (
	"fmt"
	"time"
)

// Product representa una entrada del catálogo de un negocio.
// Si FractionOfID no es nil el producto es una fracción del producto padre:
// su stock es una subdivisión virtual del padre y su costo se deriva como
// costo_padre / UnitsPerFraction (ej. una caja de 12 y la unidad suelta).
type Product struct {
	ID               string
	BusinessID       string
	CategoryID       string
	Name             string
	FractionOfID     *string
	UnitsPerFraction int
	CreatedAt        time.Time
}

// IsFraction indica si el producto deriva su costo de un producto padre.
func (p *Product) IsFraction() bool {
	return p.FractionOfID != nil && *p.FractionOfID != ""
}

// Validate comprueba la relación de fracción: un solo nivel, sin auto-referencia y factor positivo.
func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("producto sin nombre")
	}
	if !p.IsFraction() {
		return nil
	}
	if *p.FractionOfID == p.ID {
		return fmt.Errorf("el producto %s no puede ser fracción de sí mismo", p.ID)
	}
	if p.UnitsPerFraction <= 0 {
		return fmt.Errorf("unidades por fracción debe ser mayor que cero (producto %s)", p.ID)
	}
	return nil
}
