package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
)

func nameKey(businessID, name string) string { return businessID + "\x00" + name }

// BusinessRepo implementa repository.BusinessRepository.
type BusinessRepo struct{ v view }

func (r *BusinessRepo) Create(_ context.Context, b *entity.Business) error {
	return r.v.write(OpBusinessCreate, b.ID, func(d *dataset) error {
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		if _, ok := d.businesses[b.ID]; ok {
			return domain.NewError(domain.ErrDuplicate, "negocio duplicado", b.ID)
		}
		d.businesses[b.ID] = *b
		return nil
	})
}

func (r *BusinessRepo) GetByID(_ context.Context, id string) (*entity.Business, error) {
	var out *entity.Business
	err := r.v.read(func(d *dataset) error {
		if b, ok := d.businesses[id]; ok {
			out = &b
		}
		return nil
	})
	return out, err
}

// LocationRepo implementa repository.LocationRepository.
type LocationRepo struct{ v view }

func (r *LocationRepo) Create(_ context.Context, l *entity.Location) error {
	return r.v.write(OpLocationCreate, l.ID, func(d *dataset) error {
		if _, ok := d.businesses[l.BusinessID]; !ok {
			return domain.NewError(domain.ErrReferential, "negocio inexistente", l.BusinessID)
		}
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		d.locations[l.ID] = *l
		return nil
	})
}

func (r *LocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	var out *entity.Location
	err := r.v.read(func(d *dataset) error {
		if l, ok := d.locations[id]; ok {
			out = &l
		}
		return nil
	})
	return out, err
}

func (r *LocationRepo) ListByBusiness(_ context.Context, businessID string) ([]*entity.Location, error) {
	var out []*entity.Location
	err := r.v.read(func(d *dataset) error {
		for _, l := range d.locations {
			if l.BusinessID == businessID {
				out = append(out, &l)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// CategoryRepo implementa repository.CategoryRepository.
type CategoryRepo struct{ v view }

func (r *CategoryRepo) Create(_ context.Context, c *entity.Category) error {
	return r.v.write(OpCategoryCreate, c.Name, func(d *dataset) error {
		for _, existing := range d.categories {
			if nameKey(existing.BusinessID, existing.Name) == nameKey(c.BusinessID, c.Name) {
				return domain.NewError(domain.ErrDuplicate, "categoría duplicada", c.Name)
			}
		}
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		d.categories[c.ID] = *c
		return nil
	})
}

func (r *CategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	var out *entity.Category
	err := r.v.read(func(d *dataset) error {
		if c, ok := d.categories[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *CategoryRepo) GetByName(_ context.Context, businessID, name string) (*entity.Category, error) {
	var out *entity.Category
	err := r.v.read(func(d *dataset) error {
		for _, c := range d.categories {
			if c.BusinessID == businessID && c.Name == name {
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

// SupplierRepo implementa repository.SupplierRepository.
type SupplierRepo struct{ v view }

func (r *SupplierRepo) Create(_ context.Context, s *entity.Supplier) error {
	return r.v.write(OpSupplierCreate, s.Name, func(d *dataset) error {
		for _, existing := range d.suppliers {
			if existing.BusinessID == s.BusinessID && existing.Name == s.Name {
				return domain.NewError(domain.ErrDuplicate, "proveedor duplicado", s.Name)
			}
		}
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		d.suppliers[s.ID] = *s
		return nil
	})
}

func (r *SupplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	var out *entity.Supplier
	err := r.v.read(func(d *dataset) error {
		if s, ok := d.suppliers[id]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *SupplierRepo) GetByName(_ context.Context, businessID, name string) (*entity.Supplier, error) {
	var out *entity.Supplier
	err := r.v.read(func(d *dataset) error {
		for _, s := range d.suppliers {
			if s.BusinessID == businessID && s.Name == name {
				out = &s
				return nil
			}
		}
		return nil
	})
	return out, err
}

// ProductRepo implementa repository.ProductRepository.
type ProductRepo struct{ v view }

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	return r.v.write(OpProductCreate, p.Name, func(d *dataset) error {
		for _, existing := range d.products {
			if existing.BusinessID == p.BusinessID && existing.Name == p.Name {
				return domain.NewError(domain.ErrDuplicate, "producto duplicado", p.Name)
			}
		}
		if p.IsFraction() {
			parent, ok := d.products[*p.FractionOfID]
			if !ok {
				return domain.NewError(domain.ErrReferential, "producto padre inexistente", *p.FractionOfID)
			}
			if parent.IsFraction() {
				return domain.NewError(domain.ErrValidation, "una fracción no puede ser padre de otra", parent.ID)
			}
		}
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		d.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.read(func(d *dataset) error {
		if p, ok := d.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetByName(_ context.Context, businessID, name string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.read(func(d *dataset) error {
		for _, p := range d.products {
			if p.BusinessID == businessID && p.Name == name {
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) ListFractionChildren(_ context.Context, parentID string) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.v.read(func(d *dataset) error {
		for _, p := range d.products {
			if p.FractionOfID != nil && *p.FractionOfID == parentID {
				out = append(out, &p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *ProductRepo) CountByBusiness(_ context.Context, businessID string) (int, error) {
	n := 0
	err := r.v.read(func(d *dataset) error {
		for _, p := range d.products {
			if p.BusinessID == businessID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *ProductRepo) ExistingNames(_ context.Context, businessID string, names []string) (map[string]bool, error) {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	out := make(map[string]bool)
	err := r.v.read(func(d *dataset) error {
		for _, p := range d.products {
			if p.BusinessID != businessID {
				continue
			}
			if _, ok := wanted[p.Name]; ok {
				out[p.Name] = true
			}
		}
		return nil
	})
	return out, err
}

// StockItemRepo implementa repository.StockItemRepository.
// En memoria el "bloqueo de fila" lo da la serialización de transacciones del Store.
type StockItemRepo struct{ v view }

func (r *StockItemRepo) GetOrCreateForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockItem, bool, error) {
	item, err := r.GetForUpdate(ctx, key)
	if err != nil || item != nil {
		return item, false, err
	}
	isNew := true
	created := entity.StockItem{
		ID:         uuid.New().String(),
		ProductID:  key.ProductID,
		LocationID: key.LocationID,
		SupplierID: key.SupplierPtr(),
	}
	err = r.v.write(OpStockItemCreate, key.ProductID, func(d *dataset) error {
		if _, ok := d.products[key.ProductID]; !ok {
			return domain.NewError(domain.ErrReferential, "producto inexistente", key.ProductID)
		}
		if _, ok := d.locations[key.LocationID]; !ok {
			return domain.NewError(domain.ErrReferential, "local inexistente", key.LocationID)
		}
		if id, ok := d.stockKeys[key]; ok {
			created = d.stockItems[id]
			isNew = false
			return nil
		}
		d.stockItems[created.ID] = created
		d.stockKeys[key] = created.ID
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &created, isNew, nil
}

func (r *StockItemRepo) GetForUpdate(_ context.Context, key entity.StockKey) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.v.read(func(d *dataset) error {
		if id, ok := d.stockKeys[key]; ok {
			item := d.stockItems[id]
			out = &item
		}
		return nil
	})
	return out, err
}

func (r *StockItemRepo) GetByID(_ context.Context, id string) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.v.read(func(d *dataset) error {
		if item, ok := d.stockItems[id]; ok {
			out = &item
		}
		return nil
	})
	return out, err
}

func (r *StockItemRepo) Update(_ context.Context, item *entity.StockItem) error {
	return r.v.write(OpStockItemUpdate, item.ProductID, func(d *dataset) error {
		current, ok := d.stockItems[item.ID]
		if !ok {
			return domain.NewError(domain.ErrNotFound, "stock item no encontrado", item.ID)
		}
		if item.Cost.IsNegative() {
			return domain.NewError(domain.ErrPrecondition, "el costo no puede ser negativo", item.ID)
		}
		current.Quantity = item.Quantity
		current.Cost = item.Cost
		current.Price = item.Price
		current.UpdatedAt = item.UpdatedAt
		d.stockItems[item.ID] = current
		return nil
	})
}

func (r *StockItemRepo) ListByLocation(_ context.Context, locationID string) ([]*entity.StockItem, error) {
	var out []*entity.StockItem
	err := r.v.read(func(d *dataset) error {
		for _, item := range d.stockItems {
			if item.LocationID == locationID {
				item := item
				out = append(out, &item)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// MovementRepo implementa repository.MovementRepository (append-only salvo la aprobación de traspasos).
type MovementRepo struct{ v view }

func (r *MovementRepo) Create(_ context.Context, m *entity.Movement) error {
	return r.v.write(OpMovementCreate, m.ProductID, func(d *dataset) error {
		if _, ok := d.stockItems[m.StockItemID]; !ok {
			return domain.NewError(domain.ErrReferential, "stock item inexistente", m.StockItemID)
		}
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if _, ok := d.movements[m.ID]; ok {
			return domain.NewError(domain.ErrDuplicate, "movimiento duplicado", m.ID)
		}
		d.movements[m.ID] = *m
		d.movementOrder = append(d.movementOrder, m.ID)
		return nil
	})
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	var out *entity.Movement
	err := r.v.read(func(d *dataset) error {
		if m, ok := d.movements[id]; ok {
			out = &m
		}
		return nil
	})
	return out, err
}

func (r *MovementRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Movement, error) {
	return r.GetByID(ctx, id)
}

func (r *MovementRepo) ApproveTransfer(_ context.Context, id string) error {
	return r.v.write(OpMovementApprove, id, func(d *dataset) error {
		m, ok := d.movements[id]
		if !ok {
			return domain.NewError(domain.ErrNotFound, "movimiento no encontrado", id)
		}
		if !m.IsPending() {
			return domain.NewError(domain.ErrConflict, "el traspaso no está pendiente", id)
		}
		approved := entity.StateApproved
		m.State = &approved
		d.movements[id] = m
		return nil
	})
}

func (r *MovementRepo) ListByStockItem(_ context.Context, stockItemID string) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.v.read(func(d *dataset) error {
		for _, id := range d.movementOrder {
			m := d.movements[id]
			if m.StockItemID == stockItemID {
				out = append(out, &m)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}
