package products

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian/internal/masterdata/units"
	"github.com/meridian-pos/meridian/internal/shared"
)

type memoryProductRepo struct {
	products map[int64]Product
	nextID   int64
}

func newMemoryProductRepo() *memoryProductRepo {
	return &memoryProductRepo{products: make(map[int64]Product)}
}

func (r *memoryProductRepo) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryProductRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	return p, nil
}

func (r *memoryProductRepo) Create(ctx context.Context, product Product) (Product, error) {
	r.nextID++
	product.ID = r.nextID
	r.products[product.ID] = product
	return product, nil
}

func (r *memoryProductRepo) Update(ctx context.Context, id int64, product Product) error {
	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	product.ID = id
	r.products[id] = product
	return nil
}

func (r *memoryProductRepo) Delete(ctx context.Context, id int64) error {
	delete(r.products, id)
	return nil
}

type memoryUnitRepo struct {
	units map[int64]units.Unit
}

func (r *memoryUnitRepo) List(ctx context.Context, filters shared.ListFilters) ([]units.Unit, int, error) {
	return nil, 0, nil
}

func (r *memoryUnitRepo) Get(ctx context.Context, id int64) (units.Unit, error) {
	u, ok := r.units[id]
	if !ok {
		return units.Unit{}, fmt.Errorf("unit %d: %w", id, shared.ErrNotFound)
	}
	return u, nil
}

func (r *memoryUnitRepo) Create(ctx context.Context, u units.Unit) (units.Unit, error) { return u, nil }
func (r *memoryUnitRepo) Update(ctx context.Context, id int64, u units.Unit) error    { return nil }
func (r *memoryUnitRepo) Delete(ctx context.Context, id int64) error                  { return nil }

func testUnits() *memoryUnitRepo {
	return &memoryUnitRepo{units: map[int64]units.Unit{
		1: {ID: 1, Code: "PCS", Name: "Piece", Rate: 1},
		2: {ID: 2, Code: "BOX", Name: "Box", Rate: 12},
	}}
}

func TestCreateProductValidatesUnitRates(t *testing.T) {
	svc := NewService(newMemoryProductRepo(), testUnits())
	ctx := context.Background()

	p := Product{Code: "SKU-1", Name: "Widget", BaseUnitID: 1, MinUnitID: 1, MaxUnitID: 2, MinUnitPrice: 10, MaxUnitPrice: 100}
	created, err := svc.Create(ctx, p)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	// Max unit rate below min unit rate must be rejected.
	p.MinUnitID = 2
	p.MaxUnitID = 1
	_, err = svc.Create(ctx, p)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateProductRequiresKnownUnits(t *testing.T) {
	svc := NewService(newMemoryProductRepo(), testUnits())

	p := Product{Code: "SKU-2", Name: "Widget", BaseUnitID: 1, MinUnitID: 99, MaxUnitID: 2}
	_, err := svc.Create(context.Background(), p)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateProductRejectsBlankCode(t *testing.T) {
	svc := NewService(newMemoryProductRepo(), testUnits())

	_, err := svc.Create(context.Background(), Product{Name: "Widget", BaseUnitID: 1, MinUnitID: 1, MaxUnitID: 2})
	require.ErrorIs(t, err, shared.ErrValidation)
}
