package masterdata

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	nextID     int64
	components map[int64]Component
	suppliers  map[int64]Supplier
	offers     map[int64]SupplierOffer
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextID:     1,
		components: map[int64]Component{},
		suppliers:  map[int64]Supplier{},
		offers:     map[int64]SupplierOffer{},
	}
}

func (m *memoryRepo) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memoryRepo) CreateComponent(_ context.Context, c Component) (Component, error) {
	for _, existing := range m.components {
		if existing.SKU == c.SKU {
			return Component{}, ErrDuplicate
		}
	}
	c.ID = m.id()
	m.components[c.ID] = c
	return c, nil
}

func (m *memoryRepo) UpdateComponent(_ context.Context, c Component) error {
	if _, ok := m.components[c.ID]; !ok {
		return ErrNotFound
	}
	m.components[c.ID] = c
	return nil
}

func (m *memoryRepo) GetComponent(_ context.Context, id int64) (Component, error) {
	c, ok := m.components[id]
	if !ok {
		return Component{}, ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) ListComponents(_ context.Context, _ string) ([]Component, error) {
	var out []Component
	for _, c := range m.components {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryRepo) CreateSupplier(_ context.Context, s Supplier) (Supplier, error) {
	s.ID = m.id()
	m.suppliers[s.ID] = s
	return s, nil
}

func (m *memoryRepo) GetSupplier(_ context.Context, id int64) (Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return Supplier{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryRepo) ListSuppliers(_ context.Context) ([]Supplier, error) {
	var out []Supplier
	for _, s := range m.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryRepo) CreateOffer(_ context.Context, o SupplierOffer) (SupplierOffer, error) {
	o.ID = m.id()
	m.offers[o.ID] = o
	return o, nil
}

func (m *memoryRepo) UpdateOfferPrice(_ context.Context, id int64, price decimal.Decimal) error {
	o, ok := m.offers[id]
	if !ok {
		return ErrNotFound
	}
	o.Price = price
	m.offers[id] = o
	return nil
}

func (m *memoryRepo) GetOffer(_ context.Context, id int64) (SupplierOffer, error) {
	o, ok := m.offers[id]
	if !ok {
		return SupplierOffer{}, ErrNotFound
	}
	return o, nil
}

func (m *memoryRepo) ListOffersByComponent(_ context.Context, componentID int64) ([]SupplierOffer, error) {
	var out []SupplierOffer
	for _, o := range m.offers {
		if o.ComponentID == componentID {
			out = append(out, o)
		}
	}
	return out, nil
}

func TestCreateComponentDefaultsUnit(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	component, err := svc.CreateComponent(context.Background(), ComponentInput{SKU: "CMP-1", Name: " Bearing ", ActorID: 1})
	require.NoError(t, err)
	require.Equal(t, "Bearing", component.Name)
	require.Equal(t, "pcs", component.Unit)
}

func TestCreateComponentRequiresSKUAndName(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	_, err := svc.CreateComponent(context.Background(), ComponentInput{SKU: "  ", Name: "Bearing", ActorID: 1})
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateComponent(context.Background(), ComponentInput{SKU: "CMP-1", ActorID: 1})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateOfferValidatesReferences(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	supplier, err := svc.CreateSupplier(context.Background(), SupplierInput{Name: "Acme", ActorID: 1})
	require.NoError(t, err)
	component, err := svc.CreateComponent(context.Background(), ComponentInput{SKU: "CMP-1", Name: "Bearing", ActorID: 1})
	require.NoError(t, err)

	_, err = svc.CreateOffer(context.Background(), OfferInput{SupplierID: supplier.ID, ComponentID: 999, Price: decimal.NewFromInt(5), ActorID: 1})
	require.ErrorIs(t, err, ErrNotFound)

	offer, err := svc.CreateOffer(context.Background(), OfferInput{
		SupplierID:  supplier.ID,
		ComponentID: component.ID,
		Price:       decimal.RequireFromString("12.50"),
		ActorID:     1,
	})
	require.NoError(t, err)
	require.True(t, offer.Price.Equal(decimal.RequireFromString("12.50")))
}

func TestUpdateComponentKeepsSKU(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	created, err := svc.CreateComponent(context.Background(), ComponentInput{SKU: "CMP-1", Name: "Bearing", ActorID: 1})
	require.NoError(t, err)

	updated, err := svc.UpdateComponent(context.Background(), created.ID, ComponentInput{Name: "Bearing 608ZZ", Category: "bearings", ActorID: 1})
	require.NoError(t, err)
	require.Equal(t, "CMP-1", updated.SKU)
	require.Equal(t, "Bearing 608ZZ", updated.Name)
	require.Equal(t, "bearings", updated.Category)
	require.Equal(t, "pcs", updated.Unit)
}

func TestUpdateOfferPrice(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	supplier, err := svc.CreateSupplier(context.Background(), SupplierInput{Name: "Acme", ActorID: 1})
	require.NoError(t, err)
	component, err := svc.CreateComponent(context.Background(), ComponentInput{SKU: "CMP-1", Name: "Bearing", ActorID: 1})
	require.NoError(t, err)
	offer, err := svc.CreateOffer(context.Background(), OfferInput{SupplierID: supplier.ID, ComponentID: component.ID, Price: decimal.NewFromInt(5), ActorID: 1})
	require.NoError(t, err)

	updated, err := svc.UpdateOfferPrice(context.Background(), offer.ID, decimal.RequireFromString("6.25"), 1)
	require.NoError(t, err)
	require.True(t, updated.Price.Equal(decimal.RequireFromString("6.25")))

	_, err = svc.UpdateOfferPrice(context.Background(), offer.ID, decimal.NewFromInt(-1), 1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateOfferRejectsNegativePrice(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	_, err := svc.CreateOffer(context.Background(), OfferInput{SupplierID: 1, ComponentID: 1, Price: decimal.NewFromInt(-1), ActorID: 1})
	require.ErrorIs(t, err, ErrValidation)
}
