package masterdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists masterdata in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateComponent(ctx context.Context, c Component) (Component, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO components (sku, name, unit, category) VALUES ($1, $2, $3, NULLIF($4, '')) RETURNING id`,
		c.SKU, c.Name, c.Unit, c.Category).Scan(&c.ID)
	if err != nil {
		return Component{}, mapUnique(err, "sku already in use")
	}
	return c, nil
}

func (r *Repository) UpdateComponent(ctx context.Context, c Component) error {
	tag, err := r.pool.Exec(ctx, `UPDATE components SET name=$2, unit=$3, category=NULLIF($4, '') WHERE id=$1`,
		c.ID, c.Name, c.Unit, c.Category)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetComponent(ctx context.Context, id int64) (Component, error) {
	var c Component
	err := r.pool.QueryRow(ctx, `SELECT id, sku, name, unit, COALESCE(category, '') FROM components WHERE id=$1`, id).
		Scan(&c.ID, &c.SKU, &c.Name, &c.Unit, &c.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Component{}, ErrNotFound
		}
		return Component{}, err
	}
	return c, nil
}

func (r *Repository) ListComponents(ctx context.Context, search string) ([]Component, error) {
	query := `SELECT id, sku, name, unit, COALESCE(category, '') FROM components`
	args := []any{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR sku ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Component
	for rows.Next() {
		var c Component
		if err := rows.Scan(&c.ID, &c.SKU, &c.Name, &c.Unit, &c.Category); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO suppliers (name, email, phone) VALUES ($1, NULLIF($2, ''), NULLIF($3, '')) RETURNING id`,
		s.Name, s.Email, s.Phone).Scan(&s.ID)
	if err != nil {
		return Supplier{}, mapUnique(err, "supplier name already in use")
	}
	return s, nil
}

func (r *Repository) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	var s Supplier
	err := r.pool.QueryRow(ctx, `SELECT id, name, COALESCE(email, ''), COALESCE(phone, '') FROM suppliers WHERE id=$1`, id).
		Scan(&s.ID, &s.Name, &s.Email, &s.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, ErrNotFound
		}
		return Supplier{}, err
	}
	return s, nil
}

func (r *Repository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(email, ''), COALESCE(phone, '') FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) CreateOffer(ctx context.Context, o SupplierOffer) (SupplierOffer, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO supplier_offers (supplier_id, component_id, supplier_part_code, price, lead_time_days) VALUES ($1, $2, NULLIF($3, ''), $4, $5) RETURNING id`,
		o.SupplierID, o.ComponentID, o.SupplierPartCode, o.Price.String(), o.LeadTimeDays).Scan(&o.ID)
	if err != nil {
		return SupplierOffer{}, mapUnique(err, "offer already exists for supplier/component")
	}
	return o, nil
}

func (r *Repository) UpdateOfferPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, `UPDATE supplier_offers SET price=$2 WHERE id=$1`, id, price.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const offerColumns = `o.id, o.supplier_id, o.component_id, s.name, COALESCE(o.supplier_part_code, ''), o.price::text, o.lead_time_days`

func (r *Repository) GetOffer(ctx context.Context, id int64) (SupplierOffer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+offerColumns+`
FROM supplier_offers o JOIN suppliers s ON s.id = o.supplier_id
WHERE o.id=$1`, id)
	offer, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SupplierOffer{}, ErrNotFound
		}
		return SupplierOffer{}, err
	}
	return offer, nil
}

func (r *Repository) ListOffersByComponent(ctx context.Context, componentID int64) ([]SupplierOffer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+offerColumns+`
FROM supplier_offers o JOIN suppliers s ON s.id = o.supplier_id
WHERE o.component_id=$1
ORDER BY o.price, o.id`, componentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SupplierOffer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, offer)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffer(row rowScanner) (SupplierOffer, error) {
	var (
		offer SupplierOffer
		price string
	)
	if err := row.Scan(&offer.ID, &offer.SupplierID, &offer.ComponentID, &offer.SupplierName, &offer.SupplierPartCode, &price, &offer.LeadTimeDays); err != nil {
		return SupplierOffer{}, err
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return SupplierOffer{}, fmt.Errorf("parse offer price: %w", err)
	}
	offer.Price = parsed
	return offer, nil
}

func mapUnique(err error, detail string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, detail)
	}
	return err
}
