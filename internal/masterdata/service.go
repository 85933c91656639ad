package masterdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/forgeline-erp/forgeline/internal/shared"
)

// RepositoryPort describes persistence used by Service.
type RepositoryPort interface {
	CreateComponent(ctx context.Context, c Component) (Component, error)
	UpdateComponent(ctx context.Context, c Component) error
	GetComponent(ctx context.Context, id int64) (Component, error)
	ListComponents(ctx context.Context, search string) ([]Component, error)
	CreateSupplier(ctx context.Context, s Supplier) (Supplier, error)
	GetSupplier(ctx context.Context, id int64) (Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	CreateOffer(ctx context.Context, o SupplierOffer) (SupplierOffer, error)
	UpdateOfferPrice(ctx context.Context, id int64, price decimal.Decimal) error
	GetOffer(ctx context.Context, id int64) (SupplierOffer, error)
	ListOffersByComponent(ctx context.Context, componentID int64) ([]SupplierOffer, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns component, supplier and offer maintenance.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs masterdata service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// ComponentInput describes a new or updated component.
type ComponentInput struct {
	SKU      string
	Name     string
	Unit     string
	Category string
	ActorID  int64
}

// SupplierInput describes a new supplier.
type SupplierInput struct {
	Name    string
	Email   string
	Phone   string
	ActorID int64
}

// OfferInput describes a new supplier offer.
type OfferInput struct {
	SupplierID       int64
	ComponentID      int64
	SupplierPartCode string
	Price            decimal.Decimal
	LeadTimeDays     int
	ActorID          int64
}

func (s *Service) CreateComponent(ctx context.Context, input ComponentInput) (Component, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.SKU = strings.TrimSpace(input.SKU)
	if input.Name == "" || input.SKU == "" {
		return Component{}, fmt.Errorf("%w: sku and name required", ErrValidation)
	}
	if input.Unit == "" {
		input.Unit = "pcs"
	}
	created, err := s.repo.CreateComponent(ctx, Component{SKU: input.SKU, Name: input.Name, Unit: input.Unit, Category: input.Category})
	if err != nil {
		return Component{}, err
	}
	s.recordAudit(ctx, input.ActorID, "COMPONENT_CREATE", "component", created.ID, map[string]any{"sku": created.SKU})
	return created, nil
}

// UpdateComponent overwrites the descriptive fields; the SKU is immutable.
func (s *Service) UpdateComponent(ctx context.Context, id int64, input ComponentInput) (Component, error) {
	current, err := s.repo.GetComponent(ctx, id)
	if err != nil {
		return Component{}, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Component{}, fmt.Errorf("%w: name required", ErrValidation)
	}
	current.Name = input.Name
	if input.Unit != "" {
		current.Unit = input.Unit
	}
	current.Category = input.Category
	if err := s.repo.UpdateComponent(ctx, current); err != nil {
		return Component{}, err
	}
	s.recordAudit(ctx, input.ActorID, "COMPONENT_UPDATE", "component", id, map[string]any{"sku": current.SKU})
	return current, nil
}

func (s *Service) GetComponent(ctx context.Context, id int64) (Component, error) {
	return s.repo.GetComponent(ctx, id)
}

func (s *Service) ListComponents(ctx context.Context, search string) ([]Component, error) {
	return s.repo.ListComponents(ctx, strings.TrimSpace(search))
}

func (s *Service) CreateSupplier(ctx context.Context, input SupplierInput) (Supplier, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Supplier{}, fmt.Errorf("%w: name required", ErrValidation)
	}
	created, err := s.repo.CreateSupplier(ctx, Supplier{Name: input.Name, Email: input.Email, Phone: input.Phone})
	if err != nil {
		return Supplier{}, err
	}
	s.recordAudit(ctx, input.ActorID, "SUPPLIER_CREATE", "supplier", created.ID, map[string]any{"name": created.Name})
	return created, nil
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

// CreateOffer validates the supplier/component pair exists before insert.
func (s *Service) CreateOffer(ctx context.Context, input OfferInput) (SupplierOffer, error) {
	if input.Price.IsNegative() {
		return SupplierOffer{}, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if _, err := s.repo.GetSupplier(ctx, input.SupplierID); err != nil {
		return SupplierOffer{}, err
	}
	if _, err := s.repo.GetComponent(ctx, input.ComponentID); err != nil {
		return SupplierOffer{}, err
	}
	created, err := s.repo.CreateOffer(ctx, SupplierOffer{
		SupplierID:       input.SupplierID,
		ComponentID:      input.ComponentID,
		SupplierPartCode: input.SupplierPartCode,
		Price:            input.Price,
		LeadTimeDays:     input.LeadTimeDays,
	})
	if err != nil {
		return SupplierOffer{}, err
	}
	s.recordAudit(ctx, input.ActorID, "OFFER_CREATE", "supplier_offer", created.ID, map[string]any{
		"supplier_id":  input.SupplierID,
		"component_id": input.ComponentID,
	})
	return created, nil
}

func (s *Service) GetOffer(ctx context.Context, id int64) (SupplierOffer, error) {
	return s.repo.GetOffer(ctx, id)
}

// UpdateOfferPrice reprices an existing offer. Purchase order lines keep the
// price snapshotted at order time.
func (s *Service) UpdateOfferPrice(ctx context.Context, id int64, price decimal.Decimal, actorID int64) (SupplierOffer, error) {
	if price.IsNegative() {
		return SupplierOffer{}, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if err := s.repo.UpdateOfferPrice(ctx, id, price); err != nil {
		return SupplierOffer{}, err
	}
	updated, err := s.repo.GetOffer(ctx, id)
	if err != nil {
		return SupplierOffer{}, err
	}
	s.recordAudit(ctx, actorID, "OFFER_REPRICE", "supplier_offer", id, map[string]any{"price": price.String()})
	return updated, nil
}

func (s *Service) ListOffersByComponent(ctx context.Context, componentID int64) ([]SupplierOffer, error) {
	return s.repo.ListOffersByComponent(ctx, componentID)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: entity, EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
