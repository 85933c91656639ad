package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/forgeline-erp/forgeline/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetRecord(ctx context.Context, componentID int64) (InventoryRecord, error)
	ListRecords(ctx context.Context) ([]InventoryRecord, error)
}

// DemandPort resolves outstanding component demand.
type DemandPort interface {
	RequiredQuantity(ctx context.Context, componentID int64) (int64, error)
}

// ProcurementPort resolves outstanding on-order quantity.
type ProcurementPort interface {
	OnOrder(ctx context.Context, componentID int64) (int64, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service computes stock positions and owns inventory record mutations.
type Service struct {
	repo        RepositoryPort
	demand      DemandPort
	procurement ProcurementPort
	audit       AuditPort
	cache       *Cache
	logger      *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, demand DemandPort, procurement ProcurementPort, audit AuditPort, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, demand: demand, procurement: procurement, audit: audit, cache: cache, logger: logger}
}

// GetPosition resolves the three inputs concurrently and derives the stock
// position. A missing inventory record degrades to zeros rather than failing.
func (s *Service) GetPosition(ctx context.Context, componentID int64) (Position, error) {
	var (
		record   InventoryRecord
		onOrder  int64
		required int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := s.repo.GetRecord(gctx, componentID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				rec = InventoryRecord{ComponentID: componentID}
				err = nil
			}
			if err != nil {
				return err
			}
		}
		record = rec
		return nil
	})
	g.Go(func() error {
		var err error
		onOrder, err = s.procurement.OnOrder(gctx, componentID)
		return err
	})
	g.Go(func() error {
		var err error
		required, err = s.demand.RequiredQuantity(gctx, componentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Position{}, err
	}
	pos := Derive(componentID, PositionInput{
		OnHand:       record.OnHand,
		ReorderLevel: record.ReorderLevel,
		OnOrder:      onOrder,
		Required:     required,
	})
	pos.Location = record.Location
	return pos, nil
}

// Dashboard aggregates positions across all components.
type Dashboard struct {
	Positions []Position     `json:"positions"`
	Counts    map[Health]int `json:"counts"`
}

const listConcurrency = 8

// ListPositions builds the stock health dashboard, served from the versioned
// cache when warm.
func (s *Service) ListPositions(ctx context.Context) (Dashboard, error) {
	if s.cache != nil {
		var cached Dashboard
		err := s.cache.FetchJSON(ctx, "inventory:dashboard", &cached, func(ctx context.Context) (any, error) {
			return s.buildDashboard(ctx)
		})
		if err == nil {
			return cached, nil
		}
		s.logger.Warn("dashboard cache fetch", slog.Any("error", err))
	}
	return s.buildDashboard(ctx)
}

// RefreshDashboard invalidates the cached dashboard and recomputes it. Used
// by the background health scan so requests after the scan hit a warm cache.
func (s *Service) RefreshDashboard(ctx context.Context) (Dashboard, error) {
	s.bumpCache(ctx)
	return s.ListPositions(ctx)
}

func (s *Service) buildDashboard(ctx context.Context) (Dashboard, error) {
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	positions := make([]Position, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			pos, err := s.GetPosition(gctx, record.ComponentID)
			if err != nil {
				return err
			}
			positions[i] = pos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	counts := make(map[Health]int, 6)
	for _, pos := range positions {
		counts[pos.Health]++
	}
	return Dashboard{Positions: positions, Counts: counts}, nil
}

// AdjustInput mutates on-hand stock by a signed delta.
type AdjustInput struct {
	ComponentID int64
	Delta       int64
	Note        string
	ActorID     int64
}

// AdjustOnHand applies a stock adjustment. The resulting on-hand quantity may
// not go negative.
func (s *Service) AdjustOnHand(ctx context.Context, input AdjustInput) (InventoryRecord, error) {
	if input.Delta == 0 {
		return InventoryRecord{}, ErrInvalidQuantity
	}
	var updated InventoryRecord
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		record, err := tx.GetRecordForUpdate(ctx, input.ComponentID)
		if err != nil {
			return err
		}
		record.OnHand += input.Delta
		if record.OnHand < 0 {
			return fmt.Errorf("%w: on-hand would go negative", ErrInvalidQuantity)
		}
		if err := tx.UpdateOnHand(ctx, record.ComponentID, record.OnHand); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return InventoryRecord{}, err
	}
	s.recordAudit(ctx, input.ActorID, "STOCK_ADJUST", input.ComponentID, map[string]any{"delta": input.Delta, "note": input.Note})
	s.bumpCache(ctx)
	return updated, nil
}

// SetReorderLevel updates the reorder threshold for a component.
func (s *Service) SetReorderLevel(ctx context.Context, componentID, level, actorID int64) error {
	if level < 0 {
		return ErrInvalidQuantity
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateReorderLevel(ctx, componentID, level)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "REORDER_LEVEL_SET", componentID, map[string]any{"level": level})
	s.bumpCache(ctx)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, componentID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "inventory_record", EntityID: fmt.Sprintf("%d", componentID), Meta: meta})
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump dashboard cache", slog.Any("error", err))
	}
}
