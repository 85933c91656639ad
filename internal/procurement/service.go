package procurement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forgeline-erp/forgeline/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (PurchaseOrder, error)
	ListOrders(ctx context.Context) ([]PurchaseOrder, error)
	ListOpenLines(ctx context.Context, componentID int64) ([]POLine, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates derived dashboards after mutations.
type CachePort interface {
	Bump(ctx context.Context) error
}

// AnomalyRecorder surfaces data-quality findings.
type AnomalyRecorder interface {
	CountAnomaly(kind string)
}

// Service orchestrates purchase order flows and receipt reconciliation.
type Service struct {
	repo      RepositoryPort
	audit     AuditPort
	cache     CachePort
	anomalies AnomalyRecorder
	logger    *slog.Logger
}

// NewService constructs procurement service.
func NewService(repo RepositoryPort, audit AuditPort, cache CachePort, anomalies AnomalyRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, cache: cache, anomalies: anomalies, logger: logger}
}

// CreateOrderInput describes creation payload.
type CreateOrderInput struct {
	Number    string
	OrderedAt time.Time
	Note      string
	ActorID   int64
	Lines     []OrderLineInput
}

// OrderLineInput describes one order line.
type OrderLineInput struct {
	OfferID     int64
	ComponentID int64
	Qty         int64
}

// ReceiveInput describes a stock receipt against a single line.
type ReceiveInput struct {
	LineID  int64
	Qty     int64
	ActorID int64
}

// OrderList partitions orders into the two purchasing tabs. Every order
// carries its derived status.
type OrderList struct {
	InProgress []PurchaseOrder `json:"in_progress"`
	Completed  []PurchaseOrder `json:"completed"`
}

// CreateOrder persists a draft purchase order with its lines.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (PurchaseOrder, error) {
	if len(input.Lines) == 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: order needs at least one line", ErrValidation)
	}
	if input.Number == "" {
		input.Number = generateNumber("PO")
	}
	if input.OrderedAt.IsZero() {
		input.OrderedAt = time.Now()
	}
	po := PurchaseOrder{Number: input.Number, Status: StatusDraft, OrderedAt: input.OrderedAt, Note: input.Note}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		poID, err := tx.CreateOrder(ctx, po)
		if err != nil {
			return err
		}
		for _, line := range input.Lines {
			if line.OfferID == 0 || line.ComponentID == 0 || line.Qty <= 0 {
				return ErrValidation
			}
			if err := tx.InsertLine(ctx, POLine{POID: poID, OfferID: line.OfferID, ComponentID: line.ComponentID, OrderQty: line.Qty}); err != nil {
				return err
			}
		}
		po.ID = poID
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, input.ActorID, "PO_CREATE", po.ID, map[string]any{"number": po.Number})
	s.bumpCache(ctx)
	return po, nil
}

// SubmitOrder transitions a draft order to pending approval.
func (s *Service) SubmitOrder(ctx context.Context, poID, actorID int64) error {
	return s.transition(ctx, poID, actorID, StatusDraft, StatusPendingApproval, "PO_SUBMIT")
}

// ApproveOrder marks an order as approved.
func (s *Service) ApproveOrder(ctx context.Context, poID, actorID int64) error {
	return s.transition(ctx, poID, actorID, StatusPendingApproval, StatusApproved, "PO_APPROVE")
}

// CancelOrder cancels an order that has not yet been fully received.
func (s *Service) CancelOrder(ctx context.Context, poID, actorID int64) error {
	po, err := s.repo.GetOrder(ctx, poID)
	if err != nil {
		return err
	}
	derived := po.DerivedStatus()
	if TabFor(derived) == TabCompleted {
		return ErrInvalidState
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateOrderStatus(ctx, poID, StatusCancelled)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "PO_CANCEL", poID, map[string]any{"number": po.Number})
	s.bumpCache(ctx)
	return nil
}

// ReceiveStock books received quantity against a line. The stored order
// status is left untouched; receipt progress is always derived from the lines
// at read time. Over-receipt is accepted (owing clamps to zero) but logged and
// counted as a data-quality anomaly.
func (s *Service) ReceiveStock(ctx context.Context, input ReceiveInput) (POLine, error) {
	if input.Qty <= 0 {
		return POLine{}, ErrValidation
	}
	var updated POLine
	var number string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		line, err := tx.GetLineForUpdate(ctx, input.LineID)
		if err != nil {
			return err
		}
		line.ReceivedQty += input.Qty
		if err := tx.UpdateLineReceived(ctx, line.ID, line.ReceivedQty); err != nil {
			return err
		}
		// Lock the order row so a concurrent cancel serializes with the receive.
		po, err := tx.GetOrderLocked(ctx, line.POID)
		if err != nil {
			return err
		}
		number = po.Number
		updated = line
		return nil
	})
	if err != nil {
		return POLine{}, err
	}
	if updated.OverReceived() {
		s.logger.Warn("purchase order line over-received",
			slog.Int64("line_id", updated.ID),
			slog.Int64("ordered", updated.OrderQty),
			slog.Int64("received", updated.ReceivedQty),
		)
		if s.anomalies != nil {
			s.anomalies.CountAnomaly("over_receipt")
		}
	}
	s.recordAudit(ctx, input.ActorID, "PO_RECEIVE", updated.POID, map[string]any{
		"number":  number,
		"line_id": updated.ID,
		"qty":     input.Qty,
	})
	s.bumpCache(ctx)
	return updated, nil
}

// GetOrder returns one order with its derived status resolved.
func (s *Service) GetOrder(ctx context.Context, poID int64) (PurchaseOrder, error) {
	po, err := s.repo.GetOrder(ctx, poID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.Status = po.DerivedStatus()
	return po, nil
}

// ListOrders resolves derived statuses, applies the filter and partitions the
// result into the purchasing tabs.
func (s *Service) ListOrders(ctx context.Context, filter Filter) (OrderList, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return OrderList{}, err
	}
	var list OrderList
	for _, po := range orders {
		if !filter.Match(po) {
			continue
		}
		derived := po.DerivedStatus()
		po.Status = derived
		if TabFor(derived) == TabCompleted {
			list.Completed = append(list.Completed, po)
		} else {
			list.InProgress = append(list.InProgress, po)
		}
	}
	return list, nil
}

// Dashboard returns the purchasing dashboard counters.
func (s *Service) Dashboard(ctx context.Context) (DashboardMetrics, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return DashboardMetrics{}, err
	}
	return Summarise(orders), nil
}

// OpenLineSummary lists lines still awaiting receipt for a component and the
// total outstanding quantity. Lines that owe nothing are dropped from the
// working set before any further use.
func (s *Service) OpenLineSummary(ctx context.Context, componentID int64) (int64, []POLine, error) {
	lines, err := s.repo.ListOpenLines(ctx, componentID)
	if err != nil {
		return 0, nil, err
	}
	var onOrder int64
	open := make([]POLine, 0, len(lines))
	for _, line := range lines {
		owing := line.Owing()
		if owing <= 0 {
			continue
		}
		onOrder += owing
		open = append(open, line)
	}
	return onOrder, open, nil
}

// OnOrder returns only the outstanding quantity for a component.
func (s *Service) OnOrder(ctx context.Context, componentID int64) (int64, error) {
	total, _, err := s.OpenLineSummary(ctx, componentID)
	return total, err
}

func (s *Service) transition(ctx context.Context, poID, actorID int64, from, to POStatus, action string) error {
	po, err := s.repo.GetOrder(ctx, poID)
	if err != nil {
		return err
	}
	if po.Status != from {
		return ErrInvalidState
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateOrderStatus(ctx, poID, to)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, action, poID, map[string]any{"number": po.Number})
	s.bumpCache(ctx)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "purchase_order", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump dashboard cache", slog.Any("error", err))
	}
}

func generateNumber(prefix string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().UTC().Format("20060102"), suffix)
}
