package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	orders map[int64]*PurchaseOrder
	lines  map[int64]*POLine
	nextID int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: map[int64]*PurchaseOrder{}, lines: map[int64]*POLine{}}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetOrder(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, ok := r.orders[id]
	if !ok {
		return PurchaseOrder{}, ErrNotFound
	}
	return r.withLines(*po), nil
}

func (r *memoryRepo) ListOrders(ctx context.Context) ([]PurchaseOrder, error) {
	var result []PurchaseOrder
	for id := int64(1); id <= r.nextID; id++ {
		if po, ok := r.orders[id]; ok {
			result = append(result, r.withLines(*po))
		}
	}
	return result, nil
}

func (r *memoryRepo) ListOpenLines(ctx context.Context, componentID int64) ([]POLine, error) {
	var result []POLine
	for id := int64(1); id <= r.nextID; id++ {
		line, ok := r.lines[id]
		if !ok || line.ComponentID != componentID {
			continue
		}
		po := r.orders[line.POID]
		if po == nil || (po.Status != StatusApproved && po.Status != StatusPartiallyReceived) {
			continue
		}
		result = append(result, *line)
	}
	return result, nil
}

func (r *memoryRepo) withLines(po PurchaseOrder) PurchaseOrder {
	po.Lines = nil
	for id := int64(1); id <= r.nextID; id++ {
		if line, ok := r.lines[id]; ok && line.POID == po.ID {
			po.Lines = append(po.Lines, *line)
		}
	}
	return po
}

func (t *memoryTx) CreateOrder(ctx context.Context, po PurchaseOrder) (int64, error) {
	t.repo.nextID++
	po.ID = t.repo.nextID
	t.repo.orders[po.ID] = &po
	return po.ID, nil
}

func (t *memoryTx) InsertLine(ctx context.Context, line POLine) error {
	t.repo.nextID++
	line.ID = t.repo.nextID
	t.repo.lines[line.ID] = &line
	return nil
}

func (t *memoryTx) UpdateOrderStatus(ctx context.Context, id int64, status POStatus) error {
	po, ok := t.repo.orders[id]
	if !ok {
		return ErrNotFound
	}
	po.Status = status
	return nil
}

func (t *memoryTx) UpdateLineReceived(ctx context.Context, lineID int64, received int64) error {
	line, ok := t.repo.lines[lineID]
	if !ok {
		return ErrNotFound
	}
	line.ReceivedQty = received
	return nil
}

func (t *memoryTx) GetLineForUpdate(ctx context.Context, lineID int64) (POLine, error) {
	line, ok := t.repo.lines[lineID]
	if !ok {
		return POLine{}, ErrNotFound
	}
	return *line, nil
}

func (t *memoryTx) GetOrderLocked(ctx context.Context, poID int64) (PurchaseOrder, error) {
	po, ok := t.repo.orders[poID]
	if !ok {
		return PurchaseOrder{}, ErrNotFound
	}
	return t.repo.withLines(*po), nil
}

type countingAnomalies struct {
	counts map[string]int
}

func (c *countingAnomalies) CountAnomaly(kind string) {
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[kind]++
}

func seedApprovedOrder(t *testing.T, svc *Service, qtys ...int64) PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	input := CreateOrderInput{ActorID: 1, OrderedAt: time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)}
	for i, qty := range qtys {
		input.Lines = append(input.Lines, OrderLineInput{OfferID: int64(i + 1), ComponentID: int64(i + 1), Qty: qty})
	}
	po, err := svc.CreateOrder(ctx, input)
	require.NoError(t, err)
	require.NoError(t, svc.SubmitOrder(ctx, po.ID, 1))
	require.NoError(t, svc.ApproveOrder(ctx, po.ID, 1))
	return po
}

func TestReceiveStockDerivesStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	po := seedApprovedOrder(t, svc, 10, 5)
	full, err := repo.GetOrder(ctx, po.ID)
	require.NoError(t, err)
	require.Len(t, full.Lines, 2)

	// One line full, the other untouched: no line sits strictly between zero
	// and ordered, so the stored status passes through.
	_, err = svc.ReceiveStock(ctx, ReceiveInput{LineID: full.Lines[0].ID, Qty: 10, ActorID: 1})
	require.NoError(t, err)
	updated, err := repo.GetOrder(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, updated.DerivedStatus())

	_, err = svc.ReceiveStock(ctx, ReceiveInput{LineID: full.Lines[1].ID, Qty: 5, ActorID: 1})
	require.NoError(t, err)
	updated, err = repo.GetOrder(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, updated.Status)
	require.Equal(t, StatusFullyReceived, updated.DerivedStatus())
}

func TestReceiveStockInInstallmentsCompletesOrder(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	po := seedApprovedOrder(t, svc, 10)
	full, err := repo.GetOrder(ctx, po.ID)
	require.NoError(t, err)
	lineID := full.Lines[0].ID

	_, err = svc.ReceiveStock(ctx, ReceiveInput{LineID: lineID, Qty: 4, ActorID: 1})
	require.NoError(t, err)
	partial, err := repo.GetOrder(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, partial.Status)
	require.Equal(t, StatusPartiallyReceived, partial.DerivedStatus())
	require.Equal(t, TabInProgress, TabFor(partial.DerivedStatus()))

	_, err = svc.ReceiveStock(ctx, ReceiveInput{LineID: lineID, Qty: 6, ActorID: 1})
	require.NoError(t, err)
	done, err := repo.GetOrder(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFullyReceived, done.DerivedStatus())

	list, err := svc.ListOrders(ctx, Filter{})
	require.NoError(t, err)
	require.Empty(t, list.InProgress)
	require.Len(t, list.Completed, 1)
	require.Equal(t, po.ID, list.Completed[0].ID)

	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	require.Zero(t, dash.Approved)
	require.Zero(t, dash.PartialReceived)
}

func TestReceiveStockRejectsNonPositiveQty(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	_, err := svc.ReceiveStock(context.Background(), ReceiveInput{LineID: 1, Qty: 0})
	require.ErrorIs(t, err, ErrValidation)
}

func TestReceiveStockFlagsOverReceipt(t *testing.T) {
	repo := newMemoryRepo()
	anomalies := &countingAnomalies{}
	svc := NewService(repo, nil, nil, anomalies, nil)
	ctx := context.Background()

	po := seedApprovedOrder(t, svc, 10)
	full, err := repo.GetOrder(ctx, po.ID)
	require.NoError(t, err)

	line, err := svc.ReceiveStock(ctx, ReceiveInput{LineID: full.Lines[0].ID, Qty: 12, ActorID: 1})
	require.NoError(t, err)
	require.True(t, line.OverReceived())
	require.EqualValues(t, 0, line.Owing())
	require.Equal(t, 1, anomalies.counts["over_receipt"])
}

func TestOpenLineSummaryExcludesZeroOwing(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	po := seedApprovedOrder(t, svc, 10)
	other := seedApprovedOrder(t, svc, 6)
	_ = other

	full, err := repo.GetOrder(ctx, po.ID)
	require.NoError(t, err)
	_, err = svc.ReceiveStock(ctx, ReceiveInput{LineID: full.Lines[0].ID, Qty: 10, ActorID: 1})
	require.NoError(t, err)

	// component 1 exists on both orders: one fully received, one untouched
	onOrder, lines, err := svc.OpenLineSummary(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 6, onOrder)
	require.Len(t, lines, 1)
}

func TestListOrdersPartitionsTabs(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	open := seedApprovedOrder(t, svc, 4)
	done := seedApprovedOrder(t, svc, 2)
	full, err := repo.GetOrder(ctx, done.ID)
	require.NoError(t, err)
	_, err = svc.ReceiveStock(ctx, ReceiveInput{LineID: full.Lines[0].ID, Qty: 2, ActorID: 1})
	require.NoError(t, err)

	list, err := svc.ListOrders(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, list.InProgress, 1)
	require.Len(t, list.Completed, 1)
	require.Equal(t, open.ID, list.InProgress[0].ID)
	require.Equal(t, done.ID, list.Completed[0].ID)
	require.Equal(t, StatusFullyReceived, list.Completed[0].Status)
}

func TestTransitionGuards(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	po, err := svc.CreateOrder(ctx, CreateOrderInput{ActorID: 1, Lines: []OrderLineInput{{OfferID: 1, ComponentID: 1, Qty: 3}}})
	require.NoError(t, err)

	require.ErrorIs(t, svc.ApproveOrder(ctx, po.ID, 1), ErrInvalidState)
	require.NoError(t, svc.SubmitOrder(ctx, po.ID, 1))
	require.ErrorIs(t, svc.SubmitOrder(ctx, po.ID, 1), ErrInvalidState)
	require.NoError(t, svc.ApproveOrder(ctx, po.ID, 1))
	require.NoError(t, svc.CancelOrder(ctx, po.ID, 1))

	got, err := repo.GetOrder(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, got.Status)
	require.ErrorIs(t, svc.CancelOrder(ctx, po.ID, 1), ErrInvalidState)
}
