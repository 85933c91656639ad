package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	records map[int64]*InventoryRecord
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo(records ...InventoryRecord) *memoryRepo {
	repo := &memoryRepo{records: map[int64]*InventoryRecord{}}
	for _, rec := range records {
		copied := rec
		repo.records[rec.ComponentID] = &copied
	}
	return repo
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetRecord(ctx context.Context, componentID int64) (InventoryRecord, error) {
	rec, ok := r.records[componentID]
	if !ok {
		return InventoryRecord{}, ErrNotFound
	}
	return *rec, nil
}

func (r *memoryRepo) ListRecords(ctx context.Context) ([]InventoryRecord, error) {
	var result []InventoryRecord
	for id := int64(0); id <= 100; id++ {
		if rec, ok := r.records[id]; ok {
			result = append(result, *rec)
		}
	}
	return result, nil
}

func (t *memoryTx) GetRecordForUpdate(ctx context.Context, componentID int64) (InventoryRecord, error) {
	return t.repo.GetRecord(ctx, componentID)
}

func (t *memoryTx) UpdateOnHand(ctx context.Context, componentID, onHand int64) error {
	rec, ok := t.repo.records[componentID]
	if !ok {
		return ErrNotFound
	}
	rec.OnHand = onHand
	return nil
}

func (t *memoryTx) UpdateReorderLevel(ctx context.Context, componentID, level int64) error {
	rec, ok := t.repo.records[componentID]
	if !ok {
		return ErrNotFound
	}
	rec.ReorderLevel = level
	return nil
}

type stubDemand map[int64]int64

func (s stubDemand) RequiredQuantity(ctx context.Context, componentID int64) (int64, error) {
	return s[componentID], nil
}

type stubProcurement map[int64]int64

func (s stubProcurement) OnOrder(ctx context.Context, componentID int64) (int64, error) {
	return s[componentID], nil
}

func TestGetPositionCombinesSources(t *testing.T) {
	repo := newMemoryRepo(InventoryRecord{ComponentID: 1, OnHand: 5, ReorderLevel: 10, Location: "A-03"})
	svc := NewService(repo, stubDemand{1: 11}, stubProcurement{1: 8}, nil, nil, nil)

	pos, err := svc.GetPosition(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, HealthLow, pos.Health)
	require.EqualValues(t, 2, pos.ProjectedAfterOrders)
	require.EqualValues(t, 6, pos.CurrentShortage)
	require.Equal(t, "A-03", pos.Location)
}

func TestGetPositionMissingRecordDegradesToZero(t *testing.T) {
	svc := NewService(newMemoryRepo(), stubDemand{}, stubProcurement{}, nil, nil, nil)

	pos, err := svc.GetPosition(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, HealthCritical, pos.Health)
	require.EqualValues(t, 0, pos.OnHand)
	require.EqualValues(t, 0, pos.CurrentShortage)
}

func TestGetPositionCriticalBeatsCover(t *testing.T) {
	repo := newMemoryRepo(InventoryRecord{ComponentID: 2, OnHand: 0, ReorderLevel: 5})
	svc := NewService(repo, stubDemand{2: 15}, stubProcurement{2: 20}, nil, nil, nil)

	pos, err := svc.GetPosition(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, HealthCritical, pos.Health)
}

func TestListPositionsCounts(t *testing.T) {
	repo := newMemoryRepo(
		InventoryRecord{ComponentID: 1, OnHand: 0},
		InventoryRecord{ComponentID: 2, OnHand: 5, ReorderLevel: 10},
		InventoryRecord{ComponentID: 3, OnHand: 50, ReorderLevel: 10},
	)
	svc := NewService(repo, stubDemand{}, stubProcurement{}, nil, nil, nil)

	dashboard, err := svc.ListPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, dashboard.Positions, 3)
	require.Equal(t, 1, dashboard.Counts[HealthCritical])
	require.Equal(t, 1, dashboard.Counts[HealthLow])
	require.Equal(t, 1, dashboard.Counts[HealthExcess])
}

func TestAdjustOnHandGuardsNegative(t *testing.T) {
	repo := newMemoryRepo(InventoryRecord{ComponentID: 1, OnHand: 3})
	svc := NewService(repo, stubDemand{}, stubProcurement{}, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.AdjustOnHand(ctx, AdjustInput{ComponentID: 1, Delta: -5, ActorID: 1})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	rec, err := svc.AdjustOnHand(ctx, AdjustInput{ComponentID: 1, Delta: -3, ActorID: 1})
	require.NoError(t, err)
	require.EqualValues(t, 0, rec.OnHand)

	_, err = svc.AdjustOnHand(ctx, AdjustInput{ComponentID: 1, Delta: 0, ActorID: 1})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestSetReorderLevel(t *testing.T) {
	repo := newMemoryRepo(InventoryRecord{ComponentID: 1, OnHand: 3})
	svc := NewService(repo, stubDemand{}, stubProcurement{}, nil, nil, nil)
	ctx := context.Background()

	require.ErrorIs(t, svc.SetReorderLevel(ctx, 1, -1, 1), ErrInvalidQuantity)
	require.NoError(t, svc.SetReorderLevel(ctx, 1, 12, 1))

	rec, err := repo.GetRecord(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 12, rec.ReorderLevel)
}
