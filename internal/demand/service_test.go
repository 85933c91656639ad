package demand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	entries     map[int64][]BOMEntry
	lines       []SalesOrderLine
	lineQueries int
}

func (r *memoryRepo) ListBOMEntries(ctx context.Context, componentID int64) ([]BOMEntry, error) {
	return r.entries[componentID], nil
}

func (r *memoryRepo) ListOpenOrderLines(ctx context.Context, productIDs []int64) ([]SalesOrderLine, error) {
	r.lineQueries++
	wanted := map[int64]bool{}
	for _, id := range productIDs {
		wanted[id] = true
	}
	var result []SalesOrderLine
	for _, line := range r.lines {
		if wanted[line.ProductID] && !TerminalStatus(line.OrderStatus) {
			result = append(result, line)
		}
	}
	return result, nil
}

func TestRequiredQuantityNoBOMShortCircuits(t *testing.T) {
	repo := &memoryRepo{entries: map[int64][]BOMEntry{}}
	svc := NewService(repo)

	required, err := svc.RequiredQuantity(context.Background(), 7)
	require.NoError(t, err)
	require.EqualValues(t, 0, required)
	require.Zero(t, repo.lineQueries, "sales orders must not be queried without BOM entries")
}

func TestRequiredQuantityAdditivity(t *testing.T) {
	repo := &memoryRepo{
		entries: map[int64][]BOMEntry{
			1: {
				{ComponentID: 1, ProductID: 10, QtyPerUnit: 2},
				{ComponentID: 1, ProductID: 20, QtyPerUnit: 5},
			},
		},
		lines: []SalesOrderLine{
			{OrderID: 100, ProductID: 10, Qty: 3, OrderStatus: "CONFIRMED"},
			{OrderID: 101, ProductID: 10, Qty: 1, OrderStatus: "IN_PRODUCTION"},
			{OrderID: 102, ProductID: 20, Qty: 2, OrderStatus: "CONFIRMED"},
			{OrderID: 103, ProductID: 20, Qty: 9, OrderStatus: OrderStatusCompleted},
			{OrderID: 104, ProductID: 10, Qty: 4, OrderStatus: OrderStatusCancelled},
		},
	}
	svc := NewService(repo)

	// 2*(3+1) + 5*2 = 18; completed/cancelled contribute nothing
	required, err := svc.RequiredQuantity(context.Background(), 1)
	require.NoError(t, err)
	require.EqualValues(t, 18, required)
}

func TestAccumulateIgnoresUnmappedProducts(t *testing.T) {
	entries := []BOMEntry{{ComponentID: 1, ProductID: 10, QtyPerUnit: 2}}
	lines := []SalesOrderLine{
		{ProductID: 10, Qty: 3, OrderStatus: "CONFIRMED"},
		{ProductID: 99, Qty: 50, OrderStatus: "CONFIRMED"},
	}
	require.EqualValues(t, 6, Accumulate(entries, lines))
}

func TestAccumulateTerminalStatusCaseInsensitive(t *testing.T) {
	entries := []BOMEntry{{ComponentID: 1, ProductID: 10, QtyPerUnit: 1}}
	lines := []SalesOrderLine{
		{ProductID: 10, Qty: 5, OrderStatus: "completed"},
		{ProductID: 10, Qty: 2, OrderStatus: "Cancelled"},
	}
	require.EqualValues(t, 0, Accumulate(entries, lines))
}

func TestRequiredBreakdown(t *testing.T) {
	repo := &memoryRepo{
		entries: map[int64][]BOMEntry{
			1: {
				{ComponentID: 1, ProductID: 10, QtyPerUnit: 2},
				{ComponentID: 1, ProductID: 20, QtyPerUnit: 5},
			},
		},
		lines: []SalesOrderLine{
			{OrderID: 100, ProductID: 10, Qty: 3, OrderStatus: "CONFIRMED"},
		},
	}
	svc := NewService(repo)

	breakdown, err := svc.RequiredBreakdown(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, breakdown, 2)
	require.EqualValues(t, 6, breakdown[0].Required)
	require.EqualValues(t, 0, breakdown[1].Required)
}
