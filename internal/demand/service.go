package demand

import (
	"context"
)

// RepositoryPort describes the reads the aggregator needs.
type RepositoryPort interface {
	ListBOMEntries(ctx context.Context, componentID int64) ([]BOMEntry, error)
	ListOpenOrderLines(ctx context.Context, productIDs []int64) ([]SalesOrderLine, error)
}

// Service computes outstanding component demand across open sales orders.
type Service struct {
	repo RepositoryPort
}

// NewService constructs demand service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// RequiredQuantity returns the total quantity of a component required by all
// non-terminal sales orders. A component without BOM entries short-circuits to
// zero without touching the sales order tables.
func (s *Service) RequiredQuantity(ctx context.Context, componentID int64) (int64, error) {
	entries, err := s.repo.ListBOMEntries(ctx, componentID)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	lines, err := s.repo.ListOpenOrderLines(ctx, productIDs(entries))
	if err != nil {
		return 0, err
	}
	return Accumulate(entries, lines), nil
}

// RequiredBreakdown returns per-product demand contributions for a component.
func (s *Service) RequiredBreakdown(ctx context.Context, componentID int64) ([]Breakdown, error) {
	entries, err := s.repo.ListBOMEntries(ctx, componentID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	lines, err := s.repo.ListOpenOrderLines(ctx, productIDs(entries))
	if err != nil {
		return nil, err
	}
	open := make(map[int64]int64, len(entries))
	for _, line := range lines {
		if TerminalStatus(line.OrderStatus) {
			continue
		}
		open[line.ProductID] += line.Qty
	}
	result := make([]Breakdown, 0, len(entries))
	for _, entry := range entries {
		qty := open[entry.ProductID]
		result = append(result, Breakdown{
			ProductID:  entry.ProductID,
			QtyPerUnit: entry.QtyPerUnit,
			OpenQty:    qty,
			Required:   qty * entry.QtyPerUnit,
		})
	}
	return result, nil
}

func productIDs(entries []BOMEntry) []int64 {
	ids := make([]int64, 0, len(entries))
	seen := make(map[int64]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.ProductID]; ok {
			continue
		}
		seen[entry.ProductID] = struct{}{}
		ids = append(ids, entry.ProductID)
	}
	return ids
}
