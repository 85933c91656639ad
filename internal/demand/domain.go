package demand

import (
	"errors"
	"strings"
)

// BOMEntry maps a component into one unit of a product.
type BOMEntry struct {
	ComponentID int64 `json:"component_id"`
	ProductID   int64 `json:"product_id"`
	QtyPerUnit  int64 `json:"qty_per_unit"`
}

// SalesOrderLine is an open order line for a product.
type SalesOrderLine struct {
	OrderID     int64  `json:"order_id"`
	ProductID   int64  `json:"product_id"`
	Qty         int64  `json:"qty"`
	OrderStatus string `json:"order_status"`
}

// Terminal sales order statuses; orders in these states carry no demand.
const (
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// TerminalStatus reports whether a sales order status is excluded from demand.
func TerminalStatus(status string) bool {
	return strings.EqualFold(status, OrderStatusCompleted) || strings.EqualFold(status, OrderStatusCancelled)
}

// Accumulate folds open sales order lines against the component's BOM entries.
// Lines whose product carries no BOM entry for the component contribute zero,
// as do lines on terminal orders.
func Accumulate(entries []BOMEntry, lines []SalesOrderLine) int64 {
	if len(entries) == 0 {
		return 0
	}
	perUnit := make(map[int64]int64, len(entries))
	for _, entry := range entries {
		perUnit[entry.ProductID] = entry.QtyPerUnit
	}
	var required int64
	for _, line := range lines {
		if TerminalStatus(line.OrderStatus) {
			continue
		}
		required += line.Qty * perUnit[line.ProductID]
	}
	return required
}

// Breakdown is the per-product contribution to a component's demand.
type Breakdown struct {
	ProductID  int64 `json:"product_id"`
	QtyPerUnit int64 `json:"qty_per_unit"`
	OpenQty    int64 `json:"open_qty"`
	Required   int64 `json:"required"`
}

// ErrNotFound indicates record missing.
var ErrNotFound = errors.New("demand: not found")
