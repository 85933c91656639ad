package procurement

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Purchase order lifecycle statuses. PARTIALLY_RECEIVED and FULLY_RECEIVED are
// normally derived from line receipts rather than set by hand.
type POStatus string

const (
	StatusDraft             POStatus = "DRAFT"
	StatusPendingApproval   POStatus = "PENDING_APPROVAL"
	StatusApproved          POStatus = "APPROVED"
	StatusPartiallyReceived POStatus = "PARTIALLY_RECEIVED"
	StatusFullyReceived     POStatus = "FULLY_RECEIVED"
	StatusCancelled         POStatus = "CANCELLED"
)

// Tab buckets purchase orders for the two-tab purchasing screen.
type Tab string

const (
	TabInProgress Tab = "in_progress"
	TabCompleted  Tab = "completed"
)

// PurchaseOrder domain model. Status holds the stored status; callers that
// display lifecycle state should go through DeriveStatus.
type PurchaseOrder struct {
	ID        int64
	Number    string
	Status    POStatus
	OrderedAt time.Time
	Note      string
	Lines     []POLine
}

// POLine is a single supplier order line. ReceivedQty is monotonically
// non-decreasing; over-receipt is tolerated and clamps to zero owing.
type POLine struct {
	ID           int64
	POID         int64
	OfferID      int64
	ComponentID  int64
	SupplierID   int64
	SupplierName string
	OrderQty     int64
	ReceivedQty  int64
	Price        decimal.Decimal
}

// Owing is the outstanding quantity on the line, floored at zero.
func (l POLine) Owing() int64 {
	owing := l.OrderQty - l.ReceivedQty
	if owing < 0 {
		return 0
	}
	return owing
}

// OverReceived reports whether more stock was booked in than ordered.
func (l POLine) OverReceived() bool {
	return l.ReceivedQty > l.OrderQty
}

// DeriveStatus computes the displayed status of a purchase order from its
// receipt progress. Only a stored APPROVED status is overridden; every other
// status, and an order without lines, passes through unchanged.
func DeriveStatus(stored POStatus, lines []POLine) POStatus {
	if !statusEqual(stored, StatusApproved) || len(lines) == 0 {
		return stored
	}
	allReceived := true
	anyPartial := false
	for _, line := range lines {
		if line.Owing() > 0 {
			allReceived = false
		}
		if line.ReceivedQty > 0 && line.ReceivedQty < line.OrderQty {
			anyPartial = true
		}
	}
	switch {
	case allReceived:
		return StatusFullyReceived
	case anyPartial:
		return StatusPartiallyReceived
	default:
		return stored
	}
}

// DerivedStatus applies DeriveStatus to the order's own lines.
func (po PurchaseOrder) DerivedStatus() POStatus {
	return DeriveStatus(po.Status, po.Lines)
}

// TabFor places a derived status into the in-progress or completed tab.
func TabFor(status POStatus) Tab {
	if statusEqual(status, StatusFullyReceived) || statusEqual(status, StatusCancelled) {
		return TabCompleted
	}
	return TabInProgress
}

// DashboardMetrics holds the purchasing dashboard counters. A fully received
// order is excluded from every counter.
type DashboardMetrics struct {
	Pending         int `json:"pending"`
	Approved        int `json:"approved"`
	PartialReceived int `json:"partial_received"`
}

// Summarise classifies orders into dashboard counters in a single pass.
func Summarise(orders []PurchaseOrder) DashboardMetrics {
	var m DashboardMetrics
	for _, po := range orders {
		switch {
		case statusEqual(po.Status, StatusDraft) || statusEqual(po.Status, StatusPendingApproval):
			m.Pending++
		case statusEqual(po.Status, StatusApproved) || statusEqual(po.Status, StatusPartiallyReceived):
			if po.DerivedStatus() == StatusFullyReceived {
				continue
			}
			m.Approved++
			for _, line := range po.Lines {
				if line.ReceivedQty > 0 {
					m.PartialReceived++
					break
				}
			}
		}
	}
	return m
}

// Filter restricts order listings. Zero values mean no restriction; populated
// fields combine with AND semantics. Status is matched against the derived
// status.
type Filter struct {
	Status   POStatus
	Search   string
	Supplier string
	From     time.Time
	To       time.Time
}

// Match reports whether the order passes the filter. The order's derived
// status must already be resolved by the caller via DerivedStatus.
func (f Filter) Match(po PurchaseOrder) bool {
	if f.Status != "" && !statusEqual(po.DerivedStatus(), f.Status) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(po.Number), strings.ToLower(f.Search)) {
		return false
	}
	if f.Supplier != "" {
		found := false
		for _, line := range po.Lines {
			if strings.EqualFold(line.SupplierName, f.Supplier) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.From.IsZero() {
		start := time.Date(f.From.Year(), f.From.Month(), f.From.Day(), 0, 0, 0, 0, f.From.Location())
		if po.OrderedAt.Before(start) {
			return false
		}
	}
	if !f.To.IsZero() {
		end := time.Date(f.To.Year(), f.To.Month(), f.To.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), f.To.Location())
		if po.OrderedAt.After(end) {
			return false
		}
	}
	return true
}

func statusEqual(a, b POStatus) bool {
	return strings.EqualFold(string(a), string(b))
}

var (
	// ErrInvalidState occurs when action violates status workflow.
	ErrInvalidState = errors.New("procurement: invalid state transition")
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("procurement: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("procurement: invalid input")
)
