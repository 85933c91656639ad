package inventory

import "errors"

// Health classifies a component's stock position.
type Health string

const (
	HealthCritical      Health = "critical"
	HealthInsufficient  Health = "insufficient"
	HealthLow           Health = "low"
	HealthHighButNeeded Health = "highButNeeded"
	HealthExcess        Health = "excess"
	HealthHealthy       Health = "healthy"
)

// InventoryRecord is the stored stock state of a component. ReorderLevel is
// zero when unset.
type InventoryRecord struct {
	ComponentID  int64  `json:"component_id"`
	OnHand       int64  `json:"on_hand"`
	ReorderLevel int64  `json:"reorder_level"`
	Location     string `json:"location"`
}

// PositionInput carries the four quantities the classifier works from.
// Absent upstream values default to zero.
type PositionInput struct {
	OnHand       int64
	ReorderLevel int64
	OnOrder      int64
	Required     int64
}

// Position is the derived stock position of a component.
type Position struct {
	ComponentID          int64  `json:"component_id"`
	OnHand               int64  `json:"on_hand"`
	ReorderLevel         int64  `json:"reorder_level"`
	OnOrder              int64  `json:"on_order"`
	Required             int64  `json:"required"`
	ProjectedAfterOrders int64  `json:"projected_after_orders"`
	CurrentShortage      int64  `json:"current_shortage"`
	Health               Health `json:"health"`
	Location             string `json:"location,omitempty"`
}

// Classify returns exactly one health class; earlier rules win. A zero reorder
// level degenerates the excess rules to always-false, which is intentional: no
// arbitrary threshold applies when none is configured.
func Classify(in PositionInput) Health {
	switch {
	case in.OnHand <= 0:
		return HealthCritical
	case in.OnHand+in.OnOrder < in.Required:
		return HealthInsufficient
	case in.OnHand <= in.ReorderLevel:
		return HealthLow
	case in.ReorderLevel > 0 && in.OnHand > in.ReorderLevel*3 && in.Required > in.OnHand:
		return HealthHighButNeeded
	case in.ReorderLevel > 0 && in.OnHand > in.ReorderLevel*3:
		return HealthExcess
	default:
		return HealthHealthy
	}
}

// Derive computes the full position from the classifier inputs.
func Derive(componentID int64, in PositionInput) Position {
	shortage := in.Required - in.OnHand
	if shortage < 0 {
		shortage = 0
	}
	return Position{
		ComponentID:          componentID,
		OnHand:               in.OnHand,
		ReorderLevel:         in.ReorderLevel,
		OnOrder:              in.OnOrder,
		Required:             in.Required,
		ProjectedAfterOrders: in.OnHand + in.OnOrder - in.Required,
		CurrentShortage:      shortage,
		Health:               Classify(in),
	}
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("inventory: not found")
	// ErrInvalidQuantity indicates a non-positive or malformed quantity.
	ErrInvalidQuantity = errors.New("inventory: invalid quantity")
)
