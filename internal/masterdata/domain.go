package masterdata

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Component is a purchasable part tracked in inventory and consumed by BOMs.
type Component struct {
	ID       int64  `json:"id"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category,omitempty"`
}

// Supplier sells components through offers.
type Supplier struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// SupplierOffer is a priced supplier/component pair. Purchase order lines
// reference offers, never suppliers or components directly.
type SupplierOffer struct {
	ID               int64           `json:"id"`
	SupplierID       int64           `json:"supplier_id"`
	ComponentID      int64           `json:"component_id"`
	SupplierName     string          `json:"supplier_name,omitempty"`
	SupplierPartCode string          `json:"supplier_part_code,omitempty"`
	Price            decimal.Decimal `json:"price"`
	LeadTimeDays     int             `json:"lead_time_days"`
}

var (
	ErrNotFound   = errors.New("masterdata: not found")
	ErrValidation = errors.New("masterdata: invalid input")
	ErrDuplicate  = errors.New("masterdata: duplicate")
)
