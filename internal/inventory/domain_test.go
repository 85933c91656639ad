package inventory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyPriorityOrder(t *testing.T) {
	cases := []struct {
		name string
		in   PositionInput
		want Health
	}{
		{"zero stock is critical regardless of cover", PositionInput{OnHand: 0, ReorderLevel: 5, OnOrder: 20, Required: 15}, HealthCritical},
		{"negative stock is critical", PositionInput{OnHand: -2}, HealthCritical},
		{"cover below demand is insufficient", PositionInput{OnHand: 5, OnOrder: 3, Required: 10}, HealthInsufficient},
		{"at reorder level is low", PositionInput{OnHand: 5, ReorderLevel: 10}, HealthLow},
		{"triple reorder with demand above stock", PositionInput{OnHand: 31, ReorderLevel: 10, OnOrder: 20, Required: 40}, HealthHighButNeeded},
		{"triple reorder without demand is excess", PositionInput{OnHand: 31, ReorderLevel: 10}, HealthExcess},
		{"otherwise healthy", PositionInput{OnHand: 15, ReorderLevel: 10}, HealthHealthy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.in))
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	known := map[Health]bool{
		HealthCritical: true, HealthInsufficient: true, HealthLow: true,
		HealthHighButNeeded: true, HealthExcess: true, HealthHealthy: true,
	}
	for onHand := int64(0); onHand <= 12; onHand += 3 {
		for reorder := int64(0); reorder <= 6; reorder += 3 {
			for onOrder := int64(0); onOrder <= 6; onOrder += 3 {
				for required := int64(0); required <= 12; required += 4 {
					got := Classify(PositionInput{OnHand: onHand, ReorderLevel: reorder, OnOrder: onOrder, Required: required})
					require.True(t, known[got], "unknown class %q for %d/%d/%d/%d", got, onHand, reorder, onOrder, required)
				}
			}
		}
	}
}

func TestClassifyZeroReorderLevel(t *testing.T) {
	// no reorder level configured: the 3x excess rules never fire
	require.Equal(t, HealthHealthy, Classify(PositionInput{OnHand: 1}))
	require.Equal(t, HealthHealthy, Classify(PositionInput{OnHand: 1000}))
	require.Equal(t, HealthHealthy, Classify(PositionInput{OnHand: 5, Required: 2, OnOrder: 5}))
}

func TestDeriveProjections(t *testing.T) {
	pos := Derive(7, PositionInput{OnHand: 5, ReorderLevel: 10, OnOrder: 8, Required: 11})
	require.EqualValues(t, 2, pos.ProjectedAfterOrders)
	require.EqualValues(t, 6, pos.CurrentShortage)
	require.Equal(t, HealthLow, pos.Health)
	require.EqualValues(t, 7, pos.ComponentID)

	surplus := Derive(7, PositionInput{OnHand: 20, ReorderLevel: 10, Required: 5})
	require.EqualValues(t, 0, surplus.CurrentShortage)
	require.EqualValues(t, 15, surplus.ProjectedAfterOrders)
}

func TestDeriveLowScenario(t *testing.T) {
	// reorder_level=10, on_hand=5, no cover and no demand: low
	pos := Derive(1, PositionInput{OnHand: 5, ReorderLevel: 10})
	require.Equal(t, HealthLow, pos.Health)
}
