package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/printfleet/internal/pricing"
)

func TestCompareStoredAssets(t *testing.T) {
	svc, backend := newTestService(t)
	cheap := testSpool
	cheap.ID, cheap.SpoolPrice = "m2", 60
	backend.Materials.Seed(testSpool, cheap)

	side := Side{EquipmentID: "p1", MaterialID: "m1", PrintHours: 2, WeightGrams: 50, FailureRate: 10}
	cmp, err := svc.Compare(context.Background(), side, side)
	require.NoError(t, err)
	assert.Equal(t, pricing.WinnerTie, cmp.Winner)

	b := side
	b.MaterialID = "m2"
	cmp, err = svc.Compare(context.Background(), side, b)
	require.NoError(t, err)
	assert.Equal(t, pricing.WinnerB, cmp.Winner)
	assert.InDelta(t, 3.3, cmp.Diff, 1e-9)
}

func TestCompareRequiresSelection(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Compare(context.Background(), Side{EquipmentID: "p1"}, Side{EquipmentID: "p1", MaterialID: "m1"})
	assert.ErrorIs(t, err, ErrSelectionRequired)
}

