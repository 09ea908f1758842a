package stock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToBaseQuantity(t *testing.T) {
	require.InDelta(t, 5.0, ToBaseQuantity(5, 1), 1e-9)
	require.InDelta(t, 60.0, ToBaseQuantity(5, 12), 1e-9)
	require.InDelta(t, -60.0, ToBaseQuantity(-5, 12), 1e-9)
}

func TestToBaseQuantityInvertible(t *testing.T) {
	quantities := []float64{1, 3, 5.5, 0.25, 1234.75}
	rates := []float64{1, 6, 12, 24, 0.5}

	for _, qty := range quantities {
		for _, rate := range rates {
			net := ToBaseQuantity(qty, rate) + ToBaseQuantity(-qty, rate)
			require.Zero(t, net, "qty=%v rate=%v", qty, rate)
		}
	}
}
