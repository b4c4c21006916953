package spatial

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, Linspace(0, 1, 3))
	assert.Equal(t, []float64{2, 2}, Linspace(2, 2, 2))
}

func TestMesh(t *testing.T) {
	extent := r2.RectFromPoints(r2.Point{X: 0, Y: 10}, r2.Point{X: 4, Y: 20})
	meshX, meshY := Mesh(extent, 3)

	rows, cols := meshX.Dims()
	require.Equal(t, 3, rows)
	require.Equal(t, 3, cols)

	for i := 0; i < 3; i++ {
		assert.Equal(t, []float64{0, 2, 4}, meshX.RawRowView(i), "meshX row %d", i)
	}
	want := []float64{10, 15, 20}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, want[i], meshY.At(i, j))
		}
	}
}

func TestFlippedRow(t *testing.T) {
	assert.Equal(t, 99, FlippedRow(100, 0))
	assert.Equal(t, 0, FlippedRow(100, 99))
	assert.Equal(t, 1, FlippedRow(3, 1))
}
