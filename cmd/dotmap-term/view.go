package main

import (
	"math"

	"github.com/paulmach/orb"
)

// view maps terminal cells to grid coordinates. Each grid unit spans an
// equal share of the drawable area; the status line is not part of it.
type view struct {
	bound      orb.Bound
	cols, rows int
}

func newView(b orb.Bound, cols, rows int) view {
	return view{bound: b, cols: max(cols, 1), rows: max(rows, 1)}
}

func (v view) span() (w, h float64) {
	return v.bound.Max[0] - v.bound.Min[0] + 1, v.bound.Max[1] - v.bound.Min[1] + 1
}

// cellToGrid returns the grid point under the center of a cell.
func (v view) cellToGrid(col, row int) (x, y float64) {
	w, h := v.span()
	x = v.bound.Min[0] - 0.5 + (float64(col)+0.5)*w/float64(v.cols)
	y = v.bound.Min[1] - 0.5 + (float64(row)+0.5)*h/float64(v.rows)
	return x, y
}

// gridToCell returns the cell showing a grid point; ok is false off screen.
func (v view) gridToCell(x, y float64) (col, row int, ok bool) {
	w, h := v.span()
	col = int(math.Floor((x - v.bound.Min[0] + 0.5) / w * float64(v.cols)))
	row = int(math.Floor((y - v.bound.Min[1] + 0.5) / h * float64(v.rows)))
	ok = col >= 0 && col < v.cols && row >= 0 && row < v.rows
	return col, row, ok
}

// contains reports whether a cell is inside the drawable area.
func (v view) contains(col, row int) bool {
	return col >= 0 && col < v.cols && row >= 0 && row < v.rows
}
