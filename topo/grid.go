// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package topo

import (
	"github.com/emer/etable/etensor"
	"github.com/goki/mat32"
	"github.com/pkg/errors"
)

// ErrOutOfRange is returned (wrapped) for any unit index or coordinate that
// falls outside of a grid.  Test with errors.Cause(err) == ErrOutOfRange.
var ErrOutOfRange = errors.New("index out of range")

// Disabled is the radius value that turns a connection set off entirely.
const Disabled = -1

// Grid is a 2D layer of units stored in row-major order (Y outer, X inner).
// All flat unit indexes used by rsdr and htsl go through a Grid.
type Grid struct {
	Shp etensor.Shape `desc:"shape of the grid, outer-to-inner: Y then X"`
}

// NewGrid returns a new width x height grid
func NewGrid(width, height int) *Grid {
	g := &Grid{}
	g.Set(width, height)
	return g
}

// GridFromShape returns a grid for a 2D shape.  Higher-dimensional shapes are
// collapsed onto the last two dimensions' layout, which matches their row-major offsets.
func GridFromShape(shp *etensor.Shape) *Grid {
	nd := shp.NumDims()
	switch {
	case nd == 0:
		return NewGrid(0, 0)
	case nd == 1:
		return NewGrid(shp.Dim(0), 1)
	}
	w := shp.Dim(nd - 1)
	if w == 0 {
		return NewGrid(0, 0)
	}
	return NewGrid(w, shp.Len()/w)
}

// Set configures the size of the grid
func (g *Grid) Set(width, height int) {
	g.Shp.SetShape([]int{height, width}, nil, []string{"Y", "X"})
}

func (g *Grid) Width() int  { return g.Shp.Dim(1) }
func (g *Grid) Height() int { return g.Shp.Dim(0) }
func (g *Grid) Len() int    { return g.Width() * g.Height() }

// InRange returns true if x, y is a valid coordinate in the grid
func (g *Grid) InRange(x, y int) bool {
	return x >= 0 && x < g.Width() && y >= 0 && y < g.Height()
}

// Has returns true if i is a valid flat unit index
func (g *Grid) Has(i int) bool {
	return i >= 0 && i < g.Len()
}

// Check returns an ErrOutOfRange error if i is not a valid flat unit index
func (g *Grid) Check(i int) error {
	if !g.Has(i) {
		return errors.Wrapf(ErrOutOfRange, "unit index %d not in [0, %d)", i, g.Len())
	}
	return nil
}

// Idx returns the flat index of coordinate x, y
func (g *Grid) Idx(x, y int) (int, error) {
	if !g.InRange(x, y) {
		return -1, errors.Wrapf(ErrOutOfRange, "coordinate (%d, %d) not in %d x %d grid", x, y, g.Width(), g.Height())
	}
	return y*g.Width() + x, nil
}

// XY returns the coordinate of flat index i
func (g *Grid) XY(i int) (x, y int, err error) {
	if err = g.Check(i); err != nil {
		return -1, -1, err
	}
	w := g.Width()
	return i % w, i / w, nil
}

// Center maps coord in a grid dimension of fromSize units onto the nearest
// coordinate in a dimension of toSize units, by linear scaling.
func Center(coord, fromSize, toSize int) int {
	if fromSize <= 0 {
		return 0
	}
	scale := float32(toSize) / float32(fromSize)
	return int(mat32.Round(float32(coord) * scale))
}
