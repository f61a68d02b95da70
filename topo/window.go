// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package topo

import (
	"github.com/emer/emergent/prjn"
	"github.com/emer/etable/etensor"
	"github.com/goki/ki/ints"
)

// Window connects each receiving unit to the square window of sending units
// within Radius of the receiver's center, where the center is the receiver's
// coordinate scaled into the sending grid.  Windows are clipped at the grid
// boundary (no wrap-around, no padding), so edge units get fewer connections.
// Window implements the prjn.Pattern interface.
type Window struct {
	Radius  int  `desc:"half-width of the square window -- Disabled (-1) produces no connections"`
	SelfCon bool `desc:"if false, the zero offset (the center unit itself) is excluded -- used for lateral and recurrent sets within one grid"`
}

// NewWindow returns a new Window pattern
func NewWindow(radius int, selfCon bool) *Window {
	return &Window{Radius: radius, SelfCon: selfCon}
}

func (wn *Window) Name() string {
	return "Window"
}

// Size returns the number of units in a full (unclipped) window
func (wn *Window) Size() int {
	if wn.Radius < 0 {
		return 0
	}
	d := 2*wn.Radius + 1
	return d * d
}

// CenterOf returns the center, in send grid coordinates, of receiving unit ri
func CenterOf(send, recv *Grid, ri int) (cx, cy int) {
	rw := recv.Width()
	rx := ri % rw
	ry := ri / rw
	cx = Center(rx, rw, send.Width())
	cy = Center(ry, recv.Height(), send.Height())
	return
}

// Conns returns the sending unit indexes connected to receiving unit ri,
// in row-major order.
func (wn *Window) Conns(send, recv *Grid, ri int) []int {
	if wn.Radius < 0 {
		return nil
	}
	cx, cy := CenterOf(send, recv, ri)
	sw := send.Width()
	sx0 := ints.MaxInt(cx-wn.Radius, 0)
	sx1 := ints.MinInt(cx+wn.Radius, sw-1)
	sy0 := ints.MaxInt(cy-wn.Radius, 0)
	sy1 := ints.MinInt(cy+wn.Radius, send.Height()-1)
	var sis []int
	for sy := sy0; sy <= sy1; sy++ {
		for sx := sx0; sx <= sx1; sx++ {
			if !wn.SelfCon && sx == cx && sy == cy {
				continue
			}
			sis = append(sis, sy*sw+sx)
		}
	}
	return sis
}

// Connect implements prjn.Pattern
func (wn *Window) Connect(send, recv *etensor.Shape, same bool) (sendn, recvn *etensor.Int32, cons *etensor.Bits) {
	sendn, recvn, cons = prjn.NewTensors(send, recv)
	sg := GridFromShape(send)
	rg := GridFromShape(recv)
	sNtot := send.Len()
	rnv := recvn.Values
	snv := sendn.Values
	for ri := 0; ri < rg.Len(); ri++ {
		for _, si := range wn.Conns(sg, rg, ri) {
			cons.Values.Set(ri*sNtot+si, true)
			rnv[ri]++
			snv[si]++
		}
	}
	return
}

// RecvConns runs the given pattern between two grids and returns, for each
// receiving unit, the connected sending unit indexes in ascending order.
// Any prjn.Pattern can be used, e.g. prjn.NewFull() for all-to-all.
func RecvConns(pat prjn.Pattern, send, recv *Grid) [][]int {
	_, recvn, cons := pat.Connect(&send.Shp, &recv.Shp, send == recv)
	nr := recv.Len()
	ns := send.Len()
	rc := make([][]int, nr)
	for ri := 0; ri < nr; ri++ {
		nc := int(recvn.Values[ri])
		if nc == 0 {
			continue
		}
		sis := make([]int, 0, nc)
		off := ri * ns
		for si := 0; si < ns; si++ {
			if cons.Values.Index(off + si) {
				sis = append(sis, si)
			}
		}
		rc[ri] = sis
	}
	return rc
}
