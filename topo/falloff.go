// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package topo

import (
	"github.com/chewxy/math32"
)

// Falloff provides fixed gaussian attenuation of connections as a function of
// their offset from the receiving unit's center.  Factors are precomputed.
type Falloff struct {
	Radius int       `desc:"half-width of the window the factors cover"`
	Sigma  float32   `def:"0.5" desc:"normalized gaussian sigma as proportion of Radius"`
	Wts    []float32 `inactive:"+" desc:"gaussian factors as function of offset, precomputed, row-major over (dy, dx) in [-Radius, Radius]"`
}

func (fo *Falloff) Defaults() {
	fo.Sigma = 0.5
	fo.Update()
}

func (fo *Falloff) Update() {
	if fo.Radius < 0 {
		fo.Wts = nil
		return
	}
	d := 2*fo.Radius + 1
	if len(fo.Wts) != d*d {
		fo.Wts = make([]float32, d*d)
	}
	sig := float32(fo.Radius) * fo.Sigma
	for dy := -fo.Radius; dy <= fo.Radius; dy++ {
		for dx := -fo.Radius; dx <= fo.Radius; dx++ {
			wi := (dy+fo.Radius)*d + dx + fo.Radius
			if sig <= 0 {
				fo.Wts[wi] = 1
				continue
			}
			dst := float32(dx*dx + dy*dy)
			fo.Wts[wi] = math32.Exp(-dst / (2 * sig * sig))
		}
	}
}

// Factor returns the attenuation for offset dx, dy -- 0 outside the window
func (fo *Falloff) Factor(dx, dy int) float32 {
	if dx < -fo.Radius || dx > fo.Radius || dy < -fo.Radius || dy > fo.Radius {
		return 0
	}
	d := 2*fo.Radius + 1
	return fo.Wts[(dy+fo.Radius)*d+dx+fo.Radius]
}

// Offset returns the offset of sending unit si from the center of receiving unit ri
func Offset(send, recv *Grid, ri, si int) (dx, dy int) {
	cx, cy := CenterOf(send, recv, ri)
	sw := send.Width()
	return si%sw - cx, si/sw - cy
}
