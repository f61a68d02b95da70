// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdr

import (
	"github.com/emer/emergent/erand"
	"github.com/emer/etable/minmax"
	"github.com/goki/ki/ints"
)

///////////////////////////////////////////////////////////////////////
//  act.go contains the activation and learning params for the RSDR

// ActParams are the spiking competition parameters, used by Activate and Inhibit
type ActParams struct {
	SettleIters  int     `def:"20" min:"0" desc:"number of sub-iterations run first to let lateral competition settle -- spikes here do not count toward State"`
	MeasureIters int     `def:"10" min:"1" desc:"number of sub-iterations over which spikes are counted -- State = spikes / MeasureIters"`
	Leak         float32 `def:"0.1" min:"0" max:"1" desc:"proportion of activation lost on each sub-iteration"`
}

func (ap *ActParams) Defaults() {
	ap.SettleIters = 20
	ap.MeasureIters = 10
	ap.Leak = 0.1
	ap.Update()
}

// Update must be called after any changes to parameters
func (ap *ActParams) Update() {
	ap.SettleIters = ints.MaxInt(ap.SettleIters, 0)
	ap.MeasureIters = ints.MaxInt(ap.MeasureIters, 1)
}

// LearnParams are the learning rates of each of the local rules, and the
// target sparsity that lateral and threshold learning regulate toward.
type LearnParams struct {
	FF       float32 `def:"0.05" min:"0" desc:"feed-forward normalized Hebbian learning rate"`
	Rec      float32 `def:"0.05" min:"0" desc:"recurrent normalized Hebbian learning rate"`
	Lat      float32 `def:"0.05" min:"0" desc:"lateral anti-Hebbian learning rate"`
	Thr      float32 `def:"0.01" min:"0" desc:"threshold homeostasis rate"`
	Sparsity float32 `def:"0.02" min:"0" max:"1" desc:"target average State of each unit"`
}

func (lp *LearnParams) Defaults() {
	lp.FF = 0.05
	lp.Rec = 0.05
	lp.Lat = 0.05
	lp.Thr = 0.01
	lp.Sparsity = 0.02
}

func (lp *LearnParams) Update() {
}

// InitParams are the initial weight and threshold values for CreateRandom
type InitParams struct {
	Wt    minmax.F32 `desc:"uniform range of initial feed-forward and recurrent weights"`
	Inhib minmax.F32 `desc:"uniform range of initial lateral inhibitory weights -- must be >= 0"`
	Thr   float32    `def:"0.5" desc:"initial threshold of every hidden unit"`
}

func (ip *InitParams) Defaults() {
	ip.Wt.Set(-0.01, 0.01)
	ip.Inhib.Set(0, 0.1)
	ip.Thr = 0.5
}

func (ip *InitParams) Update() {
}

// UniformRnd returns the erand parameters for a uniform draw over rng:
// Mean at the midpoint and Var the half-range.
func UniformRnd(rng minmax.F32) erand.RndParams {
	mn, mx := float64(rng.Min), float64(rng.Max)
	return erand.RndParams{Dist: erand.Uniform, Mean: 0.5 * (mn + mx), Var: 0.5 * (mx - mn)}
}
