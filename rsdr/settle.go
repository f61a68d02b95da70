// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdr

import (
	"github.com/pkg/errors"
)

// settleBufs are the per-unit working values of one settling run.
// Spike and SpikePrev are a ping-pong pair: within a sub-iteration every unit
// reads SpikePrev and writes Spike, and Spike is copied to SpikePrev only
// after all units have been updated.
type settleBufs struct {
	Excite    []float32
	Act       []float32
	Spike     []float32
	SpikePrev []float32
	Count     []int32
}

func (sb *settleBufs) Alloc(n int) {
	sb.Excite = make([]float32, n)
	sb.Act = make([]float32, n)
	sb.Spike = make([]float32, n)
	sb.SpikePrev = make([]float32, n)
	sb.Count = make([]int32, n)
}

func (sb *settleBufs) Init() {
	for i := range sb.Act {
		sb.Act[i] = 0
		sb.Spike[i] = 0
		sb.SpikePrev[i] = 0
		sb.Count[i] = 0
	}
}

///////////////////////////////////////////////////////////////////////
//  Activation

// Activate computes the hidden code for the current visible input and the
// committed previous-step code.  Excitation is computed once, then the units
// compete through lateral inhibition for ap.SettleIters sub-iterations, and
// then for ap.MeasureIters sub-iterations over which spikes are counted into State.
func (rs *RSDR) Activate(ap *ActParams) {
	for hi := range rs.Hiddens {
		rs.sb.Excite[hi] = rs.ExciteFmInputs(hi)
	}
	rs.settle(ap)
	for hi := range rs.Hiddens {
		hu := &rs.Hiddens[hi]
		hu.Excite = rs.sb.Excite[hi]
		hu.Act = rs.sb.Act[hi]
		hu.Spike = rs.sb.Spike[hi]
		hu.SpikePrev = rs.sb.SpikePrev[hi]
		hu.State = rs.rate(ap, hi)
	}
}

// ExciteFmInputs computes the excitation of hidden unit hi: the sum over
// feed-forward and recurrent connections of weight times the sending value
// minus the mean of that connection set's sending values.  An empty
// connection set contributes 0.
func (rs *RSDR) ExciteFmInputs(hi int) float32 {
	hc := &rs.Cons[hi]
	sum := float32(0)
	if n := len(hc.FF); n > 0 {
		mean := float32(0)
		for ci := range hc.FF {
			mean += rs.Visibles[hc.FF[ci].Idx].Input
		}
		mean /= float32(n)
		for ci := range hc.FF {
			c := &hc.FF[ci]
			sum += (rs.Visibles[c.Idx].Input - mean) * c.Wt
		}
	}
	if n := len(hc.Rec); n > 0 {
		mean := float32(0)
		for ci := range hc.Rec {
			mean += rs.Hiddens[hc.Rec[ci].Idx].StatePrev
		}
		mean /= float32(n)
		for ci := range hc.Rec {
			c := &hc.Rec[ci]
			sum += (rs.Hiddens[c.Idx].StatePrev - mean) * c.Wt
		}
	}
	return sum
}

// Inhibit runs the same settle and measure dynamics as Activate, but from the
// given external excitation values instead of the visible input, and returns
// the resulting rates in states (only resized if not big enough).
// The hidden units' own state is not changed -- only their thresholds and
// lateral weights are used.
func (rs *RSDR) Inhibit(ap *ActParams, excite []float32, states *[]float32) error {
	nh := len(rs.Hiddens)
	if len(excite) != nh {
		return errors.Wrapf(ErrConfig, "Inhibit: got %d excitation values for %d hidden units", len(excite), nh)
	}
	copy(rs.sb.Excite, excite)
	rs.settle(ap)
	if *states == nil || cap(*states) < nh {
		*states = make([]float32, nh)
	} else if len(*states) != nh {
		*states = (*states)[0:nh]
	}
	for hi := 0; hi < nh; hi++ {
		(*states)[hi] = rs.rate(ap, hi)
	}
	return nil
}

// settle runs the settle and measure sub-iterations on the settle buffers,
// starting from zero activation and no spikes.
func (rs *RSDR) settle(ap *ActParams) {
	rs.sb.Init()
	for iter := 0; iter < ap.SettleIters; iter++ {
		rs.SubIter(ap, false)
	}
	for iter := 0; iter < ap.MeasureIters; iter++ {
		rs.SubIter(ap, true)
	}
}

// SubIter runs one synchronous leaky integrate-and-fire sub-iteration over
// all hidden units.  Inhibition is computed from the previous sub-iteration's
// spikes.  If measure is true, spikes are counted toward the rate.
func (rs *RSDR) SubIter(ap *ActParams, measure bool) {
	sb := &rs.sb
	for hi := range rs.Hiddens {
		inhib := float32(0)
		lat := rs.Cons[hi].Lat
		for ci := range lat {
			inhib += lat[ci].Wt * sb.SpikePrev[lat[ci].Idx]
		}
		act := (1-ap.Leak)*sb.Act[hi] + sb.Excite[hi] - inhib
		if act > rs.Hiddens[hi].Thr {
			sb.Spike[hi] = 1
			if measure {
				sb.Count[hi]++
			}
			act = 0 // refractory reset
		} else {
			sb.Spike[hi] = 0
		}
		sb.Act[hi] = act
	}
	copy(sb.SpikePrev, sb.Spike)
}

// rate returns the measured firing rate of unit hi from the last settle
func (rs *RSDR) rate(ap *ActParams, hi int) float32 {
	if ap.MeasureIters <= 0 {
		return 0
	}
	return float32(rs.sb.Count[hi]) / float32(ap.MeasureIters)
}
