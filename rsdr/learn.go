// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdr

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

///////////////////////////////////////////////////////////////////////
//  Learning

// Learn applies all of the local learning rules using the current State:
//   - feed-forward and recurrent (only for units with State > 0):
//     Wt += lrate * State * (send - State * Wt)
//   - lateral (all units): Wt = max(0, Wt + lrate * (State * StateOther - Sparsity^2))
//   - threshold: Thr += lrate * (State - Sparsity)
func (rs *RSDR) Learn(lp *LearnParams) {
	rs.learn(lp, nil)
}

// LearnAttn is Learn with every weight and threshold change of hidden unit i
// scaled by attn[i].
func (rs *RSDR) LearnAttn(lp *LearnParams, attn []float32) error {
	if len(attn) != len(rs.Hiddens) {
		return errors.Wrapf(ErrConfig, "LearnAttn: got %d attention values for %d hidden units", len(attn), len(rs.Hiddens))
	}
	rs.learn(lp, attn)
	return nil
}

func (rs *RSDR) learn(lp *LearnParams, attn []float32) {
	spSq := lp.Sparsity * lp.Sparsity
	for hi := range rs.Hiddens {
		hu := &rs.Hiddens[hi]
		hc := &rs.Cons[hi]
		at := float32(1)
		if attn != nil {
			at = attn[hi]
		}
		st := hu.State
		if st > 0 {
			lr := lp.FF * at * st
			for ci := range hc.FF {
				c := &hc.FF[ci]
				c.Wt += lr * (rs.Visibles[c.Idx].Input - st*c.Wt)
			}
			lr = lp.Rec * at * st
			for ci := range hc.Rec {
				c := &hc.Rec[ci]
				c.Wt += lr * (rs.Hiddens[c.Idx].StatePrev - st*c.Wt)
			}
		}
		lr := lp.Lat * at
		for ci := range hc.Lat {
			c := &hc.Lat[ci]
			c.Wt = math32.Max(0, c.Wt+lr*(st*rs.Hiddens[c.Idx].State-spSq))
		}
		hu.Thr += lp.Thr * at * (st - lp.Sparsity)
	}
}

///////////////////////////////////////////////////////////////////////
//  Reconstruction

// reconBufs hold the per-cell counts of contributing units
type reconBufs struct {
	VisN []int32
	HidN []int32
}

func (rb *reconBufs) Alloc(nv, nh int) {
	rb.VisN = make([]int32, nv)
	rb.HidN = make([]int32, nh)
}

// Reconstruct computes Visible.Recon from the current hidden code through the
// feed-forward weights, and Hidden.Recon (the previous code) through the
// recurrent weights.  See ReconFrom.
func (rs *RSDR) Reconstruct() {
	for vi := range rs.Visibles {
		rs.Visibles[vi].Recon = 0
		rs.recon.VisN[vi] = 0
	}
	for hi := range rs.Hiddens {
		rs.Hiddens[hi].Recon = 0
		rs.recon.HidN[hi] = 0
	}
	for hi := range rs.Hiddens {
		st := rs.Hiddens[hi].State
		if st <= 0 {
			continue
		}
		hc := &rs.Cons[hi]
		for ci := range hc.FF {
			c := &hc.FF[ci]
			rs.Visibles[c.Idx].Recon += c.Wt * st
			rs.recon.VisN[c.Idx]++
		}
		for ci := range hc.Rec {
			c := &hc.Rec[ci]
			rs.Hiddens[c.Idx].Recon += c.Wt * st
			rs.recon.HidN[c.Idx]++
		}
	}
	for vi := range rs.Visibles {
		if n := rs.recon.VisN[vi]; n > 0 {
			rs.Visibles[vi].Recon /= float32(n)
		}
	}
	for hi := range rs.Hiddens {
		if n := rs.recon.HidN[hi]; n > 0 {
			rs.Hiddens[hi].Recon /= float32(n)
		}
	}
}

// ReconFrom reconstructs a visible-space vector from an arbitrary hidden
// code (one value per hidden unit) through the feed-forward weights.  Each
// visible cell is the average of Wt * code over the hidden units with code > 0
// whose receptive field includes it, or 0 if there are none.  Because
// learning drives Wt toward input / State, Wt * State estimates the input.
// recon is only resized if not big enough.
func (rs *RSDR) ReconFrom(code []float32, recon *[]float32) error {
	nh := len(rs.Hiddens)
	if len(code) != nh {
		return errors.Wrapf(ErrConfig, "ReconFrom: got %d code values for %d hidden units", len(code), nh)
	}
	nv := len(rs.Visibles)
	if *recon == nil || cap(*recon) < nv {
		*recon = make([]float32, nv)
	} else {
		*recon = (*recon)[0:nv]
	}
	r := *recon
	for vi := range r {
		r[vi] = 0
		rs.recon.VisN[vi] = 0
	}
	for hi := 0; hi < nh; hi++ {
		cd := code[hi]
		if cd <= 0 {
			continue
		}
		ff := rs.Cons[hi].FF
		for ci := range ff {
			r[ff[ci].Idx] += ff[ci].Wt * cd
			rs.recon.VisN[ff[ci].Idx]++
		}
	}
	for vi := range r {
		if n := rs.recon.VisN[vi]; n > 0 {
			r[vi] /= float32(n)
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////
//  Commit

// StepEnd commits State to StatePrev for every hidden unit.  Call exactly once
// per step, after learning and before the next Activate.
func (rs *RSDR) StepEnd() {
	for hi := range rs.Hiddens {
		rs.Hiddens[hi].StatePrev = rs.Hiddens[hi].State
	}
}
