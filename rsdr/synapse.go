// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdr

// FeedConn is a feed-forward (visible -> hidden) or recurrent
// (previous hidden -> hidden) connection.  Weights are unbounded.
type FeedConn struct {
	Wt  float32 `desc:"connection weight, learned by a normalized Hebbian rule"`
	Idx int32   `desc:"index of the sending unit -- visible for feed-forward, hidden for recurrent"`
}

// LatConn is a lateral inhibitory connection from another hidden unit.
// Wt is always >= 0: inhibition never becomes excitation.
type LatConn struct {
	Wt  float32 `desc:"inhibitory weight, learned by an anti-Hebbian rule and clamped at 0"`
	Idx int32   `desc:"index of the neighboring hidden unit"`
}

// HiddenCons are all of the receiving connections of one hidden unit.
// Connection topology is fixed at CreateRandom, only weights change.
type HiddenCons struct {
	FF  []FeedConn `desc:"feed-forward connections from the visible receptive field"`
	Lat []LatConn  `desc:"lateral inhibitory connections from hidden units within the inhibition radius"`
	Rec []FeedConn `desc:"recurrent connections from the previous-step state of hidden units within the recurrent radius -- empty when recurrence is disabled"`
}

// NCons returns the total number of connections
func (hc *HiddenCons) NCons() int {
	return len(hc.FF) + len(hc.Lat) + len(hc.Rec)
}

// FFWt returns the feed-forward weight from visible unit vi, and false if
// there is no such connection.
func (hc *HiddenCons) FFWt(vi int) (float32, bool) {
	for ci := range hc.FF {
		if int(hc.FF[ci].Idx) == vi {
			return hc.FF[ci].Wt, true
		}
	}
	return 0, false
}
