// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package htsl

import (
	"math"

	"github.com/chewxy/math32"
)

// maxNodes is the most units a layer can have and still be addressed by PredConn.Idx
const maxNodes = math.MaxUint16 + 1

// PredConn is a prediction connection, from a node in the layer above
// (feedback) or a hidden unit in the same layer (lateral).
type PredConn struct {
	Wt      float32 `desc:"learned weight"`
	Falloff float32 `desc:"fixed distance-based attenuation, in (0,1]"`
	Idx     uint16  `desc:"index of the sending unit within its layer"`
}

// Node is the prediction node paired with one hidden unit.  It predicts the
// hidden unit's next State from the predictions of the layer above and the
// current code of its own layer.
type Node struct {
	FbCons  []PredConn `desc:"feedback connections from nodes of the layer above -- empty for the top layer"`
	LatCons []PredConn `desc:"lateral connections from other hidden units of the same layer"`

	Act       float32 `desc:"net prediction input: weighted feedback plus lateral plus Bias"`
	ActPrev   float32 `desc:"Act as of the previous step"`
	State     float32 `desc:"sigmoid of Act"`
	StatePrev float32 `desc:"State as of the previous step"`
	Usage     float32 `desc:"running average of how often this node's hidden unit is active when it was predicted to be"`
	Recon     float32 `desc:"sparse predicted next hidden State: node activations settled through the layer's own inhibition"`
	ReconPrev float32 `desc:"Recon as of the previous step -- the prediction that the current State is scored against"`
	Bias      float32 `desc:"learned bias on Act"`
	Err       float32 `desc:"prediction error from the last LearnPrediction: target - ReconPrev"`
}

// UsageGain returns the multiplier on positive weight changes toward this node
func (nd *Node) UsageGain(lowUsagePref float32) float32 {
	return 1 + lowUsagePref*(1-nd.Usage)
}

// Sigmoid is the logistic function
func Sigmoid(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}
