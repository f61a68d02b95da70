// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package htsl

import (
	"strconv"

	"github.com/emer/emergent/params"
	"github.com/emer/etable/minmax"
	"github.com/emer/htsl/rsdr"
	"github.com/pkg/errors"
)

// LayerDesc is the topology and learning configuration of one layer.
// Values are copied into the Network at CreateRandom and not changed after.
// LayerDesc implements the params.Styler interface (TypeName is always "Layer"),
// so that params sheets can be applied to a list of descriptors, see ApplyDescParams.
type LayerDesc struct {
	Nm               string           `desc:"name of the layer, for #Name params selectors"`
	Cls              string           `desc:"space-separated classes, for .Class params selectors"`
	Width            int              `def:"16" min:"1" desc:"width of the hidden grid"`
	Height           int              `def:"16" min:"1" desc:"height of the hidden grid"`
	ReceptiveRadius  int              `def:"4" min:"0" desc:"radius of feed-forward receptive fields in the layer's visible grid"`
	InhibitionRadius int              `def:"4" min:"0" desc:"radius of lateral inhibition within the hidden grid"`
	RecurrentRadius  int              `def:"4" min:"-1" desc:"radius of recurrent connections from the previous hidden code -- -1 disables"`
	FeedbackRadius   int              `def:"4" min:"0" desc:"radius of prediction feedback connections from the layer above -- unused for the top layer"`
	LateralRadius    int              `def:"4" min:"0" desc:"radius of lateral prediction connections within the layer"`
	Sparsity         float32          `def:"0.02" min:"0" max:"1" desc:"target proportion of active hidden units"`
	Act              rsdr.ActParams   `view:"inline" desc:"spiking competition parameters"`
	Learn            rsdr.LearnParams `view:"inline" desc:"sparse coder learning rates -- Sparsity is copied from the layer Sparsity"`
	Init             rsdr.InitParams  `view:"inline" desc:"initial sparse coder weights and thresholds"`
	PredWt           minmax.F32       `desc:"uniform range of initial prediction weights"`
	PredFeedback     float32          `def:"1" desc:"gain on the feedback term of prediction node activation"`
	PredLateral      float32          `def:"1" desc:"gain on the lateral term of prediction node activation"`
	PredLrate        float32          `def:"0.4" min:"0" desc:"learning rate for prediction feedback and lateral weights"`
	BiasLrate        float32          `def:"0.01" min:"0" desc:"learning rate for prediction node biases"`
	UsageDecay       float32          `def:"0.01" min:"0" max:"1" desc:"rate constant of the running average of how often a node contributes to its prediction"`
	LowUsagePref     float32          `def:"1" min:"0" desc:"extra gain on weight increases toward under-used source nodes: 1 + LowUsagePref * (1 - Usage)"`
	FalloffSigma     float32          `def:"0.5" min:"0" desc:"gaussian sigma of connection falloff, as a proportion of the connection radius -- 0 = no falloff"`
	AttnFromErr      bool             `desc:"if true, sparse coder learning of each hidden unit is scaled by the magnitude of its prediction error"`
}

func (ld *LayerDesc) Defaults() {
	ld.Width = 16
	ld.Height = 16
	ld.ReceptiveRadius = 4
	ld.InhibitionRadius = 4
	ld.RecurrentRadius = 4
	ld.FeedbackRadius = 4
	ld.LateralRadius = 4
	ld.Sparsity = 0.02
	ld.Act.Defaults()
	ld.Learn.Defaults()
	ld.Learn.Thr = 0.001
	ld.Init.Defaults()
	ld.PredWt.Set(-0.01, 0.01)
	ld.PredFeedback = 1
	ld.PredLateral = 1
	ld.PredLrate = 0.4
	ld.BiasLrate = 0.01
	ld.UsageDecay = 0.01
	ld.LowUsagePref = 1
	ld.FalloffSigma = 0.5
	ld.Update()
}

// Update must be called after any changes to parameters
func (ld *LayerDesc) Update() {
	ld.Act.Update()
	ld.Learn.Sparsity = ld.Sparsity
	ld.Learn.Update()
	ld.Init.Update()
}

// Validate returns an error wrapping rsdr.ErrConfig if the
// descriptor cannot be built
func (ld *LayerDesc) Validate() error {
	switch {
	case ld.Width <= 0 || ld.Height <= 0:
		return errors.Wrapf(rsdr.ErrConfig, "layer %q size %d x %d", ld.Nm, ld.Width, ld.Height)
	case ld.FeedbackRadius < 0 || ld.LateralRadius < 0:
		return errors.Wrapf(rsdr.ErrConfig, "layer %q radii feedback: %d lateral: %d", ld.Nm, ld.FeedbackRadius, ld.LateralRadius)
	case ld.Sparsity < 0 || ld.Sparsity > 1:
		return errors.Wrapf(rsdr.ErrConfig, "layer %q sparsity %g", ld.Nm, ld.Sparsity)
	case ld.PredWt.Min > ld.PredWt.Max:
		return errors.Wrapf(rsdr.ErrConfig, "layer %q prediction weight range %v", ld.Nm, ld.PredWt)
	case ld.Width*ld.Height > maxNodes:
		return errors.Wrapf(rsdr.ErrConfig, "layer %q has %d units, more than the %d addressable by prediction connections", ld.Nm, ld.Width*ld.Height, maxNodes)
	}
	return nil
}

// params.Styler interface

func (ld *LayerDesc) TypeName() string { return "Layer" }
func (ld *LayerDesc) Class() string    { return ld.Cls }
func (ld *LayerDesc) Name() string     { return ld.Nm }

// NewLayerDescs returns n layer descriptors with default values, named
// Hidden0 .. Hidden<n-1>, with the last one having class Top.
func NewLayerDescs(n int) []LayerDesc {
	descs := make([]LayerDesc, n)
	for li := range descs {
		ld := &descs[li]
		ld.Defaults()
		ld.Nm = "Hidden" + strconv.Itoa(li)
	}
	if n > 0 {
		descs[n-1].Cls = "Top"
	}
	return descs
}

// ApplyDescParams applies the given params sheet to each of the descriptors,
// calling Update on each after.  If setMsg is true, a message is logged for
// each param that is set.
func ApplyDescParams(descs []LayerDesc, sheet *params.Sheet, setMsg bool) {
	for li := range descs {
		ld := &descs[li]
		sheet.Apply(ld, setMsg)
		ld.Update()
	}
}
