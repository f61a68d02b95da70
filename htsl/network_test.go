// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package htsl

import (
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/emer/emergent/erand"
	"github.com/emer/emergent/params"
	"github.com/emer/htsl/rsdr"
	"github.com/emer/htsl/topo"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// difTol is the numerical difference tolerance for comparing vs. target values
const difTol = float32(1.0e-6)

// testDescs returns a 4x4 then 3x3 layer stack over a 6x6 input
func testDescs() []LayerDesc {
	descs := NewLayerDescs(2)
	for li := range descs {
		ld := &descs[li]
		ld.ReceptiveRadius = 2
		ld.InhibitionRadius = 1
		ld.RecurrentRadius = 1
		ld.FeedbackRadius = 1
		ld.LateralRadius = 1
		ld.Sparsity = 0.1
		ld.Init.Wt.Set(0, 1)
		ld.Init.Thr = 0.1
	}
	descs[0].Width, descs[0].Height = 4, 4
	descs[1].Width, descs[1].Height = 3, 3
	descs[1].FeedbackRadius = 0
	return descs
}

func newTestNet(t *testing.T, seed int64) *Network {
	nt := &Network{}
	err := nt.CreateRandom(6, 6, testDescs(), erand.NewSysRand(seed))
	require.NoError(t, err)
	return nt
}

// setInput sets a diagonal line input that moves one cell per step
func setInput(t *testing.T, nt *Network, step int) {
	w := nt.InGrid.Width()
	for y := 0; y < nt.InGrid.Height(); y++ {
		for x := 0; x < w; x++ {
			val := float32(0)
			if (x+y+step)%w == 0 {
				val = 1
			}
			require.NoError(t, nt.SetInputXY(x, y, val))
		}
	}
}

func runSteps(t *testing.T, nt *Network, n int) {
	for step := 0; step < n; step++ {
		setInput(t, nt, step)
		nt.Update()
		nt.Learn()
		nt.StepEnd()
	}
}

func TestCreateRandom(t *testing.T) {
	nt := newTestNet(t, 1)
	require.Equal(t, 2, nt.NumLayers())
	assert.Equal(t, 36, len(nt.PredInput))
	assert.Equal(t, 9, len(nt.Targets))

	ly0, err := nt.Layer(0)
	require.NoError(t, err)
	ly1, err := nt.Layer(1)
	require.NoError(t, err)
	assert.Equal(t, 36, ly0.RSDR.NumVisible())
	assert.Equal(t, 16, ly1.RSDR.NumVisible())
	assert.Equal(t, 16, len(ly0.Nodes))
	assert.Equal(t, 9, len(ly1.Nodes))

	// node (0,0) centers on (0,0) above: clipped 2x2 window
	assert.Equal(t, 4, len(ly0.Nodes[0].FbCons))
	assert.Equal(t, 3, len(ly0.Nodes[0].LatCons))

	// node (1,1) centers on (1,1) above: full 3x3 window
	nd := &ly0.Nodes[5]
	assert.Equal(t, 9, len(nd.FbCons))
	assert.Equal(t, 8, len(nd.LatCons))
	for _, c := range nd.FbCons {
		if c.Idx == 4 {
			assert.Equal(t, float32(1), c.Falloff)
		} else {
			assert.Less(t, c.Falloff, float32(1))
			assert.Greater(t, c.Falloff, float32(0))
		}
	}
	for _, c := range nd.LatCons {
		assert.NotEqual(t, uint16(5), c.Idx)
		assert.True(t, c.Wt >= -0.01 && c.Wt <= 0.01)
	}
	for ni := range ly1.Nodes {
		assert.Equal(t, 0, len(ly1.Nodes[ni].FbCons))
	}
}

func TestCreateRandomErrors(t *testing.T) {
	rnd := erand.NewSysRand(1)
	nt := &Network{}
	assert.Equal(t, rsdr.ErrConfig, errors.Cause(nt.CreateRandom(6, 6, nil, rnd)))
	assert.Equal(t, rsdr.ErrConfig, errors.Cause(nt.CreateRandom(0, 6, testDescs(), rnd)))
	assert.Equal(t, rsdr.ErrConfig, errors.Cause(nt.CreateRandom(6, 6, testDescs(), nil)))

	descs := testDescs()
	descs[1].Width = 0
	assert.Equal(t, rsdr.ErrConfig, errors.Cause(nt.CreateRandom(6, 6, descs, rnd)))

	descs = testDescs()
	descs[0].ReceptiveRadius = -1
	assert.Equal(t, rsdr.ErrConfig, errors.Cause(nt.CreateRandom(6, 6, descs, rnd)))

	descs = testDescs()
	descs[0].Width, descs[0].Height = 300, 300
	assert.Equal(t, rsdr.ErrConfig, errors.Cause(nt.CreateRandom(6, 6, descs, rnd)))
}

func TestDeterminism(t *testing.T) {
	a := newTestNet(t, 42)
	b := newTestNet(t, 42)
	runSteps(t, a, 20)
	runSteps(t, b, 20)
	assert.Empty(t, cmp.Diff(a.PredInput, b.PredInput))
	for li := range a.Layers {
		assert.Empty(t, cmp.Diff(a.Layers[li].Nodes, b.Layers[li].Nodes))
		assert.Empty(t, cmp.Diff(a.Layers[li].RSDR.Hiddens, b.Layers[li].RSDR.Hiddens))
		assert.Empty(t, cmp.Diff(a.Layers[li].RSDR.Cons, b.Layers[li].RSDR.Cons))
	}
}

func TestUpdateTwice(t *testing.T) {
	nt := newTestNet(t, 3)
	runSteps(t, nt, 10)
	setInput(t, nt, 10)
	nt.Update()

	pred := append([]float32(nil), nt.PredInput...)
	nodes := make([][]Node, nt.NumLayers())
	hids := make([][]rsdr.Hidden, nt.NumLayers())
	for li := range nt.Layers {
		nodes[li] = append([]Node(nil), nt.Layers[li].Nodes...)
		hids[li] = append([]rsdr.Hidden(nil), nt.Layers[li].RSDR.Hiddens...)
	}

	nt.Update()
	assert.Empty(t, cmp.Diff(pred, nt.PredInput))
	for li := range nt.Layers {
		assert.Empty(t, cmp.Diff(nodes[li], nt.Layers[li].Nodes))
		assert.Empty(t, cmp.Diff(hids[li], nt.Layers[li].RSDR.Hiddens))
	}
}

func TestStepEnd(t *testing.T) {
	nt := newTestNet(t, 4)
	runSteps(t, nt, 5)
	setInput(t, nt, 5)
	nt.Update()
	nt.Learn()
	nt.StepEnd()
	assert.Equal(t, nt.PredInput, nt.PredInputPrev)
	for li := range nt.Layers {
		ly := &nt.Layers[li]
		for ni := range ly.Nodes {
			nd := &ly.Nodes[ni]
			assert.Equal(t, nd.State, nd.StatePrev)
			assert.Equal(t, nd.Act, nd.ActPrev)
			assert.Equal(t, nd.Recon, nd.ReconPrev)
			assert.Equal(t, ly.RSDR.Hiddens[ni].State, ly.RSDR.Hiddens[ni].StatePrev)
		}
	}
}

func TestPredictValues(t *testing.T) {
	nt := newTestNet(t, 5)
	runSteps(t, nt, 5)
	setInput(t, nt, 5)
	nt.Update()
	for li := range nt.Layers {
		ly := &nt.Layers[li]
		for ni := range ly.Nodes {
			nd := &ly.Nodes[ni]
			assert.InDelta(t, Sigmoid(nd.Act), nd.State, float64(difTol))
			assert.True(t, nd.Recon >= 0 && nd.Recon <= 1)
		}
	}
	for _, p := range nt.PredInput {
		assert.False(t, math32.IsNaN(p))
	}

	// PredInput is the bottom layer's inhibited Recon code through its FF weights
	ly0 := &nt.Layers[0]
	code := make([]float32, len(ly0.Nodes))
	for ni := range ly0.Nodes {
		code[ni] = ly0.Nodes[ni].Recon
	}
	var want []float32
	require.NoError(t, ly0.RSDR.ReconFrom(code, &want))
	assert.Empty(t, cmp.Diff(want, nt.PredInput))
}

func TestPredictLateralState(t *testing.T) {
	nt := newTestNet(t, 11)
	ly0 := &nt.Layers[0]
	for hi := range ly0.RSDR.Hiddens {
		ly0.RSDR.Hiddens[hi].State = 0.5
		ly0.RSDR.Hiddens[hi].StatePrev = 0.9
	}
	nt.Predict(0)

	// above layer is silent, so Act is the lateral term over the current State
	nd := &ly0.Nodes[5]
	lat := float32(0)
	for _, c := range nd.LatCons {
		lat += c.Wt * c.Falloff * 0.5
	}
	assert.InDelta(t, ly0.Desc.PredLateral*lat, nd.Act, float64(difTol))
}

func TestFirstLearnPrediction(t *testing.T) {
	nt := newTestNet(t, 6)
	setInput(t, nt, 0)
	nt.Update()

	fb := make([][]PredConn, 0)
	for ni := range nt.Layers[0].Nodes {
		fb = append(fb, append([]PredConn(nil), nt.Layers[0].Nodes[ni].FbCons...))
	}
	nt.LearnPrediction()

	for li := range nt.Layers {
		ly := &nt.Layers[li]
		for ni := range ly.Nodes {
			nd := &ly.Nodes[ni]
			st := ly.RSDR.Hiddens[ni].State
			assert.Equal(t, st, nd.Err)
			assert.Equal(t, ly.Desc.BiasLrate*st, nd.Bias)
			assert.Equal(t, float32(0), nd.Usage)
		}
	}
	// no previous source activity: no weight changes
	for ni := range nt.Layers[0].Nodes {
		assert.Empty(t, cmp.Diff(fb[ni], nt.Layers[0].Nodes[ni].FbCons))
	}
}

func TestLearnPredictionRule(t *testing.T) {
	nt := newTestNet(t, 10)
	ly0 := &nt.Layers[0]
	ly1 := &nt.Layers[1]
	lr := ly0.Desc.PredLrate
	pref := ly0.Desc.LowUsagePref
	dc := ly0.Desc.UsageDecay

	// previous activity of every source, and its usage
	for ni := range ly1.Nodes {
		ly1.Nodes[ni].StatePrev = 0.6
		ly1.Nodes[ni].Usage = 0.25
	}
	for ni := range ly0.Nodes {
		ly0.RSDR.Hiddens[ni].StatePrev = 0.5
		ly0.Nodes[ni].Usage = 0.5
	}

	// node 5 under-predicted: positive error
	ly0.RSDR.Hiddens[5].State = 0.8
	ly0.Nodes[5].ReconPrev = 0.3
	// node 6 over-predicted: negative error
	ly0.RSDR.Hiddens[6].State = 0.1
	ly0.Nodes[6].ReconPrev = 0.9
	// node 7 predicted but not active
	ly0.RSDR.Hiddens[7].State = 0
	ly0.Nodes[7].ReconPrev = 0.4

	pos := &ly0.Nodes[5]
	neg := &ly0.Nodes[6]
	posFb, posLat := pos.FbCons[0], pos.LatCons[0]
	negFb, negLat := neg.FbCons[0], neg.LatCons[0]
	bias := pos.Bias

	nt.LearnPrediction()

	assert.InDelta(t, 0.5, pos.Err, float64(difTol))
	assert.InDelta(t, -0.8, neg.Err, float64(difTol))
	assert.InDelta(t, bias+ly0.Desc.BiasLrate*0.5, pos.Bias, float64(difTol))

	// positive changes are scaled up by the low usage of the source
	dwt := lr * 0.5 * posFb.Falloff * 0.6 * (1 + pref*(1-0.25))
	assert.InDelta(t, posFb.Wt+dwt, pos.FbCons[0].Wt, float64(difTol))
	dwt = lr * 0.5 * posLat.Falloff * 0.5 * (1 + pref*(1-0.5))
	assert.InDelta(t, posLat.Wt+dwt, pos.LatCons[0].Wt, float64(difTol))

	// negative changes are not scaled
	dwt = lr * -0.8 * negFb.Falloff * 0.6
	assert.InDelta(t, negFb.Wt+dwt, neg.FbCons[0].Wt, float64(difTol))
	dwt = lr * -0.8 * negLat.Falloff * 0.5
	assert.InDelta(t, negLat.Wt+dwt, neg.LatCons[0].Wt, float64(difTol))

	// usage rises toward 1 when predicted and active, decays otherwise
	assert.InDelta(t, 0.5+dc*(1-0.5), pos.Usage, float64(difTol))
	assert.InDelta(t, 0.5+dc*(1-0.5), neg.Usage, float64(difTol))
	assert.InDelta(t, 0.5-dc*0.5, ly0.Nodes[7].Usage, float64(difTol))
	assert.InDelta(t, 0.25-ly1.Desc.UsageDecay*0.25, ly1.Nodes[0].Usage, float64(difTol))

	// with no low-usage preference, positive changes are unscaled
	nt = newTestNet(t, 10)
	ly0 = &nt.Layers[0]
	ly0.Desc.LowUsagePref = 0
	nt.Layers[1].Nodes[ly0.Nodes[5].FbCons[0].Idx].StatePrev = 0.6
	ly0.RSDR.Hiddens[5].State = 0.8
	ly0.Nodes[5].ReconPrev = 0.3
	posFb = ly0.Nodes[5].FbCons[0]
	nt.LearnPrediction()
	dwt = lr * 0.5 * posFb.Falloff * 0.6
	assert.InDelta(t, posFb.Wt+dwt, ly0.Nodes[5].FbCons[0].Wt, float64(difTol))
}

func TestExternalTarget(t *testing.T) {
	nt := newTestNet(t, 7)
	nt.TopTarget = ExternalTarget
	require.NoError(t, nt.SetTopTarget(0, 0.7))
	assert.Equal(t, topo.ErrOutOfRange, errors.Cause(nt.SetTopTarget(9, 1)))

	setInput(t, nt, 0)
	nt.Update()
	nt.LearnPrediction()
	top := &nt.Layers[1]
	assert.Equal(t, float32(0.7), top.Nodes[0].Err)
	assert.Equal(t, float32(0), top.Nodes[1].Err)
	assert.Equal(t, nt.Layers[0].RSDR.Hiddens[0].State, nt.Layers[0].Nodes[0].Err)
}

func TestUsage(t *testing.T) {
	nt := newTestNet(t, 8)
	runSteps(t, nt, 100)
	for li := range nt.Layers {
		for _, nd := range nt.Layers[li].Nodes {
			assert.True(t, nd.Usage >= 0 && nd.Usage <= 1, "usage out of range: %v", nd.Usage)
			assert.InDelta(t, 2-nd.Usage, nd.UsageGain(1), float64(difTol))
		}
	}
}

func TestAttnFromErr(t *testing.T) {
	descs := testDescs()
	descs[0].AttnFromErr = true
	descs[1].AttnFromErr = true
	nt := &Network{}
	require.NoError(t, nt.CreateRandom(6, 6, descs, erand.NewSysRand(9)))

	setInput(t, nt, 0)
	nt.Update()
	// first step: ReconPrev = 0 so attention = State, and silent units do not learn
	nt.LearnRSC()
	nsilent := 0
	for li := range nt.Layers {
		for _, hu := range nt.Layers[li].RSDR.Hiddens {
			if hu.State == 0 {
				nsilent++
				assert.Equal(t, float32(0.1), hu.Thr)
			}
		}
	}
	assert.Greater(t, nsilent, 0)
}

func TestAccessors(t *testing.T) {
	nt := newTestNet(t, 10)
	runSteps(t, nt, 3)

	_, err := nt.Layer(2)
	assert.Equal(t, topo.ErrOutOfRange, errors.Cause(err))
	_, err = nt.Layer(-1)
	assert.Equal(t, topo.ErrOutOfRange, errors.Cause(err))

	assert.Equal(t, topo.ErrOutOfRange, errors.Cause(nt.SetInput(36, 1)))
	assert.Equal(t, topo.ErrOutOfRange, errors.Cause(nt.SetInputXY(0, 6, 1)))

	p, err := nt.Prediction(7)
	require.NoError(t, err)
	pxy, err := nt.PredictionXY(1, 1)
	require.NoError(t, err)
	assert.Equal(t, p, pxy)
	_, err = nt.Prediction(-1)
	assert.Equal(t, topo.ErrOutOfRange, errors.Cause(err))
	_, err = nt.PredictionXY(6, 0)
	assert.Equal(t, topo.ErrOutOfRange, errors.Cause(err))

	h, err := nt.HiddenState(1, 4)
	require.NoError(t, err)
	hxy, err := nt.HiddenStateXY(1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, h, hxy)
	_, err = nt.HiddenState(2, 0)
	assert.Equal(t, topo.ErrOutOfRange, errors.Cause(err))

	pl, err := nt.PredictionFromLayer(0, 5)
	require.NoError(t, err)
	plxy, err := nt.PredictionFromLayerXY(0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, pl, plxy)
	assert.Equal(t, nt.Layers[0].Nodes[5].Recon, pl)
	_, err = nt.PredictionFromLayer(0, 16)
	assert.Equal(t, topo.ErrOutOfRange, errors.Cause(err))

	nd, err := nt.NodeUnit(1, 8)
	require.NoError(t, err)
	assert.Equal(t, nt.Layers[1].Nodes[8].Bias, nd.Bias)
	_, err = nt.NodeUnit(1, 9)
	assert.Equal(t, topo.ErrOutOfRange, errors.Cause(err))

	var rect []float32
	require.NoError(t, nt.VHWeights(1, 1, 1, &rect))
	assert.Equal(t, 25, len(rect))
	assert.Equal(t, topo.ErrOutOfRange, errors.Cause(nt.VHWeights(2, 0, 0, &rect)))
	wt, err := nt.VHWeight(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, nt.Layers[0].RSDR.Cons[0].FF[0].Wt, wt)
}

func TestApplyDescParams(t *testing.T) {
	descs := NewLayerDescs(2)
	assert.Equal(t, "Hidden0", descs[0].Name())
	assert.Equal(t, "Top", descs[1].Class())
	assert.Equal(t, "Layer", descs[1].TypeName())

	sheet := &params.Sheet{
		{Sel: "Layer", Desc: "all layers",
			Params: params.Params{
				"Layer.Sparsity": "0.05",
			}},
		{Sel: ".Top", Desc: "top layer learns predictions slower",
			Params: params.Params{
				"Layer.PredLrate": "0.1",
			}},
		{Sel: "#Hidden0", Desc: "bottom layer leak",
			Params: params.Params{
				"Layer.Act.Leak": "0.2",
			}},
	}
	ApplyDescParams(descs, sheet, false)
	for li := range descs {
		assert.InDelta(t, 0.05, descs[li].Sparsity, float64(difTol))
		assert.InDelta(t, 0.05, descs[li].Learn.Sparsity, float64(difTol))
	}
	assert.InDelta(t, 0.4, descs[0].PredLrate, float64(difTol))
	assert.InDelta(t, 0.1, descs[1].PredLrate, float64(difTol))
	assert.InDelta(t, 0.2, descs[0].Act.Leak, float64(difTol))
	assert.InDelta(t, 0.1, descs[1].Act.Leak, float64(difTol))
}

func TestTopTargetString(t *testing.T) {
	assert.Equal(t, "SelfSupervised", SelfSupervised.String())
	assert.Equal(t, "ExternalTarget", ExternalTarget.String())
	var tt TopTarget
	require.NoError(t, tt.FromString("ExternalTarget"))
	assert.Equal(t, ExternalTarget, tt)
	assert.Error(t, tt.FromString("Bogus"))
}

func TestSizeReport(t *testing.T) {
	nt := newTestNet(t, 1)
	rpt := nt.SizeReport()
	assert.True(t, strings.Contains(rpt, "Layer 0 Hidden0: 4 x 4"))
	assert.True(t, strings.Contains(rpt, "Layer 1 Hidden1: 3 x 3"))
}
