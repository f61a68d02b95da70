// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package htsl

import (
	"fmt"
	"log"
	"strings"
	"unsafe"

	"github.com/c2h5oh/datasize"
	"github.com/chewxy/math32"
	"github.com/emer/emergent/erand"
	"github.com/emer/htsl/rsdr"
	"github.com/emer/htsl/topo"
	"github.com/pkg/errors"
)

// Layer pairs a sparse coder with one prediction node per hidden unit
type Layer struct {
	Desc  LayerDesc `desc:"configuration of this layer, as of CreateRandom"`
	RSDR  rsdr.RSDR `desc:"sparse coder -- its visible input is the network input for layer 0, else the hidden code of the layer below"`
	Nodes []Node    `desc:"prediction nodes, one-to-one with RSDR.Hiddens"`

	acts  []float32 // node Act values, input to inhibition
	recon []float32 // result of inhibition
	attn  []float32
}

// Network is a stack of layers: each layer encodes the hidden code of the one
// below, and predictions flow top-down from each layer's nodes to the nodes
// of the layer below.  The bottom layer's prediction is reconstructed into
// input space as PredInput, the estimate of the next input.
//
// Per-step cycle: SetInput, Update, Learn (or LearnRSC + LearnPrediction), StepEnd.
type Network struct {
	InGrid        topo.Grid `desc:"shape of the input grid"`
	Layers        []Layer   `desc:"layers, bottom first"`
	PredInput     []float32 `desc:"predicted next input, one per input cell -- the bottom layer's inhibited node Recon code reconstructed through that layer's feed-forward weights, not the node State"`
	PredInputPrev []float32 `desc:"PredInput as of the previous step -- the prediction of the current input"`
	TopTarget     TopTarget `desc:"what the top layer predicts"`
	Targets       []float32 `desc:"external targets for the top layer when TopTarget is ExternalTarget, one per top-layer unit"`
}

// CreateRandom builds the network for the given input size with one layer per
// descriptor.  All random draws come from rnd: first all of the sparse coders
// bottom-up, then all of the prediction connections bottom-up.
func (nt *Network) CreateRandom(inW, inH int, descs []LayerDesc, rnd erand.Rand) error {
	if len(descs) == 0 {
		return errors.Wrap(rsdr.ErrConfig, "no layers")
	}
	if inW <= 0 || inH <= 0 {
		return errors.Wrapf(rsdr.ErrConfig, "input size %d x %d", inW, inH)
	}
	if rnd == nil {
		return errors.Wrap(rsdr.ErrConfig, "nil random source")
	}
	nt.InGrid.Set(inW, inH)
	nt.Layers = make([]Layer, len(descs))
	vw, vh := inW, inH
	for li := range nt.Layers {
		ly := &nt.Layers[li]
		ly.Desc = descs[li]
		ld := &ly.Desc
		ld.Update()
		if err := ld.Validate(); err != nil {
			return errors.Wrapf(err, "layer %d", li)
		}
		err := ly.RSDR.CreateRandom(vw, vh, ld.Width, ld.Height, ld.ReceptiveRadius, ld.InhibitionRadius, ld.RecurrentRadius, ld.Init.Wt, ld.Init.Inhib, ld.Init.Thr, rnd)
		if err != nil {
			return errors.Wrapf(err, "layer %d", li)
		}
		vw, vh = ld.Width, ld.Height
	}
	top := len(nt.Layers) - 1
	for li := range nt.Layers {
		ly := &nt.Layers[li]
		nh := ly.RSDR.NumHidden()
		ly.Nodes = make([]Node, nh)
		ly.acts = make([]float32, nh)
		ly.recon = make([]float32, nh)
		ly.attn = make([]float32, nh)
		if li < top {
			nt.connectFeedback(li, rnd)
		} else if ly.Desc.FeedbackRadius > 0 && len(nt.Layers) > 1 {
			log.Printf("htsl.Network CreateRandom: FeedbackRadius of top layer %q is not used\n", ly.Desc.Nm)
		}
		nt.connectLateral(li, rnd)
	}
	nt.PredInput = make([]float32, nt.InGrid.Len())
	nt.PredInputPrev = make([]float32, nt.InGrid.Len())
	nt.Targets = make([]float32, nt.Layers[top].RSDR.NumHidden())
	return nil
}

// connectFeedback connects the nodes of layer li to the nodes of layer li+1
func (nt *Network) connectFeedback(li int, rnd erand.Rand) {
	ly := &nt.Layers[li]
	recv := &ly.RSDR.HidGrid
	send := &nt.Layers[li+1].RSDR.HidGrid
	nt.connect(ly, send, recv, topo.NewWindow(ly.Desc.FeedbackRadius, true), rnd, func(nd *Node, pc []PredConn) { nd.FbCons = pc })
}

// connectLateral connects the nodes of layer li to the other hidden units of layer li
func (nt *Network) connectLateral(li int, rnd erand.Rand) {
	ly := &nt.Layers[li]
	hg := &ly.RSDR.HidGrid
	nt.connect(ly, hg, hg, topo.NewWindow(ly.Desc.LateralRadius, false), rnd, func(nd *Node, pc []PredConn) { nd.LatCons = pc })
}

func (nt *Network) connect(ly *Layer, send, recv *topo.Grid, wn *topo.Window, rnd erand.Rand, set func(nd *Node, pc []PredConn)) {
	fo := topo.Falloff{Radius: wn.Radius, Sigma: ly.Desc.FalloffSigma}
	fo.Update()
	wp := rsdr.UniformRnd(ly.Desc.PredWt)
	rc := topo.RecvConns(wn, send, recv)
	for ni := range ly.Nodes {
		pc := make([]PredConn, len(rc[ni]))
		for ci, si := range rc[ni] {
			pc[ci] = PredConn{Wt: float32(wp.Gen(-1, rnd)), Falloff: fo.Factor(topo.Offset(send, recv, ni, si)), Idx: uint16(si)}
		}
		set(&ly.Nodes[ni], pc)
	}
}

func (nt *Network) NumLayers() int { return len(nt.Layers) }

// Layer returns layer li
func (nt *Network) Layer(li int) (*Layer, error) {
	if li < 0 || li >= len(nt.Layers) {
		return nil, errors.Wrapf(topo.ErrOutOfRange, "layer %d of %d", li, len(nt.Layers))
	}
	return &nt.Layers[li], nil
}

///////////////////////////////////////////////////////////////////////
//  Input and targets

// SetInput sets input cell i of the bottom layer
func (nt *Network) SetInput(i int, val float32) error {
	return nt.Layers[0].RSDR.SetVisibleInput(i, val)
}

// SetInputXY sets the input cell at x, y of the bottom layer
func (nt *Network) SetInputXY(x, y int, val float32) error {
	return nt.Layers[0].RSDR.SetVisibleInputXY(x, y, val)
}

// SetTopTarget sets the external target of top-layer unit i, used
// when TopTarget is ExternalTarget
func (nt *Network) SetTopTarget(i int, val float32) error {
	if err := nt.Layers[len(nt.Layers)-1].RSDR.HidGrid.Check(i); err != nil {
		return err
	}
	nt.Targets[i] = val
	return nil
}

///////////////////////////////////////////////////////////////////////
//  Update

// Update computes the hidden code of every layer bottom-up, then the
// predictions of every layer top-down, then PredInput.  Calling it again
// before StepEnd recomputes the same values.
func (nt *Network) Update() {
	for li := range nt.Layers {
		ly := &nt.Layers[li]
		if li > 0 {
			below := &nt.Layers[li-1].RSDR
			for vi := range ly.RSDR.Visibles {
				ly.RSDR.Visibles[vi].Input = below.Hiddens[vi].State
			}
		}
		ly.RSDR.Activate(&ly.Desc.Act)
	}
	for li := len(nt.Layers) - 1; li >= 0; li-- {
		nt.Predict(li)
	}
	if err := nt.Layers[0].RSDR.ReconFrom(nt.Layers[0].recon, &nt.PredInput); err != nil {
		log.Println(err)
	}
}

// Predict computes the prediction node activations of layer li from the
// node states of the layer above and the current hidden code of layer li,
// and settles them through the layer's inhibition into Recon.
// The lateral term reads RSDR.Hiddens[].State of layer li as computed by this
// step's Activate, not StatePrev.  LearnPrediction credits the same sources one
// step later through their StatePrev.
func (nt *Network) Predict(li int) {
	ly := &nt.Layers[li]
	ld := &ly.Desc
	var above []Node
	if li < len(nt.Layers)-1 {
		above = nt.Layers[li+1].Nodes
	}
	hids := ly.RSDR.Hiddens
	for ni := range ly.Nodes {
		nd := &ly.Nodes[ni]
		fb := float32(0)
		for ci := range nd.FbCons {
			c := &nd.FbCons[ci]
			fb += c.Wt * c.Falloff * above[c.Idx].State
		}
		lat := float32(0)
		for ci := range nd.LatCons {
			c := &nd.LatCons[ci]
			lat += c.Wt * c.Falloff * hids[c.Idx].State
		}
		nd.Act = ld.PredFeedback*fb + ld.PredLateral*lat + nd.Bias
		nd.State = Sigmoid(nd.Act)
		ly.acts[ni] = nd.Act
	}
	if err := ly.RSDR.Inhibit(&ld.Act, ly.acts, &ly.recon); err != nil {
		log.Println(err)
	}
	for ni := range ly.Nodes {
		ly.Nodes[ni].Recon = ly.recon[ni]
	}
}

///////////////////////////////////////////////////////////////////////
//  Learning

// Learn does LearnRSC then LearnPrediction
func (nt *Network) Learn() {
	nt.LearnRSC()
	nt.LearnPrediction()
}

// LearnRSC applies sparse coder learning to every layer, bottom-up.
// If the layer's AttnFromErr is set, learning of each hidden unit is
// scaled by the magnitude of the error of the prediction of its State.
func (nt *Network) LearnRSC() {
	for li := range nt.Layers {
		ly := &nt.Layers[li]
		if !ly.Desc.AttnFromErr {
			ly.RSDR.Learn(&ly.Desc.Learn)
			continue
		}
		for ni := range ly.Nodes {
			ly.attn[ni] = math32.Abs(nt.target(li, ni) - ly.Nodes[ni].ReconPrev)
		}
		if err := ly.RSDR.LearnAttn(&ly.Desc.Learn, ly.attn); err != nil {
			log.Println(err)
		}
	}
}

// LearnPrediction scores each node's previous prediction against its target,
// and updates prediction weights, biases and usage.
func (nt *Network) LearnPrediction() {
	for li := range nt.Layers {
		nt.learnLayerPrediction(li)
	}
	for li := range nt.Layers {
		ly := &nt.Layers[li]
		dc := ly.Desc.UsageDecay
		for ni := range ly.Nodes {
			nd := &ly.Nodes[ni]
			used := float32(0)
			if nd.ReconPrev > 0 && ly.RSDR.Hiddens[ni].State > 0 {
				used = 1
			}
			nd.Usage += dc * (used - nd.Usage)
		}
	}
}

// target returns the value node ni of layer li learns to predict
func (nt *Network) target(li, ni int) float32 {
	if li == len(nt.Layers)-1 && nt.TopTarget == ExternalTarget {
		return nt.Targets[ni]
	}
	return nt.Layers[li].RSDR.Hiddens[ni].State
}

func (nt *Network) learnLayerPrediction(li int) {
	ly := &nt.Layers[li]
	ld := &ly.Desc
	var above []Node
	if li < len(nt.Layers)-1 {
		above = nt.Layers[li+1].Nodes
	}
	hids := ly.RSDR.Hiddens
	for ni := range ly.Nodes {
		nd := &ly.Nodes[ni]
		nd.Err = nt.target(li, ni) - nd.ReconPrev
		lr := ld.PredLrate * nd.Err
		for ci := range nd.FbCons {
			c := &nd.FbCons[ci]
			src := &above[c.Idx]
			dwt := lr * c.Falloff * src.StatePrev
			if dwt > 0 {
				dwt *= src.UsageGain(ld.LowUsagePref)
			}
			c.Wt += dwt
		}
		for ci := range nd.LatCons {
			c := &nd.LatCons[ci]
			dwt := lr * c.Falloff * hids[c.Idx].StatePrev
			if dwt > 0 {
				dwt *= ly.Nodes[c.Idx].UsageGain(ld.LowUsagePref)
			}
			c.Wt += dwt
		}
		nd.Bias += ld.BiasLrate * nd.Err
	}
}

///////////////////////////////////////////////////////////////////////
//  Commit

// StepEnd commits the current state of every layer and PredInput as the
// previous state for the next step
func (nt *Network) StepEnd() {
	for li := range nt.Layers {
		ly := &nt.Layers[li]
		ly.RSDR.StepEnd()
		for ni := range ly.Nodes {
			nd := &ly.Nodes[ni]
			nd.StatePrev = nd.State
			nd.ActPrev = nd.Act
			nd.ReconPrev = nd.Recon
		}
	}
	copy(nt.PredInputPrev, nt.PredInput)
}

///////////////////////////////////////////////////////////////////////
//  Accessors

// HiddenState returns the State of hidden unit i of layer li
func (nt *Network) HiddenState(li, i int) (float32, error) {
	ly, err := nt.Layer(li)
	if err != nil {
		return 0, err
	}
	return ly.RSDR.HiddenState(i)
}

// HiddenStateXY returns the State of the hidden unit at x, y of layer li
func (nt *Network) HiddenStateXY(li, x, y int) (float32, error) {
	ly, err := nt.Layer(li)
	if err != nil {
		return 0, err
	}
	return ly.RSDR.HiddenStateXY(x, y)
}

// Prediction returns the predicted next value of input cell i
func (nt *Network) Prediction(i int) (float32, error) {
	if err := nt.InGrid.Check(i); err != nil {
		return 0, err
	}
	return nt.PredInput[i], nil
}

// PredictionXY returns the predicted next value of the input cell at x, y
func (nt *Network) PredictionXY(x, y int) (float32, error) {
	i, err := nt.InGrid.Idx(x, y)
	if err != nil {
		return 0, err
	}
	return nt.PredInput[i], nil
}

// PredictionFromLayer returns the predicted next hidden State of unit i of layer li (node Recon)
func (nt *Network) PredictionFromLayer(li, i int) (float32, error) {
	ly, err := nt.Layer(li)
	if err != nil {
		return 0, err
	}
	if err := ly.RSDR.HidGrid.Check(i); err != nil {
		return 0, err
	}
	return ly.Nodes[i].Recon, nil
}

// PredictionFromLayerXY returns the predicted next hidden State of the unit at x, y of layer li
func (nt *Network) PredictionFromLayerXY(li, x, y int) (float32, error) {
	ly, err := nt.Layer(li)
	if err != nil {
		return 0, err
	}
	i, err := ly.RSDR.HidGrid.Idx(x, y)
	if err != nil {
		return 0, err
	}
	return ly.Nodes[i].Recon, nil
}

// NodeUnit returns a copy of prediction node i of layer li.
// The connection slices are shared and must not be modified.
func (nt *Network) NodeUnit(li, i int) (Node, error) {
	ly, err := nt.Layer(li)
	if err != nil {
		return Node{}, err
	}
	if err := ly.RSDR.HidGrid.Check(i); err != nil {
		return Node{}, err
	}
	return ly.Nodes[i], nil
}

// VHWeight returns the feed-forward weight from visible unit vi to hidden unit hi of layer li
func (nt *Network) VHWeight(li, hi, vi int) (float32, error) {
	ly, err := nt.Layer(li)
	if err != nil {
		return 0, err
	}
	return ly.RSDR.VHWeight(hi, vi)
}

// VHWeights returns the receptive field weight patch of the hidden unit at
// hx, hy of layer li -- see rsdr.RSDR.VHWeights
func (nt *Network) VHWeights(li, hx, hy int, rect *[]float32) error {
	ly, err := nt.Layer(li)
	if err != nil {
		return err
	}
	return ly.RSDR.VHWeights(hx, hy, rect)
}

// SizeReport returns a string reporting the size of each layer,
// including prediction connections and their memory footprint.
func (nt *Network) SizeReport() string {
	var b strings.Builder
	ntot := 0
	for li := range nt.Layers {
		ly := &nt.Layers[li]
		nfb, nlat := 0, 0
		for ni := range ly.Nodes {
			nfb += len(ly.Nodes[ni].FbCons)
			nlat += len(ly.Nodes[ni].LatCons)
		}
		pmem := len(ly.Nodes)*int(unsafe.Sizeof(Node{})) + (nfb+nlat)*int(unsafe.Sizeof(PredConn{}))
		ntot += pmem
		fmt.Fprintf(&b, "Layer %d %s: %d x %d\n", li, ly.Desc.Nm, ly.Desc.Width, ly.Desc.Height)
		b.WriteString(ly.RSDR.SizeReport())
		fmt.Fprintf(&b, "\tFeedback: %d\t Lateral: %d\t PredMem: %v\n", nfb, nlat, datasize.ByteSize(pmem).HumanReadable())
	}
	fmt.Fprintf(&b, "\n\nNetwork Total:\t PredMem: %v\n", datasize.ByteSize(ntot).HumanReadable())
	return b.String()
}
