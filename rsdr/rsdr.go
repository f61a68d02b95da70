// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdr

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/c2h5oh/datasize"
	"github.com/emer/emergent/erand"
	"github.com/emer/etable/etensor"
	"github.com/emer/etable/minmax"
	"github.com/emer/htsl/topo"
	"github.com/pkg/errors"
)

// ErrConfig is returned (wrapped) for malformed construction parameters
// and mismatched argument sizes.
var ErrConfig = errors.New("invalid configuration")

// RSDR is a recurrent sparse distributed representation: a 2D grid of
// competitive spiking hidden units that encode a 2D visible input.
// Each hidden unit has a feed-forward receptive field on the visible grid,
// lateral inhibitory connections to nearby hidden units, and optional
// recurrent connections to the previous-step hidden code.
//
// Per-step cycle: SetVisibleInput, Activate, Learn, StepEnd.
type RSDR struct {
	VisGrid     topo.Grid    `desc:"shape of the visible input grid"`
	HidGrid     topo.Grid    `desc:"shape of the hidden grid"`
	RecepRadius int          `desc:"receptive field radius in visible units"`
	InhibRadius int          `desc:"lateral inhibition radius in hidden units"`
	RecurRadius int          `desc:"recurrent radius in hidden units -- topo.Disabled for none"`
	Visibles    []Visible    `desc:"visible input units"`
	Hiddens     []Hidden     `desc:"hidden units"`
	Cons        []HiddenCons `desc:"receiving connections of each hidden unit, one-to-one with Hiddens"`

	sb    settleBufs
	recon reconBufs
}

// CreateRandom allocates the visible and hidden layers and builds the
// feed-forward, lateral and recurrent connections.  Feed-forward and
// recurrent weights are drawn uniformly from wt, lateral weights from inhib,
// and every threshold starts at initThr.  All random draws come from rnd,
// in order of hidden unit: feed-forward, then lateral, then recurrent.
// A recurR of topo.Disabled omits recurrent connections entirely.
func (rs *RSDR) CreateRandom(visW, visH, hidW, hidH, recepR, inhibR, recurR int, wt, inhib minmax.F32, initThr float32, rnd erand.Rand) error {
	switch {
	case visW <= 0 || visH <= 0:
		return errors.Wrapf(ErrConfig, "visible size %d x %d", visW, visH)
	case hidW <= 0 || hidH <= 0:
		return errors.Wrapf(ErrConfig, "hidden size %d x %d", hidW, hidH)
	case recepR < 0 || inhibR < 0 || recurR < topo.Disabled:
		return errors.Wrapf(ErrConfig, "radii receptive: %d inhibition: %d recurrent: %d", recepR, inhibR, recurR)
	case wt.Min > wt.Max || inhib.Min > inhib.Max:
		return errors.Wrapf(ErrConfig, "weight range %v or inhibition range %v has min > max", wt, inhib)
	case inhib.Min < 0:
		return errors.Wrapf(ErrConfig, "inhibition range %v must be >= 0", inhib)
	case rnd == nil:
		return errors.Wrap(ErrConfig, "nil random source")
	}

	rs.VisGrid.Set(visW, visH)
	rs.HidGrid.Set(hidW, hidH)
	rs.RecepRadius = recepR
	rs.InhibRadius = inhibR
	rs.RecurRadius = recurR

	wp := UniformRnd(wt)
	ip := UniformRnd(inhib)
	nv := rs.VisGrid.Len()
	nh := rs.HidGrid.Len()
	rs.Visibles = make([]Visible, nv)
	rs.Hiddens = make([]Hidden, nh)
	rs.Cons = make([]HiddenCons, nh)
	rs.sb.Alloc(nh)
	rs.recon.Alloc(nv, nh)

	ffc := topo.RecvConns(topo.NewWindow(recepR, true), &rs.VisGrid, &rs.HidGrid)
	latc := topo.RecvConns(topo.NewWindow(inhibR, false), &rs.HidGrid, &rs.HidGrid)
	var recc [][]int
	if recurR != topo.Disabled {
		recc = topo.RecvConns(topo.NewWindow(recurR, false), &rs.HidGrid, &rs.HidGrid)
	}

	for hi := range rs.Hiddens {
		rs.Hiddens[hi].Thr = initThr
		hc := &rs.Cons[hi]
		hc.FF = make([]FeedConn, len(ffc[hi]))
		for ci, vi := range ffc[hi] {
			hc.FF[ci] = FeedConn{Wt: float32(wp.Gen(-1, rnd)), Idx: int32(vi)}
		}
		hc.Lat = make([]LatConn, len(latc[hi]))
		for ci, oi := range latc[hi] {
			hc.Lat[ci] = LatConn{Wt: float32(ip.Gen(-1, rnd)), Idx: int32(oi)}
		}
		if recc == nil {
			continue
		}
		hc.Rec = make([]FeedConn, len(recc[hi]))
		for ci, oi := range recc[hi] {
			hc.Rec[ci] = FeedConn{Wt: float32(wp.Gen(-1, rnd)), Idx: int32(oi)}
		}
	}
	return nil
}

func (rs *RSDR) NumVisible() int { return len(rs.Visibles) }
func (rs *RSDR) NumHidden() int  { return len(rs.Hiddens) }

///////////////////////////////////////////////////////////////////////
//  Input and accessors

// SetVisibleInput sets the input value of visible unit i
func (rs *RSDR) SetVisibleInput(i int, val float32) error {
	if err := rs.VisGrid.Check(i); err != nil {
		return err
	}
	rs.Visibles[i].Input = val
	return nil
}

// SetVisibleInputXY sets the input value of the visible unit at x, y
func (rs *RSDR) SetVisibleInputXY(x, y int, val float32) error {
	i, err := rs.VisGrid.Idx(x, y)
	if err != nil {
		return err
	}
	rs.Visibles[i].Input = val
	return nil
}

// SetVisibleInputs sets all visible inputs from vals, which must have
// exactly one value per visible unit.
func (rs *RSDR) SetVisibleInputs(vals []float32) error {
	if len(vals) != len(rs.Visibles) {
		return errors.Wrapf(ErrConfig, "got %d input values for %d visible units", len(vals), len(rs.Visibles))
	}
	for vi := range rs.Visibles {
		rs.Visibles[vi].Input = vals[vi]
	}
	return nil
}

// VisibleInput returns the input value of visible unit i
func (rs *RSDR) VisibleInput(i int) (float32, error) {
	if err := rs.VisGrid.Check(i); err != nil {
		return 0, err
	}
	return rs.Visibles[i].Input, nil
}

// VisibleRecon returns the reconstruction of visible unit i, as of the last Reconstruct
func (rs *RSDR) VisibleRecon(i int) (float32, error) {
	if err := rs.VisGrid.Check(i); err != nil {
		return 0, err
	}
	return rs.Visibles[i].Recon, nil
}

// HiddenState returns the State (sparse code value) of hidden unit i
func (rs *RSDR) HiddenState(i int) (float32, error) {
	if err := rs.HidGrid.Check(i); err != nil {
		return 0, err
	}
	return rs.Hiddens[i].State, nil
}

// HiddenStateXY returns the State of the hidden unit at x, y
func (rs *RSDR) HiddenStateXY(x, y int) (float32, error) {
	i, err := rs.HidGrid.Idx(x, y)
	if err != nil {
		return 0, err
	}
	return rs.Hiddens[i].State, nil
}

// HiddenStatePrev returns the committed previous-step State of hidden unit i
func (rs *RSDR) HiddenStatePrev(i int) (float32, error) {
	if err := rs.HidGrid.Check(i); err != nil {
		return 0, err
	}
	return rs.Hiddens[i].StatePrev, nil
}

// HiddenUnit returns a copy of all the state of hidden unit i
func (rs *RSDR) HiddenUnit(i int) (Hidden, error) {
	if err := rs.HidGrid.Check(i); err != nil {
		return Hidden{}, err
	}
	return rs.Hiddens[i], nil
}

// HiddenConsOf returns the receiving connections of hidden unit i.
// The returned value is owned by the RSDR and must not be modified.
func (rs *RSDR) HiddenConsOf(i int) (*HiddenCons, error) {
	if err := rs.HidGrid.Check(i); err != nil {
		return nil, err
	}
	return &rs.Cons[i], nil
}

// States copies the State of every hidden unit into vals (only resized if not big enough)
func (rs *RSDR) States(vals *[]float32) {
	nh := len(rs.Hiddens)
	if *vals == nil || cap(*vals) < nh {
		*vals = make([]float32, nh)
	} else if len(*vals) != nh {
		*vals = (*vals)[0:nh]
	}
	for hi := range rs.Hiddens {
		(*vals)[hi] = rs.Hiddens[hi].State
	}
}

// VHWeight returns the feed-forward weight from visible unit vi to hidden
// unit hi -- 0 if vi is outside of the receptive field of hi.
func (rs *RSDR) VHWeight(hi, vi int) (float32, error) {
	if err := rs.HidGrid.Check(hi); err != nil {
		return 0, err
	}
	if err := rs.VisGrid.Check(vi); err != nil {
		return 0, err
	}
	wt, _ := rs.Cons[hi].FFWt(vi)
	return wt, nil
}

// VHWeights returns the full receptive field weight patch of the hidden unit
// at hx, hy as a (2R+1) x (2R+1) row-major square, centered on the unit's
// receptive field center.  Cells of the patch that fall outside of the
// visible grid have no connection and are 0.  rect is only resized if not big enough.
func (rs *RSDR) VHWeights(hx, hy int, rect *[]float32) error {
	hi, err := rs.HidGrid.Idx(hx, hy)
	if err != nil {
		return err
	}
	dim := 2*rs.RecepRadius + 1
	n := dim * dim
	if *rect == nil || cap(*rect) < n {
		*rect = make([]float32, n)
	} else {
		*rect = (*rect)[0:n]
	}
	r := *rect
	for i := range r {
		r[i] = 0
	}
	vw := rs.VisGrid.Width()
	cx, cy := topo.CenterOf(&rs.VisGrid, &rs.HidGrid, hi)
	for _, c := range rs.Cons[hi].FF {
		vi := int(c.Idx)
		rx := vi%vw - cx + rs.RecepRadius
		ry := vi/vw - cy + rs.RecepRadius
		r[ry*dim+rx] = c.Wt
	}
	return nil
}

// UnitValsTensor fills in the given tensor with the values of the given hidden
// unit variable, shaped as the hidden grid (Y, X).
func (rs *RSDR) UnitValsTensor(tsr *etensor.Float32, varNm string) error {
	vidx, err := HiddenVarByName(varNm)
	if err != nil {
		return err
	}
	tsr.SetShape([]int{rs.HidGrid.Height(), rs.HidGrid.Width()}, nil, []string{"Y", "X"})
	for hi := range rs.Hiddens {
		tsr.Values[hi] = rs.Hiddens[hi].VarByIndex(vidx)
	}
	return nil
}

// SizeReport returns a string reporting the number of units and connections
// and their memory footprint.
func (rs *RSDR) SizeReport() string {
	var b strings.Builder
	nv := len(rs.Visibles)
	nh := len(rs.Hiddens)
	nff, nlat, nrec := 0, 0, 0
	for hi := range rs.Cons {
		nff += len(rs.Cons[hi].FF)
		nlat += len(rs.Cons[hi].Lat)
		nrec += len(rs.Cons[hi].Rec)
	}
	umem := nv*int(unsafe.Sizeof(Visible{})) + nh*int(unsafe.Sizeof(Hidden{}))
	cmem := (nff+nrec)*int(unsafe.Sizeof(FeedConn{})) + nlat*int(unsafe.Sizeof(LatConn{}))
	fmt.Fprintf(&b, "Visible: %d\t Hidden: %d\t UnitMem: %v\n", nv, nh, datasize.ByteSize(umem).HumanReadable())
	fmt.Fprintf(&b, "\tFF: %d\t Lat: %d\t Rec: %d\t ConMem: %v\n", nff, nlat, nrec, datasize.ByteSize(cmem).HumanReadable())
	return b.String()
}
