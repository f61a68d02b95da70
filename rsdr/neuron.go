// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdr

import (
	"fmt"
	"unsafe"

	"github.com/chewxy/math32"
)

// Visible is one cell of the external input buffer of an RSDR
type Visible struct {
	Input float32 `desc:"external input value, written by the caller each step"`
	Recon float32 `desc:"reconstruction of Input from the current hidden code, written by Reconstruct"`
}

// rsdr.Hidden holds all of the state for one competitive spiking hidden unit.
// All variables must be float32 and contiguous, in the order of HiddenVars.
type Hidden struct {
	Excite    float32 `desc:"feed-forward plus recurrent excitation for this step, computed from local-mean-centered inputs"`
	Act       float32 `desc:"leaky integrated activation within the settling sub-iterations -- reset to 0 on every spike"`
	Spike     float32 `desc:"whether the unit spiked (0 or 1) on the current sub-iteration"`
	SpikePrev float32 `desc:"spike value from the previous sub-iteration, read by neighbors for lateral inhibition"`
	State     float32 `desc:"measured firing rate over the measure sub-iterations: the sparse code value for this step, always in [0,1]"`
	StatePrev float32 `desc:"State committed at the end of the previous step by StepEnd -- drives recurrent input"`
	Thr       float32 `desc:"adaptive firing threshold -- moves toward producing the target sparsity"`
	Recon     float32 `desc:"reconstruction of StatePrev from the recurrent connections of the current code"`
}

var HiddenVars = []string{"Excite", "Act", "Spike", "SpikePrev", "State", "StatePrev", "Thr", "Recon"}

var HiddenVarsMap map[string]int

func init() {
	HiddenVarsMap = make(map[string]int, len(HiddenVars))
	for i, v := range HiddenVars {
		HiddenVarsMap[v] = i
	}
}

// HiddenVarByName returns the index of the variable in the Hidden unit, or error
func HiddenVarByName(varNm string) (int, error) {
	i, ok := HiddenVarsMap[varNm]
	if !ok {
		return -1, fmt.Errorf("Hidden VarByName: variable name: %v not valid", varNm)
	}
	return i, nil
}

// VarByIndex returns variable using index (0 = first variable in HiddenVars list)
func (hu *Hidden) VarByIndex(idx int) float32 {
	fv := (*float32)(unsafe.Pointer(uintptr(unsafe.Pointer(hu)) + uintptr(4*idx)))
	return *fv
}

// VarByName returns variable by name, or error
func (hu *Hidden) VarByName(varNm string) (float32, error) {
	i, err := HiddenVarByName(varNm)
	if err != nil {
		return math32.NaN(), err
	}
	return hu.VarByIndex(i), nil
}
