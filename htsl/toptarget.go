// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package htsl

import "github.com/goki/ki/kit"

// TopTarget determines what the top layer's prediction nodes learn to predict
type TopTarget int

//go:generate stringer -type=TopTarget

var KiT_TopTarget = kit.Enums.AddEnum(TopTargetN, false, nil)

func (ev TopTarget) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *TopTarget) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// SelfSupervised: the top layer predicts its own next hidden code, like all other layers
	SelfSupervised TopTarget = iota

	// ExternalTarget: the top layer predicts target values supplied with Network.SetTopTarget
	ExternalTarget

	TopTargetN
)
