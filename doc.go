// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package htsl is the overall repository for the hierarchical temporal sparse
learning code: competitive spiking sparse coders stacked into layers that learn,
online and with only local rules, to encode their input and to predict how it
will change on the next step.

This top-level of the repository has no functional code -- everything is organized
into the following sub-repositories:

* topo: 2D unit grids and the square-window connectivity, with gaussian falloff,
used by all connections.

* rsdr: the recurrent sparse distributed representation, a grid of leaky
integrate-and-fire hidden units with feed-forward receptive fields, anti-Hebbian
lateral inhibition, optional recurrence, and threshold homeostasis.

* htsl: layers pairing an rsdr with prediction nodes, and the Network that
stacks them, passing codes up and predictions down.

* examples: these actually compile into runnable programs.  examples/seqpred
learns to predict the next frame of a repeating note sequence.
*/
package htsl
