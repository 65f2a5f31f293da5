// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package bionet is a recurrent, sign-constrained signaling network model.

Nodes are biological entities (ligands, intermediate signaling species,
transcription factors) and edges are signed regulatory interactions given
by an sgraph.Graph.  The steady state of the network for a given input
injection u is computed by iterating

	x <- f(W.x + b + u)

for a fixed number of steps (SolveParams.Iters) starting from a constant
state, followed by a soft clip-with-leak of extreme values.  Convergence is
assumed, not verified: callers needing a tighter fixed point increase Iters.
Network.Residual reports how far the returned state is from a fixed point.

Gradients with respect to W, b and u are computed by one of two strategies
(GradTypes), chosen at construction:

  - Unrolled: back-propagation through every recorded iteration of the
    solve, which requires the forward pass to tape its pre-activations.

  - Implicit: the implicit-function gradient at the fixed point, with
    (I - D.W)^-1 approximated by a truncated Neumann series of
    SolveParams.NeumannTerms terms, where D = diag(f'(pre)).

CompareGrads runs both on the same forward state and diagnoses any
discrepancy as either a non-converged state or too few Neumann terms.

The Model wraps a Network with an input layer that maps external inputs
onto input nodes, and a projection layer that reads out output nodes.
Regularization terms used in training (spectral radius of the Jacobian,
sign violations, activation range uniformity and L2 penalties) all
accumulate their gradients into caller-owned buffers, and nothing here
mutates the weights except the explicit initialization and scaling methods.
*/
package bionet
