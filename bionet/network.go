// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bionet

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/emer/bionet/act"
	"github.com/emer/bionet/sgraph"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Network is the recurrent signaling network: a signed graph with one
// weight per edge and one bias per node, and the parameters of the
// activation function and steady-state solver.
type Network struct {
	Nm     string        `desc:"overall name of network"`
	Graph  *sgraph.Graph `desc:"interaction graph -- never modified"`
	Nodes  []string      `desc:"name of each node, may be empty"`
	Act    act.Params    `view:"inline" desc:"activation function -- fixed for the lifetime of the network"`
	Solver SolveParams   `view:"inline" desc:"steady-state solver and gradient parameters"`
	Spec   SpecParams    `view:"inline" desc:"spectral radius estimate and penalty parameters"`
	Wts    []float64     `desc:"weight of each edge, in graph edge order"`
	Bias   []float64     `desc:"bias of each node"`
}

// NewNetwork returns a new network over given graph, with zero weights
// and default parameters.  nodes are optional node names (nil or one per node).
func NewNetwork(name string, gr *sgraph.Graph, nodes []string) (*Network, error) {
	if gr == nil {
		return nil, errors.Wrap(ErrConfig, "nil graph")
	}
	if nodes != nil && len(nodes) != gr.NNodes {
		return nil, errors.Wrapf(ErrConfig, "%d node names for %d nodes", len(nodes), gr.NNodes)
	}
	nt := &Network{Nm: name, Graph: gr, Nodes: nodes}
	nt.Defaults()
	nt.Wts = make([]float64, gr.NEdges())
	nt.Bias = make([]float64, gr.NNodes)
	return nt, nil
}

func (nt *Network) Defaults() {
	nt.Act.Defaults()
	nt.Solver.Defaults()
	nt.Spec.Defaults()
}

// Update must be called after any changes to parameters
func (nt *Network) Update() {
	nt.Act.Update()
	nt.Solver.Update()
	nt.Spec.Update()
}

// NNodes returns the number of nodes
func (nt *Network) NNodes() int {
	return nt.Graph.NNodes
}

// InitWts initializes the weights as gaussian with standard deviation wtSd,
// with the sign of each constrained edge set to agree with its mode,
// and sets all biases to bias.
func (nt *Network) InitWts(rnd *rand.Rand, wtSd, bias float64) {
	for e, sm := range nt.Graph.Signs {
		w := wtSd * rnd.NormFloat64()
		switch sm {
		case sgraph.Activating:
			w = math.Abs(w)
		case sgraph.Inhibiting:
			w = -math.Abs(w)
		}
		nt.Wts[e] = w
	}
	for i := range nt.Bias {
		nt.Bias[i] = bias
	}
}

// NViolations returns the number of edges whose weight contradicts its sign
func (nt *Network) NViolations() int {
	return nt.Graph.NViolations(nt.Wts)
}

// WtsDense returns the weights as a dense (target x source) matrix
func (nt *Network) WtsDense() *mat.Dense {
	return nt.Graph.Dense(nt.Wts)
}

// WtsRadius returns the spectral radius of the weight matrix itself
// (i.e., of the Jacobian with unit activation slope).
func (nt *Network) WtsRadius() float64 {
	return DenseRadius(nt.WtsDense())
}

// PreScaleWts scales all weights by a common factor so that the spectral
// radius of the weight matrix equals target.  Signs are preserved.
// Returns the scaling factor, or 1 if the radius is zero.
func (nt *Network) PreScaleWts(target float64) float64 {
	rho := nt.WtsRadius()
	if rho == 0 {
		return 1
	}
	sc := target / rho
	for e := range nt.Wts {
		nt.Wts[e] *= sc
	}
	return sc
}

// DenseRadius returns the largest eigenvalue magnitude of square matrix m,
// or NaN if the eigen decomposition fails.
func DenseRadius(m mat.Matrix) float64 {
	var eig mat.Eigen
	if ok := eig.Factorize(m, mat.EigenNone); !ok {
		return math.NaN()
	}
	rho := 0.0
	for _, ev := range eig.Values(nil) {
		if a := cmplx.Abs(ev); a > rho {
			rho = a
		}
	}
	return rho
}

///////////////////////////////////////////////////////////////////////
//  Step

// Step computes one iteration of the recurrence:
// pre = W.x + b + u, and nx = f(pre).
// u may be nil for no input injection.
func (nt *Network) Step(pre, nx, x, u []float64) {
	gr := nt.Graph
	for t := 0; t < gr.NNodes; t++ {
		net := nt.Bias[t]
		if u != nil {
			net += u[t]
		}
		st := gr.RecvSt[t]
		for ci := int32(0); ci < gr.RecvN[t]; ci++ {
			e := gr.RecvEdge[st+ci]
			net += nt.Wts[e] * x[gr.Src[e]]
		}
		pre[t] = net
		nx[t] = nt.Act.Fun(net)
	}
}

// StepBack is the transpose of one step: given the gradient g on the
// output of a step with pre-activation pre, it computes the gradient on
// the pre-activation dh = g * f'(pre), and on the step's input state
// gx = W^T . dh.
func (nt *Network) StepBack(gx, dh, g, pre []float64) {
	gr := nt.Graph
	for t := 0; t < gr.NNodes; t++ {
		dh[t] = g[t] * nt.Act.Deriv(pre[t])
	}
	nt.WtsT(gx, dh)
}

// WtsT computes gx = W^T . dh using the sender index
func (nt *Network) WtsT(gx, dh []float64) {
	gr := nt.Graph
	for s := 0; s < gr.NNodes; s++ {
		sum := 0.0
		st := gr.SendSt[s]
		for ci := int32(0); ci < gr.SendN[s]; ci++ {
			e := gr.SendEdge[st+ci]
			sum += nt.Wts[e] * dh[gr.Trg[e]]
		}
		gx[s] = sum
	}
}

// AccumWtGrad adds the outer-product gradient dh[t] * x[s] of each edge
// into dW, and dh into db.
func (nt *Network) AccumWtGrad(dW, db, dh, x []float64) {
	gr := nt.Graph
	for e := range dW {
		dW[e] += dh[gr.Trg[e]] * x[gr.Src[e]]
	}
	for t, d := range dh {
		db[t] += d
	}
}

///////////////////////////////////////////////////////////////////////
//  Reports

// TapeSize returns the number of bytes used by the tape of one
// unrolled solve
func (nt *Network) TapeSize() int {
	return nt.Solver.Iters * nt.Graph.NNodes * 8
}

// SizeReport returns a string reporting the size of the network,
// and the memory footprint of its parameters and unrolled tape.
func (nt *Network) SizeReport() string {
	var b strings.Builder
	gr := nt.Graph
	pmem := (len(nt.Wts) + len(nt.Bias)) * 8
	smem := gr.NEdges() * (4 + 4 + 4 + 4 + 4) // src, trg, sign, recv + send index
	fmt.Fprintf(&b, "%14s:\t Nodes: %d\t Edges: %d\t ParamMem: %v\t StruMem: %v\n", nt.Nm, gr.NNodes, gr.NEdges(),
		(datasize.ByteSize)(pmem).HumanReadable(), (datasize.ByteSize)(smem).HumanReadable())
	fmt.Fprintf(&b, "%14s:\t Iters: %d\t TapeMem per sample: %v\n", nt.Solver.Grad, nt.Solver.Iters,
		(datasize.ByteSize)(nt.TapeSize()).HumanReadable())
	fmt.Fprintf(&b, "%14s:\t %s\n", "Graph", gr)
	return b.String()
}
