// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package train

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Derangement returns a random permutation of 0..n-1 with no fixed points
// (for n >= 2), by rejection of random shuffles.
func Derangement(n int, rnd *rand.Rand) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	if n < 2 {
		return perm
	}
	for {
		rnd.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		fixed := false
		for i, p := range perm {
			if p == i {
				fixed = true
				break
			}
		}
		if !fixed {
			return perm
		}
	}
}

// ScrambleRows returns a copy of m with row i taken from row perm[i] of m
func ScrambleRows(m *mat.Dense, perm []int) *mat.Dense {
	nr, nc := m.Dims()
	sm := mat.NewDense(nr, nc, nil)
	for i, p := range perm {
		sm.SetRow(i, m.RawRowView(p))
	}
	return sm
}

// Scramble replaces the training targets with a deranged copy, so that no
// sample keeps its own target.  This is the negative control: a model
// trained on scrambled targets should do no better than the mean baseline.
func (tr *Trainer) Scramble() []int {
	perm := Derangement(tr.NSamples(), tr.Rnd)
	tr.Y = ScrambleRows(tr.Y, perm)
	return perm
}
