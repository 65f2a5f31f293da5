// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bionet

import (
	"math"

	"github.com/emer/bionet/sgraph"
	"github.com/pkg/errors"
)

var (
	// ErrConfig is the cause of model construction errors.
	// It is the same value as sgraph.ErrConfig.
	ErrConfig = sgraph.ErrConfig

	// ErrNumerical is the cause of NaN or Inf values appearing in
	// states, losses or gradients, which typically means that the spectral
	// radius has left the contracting regime.  There is no recovery.
	ErrNumerical = errors.New("numerical instability")
)

// CheckFinite returns an error with cause ErrNumerical if any value in v
// is NaN or Inf, naming what was checked.
func CheckFinite(what string, v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errors.Wrapf(ErrNumerical, "%s[%d] = %g", what, i, x)
		}
	}
	return nil
}
