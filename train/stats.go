// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package train

import (
	"fmt"
	"math"

	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/goki/gi/gi"
	"gonum.org/v1/gonum/stat"
)

// ConfigStats configures the per-iteration training stats table,
// with one row preallocated for each of nIter iterations.
func ConfigStats(dt *etable.Table, nIter int) {
	dt.SetMetaData("name", "TrainStats")
	dt.SetMetaData("desc", "Record of training progress, one row per iteration")
	dt.SetMetaData("read-only", "true")
	dt.SetMetaData("precision", "6")

	sch := etable.Schema{
		{"Iter", etensor.INT64, nil, nil},
		{"Loss", etensor.FLOAT64, nil, nil},
		{"LossStd", etensor.FLOAT64, nil, nil},
		{"Eig", etensor.FLOAT64, nil, nil},
		{"EigStd", etensor.FLOAT64, nil, nil},
		{"Rate", etensor.FLOAT64, nil, nil},
		{"Violations", etensor.INT64, nil, nil},
	}
	dt.SetFromSchema(sch, nIter)
}

// meanStd returns the mean and population standard deviation of x
func meanStd(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	mean, vr := stat.PopMeanVariance(x, nil)
	return mean, math.Sqrt(vr)
}

// RecordStats writes the stats row for the current iteration, from the
// per-batch fit losses and spectral radii.
func (tr *Trainer) RecordStats(losses, eigs []float64, lr float64) {
	row := tr.Iter
	if row >= tr.Stats.Rows {
		tr.Stats.SetNumRows(row + 1)
	}
	lm, ls := meanStd(losses)
	em, es := meanStd(eigs)
	dt := tr.Stats
	dt.SetCellFloat("Iter", row, float64(tr.Iter))
	dt.SetCellFloat("Loss", row, lm)
	dt.SetCellFloat("LossStd", row, ls)
	dt.SetCellFloat("Eig", row, em)
	dt.SetCellFloat("EigStd", row, es)
	dt.SetCellFloat("Rate", row, lr)
	dt.SetCellFloat("Violations", row, float64(tr.Model.NViolations()))
}

// StatsLine returns a printable summary of stats row
func (tr *Trainer) StatsLine(row int) string {
	dt := tr.Stats
	return fmt.Sprintf("i=%d\tl=%.5f\ts=%.3f\tr=%.5f\tv=%d", int(dt.CellFloat("Iter", row)), dt.CellFloat("Loss", row),
		dt.CellFloat("Eig", row), dt.CellFloat("Rate", row), int(dt.CellFloat("Violations", row)))
}

// SaveStats saves the stats rows recorded so far to a tab-separated file
func (tr *Trainer) SaveStats(fname gi.FileName) error {
	dt := tr.Stats
	if tr.Iter < dt.Rows {
		dt.SetNumRows(tr.Iter)
	}
	return dt.SaveCSV(fname, etable.Tab, etable.Headers)
}
