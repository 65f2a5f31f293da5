// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package netio

import (
	"strconv"
	"strings"

	"github.com/emer/bionet/bionet"
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/goki/gi/gi"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Annotation describes network nodes: gene name and whether the node
// is a ligand (input) or transcription factor (output).
type Annotation struct {
	Code   []string `desc:"node code, as used in the network"`
	Name   []string `desc:"gene name"`
	Ligand []bool   `desc:"node is a ligand"`
	TF     []bool   `desc:"node is a transcription factor"`
}

// LoadAnnotation loads an annotation file with columns code, name, ligand and TF
func LoadAnnotation(fname gi.FileName) (*Annotation, error) {
	dt, err := openTable(fname)
	if err != nil {
		return nil, err
	}
	ci, err := colIdx(dt, fname, "code", "name", "ligand", "TF")
	if err != nil {
		return nil, err
	}
	nr := dt.Rows
	an := &Annotation{Code: make([]string, nr), Name: make([]string, nr), Ligand: make([]bool, nr), TF: make([]bool, nr)}
	for r := 0; r < nr; r++ {
		an.Code[r] = strings.TrimSpace(dt.CellStringIdx(ci[0], r))
		an.Name[r] = strings.TrimSpace(dt.CellStringIdx(ci[1], r))
		if an.Ligand[r], err = parseFlag(dt.CellStringIdx(ci[2], r)); err != nil {
			return nil, errors.Wrapf(bionet.ErrConfig, "netio: %s row %d: bad ligand value: %v", fname, r, err)
		}
		if an.TF[r], err = parseFlag(dt.CellStringIdx(ci[3], r)); err != nil {
			return nil, errors.Wrapf(bionet.ErrConfig, "netio: %s row %d: bad TF value: %v", fname, r, err)
		}
	}
	return an, nil
}

// Ligands returns the codes of all ligand nodes
func (an *Annotation) Ligands() []string {
	var cs []string
	for i, c := range an.Code {
		if an.Ligand[i] {
			cs = append(cs, c)
		}
	}
	return cs
}

// TFs returns the codes of all transcription factor nodes
func (an *Annotation) TFs() []string {
	var cs []string
	for i, c := range an.Code {
		if an.TF[i] {
			cs = append(cs, c)
		}
	}
	return cs
}

// Names returns the gene name for each code, or the code itself if not annotated
func (an *Annotation) Names(codes []string) []string {
	nm := make(map[string]string, len(an.Code))
	for i, c := range an.Code {
		nm[c] = an.Name[i]
	}
	names := make([]string, len(codes))
	for i, c := range codes {
		if n, ok := nm[c]; ok && n != "" {
			names[i] = n
		} else {
			names[i] = c
		}
	}
	return names
}

// Data is a matrix of values with named rows (conditions) and
// columns (nodes).
type Data struct {
	Rows []string   `desc:"row (condition) names"`
	Cols []string   `desc:"column (node) names"`
	Vals *mat.Dense `desc:"values, rows x cols"`
}

// LoadData loads a tab-separated table whose first column holds the row
// names and whose remaining columns are numeric values, with a header row
// naming the columns.
func LoadData(fname gi.FileName) (*Data, error) {
	dt, err := openTable(fname)
	if err != nil {
		return nil, err
	}
	nc := dt.NumCols() - 1
	if nc < 1 || dt.Rows == 0 {
		return nil, errors.Wrapf(bionet.ErrConfig, "netio: %s has no data", fname)
	}
	d := &Data{Rows: make([]string, dt.Rows), Cols: make([]string, nc)}
	for c := 0; c < nc; c++ {
		d.Cols[c] = dt.ColNames[c+1]
	}
	d.Vals = mat.NewDense(dt.Rows, nc, nil)
	for r := 0; r < dt.Rows; r++ {
		d.Rows[r] = strings.TrimSpace(dt.CellStringIdx(0, r))
		for c := 0; c < nc; c++ {
			if dt.Cols[c+1].DataType() == etensor.STRING {
				s := strings.TrimSpace(dt.CellStringIdx(c+1, r))
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return nil, errors.Wrapf(bionet.ErrConfig, "netio: %s row %d column %s: %q is not a number", fname, r, d.Cols[c], s)
				}
				d.Vals.Set(r, c, v)
			} else {
				d.Vals.Set(r, c, dt.CellFloatIdx(c+1, r))
			}
		}
	}
	return d, nil
}

// NRows returns the number of rows
func (d *Data) NRows() int {
	return len(d.Rows)
}

// Subset returns the data restricted to the named columns, in that order,
// as ErrConfig if any is missing.
func (d *Data) Subset(cols []string) (*Data, error) {
	ci := make(map[string]int, len(d.Cols))
	for i, c := range d.Cols {
		ci[c] = i
	}
	sd := &Data{Rows: append([]string(nil), d.Rows...), Cols: append([]string(nil), cols...)}
	sd.Vals = mat.NewDense(len(d.Rows), len(cols), nil)
	for j, c := range cols {
		i, ok := ci[c]
		if !ok {
			return nil, errors.Wrapf(bionet.ErrConfig, "netio: no data column %q", c)
		}
		sd.Vals.SetCol(j, mat.Col(nil, i, d.Vals))
	}
	return sd, nil
}

// selectRows returns the data rows for which keep returns true
func (d *Data) selectRows(keep func(name string) bool) *Data {
	sd := &Data{Cols: append([]string(nil), d.Cols...)}
	var idx []int
	for i, r := range d.Rows {
		if keep(r) {
			idx = append(idx, i)
			sd.Rows = append(sd.Rows, r)
		}
	}
	if len(idx) == 0 {
		sd.Vals = &mat.Dense{}
		return sd
	}
	sd.Vals = mat.NewDense(len(idx), len(d.Cols), nil)
	for j, i := range idx {
		sd.Vals.SetRow(j, d.Vals.RawRowView(i))
	}
	return sd
}

// DropRows returns the data without the named rows
func (d *Data) DropRows(names []string) *Data {
	drop := make(map[string]bool, len(names))
	for _, nm := range names {
		drop[nm] = true
	}
	return d.selectRows(func(name string) bool { return !drop[name] })
}

// KeepRows returns only the named rows of the data, in data order
func (d *Data) KeepRows(names []string) *Data {
	keep := make(map[string]bool, len(names))
	for _, nm := range names {
		keep[nm] = true
	}
	return d.selectRows(func(name string) bool { return keep[name] })
}

// Table returns the data as a table with a Condition column followed by
// one column per data column
func (d *Data) Table() *etable.Table {
	sch := etable.Schema{{"Condition", etensor.STRING, nil, nil}}
	for _, c := range d.Cols {
		sch = append(sch, etable.Column{Name: c, Type: etensor.FLOAT64})
	}
	dt := &etable.Table{}
	dt.SetFromSchema(sch, len(d.Rows))
	for r, nm := range d.Rows {
		dt.SetCellStringIdx(0, r, nm)
		for c := range d.Cols {
			dt.SetCellFloatIdx(c+1, r, d.Vals.At(r, c))
		}
	}
	return dt
}

// SaveData saves the data to a tab-separated file
func (d *Data) SaveData(fname gi.FileName) error {
	return d.Table().SaveCSV(fname, etable.Tab, etable.Headers)
}

// LoadConditions loads a cross validation conditions table with columns
// Index and Condition, and returns the conditions of each fold index.
func LoadConditions(fname gi.FileName) (map[int][]string, error) {
	dt, err := openTable(fname)
	if err != nil {
		return nil, err
	}
	ci, err := colIdx(dt, fname, "Index", "Condition")
	if err != nil {
		return nil, err
	}
	folds := make(map[int][]string)
	for r := 0; r < dt.Rows; r++ {
		fi := int(dt.CellFloatIdx(ci[0], r))
		folds[fi] = append(folds[fi], strings.TrimSpace(dt.CellStringIdx(ci[1], r)))
	}
	return folds, nil
}

// ConditionNames names each row of input matrix X by the names of its
// non-zero inputs joined by "_", or "control" if it has none.
func ConditionNames(X mat.Matrix, names []string) []string {
	nr, nc := X.Dims()
	cn := make([]string, nr)
	for r := 0; r < nr; r++ {
		var on []string
		for c := 0; c < nc; c++ {
			if X.At(r, c) != 0 {
				on = append(on, names[c])
			}
		}
		if len(on) == 0 {
			cn[r] = "control"
		} else {
			cn[r] = strings.Join(on, "_")
		}
	}
	return cn
}
