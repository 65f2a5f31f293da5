// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bionet

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/emer/bionet/act"
	"github.com/emer/bionet/sgraph"
	"github.com/goki/gi/gi"
	"github.com/pkg/errors"
)

// Snapshot is everything needed to rebuild a trained model
type Snapshot struct {
	Name    string             `desc:"network name"`
	Nodes   []string           `desc:"node names"`
	NNodes  int                `desc:"number of nodes"`
	Src     []int32            `desc:"edge sources"`
	Trg     []int32            `desc:"edge targets"`
	Signs   []sgraph.SignModes `desc:"edge sign modes"`
	Wts     []float64          `desc:"edge weights"`
	Bias    []float64          `desc:"node biases"`
	InIdx   []int              `desc:"input node indexes"`
	InWts   []float64          `desc:"input weights"`
	InAmp   float64            `desc:"input amplitude"`
	InLearn bool               `desc:"whether input weights are trained"`
	OutIdx  []int              `desc:"output node indexes"`
	ProjWts []float64          `desc:"projection weights"`
	ProjAmp float64            `desc:"projection amplitude"`
	Act     act.Params         `desc:"activation function"`
	Solve   SolveParams        `desc:"solver parameters"`
	Spec    SpecParams         `desc:"spectral parameters"`
}

// Snapshot returns a copy of the full model definition and parameters
func (md *Model) Snapshot() *Snapshot {
	nt := md.Net
	gr := nt.Graph
	sn := &Snapshot{Name: nt.Nm, NNodes: gr.NNodes, Act: nt.Act, Solve: nt.Solver, Spec: nt.Spec}
	sn.Nodes = append([]string(nil), nt.Nodes...)
	sn.Src = append([]int32(nil), gr.Src...)
	sn.Trg = append([]int32(nil), gr.Trg...)
	sn.Signs = append([]sgraph.SignModes(nil), gr.Signs...)
	sn.Wts = append([]float64(nil), nt.Wts...)
	sn.Bias = append([]float64(nil), nt.Bias...)
	sn.InIdx = append([]int(nil), md.In.NodeIdx...)
	sn.InWts = append([]float64(nil), md.In.Wts...)
	sn.InAmp = md.In.Amp
	sn.InLearn = md.In.Learn
	sn.OutIdx = append([]int(nil), md.Proj.NodeIdx...)
	sn.ProjWts = append([]float64(nil), md.Proj.Wts...)
	sn.ProjAmp = md.Proj.Amp
	return sn
}

// ModelFromSnapshot rebuilds a model from a snapshot.
// All inconsistencies are errors with cause ErrConfig.
func ModelFromSnapshot(sn *Snapshot) (*Model, error) {
	gr, err := sgraph.New(sn.NNodes, sn.Src, sn.Trg, sn.Signs)
	if err != nil {
		return nil, err
	}
	var nodes []string
	if len(sn.Nodes) > 0 {
		nodes = sn.Nodes
	}
	nt, err := NewNetwork(sn.Name, gr, nodes)
	if err != nil {
		return nil, err
	}
	if len(sn.Wts) != len(nt.Wts) || len(sn.Bias) != len(nt.Bias) {
		return nil, errors.Wrapf(ErrConfig, "snapshot has %d weights and %d biases for %d edges and %d nodes", len(sn.Wts), len(sn.Bias), len(nt.Wts), len(nt.Bias))
	}
	if sn.Act.Type < 0 || sn.Act.Type >= act.ActTypesN || sn.Solve.Grad < 0 || sn.Solve.Grad >= GradTypesN {
		return nil, errors.Wrapf(ErrConfig, "snapshot activation %v or gradient strategy %v is not valid", sn.Act.Type, sn.Solve.Grad)
	}
	copy(nt.Wts, sn.Wts)
	copy(nt.Bias, sn.Bias)
	nt.Act = sn.Act
	nt.Solver = sn.Solve
	nt.Spec = sn.Spec
	nt.Update()
	md, err := NewModel(nt, sn.InIdx, sn.OutIdx, sn.InAmp, sn.ProjAmp)
	if err != nil {
		return nil, err
	}
	if len(sn.InWts) != len(md.In.Wts) || len(sn.ProjWts) != len(md.Proj.Wts) {
		return nil, errors.Wrapf(ErrConfig, "snapshot input / projection weights do not match their node lists")
	}
	copy(md.In.Wts, sn.InWts)
	copy(md.Proj.Wts, sn.ProjWts)
	md.In.Learn = sn.InLearn
	return md, nil
}

// WriteJSON writes the snapshot in indented JSON format
func (sn *Snapshot) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(sn)
}

// ReadJSON reads the snapshot from JSON format.  Parameters that are not
// saved keep their default values.
func (sn *Snapshot) ReadJSON(r io.Reader) error {
	sn.Act.Defaults()
	sn.Solve.Defaults()
	sn.Spec.Defaults()
	return json.NewDecoder(r).Decode(sn)
}

// SaveJSON saves the model snapshot to a JSON-formatted file.
// If filename has .gz extension, then file is gzip compressed.
func (md *Model) SaveJSON(filename gi.FileName) error {
	fp, err := os.Create(string(filename))
	if err != nil {
		log.Println(err)
		return err
	}
	defer fp.Close()
	sn := md.Snapshot()
	if filepath.Ext(string(filename)) == ".gz" {
		gzr := gzip.NewWriter(fp)
		defer gzr.Close()
		return sn.WriteJSON(gzr)
	}
	return sn.WriteJSON(fp)
}

// OpenJSON opens a model from a snapshot JSON-formatted file.
// If filename has .gz extension, then file is gzip uncompressed.
func OpenJSON(filename gi.FileName) (*Model, error) {
	fp, err := os.Open(string(filename))
	if err != nil {
		log.Println(err)
		return nil, err
	}
	defer fp.Close()
	var r io.Reader = fp
	if filepath.Ext(string(filename)) == ".gz" {
		gzr, err := gzip.NewReader(fp)
		if err != nil {
			log.Println(err)
			return nil, err
		}
		defer gzr.Close()
		r = gzr
	}
	sn := &Snapshot{}
	if err := sn.ReadJSON(r); err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return ModelFromSnapshot(sn)
}
