// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package netio loads signaling network definitions, node annotations and
condition x feature data from tab-separated files, and maps node names
onto network node indexes.
*/
package netio

import (
	"sort"
	"strconv"
	"strings"

	"github.com/emer/bionet/bionet"
	"github.com/emer/bionet/sgraph"
	"github.com/emer/etable/etable"
	"github.com/goki/gi/gi"
	"github.com/goki/kigen/ordmap"
	"github.com/pkg/errors"
)

// Network is an interaction list loaded from a file, with nodes named
// and ordered by sorted name.
type Network struct {
	Nodes []string           `desc:"node names, sorted"`
	Src   []int32            `desc:"source node index of each interaction"`
	Trg   []int32            `desc:"target node index of each interaction"`
	Signs []sgraph.SignModes `desc:"sign constraint of each interaction"`
	index *ordmap.Map[string, int]
}

// openTable reads a tab-separated file with a header row into a table
func openTable(fname gi.FileName) (*etable.Table, error) {
	dt := &etable.Table{}
	if err := dt.OpenCSV(fname, etable.Tab); err != nil {
		return nil, errors.Wrapf(err, "netio: reading %s", fname)
	}
	return dt, nil
}

// colIdx returns the index of each named column, as ErrConfig if missing
func colIdx(dt *etable.Table, fname gi.FileName, names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, nm := range names {
		ci, err := dt.ColIdxTry(nm)
		if err != nil {
			return nil, errors.Wrapf(bionet.ErrConfig, "netio: %s has no %q column", fname, nm)
		}
		idx[i] = ci
	}
	return idx, nil
}

// parseFlag parses a 0/1 or true/false cell value
func parseFlag(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}

// LoadNetwork loads a network from a tab-separated file with columns
// source, target, stimulation and inhibition.  An interaction that only
// stimulates is Activating, one that only inhibits is Inhibiting, and
// all others are Unconstrained.  Nodes are the sorted unique names.
func LoadNetwork(fname gi.FileName) (*Network, error) {
	dt, err := openTable(fname)
	if err != nil {
		return nil, err
	}
	ci, err := colIdx(dt, fname, "source", "target", "stimulation", "inhibition")
	if err != nil {
		return nil, err
	}
	nr := dt.Rows
	srcs := make([]string, nr)
	trgs := make([]string, nr)
	var names []string
	for r := 0; r < nr; r++ {
		srcs[r] = strings.TrimSpace(dt.CellStringIdx(ci[0], r))
		trgs[r] = strings.TrimSpace(dt.CellStringIdx(ci[1], r))
		if srcs[r] == "" || trgs[r] == "" {
			return nil, errors.Wrapf(bionet.ErrConfig, "netio: %s row %d: empty node name", fname, r)
		}
		names = append(names, srcs[r], trgs[r])
	}
	nw := &Network{Nodes: Unique(names)}
	nw.buildIndex()
	nw.Src = make([]int32, nr)
	nw.Trg = make([]int32, nr)
	nw.Signs = make([]sgraph.SignModes, nr)
	for r := 0; r < nr; r++ {
		stim, err := parseFlag(dt.CellStringIdx(ci[2], r))
		if err != nil {
			return nil, errors.Wrapf(bionet.ErrConfig, "netio: %s row %d: bad stimulation value: %v", fname, r, err)
		}
		inhib, err := parseFlag(dt.CellStringIdx(ci[3], r))
		if err != nil {
			return nil, errors.Wrapf(bionet.ErrConfig, "netio: %s row %d: bad inhibition value: %v", fname, r, err)
		}
		nw.Src[r] = int32(nw.index.Map[srcs[r]])
		nw.Trg[r] = int32(nw.index.Map[trgs[r]])
		nw.Signs[r] = sgraph.SignModeFromFlags(stim, inhib)
	}
	return nw, nil
}

func (nw *Network) buildIndex() {
	nw.index = ordmap.New[string, int]()
	for i, nm := range nw.Nodes {
		nw.index.Add(nm, i)
	}
}

// NNodes returns the number of nodes
func (nw *Network) NNodes() int {
	return len(nw.Nodes)
}

// NodeIndex returns the index of named node, false if not in the network
func (nw *Network) NodeIndex(name string) (int, bool) {
	if nw.index == nil {
		nw.buildIndex()
	}
	i, ok := nw.index.Map[name]
	return i, ok
}

// Index returns the node index of each name, as ErrConfig if any
// name is not a network node.
func (nw *Network) Index(names []string) ([]int, error) {
	idx := make([]int, len(names))
	for i, nm := range names {
		ni, ok := nw.NodeIndex(nm)
		if !ok {
			return nil, errors.Wrapf(bionet.ErrConfig, "netio: %q is not a network node", nm)
		}
		idx[i] = ni
	}
	return idx, nil
}

// Graph returns the signed graph of the interactions
func (nw *Network) Graph() (*sgraph.Graph, error) {
	return sgraph.New(nw.NNodes(), nw.Src, nw.Trg, nw.Signs)
}

// NewNetwork returns a bionet network over the interactions, named by nodes
func (nw *Network) NewNetwork(name string) (*bionet.Network, error) {
	gr, err := nw.Graph()
	if err != nil {
		return nil, err
	}
	return bionet.NewNetwork(name, gr, nw.Nodes)
}

// Unique returns the sorted unique strings of names
func Unique(names []string) []string {
	un := append([]string(nil), names...)
	sort.Strings(un)
	n := 0
	for i, nm := range un {
		if i > 0 && nm == un[n-1] {
			continue
		}
		un[n] = nm
		n++
	}
	return un[:n]
}

// Intersect returns the sorted unique names present in both a and b
func Intersect(a, b []string) []string {
	inb := make(map[string]bool, len(b))
	for _, nm := range b {
		inb[nm] = true
	}
	var is []string
	for _, nm := range a {
		if inb[nm] {
			is = append(is, nm)
		}
	}
	return Unique(is)
}
