// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sgraph

import "github.com/goki/ki/kit"

// SignModes are the mode-of-action constraints on an edge weight.
type SignModes int32

//go:generate stringer -type=SignModes

var KiT_SignModes = kit.Enums.AddEnum(SignModesN, kit.NotBitFlag, nil)

func (ev SignModes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *SignModes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The edge sign modes
const (
	// Unconstrained edges may take either sign and never count as violations
	Unconstrained SignModes = iota

	// Activating edges must have a weight >= 0 (stimulation)
	Activating

	// Inhibiting edges must have a weight <= 0 (inhibition)
	Inhibiting

	SignModesN
)

// Violates returns true if weight w contradicts this sign mode.
// A zero weight never violates.
func (sm SignModes) Violates(w float64) bool {
	switch sm {
	case Activating:
		return w < 0
	case Inhibiting:
		return w > 0
	}
	return false
}

// Sign returns the required sign of the weight: +1, -1 or 0 for unconstrained.
func (sm SignModes) Sign() float64 {
	switch sm {
	case Activating:
		return 1
	case Inhibiting:
		return -1
	}
	return 0
}

// SignModeFromFlags returns the sign mode from stimulation / inhibition
// annotation flags: only one of the two set constrains the edge,
// both or neither leaves it unconstrained.
func SignModeFromFlags(stim, inhib bool) SignModes {
	switch {
	case stim && !inhib:
		return Activating
	case inhib && !stim:
		return Inhibiting
	}
	return Unconstrained
}

// NodeRoles tag nodes by how the model can use them.
type NodeRoles int32

//go:generate stringer -type=NodeRoles

var KiT_NodeRoles = kit.Enums.AddEnum(NodeRolesN, kit.NotBitFlag, nil)

func (ev NodeRoles) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *NodeRoles) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The node roles
const (
	// InteriorNode is an intermediate signaling species
	InteriorNode NodeRoles = iota

	// InputNode can receive external input injection (e.g., a ligand)
	InputNode

	// OutputNode can be read out by the projection (e.g., a transcription factor)
	OutputNode

	NodeRolesN
)
