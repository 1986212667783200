// SPDX-License-Identifier: MIT

// Package node implements the node-graph subsystem: the Core+Kind
// composition that replaces the original engine's Node class hierarchy,
// the built-in generator kinds, and the graph manager that pulls nodes
// bound to an output channel once per block.
package node

import "fmt"

// State is the atomic bitfield every node carries (spec §4.1). A node is
// always exactly one of INACTIVE/ACTIVE for scheduling purposes, with
// PROCESSED and MOCK_PROCESS as orthogonal bits layered on top.
type State uint32

const (
	Inactive    State = 0
	Active      State = 1 << 0
	Processed   State = 1 << 1
	MockProcess State = 1 << 2
)

func (s State) String() string {
	if s == Inactive {
		return "INACTIVE"
	}
	parts := ""
	if s&Active != 0 {
		parts += "ACTIVE|"
	}
	if s&Processed != 0 {
		parts += "PROCESSED|"
	}
	if s&MockProcess != 0 {
		parts += "MOCK_PROCESS|"
	}
	if parts == "" {
		return fmt.Sprintf("State(%d)", uint32(s))
	}
	return parts[:len(parts)-1]
}
