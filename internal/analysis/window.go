// SPDX-License-Identifier: MIT

// Package analysis demonstrates the control-thread-vs-audio-thread
// snapshot contract spec §4.1 describes: pulling a non-destructive
// window of samples off a live node without disturbing what the audio
// thread sees. It is deliberately small — the original engine's Yantra
// analyzer/extractor/sorter matrix is out of scope (spec §1); this
// package exists only to give the snapshot contract a real consumer.
package analysis

import (
	"fmt"

	"mayaflux/internal/node"
)

// Window pulls nsamples of non-destructive output from n via
// node.PullWindow, identifying itself with a process-wide unique
// claimant id so concurrent windows never collide on the same node's
// snapshot claim (spec §4.1's testable scenario 5: concurrent audio-
// thread pulls and a control-thread window read).
func Window(n *node.Node, nsamples int) ([]float64, error) {
	out, err := n.PullWindow(nsamples, node.NextClaimID())
	if err != nil {
		return nil, fmt.Errorf("analysis: pulling window: %w", err)
	}
	return out, nil
}
