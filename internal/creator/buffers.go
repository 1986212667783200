// SPDX-License-Identifier: MIT
package creator

import (
	"mayaflux/internal/buffer"
	"mayaflux/internal/node"
)

// Feedback builds a feedback buffer, not yet attached to any channel.
func (c *Creator) Feedback(channelID, numSamples uint32, feedback float64) *CreationHandle[*buffer.FeedbackBuffer] {
	fb := buffer.NewFeedbackBuffer(channelID, numSamples, feedback)
	return newCreationHandle(c, fb)
}

// NodeBuffer builds a buffer that renders source every ProcessDefault
// call (typically a handle's Value returned from Sine/Impulse/Phasor/
// Random), not yet attached to any channel.
func (c *Creator) NodeBuffer(channelID, numSamples uint32, source *node.Node, clearBeforeProcess bool) *CreationHandle[*buffer.NodeBuffer] {
	nb := buffer.NewNodeBuffer(channelID, numSamples, source, clearBeforeProcess)
	return newCreationHandle(c, nb)
}

// Input builds and registers an input buffer on the buffer manager for
// channelID, for a backend to push platform audio samples into. Its
// channel is already fixed at registration; chaining .Channel() on the
// returned handle would attach it as a root's child instead, which is
// never the intended wiring for an input buffer (spec §4.3).
func (c *Creator) Input(channelID, numSamples uint32) *CreationHandle[*buffer.InputBuffer] {
	in := c.Buffers.RegisterInput(channelID, numSamples)
	return newCreationHandle(c, in)
}
