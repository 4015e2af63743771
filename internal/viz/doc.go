// Package viz renders particle snapshots. Nothing here feeds back into the
// dynamics.
//
//   - [View]: projection onto two axes or a camera turning about the third
//     channel, with depth cue, age fade and a color scalar
//   - [Canvas]: braille pixel canvas colored per character cell
//   - [Terminal]: a sim.Renderer printing frames to a writer
//   - [Model]: interactive Bubble Tea session over one or more simulations
//   - [WriteSVG]: one frame as an SVG document
//
// # Key Bindings
//
//	Space - Pause/Resume
//	.     - Single tick while paused
//	T     - Cycle color themes
//	C     - Cycle color mode
//	[ ]   - Camera speed
//	G     - Toggle GIF recording
//	?     - Show help overlay
package viz
