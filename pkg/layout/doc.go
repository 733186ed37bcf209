// Package layout places the pins of a cell around a rectangular symbol body.
//
// The layout is a fixed heuristic driven only by pin role and direction:
//
//	         power (270°)
//	       +-------------+
//	input  |             |  output
//	 (0°)  |             |  (180°)
//	       +-------------+
//	         ground (90°)
//
// Pins claim slots category by category: power, ground, inputs, outputs,
// and finally the bidirectional, passive and unspecified signal pins (IOP
// pins), each category in declaration order. IOP pins first even out the
// left and right columns, then alternate between them starting on the
// right, so the left column gets the smaller half of an odd remainder. The body is centered on the origin and padded outward by an
// estimate of the label widths. Place is pure: the same pins in the same
// order always give the same geometry.
package layout
