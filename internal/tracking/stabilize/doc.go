// Package stabilize computes 2D stabilization from tracks flagged for it
// and resamples frames accordingly.
//
// Responsibilities: median of the stabilization tracks, per-frame
// translation, scale and rotation, autoscale that hides the borders
// uncovered by the correction, the composed 4x4 transform, and frame
// resampling with nearest, bilinear or bicubic kernels.
//
// Key types: Transform.
//
// Dependency rule: stabilize depends on registry, track, imbuf and geom.
package stabilize
