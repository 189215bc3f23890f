// Package camera models the tracked camera's intrinsics and lens distortion.
//
// Responsibilities: the polynomial radial distortion model (k1, k2, k3),
// distortion and undistortion of points and whole frames, the maximum
// undistortion displacement along a rectangle's border, focal length unit
// conversion and lens shift derived from the principal point.
// Key types: Intrinsics.
//
// Dependency rule: camera depends on geom and imbuf only.
package camera
