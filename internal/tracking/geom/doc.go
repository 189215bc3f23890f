// Package geom holds the small fixed-size vector and matrix types shared by
// the tracking packages.
//
// Responsibilities: 2D/3D vector arithmetic, 4x4 affine transforms stored
// row-major as [16]float64 (translation at T[3], T[7], T[11]), inversion and
// interpolation of camera transforms.
// Key types: Vec2, Vec3, Mat4.
//
// Dependency rule: geom depends on nothing else in this module.
package geom
