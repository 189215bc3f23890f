// Package imbuf defines the frame buffers consumed by the tracking engine
// and the provider interface that supplies them.
//
// Responsibilities: float/byte RGBA buffers with bottom-up rows, search area
// extraction for a marker, grayscale conversion, channel disabling, warped
// pattern sampling and conversion to and from image.Image.
// Key types: ImBuf, Provider.
//
// Dependency rule: imbuf may depend on geom, track and coords. It never
// decodes files itself; providers do.
package imbuf
