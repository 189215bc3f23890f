// Package footage serves numbered image sequences as frame buffers.
//
// Responsibilities: discovering the frames of a PNG sequence on a
// FileSystem, decoding them on demand into ImBufs and writing buffers back
// out as PNG files.
//
// Key types: Sequence.
//
// Dependency rule: footage depends on imbuf and fsutil. The engines only
// see it through imbuf.Provider.
package footage
