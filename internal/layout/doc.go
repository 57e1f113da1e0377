// Package layout provides the storage geometry of two-dimensional datasets.
//
// A dataset stores its elements either contiguously, row-major over its two
// dimensions, or split into equally shaped chunks that tile the dataset.
// Chunks on the right and bottom edges are stored at full size; the part
// beyond the dataset is padding.
//
// # Chunk Grid
//
// [Grid] maps chunk coordinates to a linear chunk number (row-major over the
// chunk counts) and enumerates the chunks overlapping a [Slab].
//
// # Chunk Index
//
// [Index] is a fixed array with one [Entry] per chunk recording where the
// encoded chunk lives, its stored size and the filters skipped for it. An
// entry with an undefined address has never been written; readers
// substitute the fill value. The set of written chunks is also held as a
// roaring bitmap so that whole regions can be tested for emptiness.
//
// # Copying
//
// [CopyOut] and [CopyIn] move the overlap between a chunk and a slab in and
// out of chunk buffers. [ContiguousRuns] does the same for contiguous
// storage by enumerating the file runs a slab touches.
package layout
