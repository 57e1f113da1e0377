// Package matrix provides uniform row, column and cell access to
// two-dimensional logical, integer, numeric and string data, independent of
// how the data is stored.
//
// Five backends implement the Reader interface:
//
//   - Dense: a column-major buffer.
//   - Sparse: compressed sparse column (CSC) arrays.
//   - Packed: the packed triangle of a symmetric matrix.
//   - RunLength: column-major runs of repeated values.
//   - Chunked: a dataset in a chunkstore container file.
//
// Dense, SparseOutput and Chunked outputs also implement Writer. Finalize
// turns the accumulated contents into a descriptor that NewReader accepts.
//
// Backends keep access caches (the sparse row cursor and the file cache
// mode) in the instance itself. They must not be used from more than one
// goroutine at a time.
package matrix
