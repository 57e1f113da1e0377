// Package object encodes the metadata blocks that describe datasets.
//
// A dataset header (signature "DSHD") is a checksummed list of typed
// messages: dataspace, datatype, fill value, storage layout and filter
// pipeline. Each message carries a flag telling readers whether they may
// ignore it when its type is unknown.
//
// The catalog (signature "CTLG") maps dataset names to header locations.
// It is rewritten whenever a dataset is added.
//
// # Errors
//
//   - [ErrInvalidHeader]: block is not a well-formed header or catalog
//   - [ErrUnsupportedMessage]: a must-understand message has an unknown type
package object
