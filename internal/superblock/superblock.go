// Package superblock reads and writes the fixed-size block at offset zero of
// every container file. It identifies the file and locates the dataset
// catalog.
package superblock

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tatami-inc/beachmat-go/internal/binary"
)

// Signature is the first eight bytes of a container file.
var Signature = []byte{0x89, 'C', 'H', 'K', '\r', '\n', 0x1a, '\n'}

// Version is the format version written by this package.
const Version = 1

// Size is the encoded size of a superblock, checksum included.
const Size = 8 + 1 + 1 + 2 + 8 + 8 + 8 + 4

var (
	ErrNotContainer       = errors.New("not a container file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
)

// Superblock is the file entry point.
type Superblock struct {
	Version     uint8
	Flags       uint8
	CatalogAddr uint64 // binary.UndefinedAddress while the file has no datasets
	CatalogSize uint64
	EOFAddr     uint64
}

// New returns a superblock for an empty file.
func New() *Superblock {
	return &Superblock{
		Version:     Version,
		CatalogAddr: binary.UndefinedAddress,
		EOFAddr:     Size,
	}
}

// Read parses and verifies the superblock at offset zero.
func Read(r io.ReaderAt) (*Superblock, error) {
	buf, err := binary.NewReader(r).ReadBytes(Size)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrNotContainer
		}
		return nil, err
	}
	if !bytes.Equal(buf[:len(Signature)], Signature) {
		return nil, ErrNotContainer
	}
	if v := buf[len(Signature)]; v != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	body, err := binary.Verify(buf)
	if err != nil {
		return nil, fmt.Errorf("superblock: %w", err)
	}
	dec := binary.NewDecoder(body[len(Signature):])
	sb := &Superblock{
		Version: dec.Uint8(),
		Flags:   dec.Uint8(),
	}
	dec.Uint16() // reserved
	sb.CatalogAddr = dec.Uint64()
	sb.CatalogSize = dec.Uint64()
	sb.EOFAddr = dec.Uint64()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("superblock: %w", err)
	}
	return sb, nil
}

// Encode returns the sealed on-disk form.
func (sb *Superblock) Encode() []byte {
	enc := binary.NewEncoder(Size)
	enc.PutBytes(Signature)
	enc.PutUint8(sb.Version)
	enc.PutUint8(sb.Flags)
	enc.PutUint16(0)
	enc.PutUint64(sb.CatalogAddr)
	enc.PutUint64(sb.CatalogSize)
	enc.PutUint64(sb.EOFAddr)
	return enc.Seal()
}

// Write writes the superblock at offset zero.
func (sb *Superblock) Write(w io.WriterAt) error {
	return binary.NewWriter(w).WriteBytes(sb.Encode())
}
