package object

import (
	"errors"
	"fmt"

	"github.com/tatami-inc/beachmat-go/internal/binary"
	"github.com/tatami-inc/beachmat-go/internal/dtype"
	"github.com/tatami-inc/beachmat-go/internal/filter"
)

const headerSignature = "DSHD"

const headerVersion = 1

var (
	ErrInvalidHeader      = errors.New("invalid dataset header")
	ErrUnsupportedMessage = errors.New("unsupported header message")
)

// Header is the decoded metadata of one dataset.
type Header struct {
	Dims     [2]uint64
	Datatype dtype.Datatype
	Fill     []byte // one element; nil means all-zero bytes
	Layout   Layout
	Filters  []filter.Info
}

// Encode returns the sealed on-disk form of the header.
func (h *Header) Encode() []byte {
	enc := binary.NewEncoder(128)
	enc.PutString(headerSignature)
	enc.PutUint8(headerVersion)

	type msg struct {
		typ   MessageType
		flags uint8
		body  func(*binary.Encoder)
	}
	msgs := []msg{
		{MsgDataspace, FlagMustUnderstand, func(e *binary.Encoder) { encodeDataspace(e, h.Dims) }},
		{MsgDatatype, FlagMustUnderstand, func(e *binary.Encoder) { encodeDatatype(e, h.Datatype) }},
		{MsgLayout, FlagMustUnderstand, func(e *binary.Encoder) { encodeLayout(e, h.Layout) }},
	}
	if len(h.Fill) > 0 {
		msgs = append(msgs, msg{MsgFillValue, 0, func(e *binary.Encoder) { e.PutBytes(h.Fill) }})
	}
	if len(h.Filters) > 0 {
		msgs = append(msgs, msg{MsgFilterPipeline, FlagMustUnderstand, func(e *binary.Encoder) { encodeFilters(e, h.Filters) }})
	}

	enc.PutUint16(uint16(len(msgs)))
	for _, m := range msgs {
		body := binary.NewEncoder(64)
		m.body(body)
		enc.PutUint8(uint8(m.typ))
		enc.PutUint8(m.flags)
		enc.PutUint32(uint32(body.Len()))
		enc.PutBytes(body.Bytes())
	}
	return enc.Seal()
}

// DecodeHeader parses a sealed header block.
func DecodeHeader(block []byte) (*Header, error) {
	body, err := binary.Verify(block)
	if err != nil {
		return nil, fmt.Errorf("dataset header: %w", err)
	}
	dec := binary.NewDecoder(body)
	dec.Signature(headerSignature)
	if v := dec.Uint8(); dec.Err() == nil && v != headerVersion {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidHeader, v)
	}
	n := int(dec.Uint16())
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	h := &Header{}
	seen := make(map[MessageType]bool)
	for i := 0; i < n; i++ {
		typ := MessageType(dec.Uint8())
		flags := dec.Uint8()
		size := int(dec.Uint32())
		payload := dec.Bytes(size)
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: message %d: %v", ErrInvalidHeader, i, err)
		}
		seen[typ] = true

		md := binary.NewDecoder(payload)
		switch typ {
		case MsgDataspace:
			h.Dims, err = decodeDataspace(md)
		case MsgDatatype:
			h.Datatype, err = decodeDatatype(md)
		case MsgLayout:
			h.Layout, err = decodeLayout(md)
		case MsgFillValue:
			h.Fill = append([]byte(nil), payload...)
		case MsgFilterPipeline:
			h.Filters, err = decodeFilters(md)
		default:
			if flags&FlagMustUnderstand != 0 {
				return nil, fmt.Errorf("%w: type %d", ErrUnsupportedMessage, typ)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: message type %d: %v", ErrInvalidHeader, typ, err)
		}
	}

	for _, required := range []MessageType{MsgDataspace, MsgDatatype, MsgLayout} {
		if !seen[required] {
			return nil, fmt.Errorf("%w: missing message type %d", ErrInvalidHeader, required)
		}
	}
	if h.Fill != nil && len(h.Fill) != int(h.Datatype.Size) {
		return nil, fmt.Errorf("%w: fill value of %d bytes for %s", ErrInvalidHeader, len(h.Fill), h.Datatype)
	}
	return h, nil
}

// ReadHeader reads and decodes the header stored at addr.
func ReadHeader(r *binary.Reader, addr, size uint64) (*Header, error) {
	block, err := r.At(int64(addr)).ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("reading dataset header at %d: %w", addr, err)
	}
	return DecodeHeader(block)
}
