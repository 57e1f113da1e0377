package object

import (
	"fmt"

	"github.com/tatami-inc/beachmat-go/internal/binary"
	"github.com/tatami-inc/beachmat-go/internal/dtype"
	"github.com/tatami-inc/beachmat-go/internal/filter"
)

// MessageType identifies a header message.
type MessageType uint8

const (
	MsgDataspace      MessageType = 1
	MsgDatatype       MessageType = 3
	MsgFillValue      MessageType = 5
	MsgLayout         MessageType = 8
	MsgFilterPipeline MessageType = 11
)

// FlagMustUnderstand makes readers reject a message type they do not know.
const FlagMustUnderstand uint8 = 0x01

// LayoutClass is the storage layout of a dataset.
type LayoutClass uint8

const (
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
)

func (c LayoutClass) String() string {
	switch c {
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	default:
		return fmt.Sprintf("layout(%d)", uint8(c))
	}
}

// Layout locates a dataset's storage. For contiguous datasets Addr/Size
// describe the raw data; for chunked datasets they describe the chunk index.
type Layout struct {
	Class LayoutClass
	Chunk [2]uint64
	Addr  uint64
	Size  uint64
}

func encodeDataspace(enc *binary.Encoder, dims [2]uint64) {
	enc.PutUint8(2)
	enc.PutUint64(dims[0])
	enc.PutUint64(dims[1])
}

func decodeDataspace(dec *binary.Decoder) ([2]uint64, error) {
	if rank := dec.Uint8(); dec.Err() == nil && rank != 2 {
		return [2]uint64{}, fmt.Errorf("%w: dataspace of rank %d", ErrInvalidHeader, rank)
	}
	return [2]uint64{dec.Uint64(), dec.Uint64()}, dec.Err()
}

func encodeDatatype(enc *binary.Encoder, dt dtype.Datatype) {
	enc.PutUint8(uint8(dt.Class))
	enc.PutUint32(dt.Size)
}

func decodeDatatype(dec *binary.Decoder) (dtype.Datatype, error) {
	dt := dtype.Datatype{Class: dtype.Class(dec.Uint8()), Size: dec.Uint32()}
	if err := dec.Err(); err != nil {
		return dt, err
	}
	return dt, dt.Validate()
}

func encodeLayout(enc *binary.Encoder, l Layout) {
	enc.PutUint8(uint8(l.Class))
	enc.PutUint64(l.Chunk[0])
	enc.PutUint64(l.Chunk[1])
	enc.PutUint64(l.Addr)
	enc.PutUint64(l.Size)
}

func decodeLayout(dec *binary.Decoder) (Layout, error) {
	l := Layout{Class: LayoutClass(dec.Uint8())}
	l.Chunk = [2]uint64{dec.Uint64(), dec.Uint64()}
	l.Addr = dec.Uint64()
	l.Size = dec.Uint64()
	if err := dec.Err(); err != nil {
		return l, err
	}
	if l.Class != LayoutContiguous && l.Class != LayoutChunked {
		return l, fmt.Errorf("%w: %s", ErrInvalidHeader, l.Class)
	}
	return l, nil
}

func encodeFilters(enc *binary.Encoder, infos []filter.Info) {
	enc.PutUint8(uint8(len(infos)))
	for _, f := range infos {
		enc.PutUint16(f.ID)
		enc.PutUint16(f.Flags)
		enc.PutUint8(uint8(len(f.ClientData)))
		for _, v := range f.ClientData {
			enc.PutUint32(v)
		}
	}
}

func decodeFilters(dec *binary.Decoder) ([]filter.Info, error) {
	n := int(dec.Uint8())
	infos := make([]filter.Info, 0, n)
	for i := 0; i < n && dec.Err() == nil; i++ {
		f := filter.Info{ID: dec.Uint16(), Flags: dec.Uint16()}
		if nc := int(dec.Uint8()); nc > 0 {
			f.ClientData = make([]uint32, nc)
			for j := range f.ClientData {
				f.ClientData[j] = dec.Uint32()
			}
		}
		infos = append(infos, f)
	}
	return infos, dec.Err()
}
