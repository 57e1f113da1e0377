package filter

// Shuffle groups the k-th byte of every element together, which helps
// compressors on multi-byte numeric data.
type Shuffle struct {
	elemSize int
}

// NewShuffle creates a shuffle filter. Client data: [0] = element size.
func NewShuffle(clientData []uint32) *Shuffle {
	size := 1
	if len(clientData) > 0 && clientData[0] > 0 {
		size = int(clientData[0])
	}
	return &Shuffle{elemSize: size}
}

func (f *Shuffle) ID() uint16 { return IDShuffle }

// Encode turns [e0][e1]...[eM] into [byte 0 of all][byte 1 of all]...
// Trailing bytes that do not form a whole element are copied unchanged.
func (f *Shuffle) Encode(input []byte) ([]byte, error) {
	n := len(input) / f.elemSize
	if f.elemSize <= 1 || n <= 1 {
		return input, nil
	}
	out := make([]byte, len(input))
	for e := 0; e < n; e++ {
		for b := 0; b < f.elemSize; b++ {
			out[b*n+e] = input[e*f.elemSize+b]
		}
	}
	copy(out[n*f.elemSize:], input[n*f.elemSize:])
	return out, nil
}

// Decode reverses Encode.
func (f *Shuffle) Decode(input []byte) ([]byte, error) {
	n := len(input) / f.elemSize
	if f.elemSize <= 1 || n <= 1 {
		return input, nil
	}
	out := make([]byte, len(input))
	for e := 0; e < n; e++ {
		for b := 0; b < f.elemSize; b++ {
			out[e*f.elemSize+b] = input[b*n+e]
		}
	}
	copy(out[n*f.elemSize:], input[n*f.elemSize:])
	return out, nil
}
