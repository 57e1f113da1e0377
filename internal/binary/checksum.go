package binary

import (
	"fmt"
	"math/bits"
)

// ErrChecksum reports a metadata block or chunk whose stored checksum does
// not match its contents.
var ErrChecksum = fmt.Errorf("binary: checksum mismatch")

// Checksum returns the Jenkins lookup3 (hashlittle, initval 0) hash of data.
// Every metadata block in a container ends with this value.
func Checksum(data []byte) uint32 {
	seed := uint32(0xdeadbeef) + uint32(len(data))
	a, b, c := seed, seed, seed

	for len(data) > 12 {
		a += Order.Uint32(data[0:])
		b += Order.Uint32(data[4:])
		c += Order.Uint32(data[8:])
		a, b, c = mix(a, b, c)
		data = data[12:]
	}
	if len(data) == 0 {
		return c
	}

	// The 1..12 byte tail is zero-padded into the three lanes.
	var tail [12]byte
	copy(tail[:], data)
	a += Order.Uint32(tail[0:])
	b += Order.Uint32(tail[4:])
	c += Order.Uint32(tail[8:])
	_, _, c = final(a, b, c)
	return c
}

func mix(a, b, c uint32) (uint32, uint32, uint32) {
	a -= c
	a ^= bits.RotateLeft32(c, 4)
	c += b
	b -= a
	b ^= bits.RotateLeft32(a, 6)
	a += c
	c -= b
	c ^= bits.RotateLeft32(b, 8)
	b += a
	a -= c
	a ^= bits.RotateLeft32(c, 16)
	c += b
	b -= a
	b ^= bits.RotateLeft32(a, 19)
	a += c
	c -= b
	c ^= bits.RotateLeft32(b, 4)
	b += a
	return a, b, c
}

func final(a, b, c uint32) (uint32, uint32, uint32) {
	c ^= b
	c -= bits.RotateLeft32(b, 14)
	a ^= c
	a -= bits.RotateLeft32(c, 11)
	b ^= a
	b -= bits.RotateLeft32(a, 25)
	c ^= b
	c -= bits.RotateLeft32(b, 16)
	a ^= c
	a -= bits.RotateLeft32(c, 4)
	b ^= a
	b -= bits.RotateLeft32(a, 14)
	c ^= b
	c -= bits.RotateLeft32(b, 24)
	return a, b, c
}

// Verify checks a sealed block: the last four bytes must be the checksum
// of everything before them. It returns the block body on success.
func Verify(block []byte) ([]byte, error) {
	if len(block) < 4 {
		return nil, fmt.Errorf("%w: block of %d bytes", ErrShortBuffer, len(block))
	}
	body := block[:len(block)-4]
	stored := Order.Uint32(block[len(block)-4:])
	if got := Checksum(body); got != stored {
		return nil, fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrChecksum, stored, got)
	}
	return body, nil
}

// Fletcher32 computes the Fletcher-32 checksum of data taken as
// little-endian 16-bit words. An odd trailing byte is zero-padded.
func Fletcher32(data []byte) uint32 {
	var sum1, sum2 uint32
	for len(data) >= 2 {
		sum1 = (sum1 + uint32(Order.Uint16(data))) % 65535
		sum2 = (sum2 + sum1) % 65535
		data = data[2:]
	}
	if len(data) == 1 {
		sum1 = (sum1 + uint32(data[0])) % 65535
		sum2 = (sum2 + sum1) % 65535
	}
	return sum2<<16 | sum1
}
