package binary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumKnownValues(t *testing.T) {
	// Reference values from Bob Jenkins' lookup3.c driver with initval 0.
	assert.Equal(t, uint32(0xdeadbeef), Checksum(nil))
	assert.Equal(t, uint32(0x17770551), Checksum([]byte("Four score and seven years ago")))
}

func TestChecksumLengths(t *testing.T) {
	seen := make(map[uint32]int)
	for n := 0; n <= 24; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i)
		}
		seen[Checksum(data)] = n
	}
	assert.Len(t, seen, 25)
}

func TestSealVerify(t *testing.T) {
	enc := NewEncoder(32)
	enc.PutString("TEST")
	enc.PutUint64(42)
	block := enc.Seal()

	body, err := Verify(block)
	require.NoError(t, err)
	assert.Equal(t, block[:len(block)-4], body)

	block[5] ^= 0xff
	_, err = Verify(block)
	assert.ErrorIs(t, err, ErrChecksum)

	_, err = Verify([]byte{1, 2})
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestFletcher32(t *testing.T) {
	assert.Zero(t, Fletcher32(nil))
	assert.Equal(t, Fletcher32([]byte{1, 2, 3, 0}), Fletcher32([]byte{1, 2, 3}))
	// "abcde" is the usual worked example: 0xF04FC729.
	assert.Equal(t, uint32(0xf04fc729), Fletcher32([]byte("abcde")))
}

func BenchmarkChecksum(b *testing.B) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Checksum(data)
	}
}
