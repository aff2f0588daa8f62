package cache

import (
	"encoding/binary"
	"fmt"
	"math"
)

// componentWidth is the serialized size of one vector component (float32).
const componentWidth = 4

// encodeVector serializes a vector as little-endian float32 components.
// decodeVector(encodeVector(v)) reproduces v bit-for-bit.
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*componentWidth)
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*componentWidth:], math.Float32bits(x))
	}
	return buf
}

// decodeVector deserializes a value produced by encodeVector.
func decodeVector(data []byte) ([]float32, error) {
	if len(data)%componentWidth != 0 {
		return nil, fmt.Errorf("%w: value length %d is not a multiple of %d", ErrIntegrity, len(data), componentWidth)
	}
	v := make([]float32, len(data)/componentWidth)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*componentWidth:]))
	}
	return v, nil
}
