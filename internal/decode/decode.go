// Package decode converts raw burst bytes into typed 2-D complex sample
// grids. It performs no interpretation of the sample values.
package decode

import (
	"encoding/binary"
	"fmt"
)

// BytesPerSample is the wire size of one complex sample: interleaved
// little-endian int16 real and imaginary parts.
const BytesPerSample = 4

// ShapeMismatchError reports raw input whose length does not match the
// declared burst dimensions. Input is never truncated or padded.
type ShapeMismatchError struct {
	Lines    int
	Samples  int
	Expected int
	Got      int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("raw length %d does not match %d×%d samples (expected %d bytes)",
		e.Got, e.Lines, e.Samples, e.Expected)
}

// Complex reinterprets raw interleaved int16 I/Q bytes as a (lines, samples)
// grid of complex64 values. len(raw) must equal lines*samples*4.
func Complex(raw []byte, lines, samples int) ([][]complex64, error) {
	if lines <= 0 || samples <= 0 {
		return nil, fmt.Errorf("invalid shape %d×%d", lines, samples)
	}
	expected := lines * samples * BytesPerSample
	if len(raw) != expected {
		return nil, &ShapeMismatchError{Lines: lines, Samples: samples, Expected: expected, Got: len(raw)}
	}

	grid := make([][]complex64, lines)
	flat := make([]complex64, lines*samples)
	for i := range flat {
		base := i * BytesPerSample
		re := int16(binary.LittleEndian.Uint16(raw[base:]))
		im := int16(binary.LittleEndian.Uint16(raw[base+2:]))
		flat[i] = complex(float32(re), float32(im))
	}
	for line := range grid {
		grid[line] = flat[line*samples : (line+1)*samples]
	}
	return grid, nil
}
