package facematch

import (
	"fmt"
	"math"

	"github.com/kozaktomas/face-registry/internal/constants"
)

// Descriptor is a face descriptor produced by the upstream feature extractor.
type Descriptor []float32

// Validate checks that d is a complete descriptor with finite values.
func (d Descriptor) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("%w: descriptor is required", ErrInvalidInput)
	}
	if len(d) != constants.DescriptorSize {
		return fmt.Errorf("%w: descriptor must have %d values, got %d", ErrInvalidInput, constants.DescriptorSize, len(d))
	}
	for i, v := range d {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: descriptor value %d is not a finite number", ErrInvalidInput, i)
		}
	}
	return nil
}

// DescriptorFromFloat64 converts decoded JSON numbers into a descriptor.
// Values outside the float32 range become infinite and fail Validate.
func DescriptorFromFloat64(values []float64) Descriptor {
	if values == nil {
		return nil
	}
	d := make(Descriptor, len(values))
	for i, v := range values {
		d[i] = float32(v)
	}
	return d
}
