package burst

import (
	"fmt"
	"math"
)

// Timing constants from the Sentinel-1 Level 1 Detailed Algorithm Definition,
// MPC-0307 issue 2/4, Table 9-7. The mission repeats its ground track every
// 175 orbits in 12 days, which fixes the nominal orbital duration.
const (
	NominalOrbitalDuration = 12 * 24 * 3600.0 / 175.0 // seconds

	preambleLengthIW = 2.299849 // seconds
	preambleLengthEW = 2.299970
	beamCycleTimeIW  = 2.758273
	beamCycleTimeEW  = 3.038376
)

// IDConvention is the constant added to the canonical burst ID formula.
// Some data generations report IDs off by one depending on convention; the
// correction is applied here exactly once so every caller sees the same
// numbering.
const IDConvention = 1

// Mode is the acquisition mode, which selects the preamble and beam-cycle
// constants.
type Mode string

const (
	ModeIW Mode = "IW" // interferometric wide
	ModeEW Mode = "EW" // extra wide
)

// ParseMode maps an annotation mode string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeIW, ModeEW:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unsupported acquisition mode %q", s)
	}
}

// RelativeBurstID computes the date-independent burst identifier from the
// relative orbit number and the burst's azimuth time measured from the
// ascending-node crossing. Bursts imaged at the same orbital phase on
// different dates yield the same ID, which is what makes multi-date stacking
// possible.
func RelativeBurstID(relativeOrbit int, azimuthANX float64, mode Mode) int {
	preamble := preambleLengthIW
	beamCycle := beamCycleTimeIW
	if mode == ModeEW {
		preamble = preambleLengthEW
		beamCycle = beamCycleTimeEW
	}

	orbitalOffset := float64(relativeOrbit-1) * NominalOrbitalDuration
	timeDistance := azimuthANX + orbitalOffset
	id := 1 + int(math.Floor((timeDistance-preamble)/beamCycle))
	return id + IDConvention
}
