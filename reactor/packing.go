package reactor

import "fmt"

/*
Builds the packing of one stage of a bed of glass beads.

	Args:
	    bedVolume: empty bed volume, ml
	    liquidVolume: liquid hold-up of the bed, ml
	    beadDiameter: cm
	    stages: number of compartments the bed is split into
	    u: heat transfer coefficient, J/s cm2 K

	Returns:
	    the per-stage packing

	Notes:
	    Bead volume is the solid share of the bed and the bead surface that of
	    spheres, 6·V/d.
*/
func GlassBeads(bedVolume, liquidVolume, beadDiameter float64, stages int, u float64) (Packing, error) {
	void := VoidFraction(bedVolume, liquidVolume)
	switch {
	case stages <= 0:
		return Packing{}, fmt.Errorf("%w: stage count %d must be positive", ErrInvalidArgument, stages)
	case !(bedVolume > 0), !(void >= 0 && void < 1):
		return Packing{}, fmt.Errorf("%w: liquid volume %g does not fit a bed of %g", ErrInvalidArgument, liquidVolume, bedVolume)
	case !(beadDiameter > 0):
		return Packing{}, fmt.Errorf("%w: bead diameter %g must be positive", ErrInvalidArgument, beadDiameter)
	}
	area := 6 * (1 - void) * bedVolume / beadDiameter
	return Packing{
		Phase: get_glass(),
		Area:  area / float64(stages),
		U:     u,
	}, nil
}

// VoidFraction returns the liquid share of the bed volume.
func VoidFraction(bedVolume, liquidVolume float64) float64 {
	return liquidVolume / bedVolume
}
