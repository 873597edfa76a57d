package ta

import "errors"

var (
	// ErrLengthMismatch is returned when a multi-array function receives
	// inputs of different lengths.
	ErrLengthMismatch = errors.New("input arrays must be the same length")

	// ErrVolumeRequired is returned by volume-based indicators when no
	// volume array is supplied.
	ErrVolumeRequired = errors.New("volume data is required")

	// ErrWoodieDeveloping is returned when Woodie pivots are requested in
	// developing mode; the Woodie formula reads the open of the period
	// being formed, so its levels are undefined until the period closes.
	ErrWoodieDeveloping = errors.New("woodie pivots cannot be computed in developing mode")
)
