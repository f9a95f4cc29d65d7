package analysis

// Pipeline constants shared by the extractors. These are contract values:
// persisted reference data depends on them, so they are not configurable
// per call.
const (
	// DefaultSampleRate is the assumed analysis rate when a caller supplies
	// bare pitch arrays without rate information
	DefaultSampleRate = 44100

	// BufferSize is the analysis window in samples for pitch and MFCC frames
	BufferSize = 2048

	// MFCCCoefficients per frame
	MFCCCoefficients = 13

	// NumMelFilters in the MFCC filter bank
	NumMelFilters = 40

	// MelLowHz is the filter bank's lower frequency bound
	MelLowHz = 300.0

	// SegmentDurationMs is the slice length fingerprinted after each onset
	SegmentDurationMs = 150.0

	// MinNoteDurationMs filters out noise blips during note extraction
	MinNoteDurationMs = 50.0

	// PitchMatchWindowMs pairs pitch samples with an onset during note
	// extraction
	PitchMatchWindowMs = 100.0

	// PitchSegmentToleranceHz starts a new note in the fallback segmenter
	// when the pitch moves further than this
	PitchSegmentToleranceHz = 50.0
)
