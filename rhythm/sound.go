package rhythm

import (
	"github.com/encorelab/encore/algorithms/stats"
	"github.com/encorelab/encore/analysis"
)

// Per-beat sound score weights: timbre dominates, brightness and energy
// refine
const (
	soundMFCCWeight       = 0.60
	soundBrightnessWeight = 0.25
	soundEnergyWeight     = 0.15
)

// CompareFingerprints scores how closely a user beat's sound matches the
// reference beat at the same index
func CompareFingerprints(ref, user analysis.SoundFingerprint, beatIndex int) SoundComparisonDetail {
	// Cosine similarity mapped from [-1, 1] to a 0-100 score
	mfccSimilarity := ((stats.CosineSimilarity(ref.MFCC, user.MFCC) + 1.0) / 2.0) * 100.0

	brightnessMatch := ratioMatch(ref.SpectralCentroidHz, user.SpectralCentroidHz) * 100.0
	energyMatch := ratioMatch(ref.RMSEnergy, user.RMSEnergy) * 100.0

	overall := mfccSimilarity*soundMFCCWeight +
		brightnessMatch*soundBrightnessWeight +
		energyMatch*soundEnergyWeight

	return SoundComparisonDetail{
		BeatIndex:            beatIndex,
		MFCCSimilarity:       mfccSimilarity,
		SpectralCentroidRef:  ref.SpectralCentroidHz,
		SpectralCentroidUser: user.SpectralCentroidHz,
		BrightnessMatch:      brightnessMatch,
		EnergyMatch:          energyMatch,
		OverallSoundScore:    overall,
		UserQuality:          user.Quality(),
		ReferenceQuality:     ref.Quality(),
		Feedback:             soundFeedback(ref, user, overall),
	}
}

// MissedComparison is the detail for a reference beat the user never played
func MissedComparison(beatIndex int) SoundComparisonDetail {
	return SoundComparisonDetail{
		BeatIndex: beatIndex,
		Missed:    true,
		Feedback:  "Beat not played",
	}
}

// ratioMatch returns min/max of two non-negative values, 0 when either is 0
func ratioMatch(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0.0
	}
	if a < b {
		return a / b
	}
	return b / a
}

// soundFeedback picks a per-beat coaching message from the quality tags
// and energy balance
func soundFeedback(ref, user analysis.SoundFingerprint, score float64) string {
	if score >= 85 {
		return "Excellent sound match!"
	}

	refQuality := ref.Quality()
	userQuality := user.Quality()

	if userQuality == analysis.QualityMuffled && refQuality != analysis.QualityMuffled {
		return "Try a crisper, clearer clap"
	}
	if userQuality == analysis.QualitySharp && refQuality == analysis.QualityClear {
		return "Good! Slightly softer might match better"
	}
	if user.RMSEnergy < ref.RMSEnergy*0.5 {
		return "Try clapping a bit louder"
	}
	if user.RMSEnergy > ref.RMSEnergy*1.5 {
		return "Try clapping a bit softer"
	}
	if score >= 70 {
		return "Good sound quality"
	}

	return "Try to match the reference sound more closely"
}
