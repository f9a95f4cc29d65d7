package tonal

// YIN pitch detection.
//
// Reference:
// - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency
//   estimator for speech and music"

// YinParams contains parameters for the YIN estimator
type YinParams struct {
	SampleRate int     `json:"sample_rate"`
	WindowSize int     `json:"window_size"`
	Threshold  float64 `json:"threshold"` // Absolute CMNDF threshold (0.1-0.5)
	MinFreq    float64 `json:"min_freq"`  // Minimum detectable frequency (Hz)
	MaxFreq    float64 `json:"max_freq"`  // Maximum detectable frequency (Hz)
}

// DefaultYinParams returns parameters tuned for monophonic voice and
// percussive-melodic material
func DefaultYinParams(sampleRate, windowSize int) YinParams {
	return YinParams{
		SampleRate: sampleRate,
		WindowSize: windowSize,
		Threshold:  0.15,
		MinFreq:    80.0,   // Low male voice
		MaxFreq:    1100.0, // High female voice
	}
}

// Yin estimates the fundamental frequency of single audio frames
type Yin struct {
	params YinParams

	// Scratch buffers reused across frames
	diff  []float64
	cmndf []float64
}

// YinResult is the pitch estimate for one frame. Pitch is -1 when the
// frame is unvoiced.
type YinResult struct {
	Pitch       float64 `json:"pitch"`       // Fundamental frequency (Hz), -1 if unvoiced
	Probability float64 `json:"probability"` // Voicing probability (0-1)
}

// NewYin creates a YIN estimator with default parameters
func NewYin(sampleRate, windowSize int) *Yin {
	return NewYinWithParams(DefaultYinParams(sampleRate, windowSize))
}

// NewYinWithParams creates a YIN estimator with custom parameters
func NewYinWithParams(params YinParams) *Yin {
	if params.Threshold <= 0 {
		params.Threshold = 0.15
	}
	if params.MinFreq <= 0 {
		params.MinFreq = 80.0
	}
	if params.MaxFreq <= params.MinFreq {
		params.MaxFreq = 1100.0
	}

	half := params.WindowSize / 2
	return &Yin{
		params: params,
		diff:   make([]float64, half),
		cmndf:  make([]float64, half),
	}
}

// Params returns the current estimator parameters
func (y *Yin) Params() YinParams {
	return y.params
}

// Detect estimates the pitch of a single frame. The frame must contain
// exactly WindowSize samples; shorter frames return unvoiced.
func (y *Yin) Detect(frame []float64) YinResult {
	unvoiced := YinResult{Pitch: -1, Probability: 0}

	if len(frame) < y.params.WindowSize {
		return unvoiced
	}

	half := y.params.WindowSize / 2
	if half < 2 {
		return unvoiced
	}

	// Difference function
	for tau := range half {
		sum := 0.0
		for j := range half {
			delta := frame[j] - frame[j+tau]
			sum += delta * delta
		}
		y.diff[tau] = sum
	}

	// Cumulative mean normalized difference function
	y.cmndf[0] = 1.0
	runningSum := 0.0
	for tau := 1; tau < half; tau++ {
		runningSum += y.diff[tau]
		if runningSum == 0 {
			y.cmndf[tau] = 1.0
		} else {
			y.cmndf[tau] = y.diff[tau] * float64(tau) / runningSum
		}
	}

	// Absolute threshold: first local minimum of the CMNDF below threshold
	minTau := -1
	for tau := 2; tau < half-1; tau++ {
		if y.cmndf[tau] < y.params.Threshold && y.cmndf[tau] < y.cmndf[tau+1] {
			minTau = tau
			break
		}
	}

	if minTau <= 0 {
		return unvoiced
	}

	period := parabolicInterpolation(y.cmndf, minTau)
	if period <= 0 {
		return unvoiced
	}

	frequency := float64(y.params.SampleRate) / period
	if frequency < y.params.MinFreq || frequency > y.params.MaxFreq {
		return unvoiced
	}

	probability := 1.0 - y.cmndf[minTau]
	if probability < 0 {
		probability = 0
	} else if probability > 1 {
		probability = 1
	}

	return YinResult{Pitch: frequency, Probability: probability}
}

// parabolicInterpolation refines the minimum location using the two
// neighboring CMNDF values
func parabolicInterpolation(data []float64, peakIdx int) float64 {
	if peakIdx <= 0 || peakIdx >= len(data)-1 {
		return float64(peakIdx)
	}

	y1 := data[peakIdx-1]
	y2 := data[peakIdx]
	y3 := data[peakIdx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2

	if a == 0 {
		return float64(peakIdx)
	}

	return float64(peakIdx) - b/(2*a)
}
