package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/encorelab/encore/algorithms/common"
	"github.com/encorelab/encore/analysis"
	"github.com/encorelab/encore/audio"
	"github.com/encorelab/encore/logging"
	"github.com/encorelab/encore/rhythm"
	"github.com/encorelab/encore/scoring"
)

// ProgressFunc receives pipeline progress. Message strings are a stable
// contract with API consumers.
type ProgressFunc func(progress uint8, message string)

// Progress messages emitted during processing
const (
	MsgAnalyzingAudio     = "Analyzing audio..."
	MsgExtractingVoice    = "Extracting voice features..."
	MsgLoadingReference   = "Loading reference data..."
	MsgProcessingRefVoice = "Processing reference voice features..."
	MsgCalculatingScores  = "Calculating scores..."
	MsgFinalizing         = "Finalizing..."
	MsgCompleted          = "Processing completed successfully"
)

// ScoreOptions are the optional knobs of a scoring call
type ScoreOptions struct {
	// Rhythm scoring
	ToleranceMs  *float64 `json:"tolerance_ms,omitempty"`
	MinScore     *float64 `json:"min_score,omitempty"`
	TimingWeight *float64 `json:"timing_weight,omitempty"`
	SoundWeight  *float64 `json:"sound_weight,omitempty"`

	// FingerprintOffsetMs shifts zero-based user onsets back onto the user
	// audio timeline for fingerprint extraction
	FingerprintOffsetMs float64 `json:"fingerprint_offset_ms,omitempty"`

	// TargetBPM steers consistency scoring for rhythm creation (0 = derive
	// from the user's own intervals)
	TargetBPM int `json:"target_bpm,omitempty"`

	// SilenceThresholdDB and MinOnsetIntervalMs tune onset detection for
	// rhythm challenges; zero values take the defaults
	SilenceThresholdDB float64 `json:"silence_threshold_db,omitempty"`
	MinOnsetIntervalMs float64 `json:"min_onset_interval_ms,omitempty"`

	// AnalysisSampleRate documents the rate the onset and pitch passes
	// share. Informational: the decoder never resamples, so this only
	// matters if a future decoder does.
	AnalysisSampleRate int `json:"analysis_sample_rate,omitempty"`

	// Progress receives stage updates; nil is allowed
	Progress ProgressFunc `json:"-"`
}

func (o ScoreOptions) silenceThresholdDB() float64 {
	if o.SilenceThresholdDB != 0 {
		return o.SilenceThresholdDB
	}
	return rhythm.DefaultSilenceThresholdDB
}

func (o ScoreOptions) minOnsetIntervalMs() float64 {
	if o.MinOnsetIntervalMs > 0 {
		return o.MinOnsetIntervalMs
	}
	return rhythm.DefaultMinOnsetIntervalMs
}

func (o ScoreOptions) report(progress uint8, message string) {
	if o.Progress != nil {
		o.Progress(progress, message)
	}
}

func (o ScoreOptions) scoreParams() rhythm.ScoreParams {
	return rhythm.ScoreParams{
		ToleranceMs:         o.ToleranceMs,
		MinScore:            o.MinScore,
		TimingWeight:        o.TimingWeight,
		SoundWeight:         o.SoundWeight,
		FingerprintOffsetMs: o.FingerprintOffsetMs,
	}
}

// Processor is the synchronous scoring pipeline: decode, analyze, score.
// It holds no mutable shared state, so one Processor may serve concurrent
// calls.
type Processor struct {
	decoder        *audio.Decoder
	notes          *analysis.NoteExtractor
	pitch          *analysis.PitchTracker
	mfcc           *analysis.MFCCExtractor
	rhythmAnalyzer *rhythm.Analyzer
	scorer         *scoring.Engine
	logger         logging.Logger
}

// NewProcessor creates a processor with default components
func NewProcessor() *Processor {
	return &Processor{
		decoder:        audio.NewDecoder(nil),
		notes:          analysis.NewNoteExtractor(),
		pitch:          analysis.NewPitchTracker(),
		mfcc:           analysis.NewMFCCExtractor(),
		rhythmAnalyzer: rhythm.NewAnalyzer(),
		scorer:         scoring.NewEngine(),
		logger: logging.WithFields(logging.Fields{
			"component": "processor",
		}),
	}
}

// RhythmAnalyzer exposes the pattern analyzer for callers that only need
// pattern extraction
func (p *Processor) RhythmAnalyzer() *rhythm.Analyzer {
	return p.rhythmAnalyzer
}

// ExtractPitchValues returns the raw voiced pitch track of a source, the
// legacy reference-data shape stored per song
func (p *Processor) ExtractPitchValues(ctx context.Context, src audio.Source) ([]float64, error) {
	buf, err := p.decoder.Decode(ctx, src)
	if err != nil {
		return nil, classify(err)
	}
	values, err := p.pitch.TrackValues(ctx, buf)
	if err != nil {
		return nil, classify(err)
	}
	return values, nil
}

// ExtractNoteEvents returns the note events of a source, the preferred
// reference-data shape
func (p *Processor) ExtractNoteEvents(ctx context.Context, src audio.Source) ([]analysis.NoteEvent, error) {
	buf, err := p.decoder.Decode(ctx, src)
	if err != nil {
		return nil, classify(err)
	}
	notes, err := p.notes.Extract(ctx, buf)
	if err != nil {
		return nil, classify(err)
	}
	return notes, nil
}

// ExtractRhythmPattern extracts a rhythm pattern from a source, optionally
// with per-beat sound fingerprints
func (p *Processor) ExtractRhythmPattern(ctx context.Context, src audio.Source, silenceThresholdDB, minOnsetIntervalMs float64, withFingerprints bool) (*rhythm.Pattern, error) {
	buf, err := p.decoder.Decode(ctx, src)
	if err != nil {
		return nil, classify(err)
	}

	var pattern *rhythm.Pattern
	if withFingerprints {
		pattern, err = p.rhythmAnalyzer.ExtractPatternWithFingerprints(ctx, buf, silenceThresholdDB, minOnsetIntervalMs)
	} else {
		pattern, err = p.rhythmAnalyzer.ExtractPattern(ctx, buf, silenceThresholdDB, minOnsetIntervalMs)
	}
	if err != nil {
		return nil, classify(err)
	}
	return pattern, nil
}

// ScoreRhythmPattern scores user onsets against a stored pattern. When
// userAudio is non-nil and the pattern carries fingerprints, sound
// similarity contributes to the combined score.
func (p *Processor) ScoreRhythmPattern(ctx context.Context, pattern *rhythm.Pattern, userOnsetsMs []float64, userAudio *audio.Source, opts ScoreOptions) (*ScoringResult, error) {
	var userBuf *audio.Buffer
	if userAudio != nil {
		var err error
		userBuf, err = p.decoder.Decode(ctx, *userAudio)
		if err != nil {
			return nil, classify(err)
		}
	}

	result, err := p.rhythmAnalyzer.ScoreWithSoundSimilarity(ctx, pattern, userOnsetsMs, userBuf, opts.scoreParams())
	if err != nil {
		return nil, classify(err)
	}

	return rhythmResultToScoring(result, pattern, nil), nil
}

// ScorePerformance runs the full pipeline for one performance: decode the
// user audio, analyze it, and score it against the reference with the
// blend the challenge selects.
func (p *Processor) ScorePerformance(ctx context.Context, src audio.Source, ref ReferenceBundle, challenge scoring.ChallengeType, opts ScoreOptions) (*ScoringResult, error) {
	logger := p.logger.WithFields(logging.Fields{
		"function":  "ScorePerformance",
		"challenge": string(challenge),
	})
	logger.Debug("Starting performance scoring")

	opts.report(10, MsgAnalyzingAudio)

	userBuf, err := p.decoder.Decode(ctx, src)
	if err != nil {
		return nil, classify(err)
	}

	var result *ScoringResult
	switch challenge {
	case scoring.RhythmRepeat:
		result, err = p.scoreRhythmRepeat(ctx, userBuf, ref, opts)
	case scoring.RhythmCreation:
		result, err = p.scoreRhythmCreation(ctx, userBuf, opts)
	default:
		result, err = p.scoreNotes(ctx, userBuf, ref, challenge, opts)
	}
	if err != nil {
		return nil, classify(err)
	}

	opts.report(100, MsgCompleted)
	logger.Debug("Performance scoring completed", logging.Fields{
		"overall_score": result.OverallScore,
	})

	return result, nil
}

// scoreNotes handles the SINGING and SOUND_MATCH challenges
func (p *Processor) scoreNotes(ctx context.Context, userBuf *audio.Buffer, ref ReferenceBundle, challenge scoring.ChallengeType, opts ScoreOptions) (*ScoringResult, error) {
	userNotes, err := p.notes.Extract(ctx, userBuf)
	if err != nil {
		return nil, err
	}

	opts.report(30, MsgExtractingVoice)
	userMFCCs, err := p.mfcc.Extract(ctx, userBuf)
	if err != nil {
		return nil, err
	}

	opts.report(50, MsgLoadingReference)
	refNotes := ref.Notes()

	var refBuf *audio.Buffer
	if ref.Audio != nil {
		refBuf, err = p.decoder.Decode(ctx, *ref.Audio)
		if err != nil {
			return nil, err
		}
		if len(refNotes) == 0 {
			if refNotes, err = p.notes.Extract(ctx, refBuf); err != nil {
				return nil, err
			}
		}
	}

	opts.report(60, MsgProcessingRefVoice)
	var refMFCCs [][]float64
	if refBuf != nil {
		if refMFCCs, err = p.mfcc.Extract(ctx, refBuf); err != nil {
			return nil, err
		}
	}

	opts.report(70, MsgCalculatingScores)

	if len(userNotes) == 0 || len(refNotes) == 0 {
		// Nothing to pair: degrade instead of failing the invocation
		return alignmentFailureResult(len(userNotes), len(refNotes)), nil
	}

	pitchScore := p.scorer.PitchScoreSemitones(userNotes, refNotes)
	rhythmScore := p.scorer.RhythmScoreOnsets(userNotes, refNotes)
	voiceScore := p.scorer.VoiceSimilarityMFCC(userMFCCs, refMFCCs)
	overall := scoring.Composite(challenge, pitchScore, rhythmScore, voiceScore)

	opts.report(80, MsgFinalizing)
	metrics := p.scorer.BuildDetailedMetrics(
		userNotes, refNotes, userMFCCs, refMFCCs,
		pitchScore, rhythmScore, voiceScore, challenge)

	return &ScoringResult{
		OverallScore:    overall,
		PitchScore:      pitchScore,
		RhythmScore:     rhythmScore,
		VoiceScore:      voiceScore,
		CombinedScore:   overall,
		Passed:          true,
		DetailedMetrics: scoring.MarshalMetrics(metrics),
	}, nil
}

// scoreRhythmRepeat scores the user's tapped pattern against the reference
func (p *Processor) scoreRhythmRepeat(ctx context.Context, userBuf *audio.Buffer, ref ReferenceBundle, opts ScoreOptions) (*ScoringResult, error) {
	refPattern := ref.RhythmPattern
	if refPattern == nil && ref.Audio != nil {
		refBuf, err := p.decoder.Decode(ctx, *ref.Audio)
		if err != nil {
			return nil, err
		}
		if refPattern, err = p.rhythmAnalyzer.ExtractPattern(ctx, refBuf, opts.silenceThresholdDB(), opts.minOnsetIntervalMs()); err != nil {
			return nil, err
		}
	}
	if refPattern == nil {
		// No reference beats to pair against: degrade instead of failing
		return &ScoringResult{
			DetailedMetrics: scoring.MarshalMetrics(scoring.ErrorMetrics{
				Error: "rhythm repeat requires a reference pattern or reference audio",
			}),
		}, nil
	}

	userPattern, err := p.rhythmAnalyzer.ExtractPattern(ctx, userBuf, opts.silenceThresholdDB(), opts.minOnsetIntervalMs())
	if err != nil {
		return nil, err
	}

	opts.report(70, MsgCalculatingScores)

	// Zero-based onsets score against the zero-based pattern; fingerprint
	// segments are shifted back onto the user audio timeline
	params := opts.scoreParams()
	params.FingerprintOffsetMs = userPattern.TrimmedStartMs

	result, err := p.rhythmAnalyzer.ScoreWithSoundSimilarity(ctx, refPattern, userPattern.OnsetTimesMs, userBuf, params)
	if err != nil {
		return nil, err
	}

	opts.report(80, MsgFinalizing)
	return rhythmResultToScoring(result, refPattern, userPattern), nil
}

// scoreRhythmCreation scores a free-form rhythm on consistency and
// creativity
func (p *Processor) scoreRhythmCreation(ctx context.Context, userBuf *audio.Buffer, opts ScoreOptions) (*ScoringResult, error) {
	onsets, err := p.rhythmAnalyzer.ExtractOnsets(ctx, userBuf, opts.silenceThresholdDB(), opts.minOnsetIntervalMs())
	if err != nil {
		return nil, err
	}

	opts.report(70, MsgCalculatingScores)

	consistency := rhythm.AnalyzeConsistency(onsets, opts.TargetBPM)
	creativity := rhythm.AnalyzeCreativity(onsets)
	rhythmScore := consistency*scoring.CreationConsistencyWeight + creativity*scoring.CreationCreativityWeight

	metrics := scoring.RhythmCreationMetrics{
		TotalBeats:       len(onsets),
		ConsistencyScore: consistency,
		CreativityScore:  creativity,
	}
	if avgInterval := common.Mean(common.Intervals(onsets)); avgInterval > 0 {
		metrics.EstimatedBPM = int(math.Round(60000.0 / avgInterval))
		metrics.AverageIntervalMs = avgInterval
	}

	opts.report(80, MsgFinalizing)
	return &ScoringResult{
		OverallScore:     rhythmScore,
		RhythmScore:      rhythmScore,
		CombinedScore:    rhythmScore,
		ConsistencyScore: consistency,
		Passed:           true,
		DetailedMetrics:  scoring.MarshalMetrics(metrics),
	}, nil
}

// rhythmResultToScoring lifts a rhythm result into the superset record
func rhythmResultToScoring(result *rhythm.Result, refPattern, userPattern *rhythm.Pattern) *ScoringResult {
	overall := result.OverallScore
	if result.SoundSimilarityScore != nil {
		overall = result.CombinedScore
	}

	sr := &ScoringResult{
		OverallScore:     overall,
		RhythmScore:      overall,
		CombinedScore:    result.CombinedScore,
		PerBeatScores:    result.PerBeatScores,
		TimingErrorsMs:   result.TimingErrorsMs,
		AbsoluteErrorsMs: result.AbsoluteErrorsMs,
		PerfectBeats:     result.PerfectBeats,
		GoodBeats:        result.GoodBeats,
		MissedBeats:      result.MissedBeats,
		AverageErrorMs:   result.AverageErrorMs,
		MaxErrorMs:       result.MaxErrorMs,
		ConsistencyScore: result.ConsistencyScore,
		Passed:           result.Passed,
		Feedback:         result.Feedback,
		SoundDetails:     result.SoundDetails,
	}

	if userPattern != nil {
		sr.DetailedMetrics = scoring.MarshalMetrics(
			scoring.BuildRhythmPatternMetrics(refPattern, userPattern, result))
	} else {
		sr.DetailedMetrics = scoring.MarshalMetrics(
			scoring.BuildRhythmPatternMetrics(refPattern, &rhythm.Pattern{}, result))
	}

	return sr
}

// alignmentFailureResult is the degraded zero-score result for inputs with
// no pairable note events
func alignmentFailureResult(userNotes, refNotes int) *ScoringResult {
	return &ScoringResult{
		DetailedMetrics: scoring.MarshalMetrics(scoring.ErrorMetrics{
			Error: fmt.Sprintf("no aligned note events (%d user, %d reference)", userNotes, refNotes),
		}),
	}
}

// ScoreRequest is a self-contained scoring request for the dispatcher
type ScoreRequest struct {
	ChallengeType string          `json:"challenge_type"`
	UserAudio     audio.Source    `json:"user_audio"`
	Reference     ReferenceBundle `json:"reference"`
	Options       ScoreOptions    `json:"options"`
}

// Dispatch routes a request to the metric blend its challenge type
// selects. Downstream failures never escape: they become a zero-score
// result whose detailed metrics carry the error.
func (p *Processor) Dispatch(ctx context.Context, req ScoreRequest) *ScoringResult {
	challenge := scoring.ParseChallengeType(req.ChallengeType)

	result, err := p.ScorePerformance(ctx, req.UserAudio, req.Reference, challenge, req.Options)
	if err != nil {
		p.logger.Error(err, "Scoring failed", logging.Fields{
			"challenge": string(challenge),
		})
		return errorResult(err)
	}
	return result
}
