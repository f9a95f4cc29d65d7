package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/encorelab/encore/audio"
	"github.com/encorelab/encore/engine"
	"github.com/encorelab/encore/logging"
	"github.com/encorelab/encore/rhythm"
	"github.com/encorelab/encore/scoring"
)

var version = "0.1.0"

// CLI defines the command-line interface
type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version information"`
	Verbose bool             `help:"Enable debug logging"`

	Score          ScoreCmd          `cmd:"" help:"Score a performance against a reference track"`
	RhythmExtract  RhythmExtractCmd  `cmd:"" name:"rhythm-extract" help:"Extract a rhythm pattern from audio"`
	RhythmScore    RhythmScoreCmd    `cmd:"" name:"rhythm-score" help:"Score user audio against a stored rhythm pattern"`
	ExtractPitches ExtractPitchesCmd `cmd:"" name:"extract-pitches" help:"Extract reference pitch values from audio"`
}

// ScoreCmd scores one performance
type ScoreCmd struct {
	User      string  `arg:"" type:"existingfile" help:"User recording"`
	Reference string  `arg:"" type:"existingfile" help:"Reference track"`
	Challenge string  `default:"SINGING" help:"Challenge type: SINGING, SOUND_MATCH, RHYTHM_REPEAT, RHYTHM_CREATION"`
	TargetBPM int     `name:"target-bpm" help:"Target BPM for rhythm creation scoring"`
	Tolerance float64 `help:"Timing tolerance in ms for rhythm scoring (0 = auto)"`
	MinScore  float64 `name:"min-score" help:"Minimum passing score (0 = none)"`
	JSON      bool    `help:"Print the full result as JSON"`
}

func (c *ScoreCmd) Run() error {
	processor := engine.NewProcessor()

	opts := engine.ScoreOptions{
		TargetBPM: c.TargetBPM,
		Progress: func(progress uint8, message string) {
			fmt.Printf("  [%3d%%] %s\n", progress, message)
		},
	}
	if c.Tolerance > 0 {
		opts.ToleranceMs = &c.Tolerance
	}
	if c.MinScore > 0 {
		opts.MinScore = &c.MinScore
	}

	challenge := scoring.ParseChallengeType(c.Challenge)
	ref := engine.ReferenceBundle{Audio: &audio.Source{Path: c.Reference}}

	result, err := processor.ScorePerformance(
		context.Background(), audio.FromPath(c.User), ref, challenge, opts)
	if err != nil {
		return err
	}

	if c.JSON {
		return printJSON(result)
	}

	printResult(challenge, result)
	return nil
}

// RhythmExtractCmd extracts a rhythm pattern and prints it as JSON
type RhythmExtractCmd struct {
	Audio        string  `arg:"" type:"existingfile" help:"Audio file to analyze"`
	Fingerprints bool    `help:"Attach per-beat sound fingerprints"`
	SilenceDB    float64 `name:"silence-db" default:"-40" help:"Silence threshold in dBFS"`
	MinInterval  float64 `name:"min-interval" default:"100" help:"Minimum onset interval in ms"`
	Output       string  `short:"o" help:"Write the pattern JSON to a file instead of stdout"`
}

func (c *RhythmExtractCmd) Run() error {
	processor := engine.NewProcessor()

	pattern, err := processor.ExtractRhythmPattern(
		context.Background(), audio.FromPath(c.Audio),
		c.SilenceDB, c.MinInterval, c.Fingerprints)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(pattern, "", "  ")
	if err != nil {
		return err
	}

	if c.Output != "" {
		if err := os.WriteFile(c.Output, data, 0o644); err != nil {
			return err
		}
		color.Green("Pattern with %d beats (~%d BPM) written to %s",
			pattern.TotalBeats, pattern.EstimatedBPM, c.Output)
		return nil
	}

	fmt.Println(string(data))
	return nil
}

// RhythmScoreCmd scores a recording against a stored pattern
type RhythmScoreCmd struct {
	Pattern   string  `arg:"" type:"existingfile" help:"Pattern JSON produced by rhythm-extract"`
	User      string  `arg:"" type:"existingfile" help:"User recording"`
	Tolerance float64 `help:"Timing tolerance in ms (0 = auto)"`
	MinScore  float64 `name:"min-score" help:"Minimum passing score (0 = none)"`
	JSON      bool    `help:"Print the full result as JSON"`
}

func (c *RhythmScoreCmd) Run() error {
	data, err := os.ReadFile(c.Pattern)
	if err != nil {
		return err
	}

	var pattern rhythm.Pattern
	if err := json.Unmarshal(data, &pattern); err != nil {
		return fmt.Errorf("parsing pattern %s: %w", c.Pattern, err)
	}

	processor := engine.NewProcessor()

	// Detect the user's onsets, then score them against the pattern
	userPattern, err := processor.ExtractRhythmPattern(
		context.Background(), audio.FromPath(c.User),
		pattern.SilenceThresholdDB, pattern.MinOnsetIntervalMs, false)
	if err != nil {
		return err
	}

	opts := engine.ScoreOptions{FingerprintOffsetMs: userPattern.TrimmedStartMs}
	if c.Tolerance > 0 {
		opts.ToleranceMs = &c.Tolerance
	}
	if c.MinScore > 0 {
		opts.MinScore = &c.MinScore
	}

	userSource := audio.FromPath(c.User)
	result, err := processor.ScoreRhythmPattern(
		context.Background(), &pattern, userPattern.OnsetTimesMs, &userSource, opts)
	if err != nil {
		return err
	}

	if c.JSON {
		return printJSON(result)
	}

	printResult(scoring.RhythmRepeat, result)
	return nil
}

// ExtractPitchesCmd extracts the raw pitch track used as legacy reference
// data
type ExtractPitchesCmd struct {
	Audio  string `arg:"" type:"existingfile" help:"Audio file to analyze"`
	Output string `short:"o" help:"Write the pitch JSON to a file instead of stdout"`
}

func (c *ExtractPitchesCmd) Run() error {
	processor := engine.NewProcessor()

	values, err := processor.ExtractPitchValues(context.Background(), audio.FromPath(c.Audio))
	if err != nil {
		return err
	}

	data, err := json.Marshal(values)
	if err != nil {
		return err
	}

	if c.Output != "" {
		if err := os.WriteFile(c.Output, data, 0o644); err != nil {
			return err
		}
		color.Green("%d pitch values written to %s", len(values), c.Output)
		return nil
	}

	fmt.Println(string(data))
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printResult(challenge scoring.ChallengeType, result *engine.ScoringResult) {
	bold := color.New(color.Bold)

	fmt.Println()
	bold.Printf("Challenge: %s\n", challenge)
	printScore("Overall", result.OverallScore)

	switch challenge {
	case scoring.RhythmRepeat:
		fmt.Printf("  Perfect beats: %d  Good: %d  Missed: %d\n",
			result.PerfectBeats, result.GoodBeats, result.MissedBeats)
		fmt.Printf("  Average error: %.1f ms  Max: %.1f ms\n",
			result.AverageErrorMs, result.MaxErrorMs)
		printScore("Consistency", result.ConsistencyScore)
	case scoring.RhythmCreation:
		printScore("Consistency", result.ConsistencyScore)
	default:
		printScore("Pitch", result.PitchScore)
		printScore("Rhythm", result.RhythmScore)
		printScore("Voice", result.VoiceScore)
	}

	if result.Feedback != "" {
		fmt.Printf("  %s\n", result.Feedback)
	}
}

func printScore(label string, score float64) {
	c := color.New(color.FgRed)
	switch {
	case score >= 75:
		c = color.New(color.FgGreen)
	case score >= 50:
		c = color.New(color.FgYellow)
	}
	fmt.Printf("  %-12s ", label+":")
	c.Printf("%6.2f\n", score)
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("encore"),
		kong.Description("Performance scoring and rhythm analysis engine"),
		kong.UsageOnError(),
		kong.Vars{"version": "encore " + version},
	)

	if cliArgs.Verbose {
		logging.SetLevel(logging.DebugLevel)
	} else {
		logging.SetGlobalLogger(&logging.NoOpLogger{})
	}

	if err := ctx.Run(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
