// Command score scores a single spoken answer against its reference
// sentence without running the server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	audioimpl "github.com/foxseedlab/speakscore/external/audio"
	transcriberimpl "github.com/foxseedlab/speakscore/external/transcriber"
	"github.com/foxseedlab/speakscore/internal/scoring"
	"github.com/foxseedlab/speakscore/internal/transcriber"
	"github.com/foxseedlab/speakscore/internal/workspace"
	"github.com/peterbourgon/ff/v3"
)

const envPrefix = "SPEAKSCORE"

type output struct {
	Reference       string                 `json:"reference"`
	Transcript      string                 `json:"transcript"`
	DurationSeconds float64                `json:"duration_seconds"`
	Scores          scoring.Scores         `json:"scores"`
	Words           []scoring.WordFeedback `json:"words,omitempty"`
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	if err := run(context.Background(), os.Args[1:], os.Stdout, nil); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "score: %v\n", err)
		os.Exit(1)
	}
}

// run parses args and prints the score as JSON. stt overrides the
// audio pipeline when non-nil.
func run(ctx context.Context, args []string, stdout io.Writer, stt transcriber.Transcriber) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	var (
		_          = fs.String("config", "", "config file (optional), json format")
		reference  = fs.String("reference", "", "reference sentence the speaker was asked to say")
		transcript = fs.String("transcript", "", "what was heard; ignored when -audio is set")
		duration   = fs.Duration("duration", 0, "length of the answer, e.g. 2.5s; ignored when -audio is set")
		audioPath  = fs.String("audio", "", "recorded answer to transcribe instead of -transcript")
		whisperURL = fs.String("whisper-url", "http://localhost:8081", "whisper.cpp server used with -audio")
		language   = fs.String("language", "en-US", "speech language used with -audio")
		ffmpegPath = fs.String("ffmpeg", "ffmpeg", "ffmpeg binary used with -audio")
		policy     = fs.String("fluency-policy", string(scoring.FluencyClamp), "clamp or penalize_overspeed")
		timeout    = fs.Duration("timeout", time.Minute, "transcription timeout")
		words      = fs.Bool("words", false, "include per-word feedback")
	)
	if err := ff.Parse(fs, args,
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.JSONParser),
		ff.WithEnvVarPrefix(envPrefix),
	); err != nil {
		return err
	}
	if *reference == "" {
		return errors.New("-reference is required")
	}

	p, err := scoring.ParseFluencyPolicy(*policy)
	if err != nil {
		return err
	}
	scorer, err := scoring.NewScorer(scoring.DefaultWeights(), p)
	if err != nil {
		return err
	}

	heard, length := *transcript, *duration
	if *audioPath != "" {
		if stt == nil {
			recognizer, err := transcriberimpl.NewWhisperServerRecognizer(*whisperURL, *language)
			if err != nil {
				return err
			}
			stt = transcriberimpl.NewPipeline(audioimpl.NewFFmpegTranscoder(*ffmpegPath), recognizer)
		}
		ctx, cancel := context.WithTimeout(ctx, *timeout)
		defer cancel()
		res, err := stt.Transcribe(ctx, workspace.Artifact{ID: "cli", Path: *audioPath})
		if err != nil {
			return fmt.Errorf("transcribe %s: %w", *audioPath, err)
		}
		heard, length = res.Text, res.Duration
	}

	result := scorer.Score(*reference, heard, length)
	out := output{
		Reference:       result.Prompt,
		Transcript:      result.Transcript,
		DurationSeconds: result.Duration.Seconds(),
		Scores:          result.Scores,
	}
	if *words {
		out.Words = result.Words
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
