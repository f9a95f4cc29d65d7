package engine

import (
	"context"
	"testing"

	"github.com/encorelab/encore/audio"
	"github.com/encorelab/encore/scoring"
)

func TestOrchestratorCompletes(t *testing.T) {
	wav := toneWAV(44100, 1500, 300, 1400, 440)

	var transitions []Status
	orch := NewOrchestrator(nil, func(p *Performance) {
		if len(transitions) == 0 || transitions[len(transitions)-1] != p.Status {
			transitions = append(transitions, p.Status)
		}
	})

	perf := NewPerformance()
	if perf.ID == "" {
		t.Fatal("performance has no ID")
	}
	if perf.Status != StatusPending {
		t.Fatalf("new performance status = %v, want %v", perf.Status, StatusPending)
	}

	err := orch.Process(
		context.Background(), perf,
		audio.FromBytes(wav, "audio/wav"),
		ReferenceBundle{Audio: &audio.Source{Data: wav, ContentType: "audio/wav"}},
		scoring.Singing, ScoreOptions{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if perf.Status != StatusCompleted {
		t.Errorf("status = %v, want %v", perf.Status, StatusCompleted)
	}
	if perf.Progress != 100 {
		t.Errorf("progress = %d, want 100", perf.Progress)
	}
	if perf.Message != MsgCompleted {
		t.Errorf("message = %q, want %q", perf.Message, MsgCompleted)
	}
	if perf.Result == nil || perf.Result.OverallScore < 99 {
		t.Errorf("result missing or low: %+v", perf.Result)
	}

	// Pending was set at construction; the observer sees the rest
	want := []Status{StatusProcessing, StatusCompleted}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestOrchestratorFailsOnDecodeError(t *testing.T) {
	orch := NewOrchestrator(nil, nil)
	perf := NewPerformance()

	err := orch.Process(
		context.Background(), perf,
		audio.FromBytes([]byte("garbage"), "audio/wav"),
		ReferenceBundle{NoteEvents: melodyNotes()},
		scoring.Singing, ScoreOptions{})
	if err == nil {
		t.Fatal("expected decode failure")
	}

	if perf.Status != StatusFailed {
		t.Errorf("status = %v, want %v", perf.Status, StatusFailed)
	}
	if len(perf.Message) == 0 || perf.Message == MsgCompleted {
		t.Errorf("failure message missing: %q", perf.Message)
	}
	if perf.Result != nil {
		t.Error("failed performance should carry no result")
	}
}

func TestOrchestratorCancellation(t *testing.T) {
	wav := toneWAV(44100, 1500, 300, 1400, 440)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := NewOrchestrator(nil, nil)
	perf := NewPerformance()

	err := orch.Process(
		ctx, perf,
		audio.FromBytes(wav, "audio/wav"),
		ReferenceBundle{Audio: &audio.Source{Data: wav, ContentType: "audio/wav"}},
		scoring.Singing, ScoreOptions{})
	if err == nil {
		t.Fatal("expected cancellation")
	}

	if KindOf(err) != KindCancelled {
		t.Errorf("kind = %v, want %v", KindOf(err), KindCancelled)
	}
	if perf.Status != StatusFailed {
		t.Errorf("status = %v, want %v", perf.Status, StatusFailed)
	}
	if perf.Message != MsgCancelled {
		t.Errorf("message = %q, want %q", perf.Message, MsgCancelled)
	}
}
