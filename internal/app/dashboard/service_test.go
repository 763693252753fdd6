package dashboard_test

import (
	"context"
	"testing"

	"github.com/jothelearningguy/alignus/internal/adapters/storage/memory"
	"github.com/jothelearningguy/alignus/internal/app/dashboard"
	"github.com/jothelearningguy/alignus/internal/domain"
)

func TestSentimentSeries(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := dashboard.NewService(store)

	score := func(v float64) *float64 { return &v }
	msgs := []*domain.Message{
		{ID: "m1", SessionID: "s1", Author: "alice", Kind: domain.KindUser, Sentiment: score(0.5)},
		{ID: "m2", SessionID: "s1", Author: "bob", Kind: domain.KindUser}, // unscored, skipped
		{ID: "m3", SessionID: "s1", Author: domain.CounselorID, Kind: domain.KindAnalysis, Sentiment: score(-0.25)},
	}
	for _, m := range msgs {
		if err := store.AppendMessage(ctx, m); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	series, err := svc.SentimentSeries(ctx, "s1")
	if err != nil {
		t.Fatalf("SentimentSeries failed: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("series length = %d, want 2 (unscored skipped)", len(series))
	}
	if series[0].Sentiment != 0.5 || series[0].Counselor {
		t.Fatalf("unexpected first point: %+v", series[0])
	}
	if series[1].Sentiment != -0.25 || !series[1].Counselor {
		t.Fatalf("unexpected second point: %+v", series[1])
	}
	if !series[0].At.Before(series[1].At) {
		t.Fatalf("series not in chronological order")
	}
}

func TestSentimentLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.9, "Very Positive"},
		{0.5, "Positive"},
		{0.2, "Positive"},
		{0.1, "Neutral"},
		{0.0, "Neutral"},
		{-0.1, "Negative"},
		{-0.5, "Very Negative"},
		{-0.9, "Very Negative"},
	}

	for _, tt := range tests {
		if got := dashboard.SentimentLabel(tt.score); got != tt.want {
			t.Fatalf("SentimentLabel(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestExercisesCatalog(t *testing.T) {
	exercises := dashboard.Exercises()
	if len(exercises) != 3 {
		t.Fatalf("catalog length = %d, want 3", len(exercises))
	}

	wantTitles := []string{"Active Listening", "'I Feel' Statements", "Validating Feelings"}
	for i, want := range wantTitles {
		if exercises[i].Title != want {
			t.Fatalf("exercise %d title = %q, want %q", i, exercises[i].Title, want)
		}
		if exercises[i].Description == "" {
			t.Fatalf("exercise %q has no description", want)
		}
	}

	// Mutating the returned slice must not change the catalog.
	exercises[0].Title = "tampered"
	if dashboard.Exercises()[0].Title != "Active Listening" {
		t.Fatalf("catalog is not copy-on-read")
	}
}
