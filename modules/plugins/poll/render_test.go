package poll

import (
	"strings"
	"testing"
	"time"

	"github.com/tallybot/tallybot/models"
)

func TestVoteCountsAndWeights(t *testing.T) {
	votes := []models.VoteEntry{
		{UserID: "user-1", Choice: 0, Weight: 1},
		{UserID: "user-2", Choice: 0, Weight: 2},
		{UserID: "user-2", Choice: 1, Weight: 2},
		{UserID: "user-3", Choice: 1, Weight: 1},
	}

	counts := VoteCounts(votes)
	if counts[0] != 2 || counts[1] != 2 {
		t.Fatalf("unexpected counts %v", counts)
	}

	weighted := WeightedCounts(votes)
	if weighted[0] != 3 || weighted[1] != 3 {
		t.Fatalf("unexpected weighted counts %v", weighted)
	}

	if DistinctVoters(votes) != 3 {
		t.Fatalf("expected 3 distinct voters, got %d", DistinctVoters(votes))
	}
}

func TestWinners(t *testing.T) {
	winners := Winners(map[int]float64{0: 3, 1: 5, 2: 1})
	if len(winners) != 1 || winners[0] != 1 {
		t.Fatalf("expected option 1 to win, got %v", winners)
	}

	winners = Winners(map[int]float64{0: 3, 1: 3, 2: 1})
	if len(winners) != 2 || winners[0] != 0 || winners[1] != 1 {
		t.Fatalf("expected a sorted tie, got %v", winners)
	}

	if winners = Winners(nil); len(winners) != 0 {
		t.Fatalf("expected no winners without votes, got %v", winners)
	}
}

func TestPollEmbedOpenPoll(t *testing.T) {
	poll := &models.PollEntry{
		Label:       "lunch",
		Question:    "Where do we eat?",
		Options:     []string{"pizza", "sushi"},
		SurveyFlags: []int{1},
		Open:        true,
		Active:      true,
	}
	votes := []models.VoteEntry{
		{UserID: "user-1", Choice: 0, Weight: 1},
	}

	embed := pollEmbed(poll, votes)

	if embed.Title != poll.Question {
		t.Fatalf("expected the question as title, got %q", embed.Title)
	}
	if embed.Author == nil || embed.Author.Name != ">> lunch" {
		t.Fatal("expected the label in the author line")
	}

	// one field per option plus the participant count
	if len(embed.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(embed.Fields))
	}
	if !strings.HasPrefix(embed.Fields[0].Name, "🇦 ") {
		t.Fatalf("expected the letter symbol in the option name, got %q", embed.Fields[0].Name)
	}
	if !strings.Contains(embed.Fields[1].Name, "🖊") {
		t.Fatal("expected the survey marker on the flagged option")
	}
	if embed.Fields[2].Value != "1" {
		t.Fatalf("expected 1 participant, got %q", embed.Fields[2].Value)
	}
}

func TestPollEmbedPresetScoreLine(t *testing.T) {
	poll := &models.PollEntry{
		Label:         "mood",
		Question:      "How was the event?",
		Options:       []string{"👍", "👎"},
		OptionsPreset: true,
		Open:          true,
		Active:        true,
	}
	votes := []models.VoteEntry{
		{UserID: "user-1", Choice: 0, Weight: 1},
		{UserID: "user-2", Choice: 0, Weight: 1},
	}

	embed := pollEmbed(poll, votes)

	// the compact score field plus the participant count
	if len(embed.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(embed.Fields))
	}
	if !strings.Contains(embed.Fields[0].Value, "👍 2") {
		t.Fatalf("expected the score line to carry counts, got %q", embed.Fields[0].Value)
	}
}

func TestPollEmbedHidesCountsWhileOpen(t *testing.T) {
	poll := &models.PollEntry{
		Label:     "secret",
		Question:  "Who should organize?",
		Options:   []string{"pizza", "sushi"},
		HideCount: true,
		Open:      true,
		Active:    true,
	}
	votes := []models.VoteEntry{
		{UserID: "user-1", Choice: 0, Weight: 1},
	}

	embed := pollEmbed(poll, votes)

	for _, field := range embed.Fields {
		if strings.Contains(field.Value, "1") {
			t.Fatalf("expected no counts while open, got %q", field.Value)
		}
	}

	// once closed the counts become visible
	poll.Open = false
	embed = pollEmbed(poll, votes)
	if len(embed.Fields) != 3 {
		t.Fatalf("expected the participant field to appear, got %d fields", len(embed.Fields))
	}
}

func TestPollEmbedInactivePoll(t *testing.T) {
	poll := &models.PollEntry{
		Label:      "later",
		Question:   "Ready for the launch?",
		Options:    []string{"pizza", "sushi"},
		Open:       true,
		Active:     false,
		Activation: testNow.Add(time.Hour),
	}

	embed := pollEmbed(poll, nil)

	if len(embed.Fields) != 1 || embed.Fields[0].Name != "INACTIVE" {
		t.Fatalf("expected only the inactive notice, got %v", embed.Fields)
	}
}

func TestFormatInstant(t *testing.T) {
	instant := time.Date(2026, 9, 5, 16, 0, 0, 0, time.UTC)

	formatted := formatInstant(instant, 2)
	if !strings.HasPrefix(formatted, "2026-09-05 18:00") {
		t.Fatalf("expected the display offset to apply, got %q", formatted)
	}

	if formatInstant(time.Time{}, 0) != "-" {
		t.Fatal("expected a dash for the zero instant")
	}
}
