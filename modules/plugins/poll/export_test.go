package poll

import (
	"strings"
	"testing"
	"time"

	"github.com/tallybot/tallybot/models"
)

func testReportPoll() *models.PollEntry {
	return &models.PollEntry{
		Label:          "lunch",
		Question:       "Where do we eat?",
		Options:        []string{"pizza", "sushi"},
		MultipleChoice: 1,
		CreatedAt:      testNow.Add(-time.Hour),
		Open:           false,
		Active:         true,
	}
}

func testReportVotes() []models.VoteEntry {
	return []models.VoteEntry{
		{UserID: "user-1", Choice: 0, Weight: 1},
		{UserID: "user-2", Choice: 1, Weight: 2, Answer: "tuna nigiri"},
	}
}

func resolveTestName(userID string) string {
	return "name-of-" + userID
}

func TestBuildReportPublic(t *testing.T) {
	report := BuildReport(testReportPoll(), testReportVotes(), resolveTestName, testNow)

	if !strings.Contains(report, "name-of-user-1: pizza (weight 1)") {
		t.Fatalf("expected the detailed vote line, got:\n%s", report)
	}
	if !strings.Contains(report, "tuna nigiri") {
		t.Fatal("expected the survey answer in the detail line")
	}
	if !strings.Contains(report, "sushi: 1 votes, weighted 2") {
		t.Fatalf("expected the weighted tally, got:\n%s", report)
	}
	if !strings.Contains(report, "Winner: sushi") {
		t.Fatalf("expected sushi to win by weight, got:\n%s", report)
	}
	if !strings.Contains(report, "Participants: 2") {
		t.Fatal("expected the participant count")
	}
}

func TestBuildReportAnonymous(t *testing.T) {
	poll := testReportPoll()
	poll.Anonymous = true

	report := BuildReport(poll, testReportVotes(), resolveTestName, testNow)

	if strings.Contains(report, "name-of-user-1: pizza") {
		t.Fatal("expected no per voter detail in an anonymous report")
	}
	if !strings.Contains(report, "Participants (votes are anonymous)") {
		t.Fatal("expected the participant section")
	}
	if !strings.Contains(report, "name-of-user-1") || !strings.Contains(report, "name-of-user-2") {
		t.Fatal("expected both participants to be listed")
	}
	if !strings.Contains(report, "tuna nigiri") {
		t.Fatal("expected the survey answer to survive, detached from its voter")
	}
}

func TestBuildReportTie(t *testing.T) {
	votes := []models.VoteEntry{
		{UserID: "user-1", Choice: 0, Weight: 2},
		{UserID: "user-2", Choice: 1, Weight: 2},
	}

	report := BuildReport(testReportPoll(), votes, resolveTestName, testNow)

	if !strings.Contains(report, "Winners (tie): pizza, sushi") {
		t.Fatalf("expected a tie line, got:\n%s", report)
	}
}

func TestBuildReportNoVotes(t *testing.T) {
	report := BuildReport(testReportPoll(), nil, resolveTestName, testNow)

	if !strings.Contains(report, "Winner: no votes were cast") {
		t.Fatalf("expected the empty winner line, got:\n%s", report)
	}
}

func TestExportFileName(t *testing.T) {
	poll := &models.PollEntry{Label: "lunch"}
	if exportFileName(poll) != "lunch_export.txt" {
		t.Fatalf("unexpected file name %q", exportFileName(poll))
	}
}

func TestExportRefusesOpenPoll(t *testing.T) {
	h, polls, _, messenger, _ := newTestHandler()
	poll := testPoll(polls, nil)

	if err := h.exportToUser(poll, "user-1"); err != nil {
		t.Fatal(err)
	}

	if len(messenger.files) != 0 {
		t.Fatal("expected no report for an open poll")
	}
	if messenger.privateCount("user-1") != 1 {
		t.Fatal("expected a refusal notice")
	}
}

func TestExportSendsReportFile(t *testing.T) {
	h, polls, votes, messenger, _ := newTestHandler()
	poll := testPoll(polls, func(poll *models.PollEntry) {
		poll.Open = false
	})
	votes.Upsert(models.VoteEntry{PollID: poll.ID, UserID: "user-1", Choice: 0, Weight: 1})

	if err := h.exportToUser(poll, "user-1"); err != nil {
		t.Fatal(err)
	}

	if len(messenger.files) != 1 || messenger.files[0] != "lunch_export.txt" {
		t.Fatalf("expected the report file, got %v", messenger.files)
	}
}
