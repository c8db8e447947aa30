package poll

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kennygrant/sanitize"
	"github.com/tallybot/tallybot/helpers"
	"github.com/tallybot/tallybot/models"
)

// BuildReport renders the plain text export of a closed poll.
// Public polls list every voter with their choices, anonymous polls
// only list the participants and show survey answers shuffled so they
// cannot be tied to a name.
func BuildReport(poll *models.PollEntry, votes []models.VoteEntry, resolveName func(userID string) string, now time.Time) string {
	var b strings.Builder

	counts := VoteCounts(votes)
	weighted := WeightedCounts(votes)

	b.WriteString("Results of the poll \"" + poll.Question + "\"\n")
	b.WriteString("Label: " + poll.Label + "\n")
	b.WriteString("Created: " + poll.CreatedAt.UTC().Format("2006-01-02 15:04 UTC") + "\n")
	b.WriteString("Exported: " + now.UTC().Format("2006-01-02 15:04 UTC") + "\n")
	b.WriteString("\n")

	b.WriteString("Settings\n")
	b.WriteString(fmt.Sprintf("  Anonymous: %t\n", poll.Anonymous))
	b.WriteString(fmt.Sprintf("  Hidden live count: %t\n", poll.HideCount))
	switch poll.MultipleChoice {
	case 0:
		b.WriteString("  Choices per voter: unlimited\n")
	default:
		b.WriteString(fmt.Sprintf("  Choices per voter: %d\n", poll.MultipleChoice))
	}
	if len(poll.AllowedRoles) > 0 {
		b.WriteString("  Allowed roles: " + strings.Join(poll.AllowedRoles, ", ") + "\n")
	}
	for i, role := range poll.WeightRoles {
		if i < len(poll.WeightNumbers) {
			b.WriteString(fmt.Sprintf("  Weight: %s = %s\n", role, humanize.Ftoa(poll.WeightNumbers[i])))
		}
	}
	b.WriteString("\n")

	b.WriteString("Results\n")
	for i, option := range poll.Options {
		b.WriteString(fmt.Sprintf("  %s: %d votes, weighted %s\n",
			option, counts[i], humanize.Ftoa(weighted[i])))
	}
	b.WriteString(fmt.Sprintf("  Participants: %d\n", DistinctVoters(votes)))

	winners := Winners(weighted)
	switch len(winners) {
	case 0:
		b.WriteString("  Winner: no votes were cast\n")
	case 1:
		b.WriteString("  Winner: " + optionName(poll, winners[0]) + "\n")
	default:
		names := make([]string, 0, len(winners))
		for _, winner := range winners {
			names = append(names, optionName(poll, winner))
		}
		b.WriteString("  Winners (tie): " + strings.Join(names, ", ") + "\n")
	}
	b.WriteString("\n")

	if poll.Anonymous {
		b.WriteString("Participants (votes are anonymous)\n")
		seen := make(map[string]bool)
		for _, vote := range votes {
			if seen[vote.UserID] {
				continue
			}
			seen[vote.UserID] = true
			b.WriteString("  " + resolveName(vote.UserID) + "\n")
		}

		answers := surveyAnswers(votes)
		if len(answers) > 0 {
			b.WriteString("\nSurvey answers (shuffled)\n")
			rand.Shuffle(len(answers), func(i, j int) {
				answers[i], answers[j] = answers[j], answers[i]
			})
			for _, answer := range answers {
				b.WriteString("  " + answer + "\n")
			}
		}
	} else {
		b.WriteString("Detailed votes\n")
		for _, vote := range votes {
			line := fmt.Sprintf("  %s: %s (weight %s)",
				resolveName(vote.UserID), optionName(poll, vote.Choice), humanize.Ftoa(vote.Weight))
			if vote.Answer != "" {
				line += " - " + vote.Answer
			}
			b.WriteString(line + "\n")
		}
	}

	return b.String()
}

func surveyAnswers(votes []models.VoteEntry) []string {
	var answers []string
	for _, vote := range votes {
		if vote.Answer != "" {
			answers = append(answers, vote.Answer)
		}
	}
	return answers
}

func optionName(poll *models.PollEntry, choice int) string {
	if choice < 0 || choice >= len(poll.Options) {
		return fmt.Sprintf("option %d", choice)
	}
	return poll.Options[choice]
}

// exportFileName derives a safe attachment name from the poll label
func exportFileName(poll *models.PollEntry) string {
	return sanitize.BaseName(poll.Label) + "_export.txt"
}

// exportToUser builds the report of a closed poll and DMs it
func (h *Handler) exportToUser(poll *models.PollEntry, userID string) error {
	if err := h.evaluateAndSave(poll, h.now()); err != nil {
		return err
	}
	if poll.Open {
		return h.messenger.SendPrivateMessage(userID, helpers.GetText("plugins.poll.export.still-open"))
	}

	votes, err := h.votes.AllVotes(poll.ID)
	if err != nil {
		return err
	}

	report := BuildReport(poll, votes, h.messenger.UserName, h.now())
	return h.messenger.SendPrivateFile(
		userID,
		exportFileName(poll),
		strings.NewReader(report),
		helpers.GetTextF("plugins.poll.export.message", poll.Label),
	)
}
