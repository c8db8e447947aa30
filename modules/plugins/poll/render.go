package poll

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/tallybot/tallybot/helpers"
	"github.com/tallybot/tallybot/models"
)

// VoteCounts tallies votes per option index, one per row
func VoteCounts(votes []models.VoteEntry) map[int]int {
	counts := make(map[int]int)
	for _, vote := range votes {
		counts[vote.Choice]++
	}
	return counts
}

// WeightedCounts sums each vote's weight per option index
func WeightedCounts(votes []models.VoteEntry) map[int]float64 {
	counts := make(map[int]float64)
	for _, vote := range votes {
		counts[vote.Choice] += vote.Weight
	}
	return counts
}

// Winners returns the option indexes holding the maximum weighted
// count, ties produce multiple winners, no votes produce none
func Winners(weighted map[int]float64) []int {
	var winners []int
	var best float64

	for choice, count := range weighted {
		switch {
		case len(winners) == 0 || count > best:
			winners = []int{choice}
			best = count
		case count == best:
			winners = append(winners, choice)
		}
	}

	sort.Ints(winners)
	return winners
}

// DistinctVoters counts the users having at least one vote row
func DistinctVoters(votes []models.VoteEntry) int {
	users := make(map[string]bool)
	for _, vote := range votes {
		users[vote.UserID] = true
	}
	return len(users)
}

// pollEmbed builds the live poll message content. Inactive polls show
// their activation time and no vote affordances, hidden count polls
// suppress numbers while open, anonymous polls never show who voted.
func pollEmbed(poll *models.PollEntry, votes []models.VoteEntry) *discordgo.MessageEmbed {
	encoding := EncodingFor(poll)
	counts := VoteCounts(votes)
	showCounts := !poll.HideCount || !poll.Open

	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name: ">> " + poll.Label,
		},
		Title:       poll.Question,
		Description: pollStatusLine(poll),
		Color:       0x03b07c,
	}

	if !poll.Active {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "INACTIVE",
			Value: helpers.GetTextF("plugins.poll.embed.inactive", formatInstant(poll.Activation, poll.ActivationTz)),
		})
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: helpers.GetText("plugins.poll.embed.footer-inactive"),
		}
		return embed
	}

	if poll.OptionsPreset || poll.OptionsEmojiOnly {
		// compact score line for emoji option polls
		score := make([]string, 0, len(poll.Options))
		for i := range poll.Options {
			if showCounts {
				score = append(score, fmt.Sprintf("%s %d", encoding.Symbol(i), counts[i]))
			} else {
				score = append(score, encoding.Symbol(i))
			}
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  helpers.GetText("plugins.poll.embed.score"),
			Value: strings.Join(score, "  "),
		})
	} else {
		for i, option := range poll.Options {
			name := encoding.Symbol(i) + " " + option
			if isSurveyOption(poll, i) {
				name += " 🖊"
			}
			value := "​" // zero width space, discord rejects empty field values
			if showCounts {
				value = helpers.GetTextF("plugins.poll.embed.votes", counts[i])
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   name,
				Value:  value,
				Inline: true,
			})
		}
	}

	if showCounts {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  helpers.GetText("plugins.poll.embed.participants"),
			Value: humanize.Comma(int64(DistinctVoters(votes))),
		})
	}

	if poll.Open {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: helpers.GetText("plugins.poll.embed.footer-open"),
		}
	} else {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: helpers.GetText("plugins.poll.embed.footer-closed"),
		}
	}

	return embed
}

func pollStatusLine(poll *models.PollEntry) string {
	switch {
	case !poll.Active:
		return helpers.GetText("plugins.poll.status.inactive")
	case !poll.Open:
		return helpers.GetText("plugins.poll.status.closed")
	case !poll.Deadline.IsZero():
		return helpers.GetTextF("plugins.poll.status.deadline",
			formatInstant(poll.Deadline, poll.DeadlineTz),
			helpers.HumanizeDuration(time.Until(poll.Deadline)))
	default:
		return helpers.GetText("plugins.poll.status.open")
	}
}

// formatInstant renders an absolute instant in the timezone offset the
// author entered it in
func formatInstant(t time.Time, tzHours float64) string {
	if t.IsZero() {
		return "-"
	}

	zone := time.FixedZone("", int(tzHours*3600))
	return t.In(zone).Format("2006-01-02 15:04 MST")
}

func isSurveyOption(poll *models.PollEntry, choice int) bool {
	for _, flag := range poll.SurveyFlags {
		if flag == choice {
			return true
		}
	}
	return false
}
