package poll

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
	"github.com/tallybot/tallybot/helpers"
	"github.com/tallybot/tallybot/models"
)

// canonical option presets, selected by passing their number as the
// option list. The emoji presets double as their own reaction symbols.
var optionPresets = map[string]struct {
	options []string
	emoji   bool
}{
	"1": {options: []string{"✅", "❎"}, emoji: true},
	"2": {options: []string{"👍", "🤐", "👎"}, emoji: true},
	"3": {options: []string{"😍", "👍", "🤐", "👎", "🤢"}, emoji: true},
	"4": {options: []string{"in favour", "against", "abstaining"}, emoji: false},
}

// labels that collide with the show command's filters
var reservedLabels = map[string]bool{
	"open":     true,
	"closed":   true,
	"prepared": true,
}

var (
	errQuestionLength = errors.New("the question must be between 3 and 400 characters")
	errLabelFormat    = errors.New("the label must be one word of 2 to 25 characters")
	errLabelReserved  = errors.New("this label is reserved")
	errLabelTaken     = errors.New("a poll with this label already exists on this server")
	errOptionCount    = errors.New("a poll needs between 2 and 18 options")
)

func validateQuestion(question string) error {
	length := len([]rune(strings.TrimSpace(question)))
	if length < 3 || length > 400 {
		return errQuestionLength
	}
	return nil
}

func validateLabel(label string, taken func(label string) bool) error {
	length := len([]rune(label))
	if length < 2 || length > 25 || strings.ContainsAny(label, " \t\n") {
		return errLabelFormat
	}
	if reservedLabels[strings.ToLower(label)] {
		return errLabelReserved
	}
	if taken != nil && taken(strings.ToLower(label)) {
		return errLabelTaken
	}
	return nil
}

// parseOptions splits the option input and classifies the option mode.
// A single preset number selects the canonical set, otherwise emoji
// detection decides between emoji voting and letter voting.
func parseOptions(input string) (options []string, preset bool, emojiOnly bool, err error) {
	input = strings.TrimSpace(input)

	if presetSet, ok := optionPresets[input]; ok {
		return presetSet.options, presetSet.emoji, false, nil
	}

	for _, option := range strings.Split(input, ",") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		options = append(options, option)
	}

	if len(options) < 2 || len(options) > 18 {
		return nil, false, false, errOptionCount
	}

	emojiOnly = true
	for _, option := range options {
		if !isSingleEmoji(option) {
			emojiOnly = false
			break
		}
	}

	return options, false, emojiOnly, nil
}

// isSingleEmoji reports whether the string is one native emoji. Close
// enough for classification: short, no spaces, nothing alphanumeric.
func isSingleEmoji(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 || len(runes) > 4 {
		return false
	}
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return false
		}
		if r < 0x2000 {
			return false
		}
	}
	return true
}

func parseSurveyFlags(input string, optionCount int) ([]int, error) {
	var flags []int
	for _, field := range strings.Split(input, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		index, err := strconv.Atoi(field)
		if err != nil {
			return nil, errors.Errorf("invalid survey option %q", field)
		}
		// user facing indexes are one based
		index--
		if index < 0 || index >= optionCount {
			return nil, errors.Errorf("survey option %d is out of range", index+1)
		}
		flags = append(flags, index)
	}
	return flags, nil
}

func parseWeights(input string) (roles []string, numbers []float64, err error) {
	fields := strings.Split(input, ",")
	if len(fields)%2 != 0 {
		return nil, nil, errors.New("weights must be pairs of role and number")
	}

	for i := 0; i < len(fields); i += 2 {
		role := strings.TrimSpace(fields[i])
		number, convErr := strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
		if role == "" || convErr != nil {
			return nil, nil, errors.New("weights must be pairs of role and number")
		}
		for _, existing := range roles {
			if strings.EqualFold(existing, role) {
				return nil, nil, errors.Errorf("role %q has more than one weight", role)
			}
		}
		roles = append(roles, role)
		numbers = append(numbers, number)
	}

	return roles, numbers, nil
}

// tokenize splits a flag string into arguments, honoring double quotes
func tokenize(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case unicode.IsSpace(r) && !inQuotes:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}

	return args
}

// parseFlags builds a poll from a one line flag string, the advanced
// alternative to the interactive questions:
//
//	-q "question" -l label -o "a, b, c" -mc 1 -a -h -d "now+2h"
//	-ac "2026-09-01T18:00" -r "member" -w "mod, 2" -sf "1, 3"
func (h *Handler) parseFlags(guildID string, content string, now time.Time) (*models.PollEntry, error) {
	poll := &models.PollEntry{
		GuildID:        guildID,
		CreatedAt:      now,
		Open:           true,
		Active:         true,
		MultipleChoice: 1,
	}

	args := tokenize(content)
	values := make(map[string]string)
	var order []string

	for i := 0; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "-") {
			return nil, errors.Errorf("unexpected argument %q", args[i])
		}
		flag := strings.TrimPrefix(args[i], "-")
		value := ""
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			value = args[i+1]
			i++
		}
		values[flag] = value
		order = append(order, flag)
	}

	for _, flag := range order {
		value := values[flag]
		var err error

		switch flag {
		case "q", "question":
			if err = validateQuestion(value); err == nil {
				poll.Question = strings.TrimSpace(value)
			}
		case "l", "label":
			value = strings.ToLower(strings.TrimSpace(value))
			err = validateLabel(value, func(label string) bool {
				existing, lookupErr := h.polls.ByLabel(guildID, label)
				return lookupErr == nil && existing != nil
			})
			poll.Label = value
		case "o", "options":
			poll.Options, poll.OptionsPreset, poll.OptionsEmojiOnly, err = parseOptions(value)
		case "mc", "multiple-choice":
			poll.MultipleChoice, err = strconv.Atoi(value)
		case "a", "anonymous":
			poll.Anonymous = true
		case "h", "hide-count":
			poll.HideCount = true
		case "d", "deadline":
			poll.Deadline, err = helpers.ParseTime(value, now)
		case "ac", "activate":
			poll.Activation, err = helpers.ParseTime(value, now)
			if err == nil && poll.Activation.After(now) {
				poll.Active = false
			}
		case "tz", "timezone":
			var tz float64
			tz, err = strconv.ParseFloat(value, 64)
			poll.DeadlineTz = tz
			poll.ActivationTz = tz
		case "r", "roles":
			for _, role := range strings.Split(value, ",") {
				if role = strings.TrimSpace(role); role != "" {
					poll.AllowedRoles = append(poll.AllowedRoles, role)
				}
			}
		case "w", "weights":
			poll.WeightRoles, poll.WeightNumbers, err = parseWeights(value)
		case "sf", "survey":
			// resolved after the options below
		default:
			err = errors.Errorf("unknown flag -%s", flag)
		}

		if err != nil {
			return nil, err
		}
	}

	if poll.Question == "" {
		return nil, errQuestionLength
	}
	if poll.Label == "" {
		return nil, errLabelFormat
	}
	if len(poll.Options) == 0 {
		return nil, errOptionCount
	}
	if poll.MultipleChoice < 0 || poll.MultipleChoice > len(poll.Options) {
		return nil, errors.Errorf("the multiple choice limit must be between 0 and %d", len(poll.Options))
	}

	surveyInput, ok := values["sf"]
	if !ok {
		surveyInput = values["survey"]
	}
	if surveyInput != "" {
		flags, err := parseSurveyFlags(surveyInput, len(poll.Options))
		if err != nil {
			return nil, err
		}
		poll.SurveyFlags = flags
	}

	return poll, nil
}

// autoLabel derives a free label from the question when the user did
// not pick one, numeric suffixes resolve collisions
func (h *Handler) autoLabel(guildID string, question string) string {
	base := ""
	for _, r := range strings.ToLower(question) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			base += string(r)
		}
		if len(base) >= 12 {
			break
		}
	}
	if len(base) < 2 {
		base = "poll"
	}

	label := base
	for i := 2; ; i++ {
		existing, err := h.polls.ByLabel(guildID, label)
		if err != nil || existing == nil {
			return label
		}
		label = base + strconv.Itoa(i)
	}
}
