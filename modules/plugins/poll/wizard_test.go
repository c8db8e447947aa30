package poll

import (
	"strings"
	"testing"
	"time"

	"github.com/tallybot/tallybot/models"
)

func TestValidateQuestion(t *testing.T) {
	if err := validateQuestion("Where do we eat?"); err != nil {
		t.Fatal(err)
	}
	if err := validateQuestion("hi"); err != errQuestionLength {
		t.Fatalf("expected errQuestionLength, got %v", err)
	}
	if err := validateQuestion(strings.Repeat("a", 401)); err != errQuestionLength {
		t.Fatalf("expected errQuestionLength, got %v", err)
	}
	if err := validateQuestion(strings.Repeat("a", 400)); err != nil {
		t.Fatalf("expected 400 characters to pass, got %v", err)
	}
}

func TestValidateLabel(t *testing.T) {
	if err := validateLabel("lunch", nil); err != nil {
		t.Fatal(err)
	}
	if err := validateLabel("a", nil); err != errLabelFormat {
		t.Fatalf("expected errLabelFormat, got %v", err)
	}
	if err := validateLabel("two words", nil); err != errLabelFormat {
		t.Fatalf("expected errLabelFormat for spaces, got %v", err)
	}
	if err := validateLabel(strings.Repeat("a", 26), nil); err != errLabelFormat {
		t.Fatalf("expected errLabelFormat, got %v", err)
	}

	for _, reserved := range []string{"open", "closed", "prepared", "Open"} {
		if err := validateLabel(reserved, nil); err != errLabelReserved {
			t.Fatalf("expected %q to be reserved, got %v", reserved, err)
		}
	}

	taken := func(label string) bool { return label == "lunch" }
	if err := validateLabel("lunch", taken); err != errLabelTaken {
		t.Fatalf("expected errLabelTaken, got %v", err)
	}
	if err := validateLabel("dinner", taken); err != nil {
		t.Fatal(err)
	}
}

func TestParseOptionsPresets(t *testing.T) {
	options, preset, emojiOnly, err := parseOptions("2")
	if err != nil {
		t.Fatal(err)
	}
	if !preset || emojiOnly {
		t.Fatalf("expected an emoji preset, got preset=%t emojiOnly=%t", preset, emojiOnly)
	}
	if len(options) != 3 || options[0] != "👍" {
		t.Fatalf("unexpected preset options %v", options)
	}

	options, preset, _, err = parseOptions("4")
	if err != nil {
		t.Fatal(err)
	}
	if preset {
		t.Fatal("expected the text preset to use letter voting")
	}
	if len(options) != 3 || options[0] != "in favour" {
		t.Fatalf("unexpected preset options %v", options)
	}
}

func TestParseOptionsList(t *testing.T) {
	options, preset, emojiOnly, err := parseOptions("pizza, sushi , salad")
	if err != nil {
		t.Fatal(err)
	}
	if preset || emojiOnly {
		t.Fatalf("expected plain text options, got preset=%t emojiOnly=%t", preset, emojiOnly)
	}
	if len(options) != 3 || options[1] != "sushi" {
		t.Fatalf("unexpected options %v", options)
	}
}

func TestParseOptionsDetectsEmojiVoting(t *testing.T) {
	_, _, emojiOnly, err := parseOptions("🍎, 🍌, 🍊")
	if err != nil {
		t.Fatal(err)
	}
	if !emojiOnly {
		t.Fatal("expected pure emoji options to vote with themselves")
	}

	_, _, emojiOnly, err = parseOptions("🍎, banana")
	if err != nil {
		t.Fatal(err)
	}
	if emojiOnly {
		t.Fatal("expected mixed options to fall back to letter voting")
	}
}

func TestParseOptionsBounds(t *testing.T) {
	if _, _, _, err := parseOptions("alone"); err != errOptionCount {
		t.Fatalf("expected errOptionCount, got %v", err)
	}

	many := make([]string, 19)
	for i := range many {
		many[i] = "option" + strings.Repeat("x", i+1)
	}
	if _, _, _, err := parseOptions(strings.Join(many, ",")); err != errOptionCount {
		t.Fatalf("expected errOptionCount for 19 options, got %v", err)
	}
}

func TestParseSurveyFlags(t *testing.T) {
	flags, err := parseSurveyFlags("1, 3", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(flags) != 2 || flags[0] != 0 || flags[1] != 2 {
		t.Fatalf("expected the one based input to shift, got %v", flags)
	}

	if _, err := parseSurveyFlags("4", 3); err == nil {
		t.Fatal("expected an out of range flag to fail")
	}
	if _, err := parseSurveyFlags("x", 3); err == nil {
		t.Fatal("expected a non numeric flag to fail")
	}
}

func TestParseWeights(t *testing.T) {
	roles, numbers, err := parseWeights("mod, 2, vip, 3.5")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 2 || roles[1] != "vip" || numbers[1] != 3.5 {
		t.Fatalf("unexpected weights %v %v", roles, numbers)
	}

	if _, _, err := parseWeights("mod, 2, vip"); err == nil {
		t.Fatal("expected an odd field count to fail")
	}
	if _, _, err := parseWeights("mod, 2, Mod, 3"); err == nil {
		t.Fatal("expected a duplicate role to fail")
	}
	if _, _, err := parseWeights("mod, heavy"); err == nil {
		t.Fatal("expected a non numeric weight to fail")
	}
}

func TestTokenize(t *testing.T) {
	args := tokenize(`-q "Where do we eat?" -l lunch -a`)
	expected := []string{"-q", "Where do we eat?", "-l", "lunch", "-a"}
	if len(args) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, args)
	}
	for i := range expected {
		if args[i] != expected[i] {
			t.Fatalf("expected %q at %d, got %q", expected[i], i, args[i])
		}
	}
}

func TestParseFlagsBuildsPoll(t *testing.T) {
	h, _, _, _, _ := newTestHandler()

	poll, err := h.parseFlags("guild-1",
		`-q "Where do we eat?" -l lunch -o "pizza, sushi, salad" -mc 2 -a -h -d "2026-09-05 18:00" -tz 2 -r "member" -w "mod, 2" -sf "1"`,
		testNow)
	if err != nil {
		t.Fatal(err)
	}

	if poll.Question != "Where do we eat?" || poll.Label != "lunch" {
		t.Fatalf("unexpected question/label: %q %q", poll.Question, poll.Label)
	}
	if len(poll.Options) != 3 || poll.MultipleChoice != 2 {
		t.Fatalf("unexpected options %v mc %d", poll.Options, poll.MultipleChoice)
	}
	if !poll.Anonymous || !poll.HideCount {
		t.Fatal("expected the anonymous and hidden count toggles to be set")
	}
	if poll.Deadline != time.Date(2026, 9, 5, 18, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected deadline %v", poll.Deadline)
	}
	if poll.DeadlineTz != 2 {
		t.Fatalf("unexpected timezone %f", poll.DeadlineTz)
	}
	if len(poll.AllowedRoles) != 1 || poll.AllowedRoles[0] != "member" {
		t.Fatalf("unexpected roles %v", poll.AllowedRoles)
	}
	if len(poll.SurveyFlags) != 1 || poll.SurveyFlags[0] != 0 {
		t.Fatalf("unexpected survey flags %v", poll.SurveyFlags)
	}
	if !poll.Open || !poll.Active {
		t.Fatal("expected the poll to start open and active")
	}
}

func TestParseFlagsFutureActivation(t *testing.T) {
	h, _, _, _, _ := newTestHandler()

	poll, err := h.parseFlags("guild-1",
		`-q "Game night?" -l games -o 1 -ac "2026-09-05 20:00"`,
		testNow)
	if err != nil {
		t.Fatal(err)
	}

	if poll.Active {
		t.Fatal("expected a future activation to prepare the poll")
	}
	if poll.Activation.IsZero() {
		t.Fatal("expected the activation instant to be stored")
	}
}

func TestParseFlagsRejectsBadInput(t *testing.T) {
	h, _, _, _, _ := newTestHandler()

	cases := []string{
		`-l lunch -o 1`,                                // no question
		`-q "Where do we eat?" -o 1`,                   // no label
		`-q "Where do we eat?" -l lunch`,               // no options
		`-q "Where do we eat?" -l lunch -o 1 -mc 5`,    // limit above option count
		`-q "Where do we eat?" -l lunch -o 1 -x`,       // unknown flag
		`stray -q "Where do we eat?" -l lunch -o 1`,    // argument without flag
		`-q "Where do we eat?" -l "two words" -o 1`,    // bad label
		`-q "Where do we eat?" -l lunch -o 1 -d later`, // unparseable deadline
	}

	for _, input := range cases {
		if _, err := h.parseFlags("guild-1", input, testNow); err == nil {
			t.Fatalf("expected %q to fail", input)
		}
	}
}

func TestParseFlagsRejectsTakenLabel(t *testing.T) {
	h, polls, _, _, _ := newTestHandler()
	testPoll(polls, nil) // occupies the label "lunch"

	_, err := h.parseFlags("guild-1", `-q "Where do we eat?" -l lunch -o 1`, testNow)
	if err != errLabelTaken {
		t.Fatalf("expected errLabelTaken, got %v", err)
	}
}

func TestAutoLabel(t *testing.T) {
	h, polls, _, _, _ := newTestHandler()

	label := h.autoLabel("guild-1", "Where do we eat tonight?")
	if label != "wheredoweeat" {
		t.Fatalf("expected the condensed question, got %q", label)
	}

	// collisions get a numeric suffix
	testPoll(polls, func(poll *models.PollEntry) {
		poll.Label = "wheredoweeat"
	})
	label = h.autoLabel("guild-1", "Where do we eat tonight?")
	if label != "wheredoweeat2" {
		t.Fatalf("expected a suffixed label, got %q", label)
	}
}
