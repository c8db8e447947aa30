package poll

import (
	"github.com/tallybot/tallybot/emojis"
	"github.com/tallybot/tallybot/models"
)

// OptionEncoding maps between reaction symbols and option indexes.
// The variant is fixed at poll load time, one per option mode.
type OptionEncoding interface {
	// ResolveChoice returns the option index a reaction symbol stands for
	ResolveChoice(symbol string) (choice int, ok bool)
	// Symbol returns the reaction symbol representing an option index
	Symbol(index int) string
}

// presetEncoding covers the canonical preset option sets, the reaction
// symbol is the option value itself
type presetEncoding struct {
	symbols []string
}

func (e presetEncoding) ResolveChoice(symbol string) (int, bool) {
	for i, s := range e.symbols {
		if s == symbol {
			return i, true
		}
	}
	return 0, false
}

func (e presetEncoding) Symbol(index int) string {
	if index < 0 || index >= len(e.symbols) {
		return ""
	}
	return e.symbols[index]
}

// emojiEncoding covers polls whose every option is a single native
// emoji, voting happens with the option emoji directly
type emojiEncoding struct {
	options []string
}

func (e emojiEncoding) ResolveChoice(symbol string) (int, bool) {
	for i, option := range e.options {
		if option == symbol {
			return i, true
		}
	}
	return 0, false
}

func (e emojiEncoding) Symbol(index int) string {
	if index < 0 || index >= len(e.options) {
		return ""
	}
	return e.options[index]
}

// letterEncoding covers free text options, the n-th option is voted
// with the n-th regional indicator symbol
type letterEncoding struct {
	count int
}

func (e letterEncoding) ResolveChoice(symbol string) (int, bool) {
	index := emojis.ToLetterIndex(symbol)
	if index < 0 || index >= e.count {
		return 0, false
	}
	return index, true
}

func (e letterEncoding) Symbol(index int) string {
	if index < 0 || index >= e.count {
		return ""
	}
	return emojis.FromLetterIndex(index)
}

// EncodingFor resolves the option encoding variant of a poll
func EncodingFor(poll *models.PollEntry) OptionEncoding {
	if poll.OptionsPreset {
		return presetEncoding{symbols: poll.Options}
	}
	if poll.OptionsEmojiOnly {
		return emojiEncoding{options: poll.Options}
	}
	return letterEncoding{count: len(poll.Options)}
}
