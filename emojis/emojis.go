package emojis

import "strconv"

var list = map[string]string{
	"0":  `0⃣`,
	"1":  `1⃣`,
	"2":  `2⃣`,
	"3":  `3⃣`,
	"4":  `4⃣`,
	"5":  `5⃣`,
	"6":  `6⃣`,
	"7":  `7⃣`,
	"8":  `8⃣`,
	"9":  `9⃣`,
	"10": `🔟`,
}

// revlist is the reverse version of list
var revlist map[string]string

// letters are the regional indicator symbols 🇦 through 🇿
var letters = []string{
	"🇦", "🇧", "🇨", "🇩", "🇪", "🇫", "🇬", "🇭", "🇮",
	"🇯", "🇰", "🇱", "🇲", "🇳", "🇴", "🇵", "🇶", "🇷",
	"🇸", "🇹", "🇺", "🇻", "🇼", "🇽", "🇾", "🇿",
}

var letterIndexes map[string]int

func init() {
	revlist = make(map[string]string, len(list))
	for k, v := range list {
		revlist[v] = k
	}

	letterIndexes = make(map[string]int, len(letters))
	for i, letter := range letters {
		letterIndexes[letter] = i
	}
}

// From returns the unicode emoji code for the symbol
func From(symbol string) string {
	return list[symbol]
}

// To returns the symbol from the emoji
func To(symbol string) string {
	return revlist[symbol]
}

// ToNumber returns the number that corresponds to the emoji
func ToNumber(emoji string) int {
	v, err := strconv.Atoi(revlist[emoji])
	if err != nil {
		v = -1
	}
	return v
}

// FromLetterIndex returns the regional indicator for a zero based index,
// or an empty string if the index is out of range
func FromLetterIndex(index int) string {
	if index < 0 || index >= len(letters) {
		return ""
	}
	return letters[index]
}

// ToLetterIndex returns the zero based index of a regional indicator,
// or -1 if the emoji is not one
func ToLetterIndex(emoji string) int {
	index, ok := letterIndexes[emoji]
	if !ok {
		return -1
	}
	return index
}
