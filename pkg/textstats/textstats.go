// Package textstats provides the lexical counters and readability formulas
// used for display names, descriptions and post text. Counts follow the
// textstat conventions the research outputs were calibrated against.
package textstats

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
)

var (
	reURL        = regexp.MustCompile(`http[s]?://\S+`)
	reHashtagAny = regexp.MustCompile(`#\S+`)
	reMentionAny = regexp.MustCompile(`@\S+`)
	reWhitespace = regexp.MustCompile(`\s+`)

	// Word-boundary variants used for counting over raw text.
	ReHashtag = regexp.MustCompile(`#\w+`)
	ReMention = regexp.MustCompile(`@\w+`)
	ReURL     = regexp.MustCompile(`http[s]?://\S+`)
)

// Strip removes URLs, emoji, hashtags, mentions and redundant whitespace,
// in that order. The order matters: hashtag and mention stripping consume
// the whole token, so URLs containing '#' must go first.
func Strip(text string) string {
	s := reURL.ReplaceAllString(text, "")
	s = gomoji.RemoveEmojis(s)
	s = reHashtagAny.ReplaceAllString(s, "")
	s = reMentionAny.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// EmojiCount counts emoji occurrences in text. Grapheme clusters are walked
// so multi-rune sequences (flags, skin tones, ZWJ families) count once each.
func EmojiCount(text string) int {
	n := 0
	state := -1
	rest := text
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.StepString(rest, state)
		if gomoji.ContainsEmoji(cluster) {
			n++
		}
	}
	return n
}

// CountCapitals returns the number of upper-case characters.
func CountCapitals(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsUpper(r) {
			n++
		}
	}
	return n
}

// CharCount counts characters excluding spaces.
func CharCount(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// LetterCount counts characters excluding spaces and punctuation.
func LetterCount(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// removePunct drops punctuation and symbol runes, keeping word structure.
func removePunct(text string) string {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Words splits text on whitespace after removing punctuation.
func Words(text string) []string {
	return strings.Fields(removePunct(text))
}

// LexiconCount returns the number of words (punctuation removed).
func LexiconCount(text string) int {
	return len(Words(text))
}

// UniqueWordCount counts distinct case-insensitive whitespace-separated
// tokens of the raw text, punctuation intact.
func UniqueWordCount(text string) int {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return len(set)
}

var reSentence = regexp.MustCompile(`\b[^.!?]+[.!?]*`)

// SentenceCount returns the number of sentences, ignoring fragments of two
// words or fewer, with a floor of one.
func SentenceCount(text string) int {
	chunks := reSentence.FindAllString(text, -1)
	ignored := 0
	for _, c := range chunks {
		if LexiconCount(c) <= 2 {
			ignored++
		}
	}
	n := len(chunks) - ignored
	if n < 1 {
		return 1
	}
	return n
}

// syllablesInWord estimates English syllables by vowel-group counting with a
// silent-e adjustment. Minimum one per word.
func syllablesInWord(word string) int {
	w := strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range w {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

// SyllableCount estimates the total syllables in text.
func SyllableCount(text string) int {
	total := 0
	for _, w := range Words(text) {
		total += syllablesInWord(w)
	}
	return total
}

// MonosyllableCount counts words with exactly one syllable.
func MonosyllableCount(text string) int {
	n := 0
	for _, w := range Words(text) {
		if syllablesInWord(w) == 1 {
			n++
		}
	}
	return n
}

// PolysyllableCount counts words with three or more syllables.
func PolysyllableCount(text string) int {
	n := 0
	for _, w := range Words(text) {
		if syllablesInWord(w) >= 3 {
			n++
		}
	}
	return n
}
