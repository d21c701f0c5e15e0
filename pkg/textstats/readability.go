package textstats

import (
	"math"
	"strings"
)

func round(f float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(f*shift) / shift
}

// FleschReadingEase returns the Flesch reading-ease score, rounded to two
// decimals. Higher is easier.
func FleschReadingEase(text string) float64 {
	words := LexiconCount(text)
	if words == 0 {
		return 0
	}
	sentences := SentenceCount(text)
	syllables := SyllableCount(text)
	score := 206.835 - 1.015*(float64(words)/float64(sentences)) - 84.6*(float64(syllables)/float64(words))
	return round(score, 2)
}

// McAlpineEFLAW returns the McAlpine EFLAW score for readers of English as a
// foreign language: (words + miniwords) / sentences, rounded to one decimal.
// A miniword has three letters or fewer.
func McAlpineEFLAW(text string) float64 {
	ws := Words(text)
	if len(ws) == 0 {
		return 0
	}
	mini := 0
	for _, w := range ws {
		if len([]rune(w)) <= 3 {
			mini++
		}
	}
	sentences := SentenceCount(text)
	return round(float64(len(ws)+mini)/float64(sentences), 1)
}

// fleschKincaidGrade returns the Flesch-Kincaid grade level.
func fleschKincaidGrade(text string) float64 {
	words := LexiconCount(text)
	if words == 0 {
		return 0
	}
	sentences := SentenceCount(text)
	syllables := SyllableCount(text)
	return 0.39*(float64(words)/float64(sentences)) + 11.8*(float64(syllables)/float64(words)) - 15.59
}

// smogIndex needs at least three sentences to be meaningful; below that it
// reports zero, matching the reference implementation.
func smogIndex(text string) float64 {
	sentences := SentenceCount(text)
	if sentences < 3 {
		return 0
	}
	poly := PolysyllableCount(text)
	return 1.043*math.Sqrt(float64(poly)*30/float64(sentences)) + 3.1291
}

func colemanLiauIndex(text string) float64 {
	words := LexiconCount(text)
	if words == 0 {
		return 0
	}
	letters := float64(LetterCount(text)) / float64(words) * 100
	sentences := float64(SentenceCount(text)) / float64(words) * 100
	return 0.058*letters - 0.296*sentences - 15.8
}

func automatedReadabilityIndex(text string) float64 {
	words := LexiconCount(text)
	if words == 0 {
		return 0
	}
	chars := CharCount(text)
	sentences := SentenceCount(text)
	return 4.71*(float64(chars)/float64(words)) + 0.5*(float64(words)/float64(sentences)) - 21.43
}

// linsearWriteFormula samples the first 100 words.
func linsearWriteFormula(text string) float64 {
	ws := Words(text)
	if len(ws) == 0 {
		return 0
	}
	if len(ws) > 100 {
		ws = ws[:100]
	}
	sample := strings.Join(ws, " ")
	score := 0.0
	for _, w := range ws {
		if syllablesInWord(w) < 3 {
			score++
		} else {
			score += 3
		}
	}
	sentences := SentenceCount(sample)
	score /= float64(sentences)
	if score > 20 {
		return score / 2
	}
	return (score - 2) / 2
}

func gunningFog(text string) float64 {
	words := LexiconCount(text)
	if words == 0 {
		return 0
	}
	sentences := SentenceCount(text)
	complexWords := PolysyllableCount(text)
	return 0.4 * (float64(words)/float64(sentences) + 100*float64(complexWords)/float64(words))
}

// TextStandard returns the consensus reading-grade estimate: each underlying
// formula votes for the floor and ceiling of its grade, the reading-ease
// band votes for its grade range, and the most common vote wins (smallest
// grade on ties).
func TextStandard(text string) float64 {
	votes := make(map[int]int)
	order := []int{}
	vote := func(g int) {
		if _, ok := votes[g]; !ok {
			order = append(order, g)
		}
		votes[g]++
	}
	voteGrade := func(score float64) {
		vote(int(math.Round(score)))
		vote(int(math.Ceil(score)))
	}

	voteGrade(fleschKincaidGrade(text))

	switch ease := FleschReadingEase(text); {
	case ease >= 90:
		vote(5)
	case ease >= 80:
		vote(6)
	case ease >= 70:
		vote(7)
	case ease >= 60:
		vote(8)
		vote(9)
	case ease >= 50:
		vote(10)
	case ease >= 40:
		vote(11)
	case ease >= 30:
		vote(12)
	default:
		vote(13)
	}

	voteGrade(smogIndex(text))
	voteGrade(colemanLiauIndex(text))
	voteGrade(automatedReadabilityIndex(text))
	voteGrade(linsearWriteFormula(text))
	voteGrade(gunningFog(text))

	best, bestCount := 0, -1
	for _, g := range order {
		c := votes[g]
		if c > bestCount || (c == bestCount && g < best) {
			best, bestCount = g, c
		}
	}
	return float64(best)
}
