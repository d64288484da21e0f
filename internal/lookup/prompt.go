package lookup

import (
	"fmt"
	"strings"
)

// maxSummaryRunes bounds the text sent for summarization.
const maxSummaryRunes = 60000

const definitionSystem = `You are a concise dictionary for a reading app. Reply with a single JSON object and nothing else.`

const summarySystem = `You summarize passages of books for a reader who wants to recall what they read. Reply in plain prose, at most three short paragraphs, without preamble.`

func definitionPrompt(word, passage, lang string) string {
	if lang == "" {
		lang = "en"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Define the word %q as it is used in this passage:\n\n%s\n\n", word, passage)
	fmt.Fprintf(&b, "Return JSON with the keys definition, translation, partOfSpeech, example and phonetic. ")
	fmt.Fprintf(&b, "The translation must be into the language with code %q; leave it empty if the word is already in that language.", lang)
	return b.String()
}

func summaryPrompt(text string) string {
	if r := []rune(text); len(r) > maxSummaryRunes {
		text = string(r[:maxSummaryRunes])
	}
	return "Summarize this passage:\n\n" + text
}
