package lyrics

import "strings"

// HintEvent is the name of the chart text event that carries an inline
// syllable, e.g. `768 = E hint Hel-`.
const HintEvent = "hint"

// FromHints builds a source from hint texts in document order. Hints
// follow the Rock Band lyric conventions, plus a trailing "/" marking the
// end of a phrase.
func FromHints(hints []string) List {
	var list List
	for _, hint := range hints {
		hint = strings.TrimSpace(hint)

		endsPhrase := strings.HasSuffix(hint, "/")
		hint = strings.TrimSuffix(hint, "/")

		syllable, ok := cleanSyllable(hint)
		if !ok {
			// an empty hint still occupies its note
			syllable = Syllable{EndsWord: true}
		}
		syllable.EndsPhrase = endsPhrase && syllable.EndsWord

		list = append(list, syllable)
	}
	return list
}
