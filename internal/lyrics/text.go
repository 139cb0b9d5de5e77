package lyrics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// OpenText reads a plain lyrics file
func OpenText(filename string) (List, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening lyrics file: %w", err)
	}
	defer file.Close()

	return ParseText(file)
}

// ParseText splits lyrics into syllables. Words are separated by
// whitespace and syllables within a word by "-", so "rhy-thm" gives "rhy"
// and "thm". An "=" inside a word is a literal hyphen. The last syllable
// on each line ends a phrase.
func ParseText(reader io.Reader) (List, error) {
	var list List

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		before := len(list)
		for _, token := range strings.Fields(scanner.Text()) {
			list = append(list, splitWord(token)...)
		}

		if len(list) > before {
			list[len(list)-1].EndsPhrase = true
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading lyrics file: %w", err)
	}

	return list, nil
}

// splitWord splits one whitespace-delimited token on "-". Empty pieces from
// leading, trailing or doubled hyphens are skipped.
func splitWord(token string) []Syllable {
	var syllables []Syllable
	for _, piece := range strings.Split(token, "-") {
		if piece == "" {
			continue
		}
		syllables = append(syllables, Syllable{Text: strings.ReplaceAll(piece, "=", "-")})
	}

	if len(syllables) > 0 {
		syllables[len(syllables)-1].EndsWord = true
	}
	return syllables
}
