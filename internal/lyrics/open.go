package lyrics

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leafo/keystolyrics/internal/sng"
)

// Open picks a reader by file extension: .mid/.midi vocal tracks, the
// notes.mid inside an .sng package, and plain text for anything else.
func Open(filename string) (List, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mid", ".midi":
		return OpenMIDI(filename)
	case ".sng":
		pkg, err := sng.Open(filename)
		if err != nil {
			return nil, err
		}
		defer pkg.Close()

		midiData, err := pkg.ReadFile("notes.mid")
		if err != nil {
			return nil, fmt.Errorf("no MIDI lyrics in SNG package: %w", err)
		}
		return ReadMIDI(bytes.NewReader(midiData))
	default:
		return OpenText(filename)
	}
}
