package lyrics

import (
	"fmt"
	"io"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"
)

// VocalTrackName is the Rock Band lead vocal track
const VocalTrackName = "PART VOCALS"

// Rock Band phrase marker notes; either one spans a sung phrase
const (
	phraseNote    uint8 = 105
	phraseNoteAlt uint8 = 106
)

type timedLyric struct {
	time uint32
	text string
}

type span struct {
	start, end uint32
}

// OpenMIDI reads syllables from the vocal track of a MIDI file
func OpenMIDI(filename string) (List, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening MIDI file: %w", err)
	}
	defer file.Close()

	return ReadMIDI(file)
}

// ReadMIDI reads the lyric events of the PART VOCALS track. Phrase marker
// notes (105/106) set EndsPhrase on the last syllable inside each phrase.
func ReadMIDI(reader io.Reader) (List, error) {
	midiFile, err := smf.ReadFrom(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading MIDI file: %w", err)
	}

	for _, track := range midiFile.Tracks {
		if trackName(track) == VocalTrackName {
			return vocalSyllables(track), nil
		}
	}

	return nil, fmt.Errorf("%w: no %s track", ErrEmpty, VocalTrackName)
}

func trackName(track smf.Track) string {
	for _, event := range track {
		var name string
		if event.Message.GetMetaTrackName(&name) {
			return name
		}
	}
	return ""
}

func vocalSyllables(track smf.Track) List {
	var lyrics []timedLyric
	var phrases []span
	phraseStarts := make(map[uint8]uint32)

	var currentTime uint32
	for _, event := range track {
		currentTime += event.Delta
		msg := event.Message

		var lyric, text string
		var ch, key, vel uint8

		switch {
		case msg.GetMetaLyric(&lyric):
			lyrics = append(lyrics, timedLyric{time: currentTime, text: lyric})
		case msg.GetMetaText(&text):
			// bracketed text events are animation markers
			if len(text) > 0 && text[0] != '[' {
				lyrics = append(lyrics, timedLyric{time: currentTime, text: text})
			}
		case msg.GetNoteOn(&ch, &key, &vel) && vel > 0:
			if key == phraseNote || key == phraseNoteAlt {
				phraseStarts[key] = currentTime
			}
		case msg.GetNoteOff(&ch, &key, &vel) || msg.GetNoteOn(&ch, &key, &vel):
			if start, ok := phraseStarts[key]; ok {
				phrases = append(phrases, span{start: start, end: currentTime})
				delete(phraseStarts, key)
			}
		}
	}

	var list List
	var times []uint32
	for _, lyric := range lyrics {
		syllable, ok := cleanSyllable(lyric.text)
		if !ok {
			continue
		}
		list = append(list, syllable)
		times = append(times, lyric.time)
	}

	for i := range list {
		phrase, ok := phraseAt(phrases, times[i])
		if !ok || !list[i].EndsWord {
			continue
		}
		if i == len(list)-1 || times[i+1] >= phrase.end {
			list[i].EndsPhrase = true
		}
	}

	return list
}

func phraseAt(phrases []span, time uint32) (span, bool) {
	for _, phrase := range phrases {
		if time >= phrase.start && time < phrase.end {
			return phrase, true
		}
	}
	return span{}, false
}
