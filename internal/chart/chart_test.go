package chart

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Test constants with sample chart data
const validChartData = `[Song]
{
  Name = "Test Song"
  Artist = "Test Artist"
  Resolution = 192
  Player2 = bass
}
[SyncTrack]
{
  0 = TS 4
  0 = B 120000
  768 = TS 3 3
  2304 = A 2000000
}
[Events]
{
  0 = E "song_start"
  384 = E "section Verse 1"
  1920 = E "end"
}
[ExpertKeyboard]
{
  192 = N 2 0
  384 = N 2 96
  576 = N 0 0
  1728 = S 2 192
  1920 = E solo
}
`

const crlfChartData = "\ufeff[Song]\r\n{\r\n  Resolution = 480\r\n}\r\n\r\n[ExpertKeyboard]\r\n{\r\n\t100 = N 2 0\r\n}"

const unclosedChartData = `[Song]
{
  Resolution = 192
}
[ExpertKeyboard]
{
  100 = N 2 0
  // comment kept as is`

const malformedChartData = `[Song]
{
  InvalidLine
  = AnotherBadLine
}
[ExpertKeyboard]
{
  192 = N 2 0
  bad_tick = N 1 0
}`

func TestRoundTripPreservesInput(t *testing.T) {
	inputs := map[string]string{
		"valid":    validChartData,
		"crlf":     crlfChartData,
		"unclosed": unclosedChartData,
		"empty":    "",
		"stray":    "garbage before\n\n[A]\n  extra head line\n{\n}\n\ntrailing text\n",
	}

	for name, input := range inputs {
		doc, err := Parse(strings.NewReader(input))
		if err != nil {
			t.Fatalf("%s: failed to parse chart: %v", name, err)
		}

		if got := doc.String(); got != input {
			t.Errorf("%s: round trip mismatch\nexpected: %q\ngot:      %q", name, input, got)
		}
	}
}

func TestParseSections(t *testing.T) {
	doc, err := Parse(strings.NewReader(validChartData))
	if err != nil {
		t.Fatalf("Failed to parse valid chart: %v", err)
	}

	expected := []string{"Song", "SyncTrack", "Events", "ExpertKeyboard"}
	if len(doc.Sections) != len(expected) {
		t.Fatalf("Expected %d sections, got %d", len(expected), len(doc.Sections))
	}
	for i, name := range expected {
		if doc.Sections[i].Name != name {
			t.Errorf("Section %d: expected name '%s', got '%s'", i, name, doc.Sections[i].Name)
		}
	}

	if doc.Section("Missing") != nil {
		t.Error("Expected nil for a missing section")
	}
}

func TestSongLinesStayRaw(t *testing.T) {
	doc, err := Parse(strings.NewReader(validChartData))
	if err != nil {
		t.Fatalf("Failed to parse chart: %v", err)
	}

	for _, event := range doc.Section("Song").Lines {
		if _, ok := event.(RawLine); !ok {
			t.Errorf("Expected song line to be RawLine, got %T", event)
		}
	}
}

func TestParseTrackEvents(t *testing.T) {
	doc, err := Parse(strings.NewReader(validChartData))
	if err != nil {
		t.Fatalf("Failed to parse chart: %v", err)
	}

	lines := doc.Section("ExpertKeyboard").Lines
	if len(lines) != 5 {
		t.Fatalf("Expected 5 events, got %d", len(lines))
	}

	note, ok := lines[1].(NoteEvent)
	if !ok {
		t.Fatalf("Expected NoteEvent, got %T", lines[1])
	}
	if note.Tick != 384 || note.Lane != 2 || note.Sustain != 96 {
		t.Errorf("Unexpected note: %+v", note)
	}

	special, ok := lines[3].(TimedEvent)
	if !ok {
		t.Fatalf("Expected TimedEvent, got %T", lines[3])
	}
	if special.Type != "S" || special.Payload != "2 192" {
		t.Errorf("Expected S event with payload '2 192', got %s '%s'", special.Type, special.Payload)
	}

	solo := lines[4].(TimedEvent)
	if solo.Name() != "solo" {
		t.Errorf("Expected event name 'solo', got '%s'", solo.Name())
	}

	notes := doc.Section("ExpertKeyboard").Notes()
	if len(notes) != 3 {
		t.Errorf("Expected 3 notes, got %d", len(notes))
	}
}

func TestParseSyncTrackEvents(t *testing.T) {
	doc, err := Parse(strings.NewReader(validChartData))
	if err != nil {
		t.Fatalf("Failed to parse chart: %v", err)
	}

	expectedTypes := []string{"TS", "B", "TS", "A"}
	lines := doc.Section("SyncTrack").Lines
	for i, expected := range expectedTypes {
		event, ok := lines[i].(TimedEvent)
		if !ok {
			t.Fatalf("Event %d: expected TimedEvent, got %T", i, lines[i])
		}
		if event.Type != expected {
			t.Errorf("Event %d: expected type %s, got %s", i, expected, event.Type)
		}
	}
}

func TestEventText(t *testing.T) {
	event, err := ParseEvent(`  384 = E "section Verse 1"`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	timed := event.(TimedEvent)
	if timed.Text() != "section Verse 1" {
		t.Errorf("Expected text 'section Verse 1', got '%s'", timed.Text())
	}
	if timed.Name() != "section" {
		t.Errorf("Expected name 'section', got '%s'", timed.Name())
	}
	if timed.Arg() != "Verse 1" {
		t.Errorf("Expected arg 'Verse 1', got '%s'", timed.Arg())
	}
}

func TestParseEventFallsBackToRawLine(t *testing.T) {
	lines := []string{
		"",
		"// comment",
		"Offset = 0",
		"100 = X 1 2",
		"100 =",
	}

	for _, line := range lines {
		event, err := ParseEvent(line)
		if err != nil {
			t.Errorf("Line %q: unexpected error: %v", line, err)
			continue
		}
		if raw, ok := event.(RawLine); !ok || raw.Text != line {
			t.Errorf("Line %q: expected RawLine, got %#v", line, event)
		}
	}
}

func TestParseEventMalformed(t *testing.T) {
	lines := []string{
		"bad_tick = N 1 0",
		" = E solo",
		"-5 = B 120000",
		"100 = N x 0",
		"100 = N 1 y",
		"100 = N",
		"100 = N 300 0",
	}

	for _, line := range lines {
		_, err := ParseEvent(line)
		if !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("Line %q: expected ErrMalformedEvent, got %v", line, err)
		}
	}
}

func TestMalformedChartReportsLocation(t *testing.T) {
	_, err := Parse(strings.NewReader(malformedChartData))
	if err == nil {
		t.Fatal("Expected an error for malformed chart")
	}

	if !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("Expected ErrMalformedEvent, got %v", err)
	}

	var malformed *MalformedEventError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedEventError, got %T", err)
	}
	if malformed.Section != "ExpertKeyboard" {
		t.Errorf("Expected section 'ExpertKeyboard', got '%s'", malformed.Section)
	}
	if malformed.Line != 9 {
		t.Errorf("Expected line 9, got %d", malformed.Line)
	}
	if !strings.Contains(err.Error(), "bad_tick") {
		t.Errorf("Expected error to contain the line, got '%s'", err.Error())
	}
}

func TestResolution(t *testing.T) {
	doc, _ := Parse(strings.NewReader(crlfChartData))
	if doc.Resolution() != 480 {
		t.Errorf("Expected resolution 480, got %d", doc.Resolution())
	}

	doc, _ = Parse(strings.NewReader("[ExpertKeyboard]\n{\n}\n"))
	if doc.Resolution() != 192 {
		t.Errorf("Expected default resolution 192, got %d", doc.Resolution())
	}
}

func TestRenderGeneratedEvents(t *testing.T) {
	doc, err := Parse(strings.NewReader(validChartData))
	if err != nil {
		t.Fatalf("Failed to parse chart: %v", err)
	}

	keys := doc.Section("ExpertKeyboard")
	keys.Lines = []Event{
		NewTextEvent(192, "phrase_start"),
		NewTextEvent(192, "lyric rhy"),
		NewTextEvent(384, "lyric +thm"),
		NewTextEvent(384, "phrase_end"),
	}

	events := doc.Section("Events")
	events.Lines = append(events.Lines, NewTextEvent(2000, "lyric hi"))

	out := string(doc.Bytes())

	expected := []string{
		"[ExpertKeyboard]\n{\n  192 = E phrase_start\n  192 = E lyric rhy\n  384 = E lyric +thm\n  384 = E phrase_end\n}\n",
		"  1920 = E \"end\"\n  2000 = E \"lyric hi\"\n}",
	}
	for _, fragment := range expected {
		if !strings.Contains(out, fragment) {
			t.Errorf("Expected output to contain %q, got:\n%s", fragment, out)
		}
	}
}

func TestRenderKeepsCRLFAndIndent(t *testing.T) {
	doc, err := Parse(strings.NewReader(crlfChartData))
	if err != nil {
		t.Fatalf("Failed to parse chart: %v", err)
	}

	keys := doc.Section("ExpertKeyboard")
	keys.Lines = append(keys.Lines, NewTextEvent(200, "lyric la"))

	out := string(doc.Bytes())
	if !strings.Contains(out, "\t100 = N 2 0\r\n\t200 = E lyric la\r\n}") {
		t.Errorf("Expected CRLF and tab indent on generated line, got %q", out)
	}
}

func TestInsertBefore(t *testing.T) {
	doc, err := Parse(strings.NewReader("[Song]\n{\n}\n\n[ExpertKeyboard]\n{\n}\n"))
	if err != nil {
		t.Fatalf("Failed to parse chart: %v", err)
	}

	events := NewSection("Events", "")
	events.Lines = []Event{NewTextEvent(0, "phrase_start")}
	doc.InsertBefore(events, "ExpertKeyboard")

	expected := "[Song]\n{\n}\n\n[Events]\n{\n  0 = E \"phrase_start\"\n}\n[ExpertKeyboard]\n{\n}\n"
	if got := string(doc.Bytes()); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}

	if doc.Sections[1].Name != "Events" {
		t.Errorf("Expected Events as second section, got '%s'", doc.Sections[1].Name)
	}
}

func TestTickOf(t *testing.T) {
	if tick, ok := TickOf(NoteEvent{Tick: 5}); !ok || tick != 5 {
		t.Errorf("Expected tick 5 for note, got %d %v", tick, ok)
	}
	if tick, ok := TickOf(TimedEvent{Tick: 7}); !ok || tick != 7 {
		t.Errorf("Expected tick 7 for timed event, got %d %v", tick, ok)
	}
	if _, ok := TickOf(RawLine{Text: "x"}); ok {
		t.Error("Expected no tick for raw line")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.chart")
	if err := os.WriteFile(path, []byte(validChartData), 0644); err != nil {
		t.Fatalf("Failed to write chart: %v", err)
	}

	doc, err := OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to open chart: %v", err)
	}
	if len(doc.Sections) != 4 {
		t.Errorf("Expected 4 sections, got %d", len(doc.Sections))
	}

	if _, err := OpenFile(filepath.Join(t.TempDir(), "missing.chart")); err == nil {
		t.Error("Expected error for a missing file")
	}

	malformed := filepath.Join(t.TempDir(), "bad.chart")
	if err := os.WriteFile(malformed, []byte(malformedChartData), 0644); err != nil {
		t.Fatalf("Failed to write chart: %v", err)
	}
	if _, err := OpenFile(malformed); !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("Expected ErrMalformedEvent, got %v", err)
	}
}

func BenchmarkParseValidChart(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, err := Parse(strings.NewReader(validChartData))
		if err != nil {
			b.Fatal(err)
		}
	}
}
