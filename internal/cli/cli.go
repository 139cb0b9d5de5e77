package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/zeebo/blake3"

	"github.com/leafo/keystolyrics/internal/chart"
	"github.com/leafo/keystolyrics/internal/config"
	"github.com/leafo/keystolyrics/internal/convert"
	"github.com/leafo/keystolyrics/internal/lyrics"
)

// Execute runs the CLI application.
func Execute() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := NewCommand().Execute(); err != nil {
		log.Error().Msgf("%s: %v", convert.KindOf(err), err)
		os.Exit(1)
	}
}

type flags struct {
	configPath string
	lyricsPath string
	blank      bool
	verbose    bool

	section   string
	lyricLane int
	startLane int
	endLane   int
	target    string
	gapBeats  float64
	noBreaks  bool
	endOffset uint32
}

// NewCommand builds the root command. Fatal errors are returned, not
// printed, so the caller reports them once.
func NewCommand() *cobra.Command {
	defaults := config.Default()
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "keystolyrics [input-chart] [output-chart]",
		Short: "Convert placeholder notes to lyric events in a Clone Hero chart",
		Long: `Replaces the marker notes of a placeholder track with lyric, phrase_start
and phrase_end events, pairing each lyric note with the next syllable.

With no arguments the chart is read from stdin and written to stdout. With
one argument the chart is converted in place and the original is kept as
<chart>.bak. With two arguments the output goes to the second path ("-"
for stdout). A .sng input is read but never rewritten.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}

			r := &runner{
				cfg:        cfg,
				lyricsPath: f.lyricsPath,
				blank:      f.blank,
				stdin:      cmd.InOrStdin(),
				stdout:     cmd.OutOrStdout(),
				log:        newLogger(cmd.ErrOrStderr(), cfg.Verbose),
			}
			return r.run(args)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML config file (default "+config.DefaultFile+" when present)")
	fl.StringVarP(&f.lyricsPath, "lyrics", "l", "", "Lyrics source: text file, .mid/.midi vocal track or .sng package")
	fl.BoolVar(&f.blank, "blank", false, "Emit empty lyric events instead of reading a syllable source")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Enable debug logging")

	fl.StringVar(&f.section, "section", defaults.Section, "Placeholder section holding the marker notes")
	fl.IntVar(&f.lyricLane, "lyric-lane", defaults.LyricLane, "Lane of syllable marker notes")
	fl.IntVar(&f.startLane, "start-lane", defaults.StartLane, "Lane of phrase start notes (-1 to disable)")
	fl.IntVar(&f.endLane, "end-lane", defaults.EndLane, "Lane of phrase end notes (-1 to disable)")
	fl.StringVar(&f.target, "target", defaults.Target, `Where to write events: "section" or "events"`)
	fl.Float64Var(&f.gapBeats, "gap-beats", defaults.GapBeats, "Break phrases on silences longer than this many beats (0 to disable)")
	fl.BoolVar(&f.noBreaks, "no-line-breaks", false, "Ignore line breaks in the lyrics source")
	fl.Uint32Var(&f.endOffset, "end-offset", defaults.EndOffset, "Minimum ticks from the last lyric of a phrase to its phrase_end")

	cmd.MarkFlagsMutuallyExclusive("lyrics", "blank")

	return cmd
}

// load layers flags that were set explicitly over the config file and
// environment.
func (f *flags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("section") {
		cfg.Section = f.section
	}
	if fl.Changed("lyric-lane") {
		cfg.LyricLane = f.lyricLane
	}
	if fl.Changed("start-lane") {
		cfg.StartLane = f.startLane
	}
	if fl.Changed("end-lane") {
		cfg.EndLane = f.endLane
	}
	if fl.Changed("target") {
		cfg.Target = f.target
	}
	if fl.Changed("gap-beats") {
		cfg.GapBeats = f.gapBeats
	}
	if fl.Changed("no-line-breaks") {
		cfg.LineBreaks = !f.noBreaks
	}
	if fl.Changed("end-offset") {
		cfg.EndOffset = f.endOffset
	}
	if f.verbose {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(out io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}

type runner struct {
	cfg        *config.Config
	lyricsPath string
	blank      bool

	stdin  io.Reader
	stdout io.Writer
	log    zerolog.Logger
}

func (r *runner) run(args []string) error {
	var input, output string
	switch len(args) {
	case 1:
		input, output = args[0], args[0]
		if isSng(input) {
			return fmt.Errorf("cannot convert %s in place: .sng packages are read-only, give an output path", input)
		}
	case 2:
		input, output = args[0], args[1]
		if isSng(output) {
			return fmt.Errorf("cannot write %s: .sng packages are read-only", output)
		}
	}

	var data []byte
	var err error
	if input == "" || input == "-" {
		data, err = readAll(r.stdin)
	} else {
		data, err = readChart(input)
	}
	if err != nil {
		return err
	}

	doc, err := chart.Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}

	source, err := r.source()
	if err != nil {
		return err
	}

	opts := r.cfg.Options()
	opts.Blank = r.blank

	r.log.Debug().
		Str("section", opts.Section).
		Str("target", string(opts.Target)).
		Int("resolution", doc.Resolution()).
		Str("config", r.cfg.File).
		Msg("Converting chart")

	report, err := convert.Convert(doc, source, opts)
	if err != nil {
		return err
	}

	result := doc.Bytes()

	if err := r.write(input, output, data, result); err != nil {
		return err
	}

	for _, warning := range report.Warnings {
		r.log.Warn().Int("count", warning.Count).Msg(warning.String())
	}

	if report.Unchanged {
		r.log.Info().Str("section", report.Section).Msg("No marker notes found, chart left as is")
		return nil
	}

	r.log.Info().
		Str("section", report.Section).
		Int("markers", report.Markers).
		Int("lyrics", report.Lyrics).
		Int("phrases", report.Phrases).
		Msg("Converted lyrics")
	return nil
}

// source returns nil when syllables should come from hint events or the
// blank option.
func (r *runner) source() (lyrics.Source, error) {
	if r.blank || r.lyricsPath == "" {
		return nil, nil
	}

	list, err := lyrics.Open(r.lyricsPath)
	if err != nil {
		if errors.Is(err, lyrics.ErrEmpty) {
			return nil, err
		}
		return nil, ioError(err)
	}

	r.log.Debug().Str("lyrics", r.lyricsPath).Int("syllables", len(list)).Msg("Loaded syllables")
	return list, nil
}

func (r *runner) write(input, output string, original, result []byte) error {
	switch {
	case output == "" || output == "-":
		if _, err := r.stdout.Write(result); err != nil {
			return ioError(fmt.Errorf("error writing stdout: %w", err))
		}
		return nil

	case input == output:
		if blake3.Sum256(original) == blake3.Sum256(result) {
			r.log.Debug().Str("chart", output).Msg("Output identical to input, nothing written")
			return nil
		}

		perm := fileMode(input)
		backup := input + ".bak"
		if err := writeFileAtomic(backup, original, perm); err != nil {
			return err
		}
		r.log.Debug().Str("backup", backup).Msg("Wrote backup")
		return writeFileAtomic(output, result, perm)

	default:
		return writeFileAtomic(output, result, 0o644)
	}
}
