package textstream

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/anjor/textstream/codec"
	tscompressor "github.com/anjor/textstream/internal/compressor"
	"github.com/anjor/textstream/internal/constants"
	"github.com/anjor/textstream/internal/digest"
	"github.com/anjor/textstream/internal/util/argparser"
	"github.com/anjor/textstream/internal/util/stream"
	"github.com/anjor/textstream/internal/util/text"

	"github.com/gobwas/glob"
	"github.com/pborman/getopt/v2"
	"github.com/pborman/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	statsStreams = 1 << iota
	statsRingbuf
)

type emissionTargets map[string]io.Writer

const (
	emNone         = "none"
	emOutput       = "output"
	emStatsText    = "stats-text"
	emStatsJsonl   = "stats-jsonl"
	emStreamsJsonl = "streams-jsonl"
)

// where the CLI initial error messages go
var argParseErrOut io.Writer = os.Stderr

func (cfg *config) printUsage(out io.Writer) {
	cfg.optSet.PrintUsage(out)
	if cfg.HelpAll || len(cfg.erroredChunkers) > 0 || len(cfg.erroredCompressors) > 0 {
		printPluginUsage(
			out,
			cfg.erroredChunkers,
			cfg.erroredCompressors,
		)
	} else {
		fmt.Fprint(out, "\nTry --help-all for more info\n\n")
	}
}

func printPluginUsage(
	out io.Writer,
	listChunkers []string,
	listCompressors []string,
) {

	// if nothing was requested explicitly - list everything
	if len(listChunkers) == 0 && len(listCompressors) == 0 {
		for name, initializer := range availableChunkers {
			if initializer != nil {
				listChunkers = append(listChunkers, name)
			}
		}
		for name, initializer := range availableCompressors {
			if initializer != nil {
				listCompressors = append(listCompressors, name)
			}
		}
	}

	if len(listChunkers) != 0 {
		fmt.Fprint(out, "\n")
		sort.Strings(listChunkers)
		for _, name := range listChunkers {
			fmt.Fprintf(
				out,
				"[C]hunker '%s'\n",
				name,
			)
			_, _, h := availableChunkers[name](nil)
			if len(h) == 0 {
				fmt.Fprint(out, "  -- no helptext available --\n\n")
			} else {
				fmt.Fprintln(out, strings.Join(h, "\n"))
			}
		}
	}

	if len(listCompressors) != 0 {
		fmt.Fprint(out, "\n")
		sort.Strings(listCompressors)
		for _, name := range listCompressors {
			fmt.Fprintf(
				out,
				"[O]utput compressor '%s'\n",
				name,
			)
			_, h := availableCompressors[name](nil)
			if len(h) == 0 {
				fmt.Fprint(out, "  -- no helptext available --\n\n")
			} else {
				fmt.Fprintln(out, strings.Join(h, "\n"))
			}
		}
	}

	fmt.Fprint(out, "\n")
}

func (cfg *config) initArgvParser() {
	// The default documented way of using pborman/options is to muck with globals
	// Operate over objects instead, allowing us to re-parse argv multiple times
	o := getopt.New()
	if err := options.RegisterSet("", cfg, o); err != nil {
		panic(fmt.Sprintf("option set registration failed: %s", err))
	}
	cfg.optSet = o

	// program does not take freeform args
	// need to override this for sensible help render
	o.SetParameters("")

	// Several options have the help-text assembled programmatically
	o.FlagLong(&cfg.hashFunc, "hash", 0, "Hash function used to fingerprint the output of each stream, one of: "+text.AvailableMapKeys(digest.AvailableHashers),
		"algname",
	)
	o.FlagLong(&cfg.requestedChunker, "chunker", 0,
		"Input chunking algorithm. One of: "+text.AvailableMapKeys(availableChunkers),
		"chname_opt1_opt2_..._optN",
	)
	o.FlagLong(&cfg.requestedCompressor, "compressor", 0,
		"Output compression. One of: "+text.AvailableMapKeys(availableCompressors),
		"compname_opt1_opt2_..._optN",
	)
	o.FlagLong(&cfg.emittersStdErr, "emit-stderr", 0, fmt.Sprintf(
		"One or more emitters to activate on stdERR. Available emitters are %s. Default: ",
		text.AvailableMapKeys(cfg.emitters),
	), "comma,sep,emitters")
	o.FlagLong(&cfg.emittersStdOut, "emit-stdout", 0,
		"One or more emitters to activate on stdOUT. Available emitters same as above. Default: ",
		"comma,sep,emitters",
	)
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	level := zapcore.WarnLevel
	if verbose {
		encCfg = zap.NewDevelopmentEncoderConfig()
		level = zapcore.DebugLevel
	}
	encCfg.TimeKey = ""

	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		level,
	))
}

func (ts *Textstream) listEncodings() error {
	g, err := glob.Compile(ts.cfg.ListEncodings)
	if err != nil {
		return fmt.Errorf("invalid --list-encodings pattern '%s': %w", ts.cfg.ListEncodings, err)
	}
	for _, name := range codec.Encodings() {
		if g.Match(name) {
			fmt.Fprintln(ts.stdout, name)
		}
	}
	return nil
}

func (ts *Textstream) setupEmitters() (argErrs []string) {

	activeStderr := make(map[string]bool, len(ts.cfg.emittersStdErr))
	for _, s := range ts.cfg.emittersStdErr {
		activeStderr[s] = true
		if val, exists := ts.cfg.emitters[s]; !exists {
			argErrs = append(argErrs, fmt.Sprintf("invalid emitter '%s' specified for --emit-stderr. Available emitters are: %s",
				s,
				text.AvailableMapKeys(ts.cfg.emitters),
			))
		} else if s == emNone {
			continue
		} else if val != nil {
			argErrs = append(argErrs, fmt.Sprintf("Emitter '%s' specified more than once", s))
		} else {
			ts.cfg.emitters[s] = ts.stderr
		}
	}
	activeStdout := make(map[string]bool, len(ts.cfg.emittersStdOut))
	for _, s := range ts.cfg.emittersStdOut {
		activeStdout[s] = true
		if val, exists := ts.cfg.emitters[s]; !exists {
			argErrs = append(argErrs, fmt.Sprintf("invalid emitter '%s' specified for --emit-stdout. Available emitters are: %s",
				s,
				text.AvailableMapKeys(ts.cfg.emitters),
			))
		} else if s == emNone {
			continue
		} else if val != nil {
			argErrs = append(argErrs, fmt.Sprintf("Emitter '%s' specified more than once", s))
		} else {
			ts.cfg.emitters[s] = ts.stdout
		}
	}

	for _, exclusiveEmitter := range []string{
		emNone,
		emStatsText,
		emOutput,
	} {
		if activeStderr[exclusiveEmitter] && len(activeStderr) > 1 {
			argErrs = append(argErrs, fmt.Sprintf(
				"When specified, emitter '%s' must be the sole argument to --emit-stderr",
				exclusiveEmitter,
			))
		}
		if activeStdout[exclusiveEmitter] && len(activeStdout) > 1 {
			argErrs = append(argErrs, fmt.Sprintf(
				"When specified, emitter '%s' must be the sole argument to --emit-stdout",
				exclusiveEmitter,
			))
		}
	}

	return
}

func (ts *Textstream) setupOutput() (argErrs []string) {

	if !tscompressor.Passthrough(ts.compressor) && stream.IsTTY(ts.cfg.emitters[emOutput]) {
		argErrs = append(argErrs, "output of compressed data to a TTY is not supported")
	}

	return
}

func (ts *Textstream) setupCodecs() (argErrs []string) {

	cfg := &ts.cfg

	if cfg.API != apiStream && cfg.API != apiDirect {
		argErrs = append(argErrs, fmt.Sprintf(
			"unsupported --api '%s', one of '%s', '%s'",
			cfg.API,
			apiStream,
			apiDirect,
		))
	}

	for _, side := range []struct {
		opt   string
		label *string
	}{
		{"from", &cfg.FromEncoding},
		{"to", &cfg.ToEncoding},
	} {
		name, err := codec.Canonical(*side.label)
		if err != nil {
			argErrs = append(argErrs, fmt.Sprintf(
				"--%s: %s (try --list-encodings='*')",
				side.opt,
				err,
			))
			continue
		}
		*side.label = name
	}

	ts.statSummary.Codecs.From = cfg.FromEncoding
	ts.statSummary.Codecs.To = cfg.ToEncoding
	ts.statSummary.Codecs.API = cfg.API
	ts.statSummary.Codecs.Fatal = cfg.Fatal

	return
}

func (ts *Textstream) setupDigest() (argErrs []string) {

	newHasher, exists := digest.AvailableHashers[ts.cfg.hashFunc]
	if !exists {
		return []string{fmt.Sprintf(
			"Hash function '%s' requested via '--hash=algname' is not valid. Available hash names are %s",
			ts.cfg.hashFunc,
			text.AvailableMapKeys(digest.AvailableHashers),
		)}
	}

	formatter, err := digest.NewFormatter(ts.cfg.hashFunc, ts.cfg.DigestMultibase)
	if err != nil {
		return []string{err.Error()}
	}

	ts.newHasher = newHasher
	ts.formattedDigest = formatter
	return
}

func (ts *Textstream) setupChunker() (argErrs []string) {

	if ts.cfg.requestedChunker == "" {
		return []string{
			"You must specify a stream chunker via '--chunker=algname1_opt1_opt2...'. Available chunker names are: " +
				text.AvailableMapKeys(availableChunkers),
		}
	}

	chunkerArgs := argparser.SplitSpec(ts.cfg.requestedChunker)
	init, exists := availableChunkers[chunkerArgs[0]]
	if !exists {
		return []string{
			fmt.Sprintf(
				"Chunker '%s' not found. Available chunker names are: %s",
				chunkerArgs[0],
				text.AvailableMapKeys(availableChunkers),
			),
		}
	}

	chunkerInstance, chunkerConstants, initErrors := init(chunkerArgs)

	if len(initErrors) == 0 {
		if chunkerConstants.MaxChunkSize < 1 || chunkerConstants.MaxChunkSize > constants.MaxChunkSize {
			initErrors = append(initErrors, fmt.Sprintf(
				"returned MaxChunkSize constant '%d' out of range [1:%d]",
				chunkerConstants.MaxChunkSize,
				constants.MaxChunkSize,
			))
		} else if chunkerConstants.MinChunkSize < 0 || chunkerConstants.MinChunkSize > chunkerConstants.MaxChunkSize {
			initErrors = append(initErrors, fmt.Sprintf(
				"returned MinChunkSize constant '%d' out of range [0:%d]",
				chunkerConstants.MinChunkSize,
				chunkerConstants.MaxChunkSize,
			))
		}
	}

	if len(initErrors) > 0 {
		ts.cfg.erroredChunkers = append(ts.cfg.erroredChunkers, chunkerArgs[0])
		for _, e := range initErrors {
			argErrs = append(argErrs, fmt.Sprintf(
				"Initialization of chunker '%s' failed: %s",
				chunkerArgs[0],
				e,
			))
		}
		return
	}

	ts.chunker = chunkerUnit{
		instance:  chunkerInstance,
		constants: chunkerConstants,
	}

	return
}

func (ts *Textstream) setupCompressor() (argErrs []string) {

	if ts.cfg.optSet.IsSet("compressor") && ts.cfg.requestedCompressor == "" {
		return []string{
			"When specified, compressor arg must be in the form '--compressor=algname_opt1_opt2...'. Available compressor names are: " +
				text.AvailableMapKeys(availableCompressors),
		}
	}

	compressorArgs := argparser.SplitSpec(ts.cfg.requestedCompressor)
	init, exists := availableCompressors[compressorArgs[0]]
	if !exists {
		return []string{
			fmt.Sprintf(
				"Compressor '%s' not found. Available compressor names are: %s",
				compressorArgs[0],
				text.AvailableMapKeys(availableCompressors),
			),
		}
	}

	compressorInstance, initErrors := init(compressorArgs)

	if len(initErrors) > 0 {
		ts.cfg.erroredCompressors = append(ts.cfg.erroredCompressors, compressorArgs[0])
		for _, e := range initErrors {
			argErrs = append(argErrs, fmt.Sprintf(
				"Initialization of compressor '%s' failed: %s",
				compressorArgs[0],
				e,
			))
		}
		return
	}

	ts.compressor = compressorInstance
	ts.statSummary.Output.Compressor = ts.cfg.requestedCompressor
	return
}
