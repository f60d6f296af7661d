package textstream

import (
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	tschunker "github.com/anjor/textstream/internal/chunker"
	"github.com/anjor/textstream/internal/chunker/fixedsize"
	"github.com/anjor/textstream/internal/chunker/randomsize"
	tscompressor "github.com/anjor/textstream/internal/compressor"
	"github.com/anjor/textstream/internal/compressor/gzip"
	"github.com/anjor/textstream/internal/compressor/passthrough"
	"github.com/anjor/textstream/internal/compressor/xz"
	"github.com/anjor/textstream/internal/compressor/zstd"
	"github.com/anjor/textstream/internal/constants"
	"github.com/anjor/textstream/internal/digest"
	"github.com/anjor/textstream/internal/util/argparser"
	"github.com/anjor/textstream/streamcodec"

	"github.com/ipfs/go-qringbuf"
	"github.com/pborman/getopt/v2"
	"go.uber.org/zap"
)

var availableChunkers = map[string]tschunker.Initializer{
	"fixed-size":  fixedsize.NewChunker,
	"random-size": randomsize.NewChunker,
}
var availableCompressors = map[string]tscompressor.Initializer{
	"none": passthrough.NewCompressor,
	"gzip": gzip.NewCompressor,
	"zstd": zstd.NewCompressor,
	"xz":   xz.NewCompressor,
}

const (
	apiStream = "stream"
	apiDirect = "direct"
)

// ErrHelp is returned by New when the arguments asked for help or for the
// encoding list: the text was printed and there is nothing to process.
var ErrHelp = errors.New("help requested")

type chunkerUnit struct {
	_         constants.Incomparabe
	instance  tschunker.Chunker
	constants tschunker.InstanceConstants
}

// Textstream transcodes stdin-like input from one text encoding to another,
// one chunk at a time, through the streaming surface of package streamcodec.
type Textstream struct {
	curStreamOffset  int64
	cfg              config
	statSummary      statSummary
	chunker          chunkerUnit
	compressor       tscompressor.Compressor
	newHasher        func() hash.Hash
	formattedDigest  digest.Formatter
	externalEventBus chan<- Event
	qrb              *qringbuf.QuantizedRingBuffer
	logger           *zap.Logger
	mu               sync.Mutex
	stdout, stderr   io.Writer
	output           *outputSink
}

// New parses argv (argv[0] is the program name) and sets up an instance
// emitting to the given writers. All problems with the arguments are
// returned together; the instance is usable only when there are none.
func New(argv []string, stdout, stderr io.Writer) (*Textstream, []error) {

	// accumulator for multiple errors, to present to the user all at once
	var argParseErrs []string

	env, err := loadEnvDefaults()
	if err != nil {
		argParseErrs = append(argParseErrs, fmt.Sprintf("unable to load defaults from environment: %s", err))
	}

	ts := &Textstream{
		cfg:    defaultConfig(env),
		stdout: stdout,
		stderr: stderr,
	}
	if len(argv) > 1 {
		ts.statSummary.SysStats.ArgvInitial = make([]string, len(argv)-1)
		copy(ts.statSummary.SysStats.ArgvInitial, argv[1:])
	}

	cfg := &ts.cfg
	cfg.initArgvParser()

	argParseErrs = append(argParseErrs, argparser.Parse(argv, cfg.optSet)...)

	if cfg.Help || cfg.HelpAll {
		cfg.printUsage(stderr)
		return ts, []error{ErrHelp}
	}

	if cfg.optSet.IsSet("list-encodings") {
		if err := ts.listEncodings(); err != nil {
			return ts, []error{err}
		}
		return ts, []error{ErrHelp}
	}

	ts.logger = newLogger(stderr, cfg.Verbose)

	argParseErrs = append(argParseErrs, ts.setupCodecs()...)
	argParseErrs = append(argParseErrs, ts.setupDigest()...)
	argParseErrs = append(argParseErrs, ts.setupChunker()...)
	argParseErrs = append(argParseErrs, ts.setupCompressor()...)
	argParseErrs = append(argParseErrs, ts.setupEmitters()...)

	// Opts check out - see if the output can take what we will write
	if len(argParseErrs) == 0 && ts.cfg.emitters[emOutput] != nil {
		argParseErrs = append(argParseErrs, ts.setupOutput()...)
	}

	if len(argParseErrs) > 0 {
		sort.Strings(argParseErrs)
		errs := make([]error, len(argParseErrs))
		for i, s := range argParseErrs {
			errs[i] = errors.New(s)
		}
		return ts, errs
	}

	// Opts *still* check out - take a snapshot of what we ended up with

	// All output-determining opts come last in a predefined order
	outputOpts := []string{
		"from",
		"to",
		"fatal",
		"ignore-bom",
		"compressor",
		"hash",
	}
	outputOptsIdx := map[string]struct{}{}
	for _, n := range outputOpts {
		outputOptsIdx[n] = struct{}{}
	}

	// first do the generic options
	cfg.optSet.VisitAll(func(o getopt.Option) {
		switch o.LongName() {
		case "help", "help-all", "list-encodings":
			// do nothing for these
		default:
			// skip these keys too, they come next
			if _, exists := outputOptsIdx[o.LongName()]; !exists {
				ts.statSummary.SysStats.ArgvExpanded = append(
					ts.statSummary.SysStats.ArgvExpanded, fmt.Sprintf(`--%s=%s`,
						o.LongName(),
						o.Value().String(),
					),
				)
			}
		}
	})
	sort.Strings(ts.statSummary.SysStats.ArgvExpanded)

	// now do the remaining output-determining options
	for _, n := range outputOpts {
		ts.statSummary.SysStats.ArgvExpanded = append(
			ts.statSummary.SysStats.ArgvExpanded, fmt.Sprintf(`--%s=%s`,
				n,
				cfg.optSet.GetValue(n),
			),
		)
	}

	return ts, nil
}

// NewFromArgv is New for a command line program: it emits to the process'
// stdout and stderr, installs its logger for package streamcodec, and exits
// the process on help requests and argument errors.
func NewFromArgv(argv []string) *Textstream {

	ts, errs := New(argv, os.Stdout, os.Stderr)

	if len(errs) == 1 && errors.Is(errs[0], ErrHelp) {
		os.Exit(0)
	} else if len(errs) != 0 {
		msgs := make([]string, len(errs))
		for i := range errs {
			msgs[i] = errs[i].Error()
		}

		fmt.Fprint(argParseErrOut, "\nFatal error parsing arguments:\n\n")
		ts.cfg.printUsage(argParseErrOut)
		fmt.Fprintf(
			argParseErrOut,
			"Fatal error parsing arguments:\n\t%s\n",
			strings.Join(msgs, "\n\t"),
		)
		os.Exit(2)
	}

	streamcodec.SetLogger(ts.logger.Named("streamcodec"))
	return ts
}

// Logger returns the logger the instance reports to.
func (ts *Textstream) Logger() *zap.Logger { return ts.logger }

func (ts *Textstream) Destroy() {
	ts.mu.Lock()
	ts.qrb = nil
	ts.output = nil
	ts.mu.Unlock()
	if ts.logger != nil {
		ts.logger.Sync() //nolint:errcheck
	}
}
