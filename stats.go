package textstream

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"runtime"
	"strings"

	"github.com/anjor/textstream/internal/util/text"

	"github.com/ipfs/go-qringbuf"
	"github.com/klauspost/cpuid/v2"
)

type streamRecord struct {
	Stream    int64  `json:"stream"`
	InBytes   int64  `json:"inbytes"`
	InChunks  int64  `json:"inchunks"`
	TextUnits int64  `json:"units"`
	OutBytes  int64  `json:"outbytes"`
	OutChunks int64  `json:"outchunks"`
	Digest    string `json:"digest"`
}

type statSummary struct {
	EventType string `json:"event"`
	Codecs    struct {
		From  string `json:"from"`
		To    string `json:"to"`
		API   string `json:"api"`
		Fatal bool   `json:"fatal"`
	} `json:"codecs"`
	Input struct {
		Bytes  int64 `json:"bytes"`
		Chunks int64 `json:"chunks"`
	} `json:"input"`
	Text struct {
		Units  int64 `json:"units"`
		Chunks int64 `json:"chunks"`
	} `json:"text"`
	Output struct {
		Bytes           int64  `json:"bytes"`
		Chunks          int64  `json:"chunks"`
		Compressor      string `json:"compressor"`
		CompressedBytes int64  `json:"compressedBytes"`
	} `json:"output"`
	Streams       int64          `json:"streams"`
	StreamRecords []streamRecord `json:"streamRecords,omitempty"`
	SysStats      struct {
		qringbuf.Stats
		ElapsedNsecs int64 `json:"elapsedNanoseconds"`

		// getrusage() section
		CpuUserNsecs int64 `json:"cpuUserNanoseconds"`
		CpuSysNsecs  int64 `json:"cpuSystemNanoseconds"`
		MaxRssBytes  int64 `json:"maxMemoryUsed"`
		MinFlt       int64 `json:"cacheMinorFaults"`
		MajFlt       int64 `json:"cacheMajorFaults"`
		BioRead      int64 `json:"blockIoReads,omitempty"`
		BioWrite     int64 `json:"blockIoWrites,omitempty"`
		Sigs         int64 `json:"signalsReceived,omitempty"`
		CtxSwYield   int64 `json:"contextSwitchYields"`
		CtxSwForced  int64 `json:"contextSwitchForced"`

		// for context
		PageSize     int      `json:"pageSize"`
		CPU          string   `json:"cpu"`
		CPUCores     int      `json:"cpuCores"`
		CPUHasSHA    bool     `json:"cpuHasSHA"`
		GoVersion    string   `json:"go"`
		ArgvExpanded []string `json:"argvExpanded"`
		ArgvInitial  []string `json:"argvInitial"`
	} `json:"sys"`
}

func (ts *Textstream) fillSysContext() {
	sys := &ts.statSummary.SysStats
	sys.CPU = cpuid.CPU.BrandName
	sys.CPUCores = cpuid.CPU.LogicalCores
	sys.CPUHasSHA = cpuid.CPU.Supports(cpuid.SHA)
	sys.GoVersion = runtime.Version()
}

// OutputSummary writes the collected statistics to the 'stats-jsonl' and
// 'stats-text' emitters, whichever are active.
func (ts *Textstream) OutputSummary() {

	// no stats emitters - nowhere to output
	if ts.cfg.emitters[emStatsText] == nil && ts.cfg.emitters[emStatsJsonl] == nil {
		return
	}

	ts.fillSysContext()

	smr := &ts.statSummary
	smr.EventType = "summary"

	if statsJsonlOut := ts.cfg.emitters[emStatsJsonl]; statsJsonlOut != nil {
		// emit the JSON last, so that piping to e.g. `jq` works nicer
		defer func() {
			jsonl, err := json.Marshal(smr)
			if err != nil {
				log.Fatalf("Encoding '%s' failed: %s", emStatsJsonl, err)
			}

			if _, err := fmt.Fprintf(statsJsonlOut, "%s\n", jsonl); err != nil {
				log.Fatalf("Emitting '%s' failed: %s", emStatsJsonl, err)
			}
		}()
	}

	statsTextOut := ts.cfg.emitters[emStatsText]
	if statsTextOut == nil {
		return
	}

	var compressed string
	if smr.Output.Compressor != "" && smr.Output.Compressor != "none" {
		compressed = fmt.Sprintf(
			", %s bytes after '%s'",
			text.Commify64(smr.Output.CompressedBytes),
			smr.Output.Compressor,
		)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `
Ran on %d-core %s (sha-ext: %t)
Transcoded %s stream(s) %s => %s via the '%s' api in %.2f seconds
Input %s bytes in %s chunks
Decoded %s UTF-16 code units in %s text chunks
Output %s bytes in %s chunks%s
`,
		smr.SysStats.CPUCores,
		smr.SysStats.CPU,
		smr.SysStats.CPUHasSHA,
		text.Commify64(smr.Streams),
		smr.Codecs.From,
		smr.Codecs.To,
		smr.Codecs.API,
		float64(smr.SysStats.ElapsedNsecs)/1000000000,
		text.Commify64(smr.Input.Bytes),
		text.Commify64(smr.Input.Chunks),
		text.Commify64(smr.Text.Units),
		text.Commify64(smr.Text.Chunks),
		text.Commify64(smr.Output.Bytes),
		text.Commify64(smr.Output.Chunks),
		compressed,
	)

	if len(smr.StreamRecords) > 0 {
		b.WriteString("\nStream        InBytes           Units        OutBytes  Digest\n")
		for _, r := range smr.StreamRecords {
			fmt.Fprintf(&b, "%6d %14s %15s %15s  %s\n",
				r.Stream,
				text.Commify64(r.InBytes),
				text.Commify64(r.TextUnits),
				text.Commify64(r.OutBytes),
				r.Digest,
			)
		}
	}
	b.WriteString("\n")

	if _, err := io.WriteString(statsTextOut, b.String()); err != nil {
		log.Fatalf("Emitting '%s' failed: %s", emStatsText, err)
	}
}
