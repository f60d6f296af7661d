package textstream

import "github.com/pborman/getopt/v2"

type config struct {
	optSet *getopt.Set

	// where to output
	emitters emissionTargets

	//
	// Bulk of CLI options definition starts here, the rest further down in initArgvParser()
	//

	Help            bool `getopt:"-h --help         Display basic help"`
	HelpAll         bool `getopt:"--help-all        Display full help including options for every currently supported chunker/compressor"`
	Verbose         bool `getopt:"-v --verbose      Log codec mode transitions and per-stream progress to stdERR"`
	MultipartStream bool `getopt:"--multipart       Expect multiple SInt64BE-size-prefixed streams on stdIN"`
	SkipNulInputs   bool `getopt:"--skip-nul-inputs Instead of emitting an empty-stream record, skip zero-length streams outright"`

	FromEncoding string `getopt:"--from=label       Encoding of the input, any WHATWG label. Default:"`
	ToEncoding   string `getopt:"--to=label         Encoding of the output, any WHATWG label. Default:"`
	Fatal        bool   `getopt:"--fatal            Fail on malformed input or unencodable characters instead of substituting"`
	IgnoreBOM    bool   `getopt:"--ignore-bom       Keep a leading byte order mark in the decoded text"`
	API          string `getopt:"--api=string       Codec surface to drive: 'stream' (transform pipes) or 'direct' (single-shot calls per chunk). Default:"`

	ListEncodings string `getopt:"--list-encodings=glob Print the canonical names of supported encodings matching the glob ('*' for all) and exit"`

	emittersStdErr []string // Emitter spec: option/helptext in initArgvParser()
	emittersStdOut []string // Emitter spec: option/helptext in initArgvParser()

	// no-option-attached, these are instantiation error accumulators
	erroredChunkers    []string
	erroredCompressors []string

	RingBufferSize     int `getopt:"--ring-buffer-size=bytes        The size of the quantized ring buffer used for ingestion. Default:"`
	RingBufferSectSize int `getopt:"--ring-buffer-sync-size=bytes   (EXPERT SETTING) The size of each buffer synchronization sector. Default:"` // option vaguely named 'sync' to not confuse users
	RingBufferMinRead  int `getopt:"--ring-buffer-min-sysread=bytes (EXPERT SETTING) Perform next read(2) only when the specified amount of free space is available in the buffer. Default:"`

	StatsActive uint `getopt:"--stats-active=uint   A bitfield representing activated stat aggregations: bit0:StreamRecords, bit1:RingbufferTiming. Default:"`

	DigestMultibase string `getopt:"--digest-multibase=string Use this multibase when printing digests. One of 'base32', 'base36'. Default:"`
	hashFunc        string // hash function to use: option/helptext in initArgvParser()

	requestedChunker    string // Chunker: option/helptext in initArgvParser()
	requestedCompressor string // Compressor: option/helptext in initArgvParser()
}

func defaultConfig(env envDefaults) config {
	return config{
		emitters: emissionTargets{
			emNone:         nil,
			emOutput:       nil,
			emStatsText:    nil,
			emStatsJsonl:   nil,
			emStreamsJsonl: nil,
		},
		emittersStdOut: []string{emOutput},
		emittersStdErr: []string{emStatsText},

		FromEncoding: env.From,
		ToEncoding:   env.To,
		API:          env.API,

		RingBufferSize:     16 * 1024 * 1024,
		RingBufferSectSize: 64 * 1024,
		RingBufferMinRead:  256 * 1024,

		StatsActive:     statsStreams,
		DigestMultibase: "base36",

		hashFunc:            env.Hash,
		requestedChunker:    env.Chunker,
		requestedCompressor: env.Compressor,
	}
}
