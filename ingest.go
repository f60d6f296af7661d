package textstream

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash"
	"io"
	"log"
	"sync"
	"time"

	"github.com/anjor/textstream/codec"
	tschunker "github.com/anjor/textstream/internal/chunker"
	"github.com/anjor/textstream/internal/constants"
	"github.com/anjor/textstream/internal/util/text"
	"github.com/anjor/textstream/pipe"
	"github.com/anjor/textstream/streamcodec"

	"github.com/ipfs/go-qringbuf"
	"go.uber.org/zap"
)

const (
	ErrorString = EventType(iota)
	NewStreamJsonl
)

// Event is sent on the optional channel handed to ProcessReader.
type Event struct {
	_    constants.Incomparabe
	Type EventType
	Body string
}
type EventType int

func (ts *Textstream) maybeSendEvent(t EventType, s string) {
	if ts.externalEventBus != nil {
		ts.externalEventBus <- Event{Type: t, Body: s}
	}
}

var preProcessTasks, postProcessTasks func(ts *Textstream)

// per-substream counters, folded into the summary once the stream ends
type streamState struct {
	_          constants.Incomparabe
	number     int64
	hasher     hash.Hash
	inBytes    int64
	inChunks   int64
	units      int64
	textChunks int64
	outBytes   int64
	outChunks  int64
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// outputSink is the compressor writer stacked over the 'output' emitter
type outputSink struct {
	raw *countingWriter
	wc  io.WriteCloser
}

// ProcessReader transcodes everything readable from inputReader, writing the
// result to the 'output' emitter. With --multipart every size-prefixed
// substream is transcoded by its own pair of codec instances.
func (ts *Textstream) ProcessReader(inputReader io.Reader, optionalEventChan chan<- Event) (err error) {

	var t0 time.Time

	defer func() {

		// the compressor trailer is written out even after a failure
		if ts.output != nil {
			closeErr := ts.output.wc.Close()
			ts.statSummary.Output.CompressedBytes = ts.output.raw.n
			if closeErr != nil {
				closeErr = fmt.Errorf("finalizing '%s' failed: %w", emOutput, closeErr)
				ts.maybeSendEvent(ErrorString, closeErr.Error())
				if err == nil {
					err = closeErr
				}
			}
		}

		if postProcessTasks != nil {
			postProcessTasks(ts)
		}

		ts.qrb = nil
		if ts.externalEventBus != nil {
			close(ts.externalEventBus)
		}

		ts.statSummary.SysStats.ElapsedNsecs = time.Since(t0).Nanoseconds()
	}()

	ts.externalEventBus = optionalEventChan
	defer func() {
		if err != nil {

			var buffered int
			if ts.qrb != nil {
				ts.qrb.Lock()
				buffered = ts.qrb.Buffered()
				ts.qrb.Unlock()
			}

			err = fmt.Errorf(
				"failure at byte offset %s of sub-stream #%d with %s bytes buffered/unprocessed: %w",
				text.Commify64(ts.curStreamOffset),
				ts.statSummary.Streams,
				text.Commify(buffered),
				err,
			)

			ts.maybeSendEvent(ErrorString, err.Error())
		}
	}()

	if preProcessTasks != nil {
		preProcessTasks(ts)
	}
	t0 = time.Now()

	ts.qrb, err = qringbuf.NewFromReader(inputReader, qringbuf.Config{
		// MinRegion must be twice the maxchunk, otherwise chunking chains won't work
		MinRegion:   2 * constants.MaxChunkSize,
		MinRead:     ts.cfg.RingBufferMinRead,
		MaxCopy:     2 * constants.MaxChunkSize,
		BufferSize:  ts.cfg.RingBufferSize,
		SectorSize:  ts.cfg.RingBufferSectSize,
		Stats:       &ts.statSummary.SysStats.Stats,
		TrackTiming: ((ts.cfg.StatsActive & statsRingbuf) == statsRingbuf),
	})
	if err != nil {
		return
	}

	if emitter := ts.cfg.emitters[emOutput]; emitter != nil {
		cw := &countingWriter{w: emitter}
		var wc io.WriteCloser
		if wc, err = ts.compressor.NewWriter(cw); err != nil {
			return
		}
		ts.output = &outputSink{raw: cw, wc: wc}
	}

	// use 64bits everywhere
	var substreamSize int64

	// outer stream loop: read() syscalls happen only here and in the qrb.collector()
	for {
		if ts.cfg.MultipartStream {

			err := binary.Read(
				inputReader,
				binary.BigEndian,
				&substreamSize,
			)
			ts.statSummary.SysStats.ReadCalls++

			if err == io.EOF {
				// no new multipart coming - bail
				break
			} else if err != nil {
				return fmt.Errorf(
					"error reading next 8-byte multipart substream size: %w",
					err,
				)
			}

			if substreamSize < 0 {
				return fmt.Errorf("invalid negative multipart substream size %d", substreamSize)
			}

			if substreamSize == 0 && ts.cfg.SkipNulInputs {
				continue
			}
		}

		ts.statSummary.Streams++
		ts.curStreamOffset = 0

		st := &streamState{number: ts.statSummary.Streams}
		if ts.newHasher != nil {
			st.hasher = ts.newHasher()
		}

		var tc transcoder
		if tc, err = ts.newTranscoder(st); err != nil {
			return
		}

		// an empty multipart stream has nothing to read, but still gets a record
		var streamErr error
		if !ts.cfg.MultipartStream || substreamSize > 0 {
			streamErr = ts.processStream(substreamSize, tc)
		}

		if streamErr == io.ErrUnexpectedEOF {
			streamErr = fmt.Errorf(
				"unexpected end of substream #%s after %s bytes (stream expected to be %s bytes long)",
				text.Commify64(ts.statSummary.Streams),
				text.Commify64(ts.curStreamOffset+int64(ts.qrb.Buffered())),
				text.Commify64(substreamSize),
			)
		} else if streamErr == io.EOF {
			streamErr = nil
		}

		if streamErr != nil {
			tc.abort(streamErr)
			return streamErr
		}

		if err = tc.close(); err != nil {
			return
		}

		if ts.curStreamOffset == 0 && ts.cfg.SkipNulInputs {
			ts.statSummary.Streams--
		} else if err = ts.recordStream(st); err != nil {
			return
		}

		// we are in EOF-state: if we are not expecting multiparts - we are done
		if !ts.cfg.MultipartStream {
			break
		}
	}

	return
}

func (ts *Textstream) processStream(streamLimit int64, tc transcoder) error {

	// begin reading and filling buffer
	if err := ts.qrb.StartFill(streamLimit); err != nil {
		return err
	}

	var availableFromReader, processedFromReader int

	for {

		workRegion, readErr := ts.qrb.NextRegion(availableFromReader - processedFromReader)

		if workRegion == nil || (readErr != nil && readErr != io.EOF) {
			return readErr
		}

		availableFromReader = workRegion.Size()
		processedFromReader = 0

		if err := ts.chunker.instance.Split(
			workRegion.Bytes(),
			(readErr == io.EOF),
			func(result tschunker.Chunk) error {
				if constants.PerformSanityChecks && (result.Size < 1 || result.Size > ts.chunker.constants.MaxChunkSize) {
					log.Panicf(
						"chunker returned a chunk of %d bytes, outside of its declared [1:%d] range",
						result.Size,
						ts.chunker.constants.MaxChunkSize,
					)
				}

				chunk := workRegion.Bytes()[processedFromReader : processedFromReader+result.Size]
				if err := tc.write(chunk); err != nil {
					return err
				}

				processedFromReader += result.Size
				ts.curStreamOffset += int64(result.Size)
				return nil
			},
		); err != nil {
			return err
		}
	}
}

// emitOutput is called for every encoded chunk, in order, by one goroutine
// at a time.
func (ts *Textstream) emitOutput(st *streamState, b []byte) error {
	st.outChunks++
	st.outBytes += int64(len(b))

	if len(b) == 0 {
		return nil
	}
	if st.hasher != nil {
		st.hasher.Write(b) //nolint:errcheck
	}
	if ts.output != nil {
		if _, err := ts.output.wc.Write(b); err != nil {
			return fmt.Errorf("emitting '%s' failed: %w", emOutput, err)
		}
	}
	return nil
}

func (ts *Textstream) recordStream(st *streamState) error {

	var sum []byte
	if st.hasher != nil {
		sum = st.hasher.Sum(nil)
	}
	rec := streamRecord{
		Stream:    st.number,
		InBytes:   st.inBytes,
		InChunks:  st.inChunks,
		TextUnits: st.units,
		OutBytes:  st.outBytes,
		OutChunks: st.outChunks,
		Digest:    ts.formattedDigest(sum),
	}

	ts.mu.Lock()
	s := &ts.statSummary
	s.Input.Bytes += st.inBytes
	s.Input.Chunks += st.inChunks
	s.Text.Units += st.units
	s.Text.Chunks += st.textChunks
	s.Output.Bytes += st.outBytes
	s.Output.Chunks += st.outChunks
	if (ts.cfg.StatsActive & statsStreams) == statsStreams {
		s.StreamRecords = append(s.StreamRecords, rec)
	}
	ts.mu.Unlock()

	ts.logger.Debug("stream transcoded",
		zap.Int64("stream", rec.Stream),
		zap.Int64("in_bytes", rec.InBytes),
		zap.Int64("units", rec.TextUnits),
		zap.Int64("out_bytes", rec.OutBytes),
	)

	if ts.externalEventBus == nil && ts.cfg.emitters[emStreamsJsonl] == nil {
		return nil
	}

	jsonl := fmt.Sprintf(
		"{\"event\": \"stream\", \"stream\":%7d, \"inbytes\":%12d, \"units\":%12d, \"outbytes\":%12d, %s }\n",
		rec.Stream,
		rec.InBytes,
		rec.TextUnits,
		rec.OutBytes,
		fmt.Sprintf(`"digest":"%s"`, rec.Digest),
	)
	ts.maybeSendEvent(NewStreamJsonl, jsonl)
	if ts.cfg.emitters[emStreamsJsonl] != nil {
		if _, err := io.WriteString(ts.cfg.emitters[emStreamsJsonl], jsonl); err != nil {
			return fmt.Errorf("emitting '%s' failed: %w", emStreamsJsonl, err)
		}
	}
	return nil
}

// transcoder carries one substream from raw input chunks to emitOutput.
type transcoder interface {
	write(chunk []byte) error
	// close flushes everything buffered and returns the first failure
	close() error
	abort(reason error)
}

func (ts *Textstream) newTranscoder(st *streamState) (transcoder, error) {
	dec, err := streamcodec.OpenDecoder(ts.cfg.FromEncoding, codec.DecoderOptions{
		Fatal:     ts.cfg.Fatal,
		IgnoreBOM: ts.cfg.IgnoreBOM,
	})
	if err != nil {
		return nil, err
	}
	enc, err := streamcodec.OpenEncoder(ts.cfg.ToEncoding, codec.EncoderOptions{
		Fatal: ts.cfg.Fatal,
	})
	if err != nil {
		return nil, err
	}

	if ts.cfg.API == apiDirect {
		return &directTranscoder{ts: ts, st: st, dec: dec, enc: enc}, nil
	}
	stc, err := ts.newStreamTranscoder(st, dec, enc)
	if err != nil {
		return nil, err
	}
	return stc, nil
}

// directTranscoder drives the codecs with single-shot calls, one per chunk.
// The decoders never end a call on half of a surrogate pair, so the output
// is the same as the streaming surface produces.
type directTranscoder struct {
	ts  *Textstream
	st  *streamState
	dec *streamcodec.Decoder
	enc *streamcodec.Encoder
}

func (d *directTranscoder) write(chunk []byte) error {
	d.st.inBytes += int64(len(chunk))
	d.st.inChunks++

	t, err := d.dec.Decode(chunk, true)
	if err != nil {
		return err
	}
	return d.encode(t)
}

func (d *directTranscoder) encode(t codec.Text) error {
	d.st.units += int64(len(t))
	d.st.textChunks++

	b, err := d.enc.Encode(t)
	if err != nil {
		return err
	}
	return d.ts.emitOutput(d.st, b)
}

func (d *directTranscoder) close() error {
	t, err := d.dec.Decode(nil, false)
	if err != nil {
		return err
	}
	if len(t) > 0 {
		return d.encode(t)
	}
	return nil
}

func (d *directTranscoder) abort(error) {}

const streamQueueDepth = 16

// streamTranscoder is
//
//	decoder | tally | encoder | emitOutput
//
// with a goroutine per hop. Writes into the decoder are synchronous, the
// hops downstream drain it concurrently.
type streamTranscoder struct {
	st     *streamState
	in     *pipe.Writer[[]byte]
	cancel context.CancelFunc
	wg     sync.WaitGroup
	errs   chan error
}

// tally counts decoded text on its way to the encoder
type tally struct {
	st *streamState
}

func (t *tally) Transform(chunk codec.Text, c *pipe.Controller[codec.Text]) error {
	t.st.units += int64(len(chunk))
	t.st.textChunks++
	c.Enqueue(chunk)
	return nil
}

func (t *tally) Flush(*pipe.Controller[codec.Text]) error { return nil }

func (ts *Textstream) newStreamTranscoder(st *streamState, dec *streamcodec.Decoder, enc *streamcodec.Encoder) (*streamTranscoder, error) {

	tp := pipe.New[codec.Text, codec.Text](&tally{st: st})

	// every hop holds at most streamQueueDepth chunks before its writer waits
	dec.Readable().SetHighWaterMark(streamQueueDepth)
	tp.Readable().SetHighWaterMark(streamQueueDepth)
	enc.Readable().SetHighWaterMark(streamQueueDepth)

	// handles claimed so far, given back if a later claim fails
	var claimed []interface{ ReleaseLock() }
	fail := func(err error) (*streamTranscoder, error) {
		for _, h := range claimed {
			h.ReleaseLock()
		}
		return nil, err
	}

	decW, err := dec.Writable().GetWriter()
	if err != nil {
		return fail(err)
	}
	claimed = append(claimed, decW)
	decR, err := dec.Readable().GetReader()
	if err != nil {
		return fail(err)
	}
	claimed = append(claimed, decR)
	tallyW, err := tp.Writable().GetWriter()
	if err != nil {
		return fail(err)
	}
	claimed = append(claimed, tallyW)
	tallyR, err := tp.Readable().GetReader()
	if err != nil {
		return fail(err)
	}
	claimed = append(claimed, tallyR)
	encW, err := enc.Writable().GetWriter()
	if err != nil {
		return fail(err)
	}
	claimed = append(claimed, encW)
	encR, err := enc.Readable().GetReader()
	if err != nil {
		return fail(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &streamTranscoder{
		st:     st,
		in:     decW,
		cancel: cancel,
		errs:   make(chan error, 3),
	}

	t.wg.Add(3)
	go func() {
		defer t.wg.Done()
		t.fail(pipe.Copy(ctx, tallyW, decR))
	}()
	go func() {
		defer t.wg.Done()
		t.fail(pipe.Copy(ctx, encW, tallyR))
	}()
	go func() {
		defer t.wg.Done()
		for {
			b, err := encR.Read(ctx)
			if err == io.EOF {
				return
			} else if err != nil {
				t.fail(err)
				return
			}
			if err := ts.emitOutput(st, b); err != nil {
				// propagates upstream through the cancelled pipes
				encR.Cancel(err)
				t.fail(err)
				return
			}
		}
	}()

	return t, nil
}

func (t *streamTranscoder) fail(err error) {
	if err == nil {
		return
	}
	select {
	case t.errs <- err:
	default:
	}
}

func (t *streamTranscoder) write(chunk []byte) error {
	t.st.inBytes += int64(len(chunk))
	t.st.inChunks++
	return t.in.Write(chunk)
}

func (t *streamTranscoder) close() error {
	err := t.in.Close()
	t.wg.Wait()
	t.cancel()

	// the first failure on any hop is the root cause
	select {
	case first := <-t.errs:
		return first
	default:
	}
	return err
}

func (t *streamTranscoder) abort(reason error) {
	t.in.Abort(reason)
	t.cancel()
	t.wg.Wait()
}
