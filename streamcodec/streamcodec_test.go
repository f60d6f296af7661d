package streamcodec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anjor/textstream/codec"
	"github.com/anjor/textstream/pipe"
)

func readAll[T any](t *testing.T, r *pipe.Reader[T]) ([]T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got []T
	for {
		chunk, err := r.Read(ctx)
		if errors.Is(err, io.EOF) {
			return got, nil
		} else if err != nil {
			return got, err
		}
		got = append(got, chunk)
	}
}

func mustEncoder(t *testing.T, label string, fatal bool) *Encoder {
	t.Helper()
	e, err := OpenEncoder(label, codec.EncoderOptions{Fatal: fatal})
	require.NoError(t, err)
	return e
}

func mustDecoder(t *testing.T, label string, fatal bool) *Decoder {
	t.Helper()
	d, err := OpenDecoder(label, codec.DecoderOptions{Fatal: fatal})
	require.NoError(t, err)
	return d
}

// streamEncode writes chunks through a fresh encoder pipe and returns every
// emitted chunk.
func streamEncode(t *testing.T, e *Encoder, chunks ...codec.Text) ([][]byte, error) {
	t.Helper()
	w, err := e.Writable().GetWriter()
	require.NoError(t, err)
	r, err := e.Readable().GetReader()
	require.NoError(t, err)

	for _, c := range chunks {
		if err := w.Write(c); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return readAll(t, r)
}

func streamDecode(t *testing.T, d *Decoder, chunks ...[]byte) ([]codec.Text, error) {
	t.Helper()
	w, err := d.Writable().GetWriter()
	require.NoError(t, err)
	r, err := d.Readable().GetReader()
	require.NoError(t, err)

	for _, c := range chunks {
		if err := w.Write(c); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return readAll(t, r)
}

func joinText(chunks []codec.Text) codec.Text {
	var out codec.Text
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func TestMissingCodec(t *testing.T) {
	_, err := NewEncoder(nil)
	assert.ErrorIs(t, err, ErrMissingCodec)
	_, err = NewDecoder(nil)
	assert.ErrorIs(t, err, ErrMissingCodec)
}

func TestOpenUnknownEncoding(t *testing.T) {
	_, err := OpenEncoder("klingon", codec.EncoderOptions{})
	assert.ErrorIs(t, err, codec.ErrUnsupportedEncoding)
	_, err = OpenDecoder("klingon", codec.DecoderOptions{})
	assert.ErrorIs(t, err, codec.ErrUnsupportedEncoding)
}

func TestEncodeSurrogateSplitAtEveryPoint(t *testing.T) {
	input := codec.FromString("a\U0001F600b\U00010348")
	want := []byte("a\U0001F600b\U00010348")

	for _, label := range []string{"utf-8", "utf-16le", "utf-16be"} {
		oneShot, err := mustEncoder(t, label, false).Encode(input)
		require.NoError(t, err)
		if label == "utf-8" {
			require.Equal(t, want, oneShot)
		}

		for k := 0; k <= len(input); k++ {
			e := mustEncoder(t, label, false)
			chunks, err := streamEncode(t, e, input[:k], input[k:])
			require.NoError(t, err, "%s split at %d", label, k)

			// one output chunk per write, nothing from flush
			assert.Len(t, chunks, 2, "%s split at %d", label, k)
			assert.Equal(t, oneShot, bytes.Join(chunks, nil), "%s split at %d", label, k)
			assert.Equal(t, ModeStreaming, e.Mode())
		}
	}
}

func TestEncodeLeadOnlyChunkEmitsEmpty(t *testing.T) {
	pair := codec.FromString("\U0001F600")
	e := mustEncoder(t, "utf-8", false)

	chunks, err := streamEncode(t, e, pair[:1], pair[1:])
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Empty(t, chunks[0])
	assert.Equal(t, []byte("\U0001F600"), chunks[1])
}

func TestEncodeFlushLoneLead(t *testing.T) {
	lone := codec.Text{'a', 0xD83D}

	e := mustEncoder(t, "utf-8", false)
	chunks, err := streamEncode(t, e, lone)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("\uFFFD")}, chunks)

	e = mustEncoder(t, "utf-8", true)
	_, err = streamEncode(t, e, lone)
	require.ErrorIs(t, err, codec.ErrMalformedInput)
	var convErr *codec.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "encode", convErr.Op)
}

func TestEncodeCarryDoesNotSurviveTrailOnly(t *testing.T) {
	// a stray trail surrogate is not a continuation of anything
	e := mustEncoder(t, "utf-8", false)
	chunks, err := streamEncode(t, e, codec.Text{'x'}, codec.Text{0xDE00})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("x"), []byte("\uFFFD")}, chunks)
}

func TestDecodeReassemblyAtEverySplit(t *testing.T) {
	text := "héllo, 日本 \U0001F600!"

	tests := []struct {
		label string
		input []byte
		want  string
	}{
		{label: "utf-8", input: []byte(text), want: text},
		{label: "utf-16le", input: mustEncode(t, "utf-16le", text), want: text},
		{label: "utf-16be", input: mustEncode(t, "utf-16be", text), want: text},
		{label: "shift_jis", input: []byte{'a', 0x93, 0xFA, 0x96, 0x7B, 'z'}, want: "a日本z"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			for k := 0; k <= len(tt.input); k++ {
				d := mustDecoder(t, tt.label, true)
				chunks, err := streamDecode(t, d, tt.input[:k], tt.input[k:])
				require.NoError(t, err, "split at %d", k)

				assert.Len(t, chunks, 2, "split at %d", k)
				assert.Equal(t, tt.want, joinText(chunks).String(), "split at %d", k)
			}
		})
	}
}

func TestDecodeByteAtATime(t *testing.T) {
	input := []byte("é日\U0001F600")
	chunks := make([][]byte, len(input))
	for i := range input {
		chunks[i] = input[i : i+1]
	}

	d := mustDecoder(t, "utf-8", true)
	out, err := streamDecode(t, d, chunks...)
	require.NoError(t, err)
	assert.Len(t, out, len(input))
	assert.Equal(t, string(input), joinText(out).String())
}

func TestDecodeFlushEmitsOnlyWhenNonEmpty(t *testing.T) {
	d := mustDecoder(t, "utf-8", false)
	chunks, err := streamDecode(t, d, []byte("abc"), []byte{})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "abc", chunks[0].String())
	assert.Empty(t, chunks[1])

	d = mustDecoder(t, "utf-8", false)
	chunks, err = streamDecode(t, d)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDecodeTruncatedFlush(t *testing.T) {
	truncated := []byte{'a', 0xE6, 0x97}

	d := mustDecoder(t, "utf-8", false)
	chunks, err := streamDecode(t, d, truncated)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].String())
	assert.Equal(t, "\uFFFD", chunks[1].String())

	d = mustDecoder(t, "utf-8", true)
	w, err := d.Writable().GetWriter()
	require.NoError(t, err)
	r, err := d.Readable().GetReader()
	require.NoError(t, err)

	require.NoError(t, w.Write(truncated))
	err = w.Close()
	require.ErrorIs(t, err, codec.ErrMalformedInput)

	_, err = readAll(t, r)
	assert.ErrorIs(t, err, codec.ErrMalformedInput)
}

func TestDecodeStripsBOMAcrossChunks(t *testing.T) {
	d := mustDecoder(t, "utf-8", false)
	chunks, err := streamDecode(t, d, []byte{0xEF, 0xBB}, []byte{0xBF, 'h', 'i'})
	require.NoError(t, err)
	assert.Equal(t, "hi", joinText(chunks).String())
}

func TestSingleShotRetiresStreams(t *testing.T) {
	e := mustEncoder(t, "utf-8", false)
	out, err := e.Encode(codec.FromString("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), out)
	assert.Equal(t, ModeSingleShot, e.Mode())

	// built after the single-shot call: locked on construction
	assert.True(t, e.Readable().Locked())
	assert.True(t, e.Writable().Locked())
	_, err = e.Writable().GetWriter()
	assert.ErrorIs(t, err, pipe.ErrLocked)

	// further single-shot calls are fine
	_, err = e.Encode(codec.FromString("y"))
	require.NoError(t, err)
}

func TestSingleShotLocksExistingPipe(t *testing.T) {
	d := mustDecoder(t, "utf-8", false)
	readable := d.Readable()
	require.False(t, readable.Locked())

	out, err := d.Decode([]byte("ok"), false)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.String())

	assert.True(t, readable.Locked())
	assert.True(t, d.Writable().Locked())
	_, err = readable.GetReader()
	assert.ErrorIs(t, err, pipe.ErrLocked)
}

func TestStreamingRejectsSingleShot(t *testing.T) {
	e := mustEncoder(t, "utf-8", false)
	chunks, err := streamEncode(t, e, codec.FromString("s"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	_, err = e.Encode(codec.FromString("x"))
	require.ErrorIs(t, err, ErrUsageConflict)
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
	assert.Equal(t, ModeStreaming, usage.Mode)
	assert.Equal(t, "encode", usage.Op)
}

func TestHeldEndpointLatchesStreaming(t *testing.T) {
	d := mustDecoder(t, "utf-8", false)
	r, err := d.Readable().GetReader()
	require.NoError(t, err)

	_, err = d.Decode([]byte("x"), false)
	require.ErrorIs(t, err, ErrUsageConflict)
	assert.ErrorIs(t, err, pipe.ErrLocked)
	assert.Equal(t, ModeStreaming, d.Mode())

	// the writable side was not claimed by the failed attempt
	assert.False(t, d.Writable().Locked())

	// releasing the endpoint does not bring single-shot back
	r.ReleaseLock()
	_, err = d.Decode([]byte("x"), false)
	assert.ErrorIs(t, err, ErrUsageConflict)

	chunks, err := streamDecode(t, d, []byte("still streams"))
	require.NoError(t, err)
	assert.Equal(t, "still streams", joinText(chunks).String())
}

func TestGuardTransitions(t *testing.T) {
	t.Run("single-shot rejects streaming", func(t *testing.T) {
		g := &modeGuard{}
		require.NoError(t, g.singleShot("encode"))
		err := g.streaming("transform")
		require.ErrorIs(t, err, ErrUsageConflict)
		assert.Equal(t, ModeSingleShot, g.current())
	})

	t.Run("streaming rejects single-shot", func(t *testing.T) {
		g := &modeGuard{}
		require.NoError(t, g.streaming("transform"))
		require.NoError(t, g.streaming("flush"))
		assert.ErrorIs(t, g.singleShot("decode"), ErrUsageConflict)
		assert.Equal(t, ModeStreaming, g.current())
	})

	t.Run("attach after single-shot locks", func(t *testing.T) {
		g := &modeGuard{}
		require.NoError(t, g.singleShot("encode"))
		p := pipe.New[string, string](nil)
		g.attach(p)
		assert.ErrorIs(t, p.Lock(), pipe.ErrLocked)
	})
}

func TestFirstAccessIsIdempotent(t *testing.T) {
	e := mustEncoder(t, "utf-8", false)

	var wg sync.WaitGroup
	readables := make([]*pipe.Readable[[]byte], 8)
	writables := make([]*pipe.Writable[codec.Text], 8)
	for i := range readables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			readables[i] = e.Readable()
			writables[i] = e.Writable()
		}(i)
	}
	wg.Wait()

	for i := range readables {
		assert.Same(t, readables[0], readables[i])
		assert.Same(t, writables[0], writables[i])
	}
	assert.Equal(t, ModeUnset, e.Mode())
}

func TestInstancesAreIndependent(t *testing.T) {
	a := mustEncoder(t, "utf-8", false)
	b := mustEncoder(t, "utf-8", false)

	_, err := a.Encode(codec.FromString("a"))
	require.NoError(t, err)

	chunks, err := streamEncode(t, b, codec.FromString("b"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("b")}, chunks)
	assert.NotSame(t, a.Readable(), b.Readable())
}

func TestPipeThroughDecoderIntoEncoder(t *testing.T) {
	d := mustDecoder(t, "shift_jis", false)
	e := mustEncoder(t, "utf-8", false)

	dw, err := d.Writable().GetWriter()
	require.NoError(t, err)
	dr, err := d.Readable().GetReader()
	require.NoError(t, err)
	ew, err := e.Writable().GetWriter()
	require.NoError(t, err)
	er, err := e.Readable().GetReader()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- pipe.Copy(context.Background(), ew, dr) }()

	for _, b := range []byte{0x93, 0xFA, 0x96, 0x7B} {
		require.NoError(t, dw.Write([]byte{b}))
	}
	require.NoError(t, dw.Close())
	require.NoError(t, <-done)

	chunks, err := readAll(t, er)
	require.NoError(t, err)
	assert.Equal(t, "日本", string(bytes.Join(chunks, nil)))
}

func TestUsageErrorMessage(t *testing.T) {
	err := &UsageError{Op: "decode", Mode: ModeStreaming, Cause: pipe.ErrLocked}
	assert.Contains(t, err.Error(), "decode: instance is in streaming mode")
	assert.Contains(t, err.Error(), pipe.ErrLocked.Error())
	assert.Equal(t, "unset", ModeUnset.String())
	assert.Equal(t, "single-shot", ModeSingleShot.String())
}

func mustEncode(t *testing.T, label, s string) []byte {
	t.Helper()
	enc, err := codec.NewTextEncoder(label, codec.EncoderOptions{})
	require.NoError(t, err)
	out, err := enc.Encode(codec.FromString(s))
	require.NoError(t, err)
	return out
}

func TestDecoderReportsEncodingAndMode(t *testing.T) {
	d := mustDecoder(t, "latin1", false)
	assert.Equal(t, "windows-1252", d.Encoding())
	assert.Equal(t, ModeUnset, d.Mode())

	out, err := d.Decode([]byte("caf\xe9"), false)
	require.NoError(t, err)
	assert.Equal(t, "café", out.String())
	assert.Equal(t, ModeSingleShot, d.Mode())
}
