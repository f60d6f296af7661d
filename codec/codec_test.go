package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLabels(t *testing.T) {
	tests := []struct {
		label   string
		want    string
		wantErr bool
	}{
		{label: "", want: "utf-8"},
		{label: "UTF8", want: "utf-8"},
		{label: " unicode-1-1-utf-8 ", want: "utf-8"},
		{label: "utf-16", want: "utf-16le"},
		{label: "utf-16be", want: "utf-16be"},
		{label: "latin1", want: "windows-1252"},
		{label: "sjis", want: "shift_jis"},
		{label: "iso-2022-kr", wantErr: true},
		{label: "no-such-thing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := Canonical(tt.label)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedEncoding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodingsAreResolvable(t *testing.T) {
	names := Encodings()
	require.NotEmpty(t, names)
	assert.Contains(t, names, "utf-8")
	assert.Contains(t, names, "shift_jis")
	for _, n := range names {
		got, err := Canonical(n)
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestTextRoundTrip(t *testing.T) {
	s := "aé€\U0001F600z"
	txt := FromString(s)
	assert.Len(t, txt, 6)
	assert.True(t, IsLeadSurrogate(txt[3]))
	assert.True(t, IsTrailSurrogate(txt[4]))
	assert.Equal(t, s, txt.String())
}

func TestEncodeUTF8(t *testing.T) {
	enc, err := NewTextEncoder("", EncoderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "utf-8", enc.Encoding())

	out, err := enc.Encode(FromString("hé\U0001F600"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hé\U0001F600"), out)

	// lone lead surrogate
	out, err = enc.Encode(Text{'a', 0xD83D})
	require.NoError(t, err)
	assert.Equal(t, []byte("a\uFFFD"), out)

	// lone trail surrogate
	out, err = enc.Encode(Text{0xDE00, 'b'})
	require.NoError(t, err)
	assert.Equal(t, []byte("\uFFFDb"), out)

	out, err = enc.Encode(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEncodeFatalUnpaired(t *testing.T) {
	enc, err := NewTextEncoder("utf-8", EncoderOptions{Fatal: true})
	require.NoError(t, err)

	_, err = enc.Encode(Text{'a', 'b', 0xD83D})
	require.ErrorIs(t, err, ErrMalformedInput)

	var ce *ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 2, ce.Offset)
	assert.Equal(t, "encode", ce.Op)
}

func TestEncodeUTF16(t *testing.T) {
	le, err := NewTextEncoder("utf-16le", EncoderOptions{})
	require.NoError(t, err)
	be, err := NewTextEncoder("utf-16be", EncoderOptions{})
	require.NoError(t, err)

	in := FromString("A\U0001F600")

	out, err := le.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x41, 0x00, 0x3D, 0xD8, 0x00, 0xDE}, out)

	out, err = be.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x41, 0xD8, 0x3D, 0xDE, 0x00}, out)
}

func TestEncodeLegacy(t *testing.T) {
	enc, err := NewTextEncoder("windows-1252", EncoderOptions{})
	require.NoError(t, err)

	out, err := enc.Encode(FromString("café €"))
	require.NoError(t, err)
	assert.Equal(t, []byte{'c', 'a', 'f', 0xE9, ' ', 0x80}, out)

	// not in windows-1252: escaped as an HTML numeric reference
	out, err = enc.Encode(FromString("中"))
	require.NoError(t, err)
	assert.Equal(t, []byte("&#20013;"), out)

	fatal, err := NewTextEncoder("windows-1252", EncoderOptions{Fatal: true})
	require.NoError(t, err)
	_, err = fatal.Encode(FromString("中"))
	require.ErrorIs(t, err, ErrUnencodable)
}

func TestDecodeUTF8Errors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{name: "ascii", in: []byte("abc"), want: "abc"},
		{name: "invalid lead", in: []byte{0xFF, 'a'}, want: "\uFFFDa"},
		{name: "truncated 3-byte", in: []byte{0xE2, 0x82}, want: "\uFFFD"},
		{name: "maximal subpart", in: []byte{0xE2, 0x82, 'x'}, want: "\uFFFDx"},
		{name: "overlong", in: []byte{0xE0, 0x80, 0x80}, want: "\uFFFD\uFFFD\uFFFD"},
		{name: "surrogate code point", in: []byte{0xED, 0xA0, 0x80}, want: "\uFFFD\uFFFD\uFFFD"},
		{name: "astral", in: []byte{0xF0, 0x9F, 0x98, 0x80}, want: "\U0001F600"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := NewTextDecoder("utf-8", DecoderOptions{})
			require.NoError(t, err)
			got, err := dec.Decode(tt.in, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestDecodeStreamingHoldsPartialSequence(t *testing.T) {
	dec, err := NewTextDecoder("utf-8", DecoderOptions{})
	require.NoError(t, err)

	euro := []byte("€")

	out, err := dec.Decode(euro[:1], true)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = dec.Decode(euro[1:2], true)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = dec.Decode(euro[2:], true)
	require.NoError(t, err)
	assert.Equal(t, "€", out.String())

	out, err = dec.Decode(nil, false)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecodeFlushTruncated(t *testing.T) {
	dec, err := NewTextDecoder("utf-8", DecoderOptions{})
	require.NoError(t, err)

	_, err = dec.Decode([]byte{'a', 0xE2, 0x82}, true)
	require.NoError(t, err)
	out, err := dec.Decode(nil, false)
	require.NoError(t, err)
	assert.Equal(t, "\uFFFD", out.String())

	fatal, err := NewTextDecoder("utf-8", DecoderOptions{Fatal: true})
	require.NoError(t, err)
	_, err = fatal.Decode([]byte{'a', 0xE2, 0x82}, true)
	require.NoError(t, err)
	_, err = fatal.Decode(nil, false)
	require.ErrorIs(t, err, ErrMalformedInput)

	// a failed session does not leak into the next one
	out, err = fatal.Decode([]byte("ok"), false)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.String())
}

func TestDecodeBOM(t *testing.T) {
	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, "hi"...)

	dec, err := NewTextDecoder("utf-8", DecoderOptions{})
	require.NoError(t, err)
	out, err := dec.Decode(withBOM, false)
	require.NoError(t, err)
	assert.Equal(t, "hi", out.String())

	// stripped once per session only
	out, err = dec.Decode(withBOM[:3], true)
	require.NoError(t, err)
	assert.Empty(t, out)
	out, err = dec.Decode([]byte{0xEF, 0xBB, 0xBF}, false)
	require.NoError(t, err)
	assert.Equal(t, Text{0xFEFF}, out)

	keep, err := NewTextDecoder("utf-8", DecoderOptions{IgnoreBOM: true})
	require.NoError(t, err)
	out, err = keep.Decode(withBOM, false)
	require.NoError(t, err)
	assert.Equal(t, "\uFEFFhi", out.String())

	le, err := NewTextDecoder("utf-16le", DecoderOptions{})
	require.NoError(t, err)
	out, err = le.Decode([]byte{0xFF, 0xFE, 'h', 0, 'i', 0}, false)
	require.NoError(t, err)
	assert.Equal(t, "hi", out.String())
}

func TestDecodeUTF16(t *testing.T) {
	dec, err := NewTextDecoder("utf-16be", DecoderOptions{})
	require.NoError(t, err)

	out, err := dec.Decode([]byte{0xD8, 0x3D, 0xDE, 0x00, 0x00, 0x41}, false)
	require.NoError(t, err)
	assert.Equal(t, "\U0001F600A", out.String())

	// unpaired lead followed by a regular unit
	out, err = dec.Decode([]byte{0xD8, 0x3D, 0x00, 0x41}, false)
	require.NoError(t, err)
	assert.Equal(t, "\uFFFDA", out.String())

	// odd trailing byte
	out, err = dec.Decode([]byte{0x00, 0x41, 0x00}, false)
	require.NoError(t, err)
	assert.Equal(t, "A\uFFFD", out.String())

	fatal, err := NewTextDecoder("utf-16le", DecoderOptions{Fatal: true})
	require.NoError(t, err)
	_, err = fatal.Decode([]byte{0x00, 0xDC}, false)
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestDecodeLegacyStreaming(t *testing.T) {
	// "日本" in shift_jis
	sjis := []byte{0x93, 0xFA, 0x96, 0x7B}

	dec, err := NewTextDecoder("shift_jis", DecoderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "shift_jis", dec.Encoding())

	var got Text
	for _, b := range sjis {
		out, err := dec.Decode([]byte{b}, true)
		require.NoError(t, err)
		got = append(got, out...)
	}
	out, err := dec.Decode(nil, false)
	require.NoError(t, err)
	got = append(got, out...)
	assert.Equal(t, "日本", got.String())
}

func TestDecodeLegacyFatal(t *testing.T) {
	dec, err := NewTextDecoder("shift_jis", DecoderOptions{Fatal: true})
	require.NoError(t, err)

	_, err = dec.Decode([]byte{'a', 0x93}, true)
	require.NoError(t, err)
	_, err = dec.Decode(nil, false)
	require.ErrorIs(t, err, ErrMalformedInput)

	lenient, err := NewTextDecoder("shift_jis", DecoderOptions{})
	require.NoError(t, err)
	_, err = lenient.Decode([]byte{'a', 0x93}, true)
	require.NoError(t, err)
	out, err := lenient.Decode(nil, false)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "\uFFFD")
}

func TestDecodeGB18030(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"ascii and euro", []byte{'a', 0x80}, "a€"},
		{"encoded replacement character", []byte{'x', 0x84, 0x31, 0xA4, 0x37, 'y'}, "x\uFFFDy"},
		{"truncated four-byte sequence", []byte{'a', 0x81, 0x30}, "a\uFFFD"},
		{"truncated after lead", []byte{'a', 0x81}, "a\uFFFD"},
		{"bad third byte restores the digit", []byte{'a', 0x81, 0x30, 'b'}, "a\uFFFD0b"},
		{"bad trail byte is consumed", []byte{0x81, 0xFF, 'z'}, "\uFFFDz"},
		{"pointer outside the ranges", []byte{0x84, 0x31, 0xA5, 0x30}, "\uFFFD"},
		{"lone 0xFF", []byte{0xFF, 'q'}, "\uFFFDq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := NewTextDecoder("gb18030", DecoderOptions{})
			require.NoError(t, err)
			out, err := dec.Decode(tt.input, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestDecodeGB18030Fatal(t *testing.T) {
	dec, err := NewTextDecoder("gb18030", DecoderOptions{Fatal: true})
	require.NoError(t, err)

	out, err := dec.Decode([]byte{'x', 0x84, 0x31, 0xA4, 0x37, 'y'}, false)
	require.NoError(t, err)
	assert.Equal(t, "x\uFFFDy", out.String())

	_, err = dec.Decode([]byte{'a', 0x81, 0x30}, false)
	var ce *ConversionError
	require.True(t, errors.As(err, &ce))
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.Equal(t, 3, ce.Offset)

	_, err = dec.Decode([]byte{'a', 'b', 0xFF}, false)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 2, ce.Offset)
}

func TestDecodeGB18030AtEverySplit(t *testing.T) {
	text := "中文 \U0001D11E €\uFFFD end"
	enc, err := NewTextEncoder("gb18030", EncoderOptions{Fatal: true})
	require.NoError(t, err)
	input, err := enc.Encode(FromString(text))
	require.NoError(t, err)

	for _, label := range []string{"gb18030", "gbk"} {
		for k := 0; k <= len(input); k++ {
			dec, err := NewTextDecoder(label, DecoderOptions{Fatal: true})
			require.NoError(t, err)

			head, err := dec.Decode(input[:k], true)
			require.NoError(t, err, "%s split at %d", label, k)
			tail, err := dec.Decode(input[k:], false)
			require.NoError(t, err, "%s split at %d", label, k)
			assert.Equal(t, text, append(head, tail...).String(), "%s split at %d", label, k)
		}
	}
}
