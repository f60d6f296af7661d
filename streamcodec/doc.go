// Package streamcodec lets a text encoder or decoder be used either with
// single synchronous calls on whole buffers, or incrementally through a
// transform pipe fed chunk by chunk.
//
// A given Encoder or Decoder commits to one of the two on first use and
// keeps to it: direct calls after streaming has begun fail, and the pipe
// endpoints of an instance used directly are locked for good.
//
// On the encode side a lead surrogate ending a chunk is carried into the
// next one. On the decode side the wrapped decoder runs in streaming mode
// and keeps partial byte sequences itself.
package streamcodec
