// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package binio reads and writes the big-endian, length-prefixed structures
// used throughout the class file format.
package binio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is reported when a read runs past the end of the data.
var ErrTruncated = errors.New("unexpected end of data")

// Reader consumes big-endian values from a byte slice. The first failure is
// sticky: subsequent reads return zero values and Err reports the failure.
type Reader struct {
	buf []byte
	off int
	err error
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.off, len(r.buf)-r.off)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U1() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *Reader) U2() uint16 {
	if b := r.take(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (r *Reader) U4() uint32 {
	if b := r.take(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

// Bytes returns the next n bytes. The returned slice aliases the input.
func (r *Reader) Bytes(n int) []byte {
	return r.take(n)
}

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Len is the number of bytes left.
func (r *Reader) Len() int {
	return len(r.buf) - r.off
}

func (r *Reader) Err() error {
	return r.err
}

// Writer accumulates big-endian values.
type Writer struct {
	buf []byte
}

func (w *Writer) U1(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) U2(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *Writer) U4(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *Writer) Write(b []byte) {
	w.buf = append(w.buf, b...)
}

// Len is the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the accumulated data.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Blob writes an attribute-style blob: a u4 length followed by data.
func (w *Writer) Blob(data []byte) {
	w.U4(uint32(len(data)))
	w.Write(data)
}
