// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package draftstore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/draftbot/lib/codec"
	"github.com/bureau-foundation/draftbot/lib/config"
)

// Frame magic numbers, as they appear on disk.
var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// frameWriter compresses one spool record into one self-delimiting
// frame.
type frameWriter interface {
	encodeFrame(record []byte) ([]byte, error)
	close()
}

func newFrameWriter(compression string) (frameWriter, error) {
	switch compression {
	case config.CompressionZstd:
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("draftstore: creating zstd encoder: %w", err)
		}
		return zstdFrames{encoder: encoder}, nil
	case config.CompressionLZ4:
		return lz4Frames{}, nil
	}
	return nil, fmt.Errorf("draftstore: unknown spool compression %q", compression)
}

type zstdFrames struct{ encoder *zstd.Encoder }

func (z zstdFrames) encodeFrame(record []byte) ([]byte, error) {
	return z.encoder.EncodeAll(record, nil), nil
}

func (z zstdFrames) close() { z.encoder.Close() }

type lz4Frames struct{}

func (lz4Frames) encodeFrame(record []byte) ([]byte, error) {
	var frame bytes.Buffer
	writer := lz4.NewWriter(&frame)
	if _, err := writer.Write(record); err != nil {
		return nil, fmt.Errorf("draftstore: lz4 compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("draftstore: lz4 compress: %w", err)
	}
	return frame.Bytes(), nil
}

func (lz4Frames) close() {}

// decodeSpool decodes a whole spool, detecting its frame format from
// the first frame's magic number. The format is "" for an empty spool.
func decodeSpool(reader io.Reader) ([]Submission, string, error) {
	buffered := bufio.NewReader(reader)
	header, err := buffered.Peek(len(zstdMagic))
	switch {
	case len(header) == 0 && errors.Is(err, io.EOF):
		return nil, "", nil
	case bytes.Equal(header, zstdMagic):
		submissions, err := decodeZstdSpool(buffered)
		return submissions, config.CompressionZstd, err
	case bytes.Equal(header, lz4Magic):
		submissions, err := decodeLZ4Spool(buffered)
		return submissions, config.CompressionLZ4, err
	case err != nil && !errors.Is(err, io.EOF):
		return nil, "", fmt.Errorf("draftstore: reading spool header: %w", err)
	}
	return nil, "", fmt.Errorf("draftstore: spool starts with % x, not a zstd or lz4 frame", header)
}

func decodeZstdSpool(reader io.Reader) ([]Submission, error) {
	decompressor, err := zstd.NewReader(reader)
	if err != nil {
		return nil, fmt.Errorf("draftstore: creating zstd decoder: %w", err)
	}
	defer decompressor.Close()

	decoder := codec.NewDecoder(decompressor)
	var submissions []Submission
	for {
		var submission Submission
		err := decoder.Decode(&submission)
		if errors.Is(err, io.EOF) {
			return submissions, nil
		}
		if err != nil {
			return submissions, fmt.Errorf("draftstore: decoding spool record %d: %w", len(submissions), err)
		}
		submissions = append(submissions, submission)
	}
}

// decodeLZ4Spool reads one lz4 frame per record. The lz4 reader consumes
// exactly one frame from buffered, so a fresh reader starts each record.
func decodeLZ4Spool(buffered *bufio.Reader) ([]Submission, error) {
	var submissions []Submission
	for {
		if _, err := buffered.Peek(1); errors.Is(err, io.EOF) {
			return submissions, nil
		} else if err != nil {
			return submissions, fmt.Errorf("draftstore: reading spool: %w", err)
		}
		record, err := io.ReadAll(lz4.NewReader(buffered))
		if err != nil {
			return submissions, fmt.Errorf("draftstore: decompressing spool record %d: %w", len(submissions), err)
		}
		var submission Submission
		if err := codec.Unmarshal(record, &submission); err != nil {
			return submissions, fmt.Errorf("draftstore: decoding spool record %d: %w", len(submissions), err)
		}
		submissions = append(submissions, submission)
	}
}
