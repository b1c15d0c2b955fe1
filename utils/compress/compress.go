/*
 * Copyright 2024 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package compress frames aggregator snapshots with snappy
package compress

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
)

// NewWriter returns a buffered snappy stream writer. Close flushes it.
func NewWriter(w io.Writer) io.WriteCloser {
	return snappy.NewBufferedWriter(w)
}

// NewReader returns a reader for a snappy stream written by NewWriter
func NewReader(r io.Reader) io.Reader {
	return snappy.NewReader(r)
}

// Compress encodes data as a snappy stream
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, "compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "compress")
	}
	return buf.Bytes(), nil
}

// Decompress decodes a snappy stream
func Decompress(data []byte) ([]byte, error) {
	out, err := io.ReadAll(NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, errors.Wrap(err, "decompress")
	}
	return out, nil
}
