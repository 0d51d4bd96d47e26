// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package anthropic

import (
	"bufio"
	"bytes"
	"io"
)

// sseScanner yields the payload of each data: line in an SSE body. Event
// names, ids, retry hints, and comments are skipped; the JSON payloads carry
// their own type tag.
type sseScanner struct {
	reader *bufio.Reader
}

func newSSEScanner(r io.Reader) *sseScanner {
	return &sseScanner{reader: bufio.NewReader(r)}
}

// nextData returns the next data payload, or io.EOF at end of stream.
func (s *sseScanner) nextData() ([]byte, error) {
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(bytes.TrimSpace(line)) > 0 {
				if data, ok := dataPayload(line); ok {
					return data, nil
				}
			}
			return nil, err
		}
		if data, ok := dataPayload(line); ok {
			return data, nil
		}
	}
}

func dataPayload(line []byte) ([]byte, bool) {
	line = bytes.TrimRight(line, "\r\n")
	if !bytes.HasPrefix(line, []byte("data:")) {
		return nil, false
	}
	return bytes.TrimSpace(line[5:]), true
}
