// Package nmea decodes recorded marine-electronics telemetry into raw
// messages. Two wire encodings are supported: NMEA-0183 sentence text and
// the per-message JSON emitted by a canboat-style NMEA-2000 analyzer.
//
// Decoding never aborts on bad input: malformed records (checksum failure,
// truncated fields, unparseable numbers, missing timestamp) and records of
// unrecognized types are skipped and counted, so that for every pass
// emitted + malformed + unrecognized equals the number of input records.
package nmea

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/okian/windward/internal/domain/telemetry"
	"github.com/okian/windward/pkg/metrics"
)

// Stats counts the outcome of one decode pass.
type Stats struct {
	Records      int // input records seen
	Emitted      int // raw messages produced
	Malformed    int // records skipped as parse defects
	Unrecognized int // records of types the engine does not use
}

// Decoder turns one input stream into raw messages.
type Decoder interface {
	// Decode reads r to EOF. It returns the decoded messages in input
	// order together with pass statistics. Only I/O failures surface as
	// errors; bad records are counted, never fatal.
	Decode(ctx context.Context, r io.Reader) ([]telemetry.RawMessage, Stats, error)
}

// ForFile selects a decoder from the file name extension. Sentence text is
// expected in .nmea/.txt files, analyzer JSON in .json files.
func ForFile(path string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nmea", ".txt":
		return NewSentenceDecoder(), nil
	case ".json", ".log":
		return NewCanboatDecoder(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, path)
}

// Sniff selects a decoder from the first record of the input when the file
// name is not informative: JSON objects start with '{', sentences with '$'.
func Sniff(head []byte) (Decoder, error) {
	for _, b := range head {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return NewCanboatDecoder(), nil
		case '$':
			return NewSentenceDecoder(), nil
		default:
			return nil, ErrUnknownEncoding
		}
	}
	return nil, ErrUnknownEncoding
}

// scanLines reads r line by line, handing each non-empty line to handle.
// The per-line handler updates stats itself; scanLines only tracks the
// record count and honors ctx between lines.
func scanLines(ctx context.Context, r io.Reader, stats *Stats, handle func(line string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		stats.Records++
		metrics.RecordInputRecord()
		handle(line)
	}
	return sc.Err()
}
