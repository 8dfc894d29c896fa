package ollama

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// maxChunkSize bounds a single NDJSON line.
const maxChunkSize = 4 * 1024 * 1024

// Chunk is one line of a streamed /api/generate response.
type Chunk struct {
	Response *string `json:"response,omitempty"`
	Done     bool    `json:"done"`
	Error    string  `json:"error,omitempty"`
}

// Assembler folds a stream of generate chunks into the full response text.
// A new Assembler is used for every request.
type Assembler struct {
	// OnUpdate, if set, receives the cumulative text after every chunk that
	// carried a response fragment.
	OnUpdate func(full string)

	buf strings.Builder
}

// Consume reads newline-delimited JSON from r until EOF or a chunk with done set.
// Blank and malformed lines are skipped. A chunk carrying an error ends the
// stream with a *StreamError and the text received so far. Otherwise it
// returns the full text, or ErrNoResponse if nothing was received.
func (a *Assembler) Consume(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxChunkSize)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var chunk Chunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return a.buf.String(), &StreamError{Message: chunk.Error}
		}
		if chunk.Response != nil {
			a.buf.WriteString(*chunk.Response)
			if a.OnUpdate != nil {
				a.OnUpdate(a.buf.String())
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return a.buf.String(), err
	}

	if a.buf.Len() == 0 {
		return "", ErrNoResponse
	}
	return a.buf.String(), nil
}
