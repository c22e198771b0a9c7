package upstream

import (
	"bufio"
	"bytes"
	"encoding/json"

	"github.com/llmproxy/dialect-proxy/internal/logger"
)

// ReduceNDJSON reduces an Ollama newline-delimited JSON response body to the
// single record the client should see: the last record in the stream, or the
// first record whose "done" field is true, whichever comes first. Blank
// lines and lines that fail to parse as JSON are skipped with a warning.
//
// A body with no embedded newline is treated as a degenerate one-line
// NDJSON stream - i.e. a non-streaming Ollama reply that already arrived as
// a single JSON object - and returned unchanged rather than being run
// through the line scanner.
func ReduceNDJSON(body []byte, log *logger.StyledLogger) []byte {
	if !bytes.ContainsRune(body, '\n') {
		return body
	}

	var last []byte
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record map[string]interface{}
		if err := json.Unmarshal(line, &record); err != nil {
			log.Warn("skipping unparseable ndjson line", "error", err)
			continue
		}

		last = append(last[:0:0], line...)

		if done, ok := record["done"].(bool); ok && done {
			return last
		}
	}

	if err := scanner.Err(); err != nil {
		log.Warn("error scanning ndjson body", "error", err)
	}

	if last == nil {
		return body
	}
	return last
}
