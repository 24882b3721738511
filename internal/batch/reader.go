// Package batch evaluates many encounters read from a JSON Lines file.
package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"

	"github.com/gyeh/claimengine/internal/model"
)

const maxLineBytes = 4 << 20

// Item is one input line. Err is set when the line could not be decoded.
type Item struct {
	Line    int
	Request *model.EvaluationRequest
	Err     error
}

type gzipFile struct {
	*pgzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Open returns a reader over path. "-" reads stdin; a .gz suffix is
// decompressed with pgzip.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch input: %w", err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := pgzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip batch input: %w", err)
	}
	return &gzipFile{Reader: gz, f: f}, nil
}

// ReadRequests decodes one EvaluationRequest per non-blank line. A malformed
// line becomes an Item with Err set; only I/O failures abort the read.
func ReadRequests(r io.Reader) ([]Item, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var items []Item
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var req model.EvaluationRequest
		if err := json.Unmarshal([]byte(text), &req); err != nil {
			items = append(items, Item{Line: line, Err: fmt.Errorf("line %d: %w", line, err)})
			continue
		}
		items = append(items, Item{Line: line, Request: &req})
	}
	if err := sc.Err(); err != nil {
		return items, fmt.Errorf("read batch input at line %d: %w", line+1, err)
	}
	return items, nil
}
