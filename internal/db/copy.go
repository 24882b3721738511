package db

import (
	"github.com/jackc/pgx/v5"
)

// ChannelSource implements pgx.CopyFromSource by reading value rows from a
// channel. This provides natural backpressure between the Parquet reader and
// the COPY writer.
type ChannelSource struct {
	ch      <-chan []any
	current []any
}

// NewChannelSource creates a CopyFromSource backed by a channel. Each row must
// carry values in COPY column order.
func NewChannelSource(ch <-chan []any) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Next advances to the next row. Returns false when the channel is closed.
func (s *ChannelSource) Next() bool {
	row, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = row
	return true
}

func (s *ChannelSource) Values() ([]any, error) {
	return s.current, nil
}

func (s *ChannelSource) Err() error {
	return nil
}

var _ pgx.CopyFromSource = (*ChannelSource)(nil)
