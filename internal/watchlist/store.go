package watchlist

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/storage/archive"
	"go.uber.org/zap"
)

// Store reads and writes watchlist CSV files through an archive backend.
type Store struct {
	storage archive.Storage
	logger  *zap.Logger
}

// NewStore creates a store on top of storage.
func NewStore(storage archive.Storage, logger ...*zap.Logger) *Store {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Store{storage: storage, logger: l}
}

// Load reads the list of the given kind. A missing file is an empty list.
// Rows without a ticker or that fail to decode are skipped with a warning.
func Load[T Entry](ctx context.Context, s *Store, kind Kind, codec Codec[T]) (*List[T], error) {
	data, err := s.storage.Read(ctx, kind.File())
	if errors.Is(err, core.ErrNotFound) {
		return NewList[T](), nil
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("reading %s: %w", kind.File(), err))
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return NewList[T](), nil
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("parsing %s header: %w", kind.File(), err))
	}
	for i := range header {
		header[i] = normalizeHeader(header[i])
	}

	var entries []T
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("parsing %s line %d: %w", kind.File(), line, err))
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			}
		}

		ticker, err := core.NormalizeTicker(row["ticker"])
		if err != nil {
			s.logger.Warn("skipping watchlist row",
				zap.String("file", kind.File()),
				zap.Int("line", line),
				zap.Error(err),
			)
			continue
		}
		row["ticker"] = ticker

		entry, err := codec.Decode(row)
		if err != nil {
			s.logger.Warn("skipping watchlist row",
				zap.String("file", kind.File()),
				zap.String("ticker", ticker),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, entry)
	}

	return NewList(entries...), nil
}

// Save rewrites the whole list.
func Save[T Entry](ctx context.Context, s *Store, kind Kind, codec Codec[T], list *List[T]) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(codec.Header); err != nil {
		return err
	}
	for _, e := range list.Items() {
		if err := w.Write(codec.Encode(e)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if err := s.storage.Write(ctx, kind.File(), buf.Bytes()); err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("writing %s: %w", kind.File(), err))
	}
	s.logger.Debug("watchlist saved", zap.String("file", kind.File()), zap.Int("entries", list.Len()))
	return nil
}

// normalizeHeader maps "Current Price" or "Ex-Dividend Date" style headers
// onto snake_case field names.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}
