package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/jo-hoe/sitelog/internal/backend/database"
	"github.com/jo-hoe/sitelog/internal/backend/metrics"
	"github.com/jo-hoe/sitelog/internal/common"
)

// DefaultCapacityLimit approximates the size limit of the public JSON bin
const DefaultCapacityLimit = 1_000_000

// Store keeps the gallery as one JSON array document. Every write replaces
// the whole document based on a read made just before it; concurrent
// writers race and the last write wins.
type Store struct {
	db            database.DocumentService
	capacityLimit int
	now           func() time.Time
	newID         func(time.Time) string
}

// NewStore creates a store on top of db. A non-positive capacityLimit uses DefaultCapacityLimit.
func NewStore(db database.DocumentService, capacityLimit int) *Store {
	if capacityLimit <= 0 {
		capacityLimit = DefaultCapacityLimit
	}
	return &Store{
		db:            db,
		capacityLimit: capacityLimit,
		now:           time.Now,
		newID:         generateID,
	}
}

// List returns the stored records. It never fails: a missing document,
// an unexpected shape or a transport error all yield an empty collection.
func (s *Store) List(ctx context.Context) []ProjectImage {
	start := time.Now()
	images, err := s.load(ctx)
	if err != nil {
		metrics.RecordStoreOperation("list", metrics.OutcomeError, time.Since(start))
		slog.Error("gallery: critical cloud fetch failure", "error", err)
		return []ProjectImage{}
	}
	metrics.RecordStoreOperation("list", metrics.OutcomeSuccess, time.Since(start))
	return images
}

func (s *Store) load(ctx context.Context) ([]ProjectImage, error) {
	raw, err := s.db.Load(ctx)
	if errors.Is(err, database.ErrDocumentNotFound) {
		return []ProjectImage{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeCollection(raw)
}

// decodeCollection normalizes the quirks of the backing store: empty body,
// null and {} mean no records, any other non-array shape is logged and
// treated as empty.
func decodeCollection(raw []byte) ([]ProjectImage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []ProjectImage{}, nil
	}

	switch trimmed[0] {
	case '[':
		var images []ProjectImage
		if err := json.Unmarshal(trimmed, &images); err != nil {
			return nil, fmt.Errorf("decode gallery document: %w", err)
		}
		if images == nil {
			images = []ProjectImage{}
		}
		return images, nil
	case '{':
		var object map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &object); err != nil {
			return nil, fmt.Errorf("decode gallery document: %w", err)
		}
		if len(object) > 0 {
			slog.Error("gallery: unexpected data format from cloud", "keys", len(object))
		}
		return []ProjectImage{}, nil
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, fmt.Errorf("decode gallery document: %w", err)
	}
	if isTruthy(value) {
		slog.Error("gallery: unexpected data format from cloud", "value", string(trimmed))
	}
	return []ProjectImage{}, nil
}

// isTruthy reports whether a decoded JSON scalar is non-empty
func isTruthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	}
	return true
}

// Create prepends a new record built from image and the already compressed
// payload, then writes the whole collection back. It fails with
// ErrCapacityExceeded before writing when the document would grow past the
// capacity limit.
func (s *Store) Create(ctx context.Context, image NewImage, payload string) (*ProjectImage, error) {
	start := time.Now()
	record, err := s.create(ctx, image, payload)
	if err != nil {
		metrics.RecordStoreOperation("create", metrics.OutcomeError, time.Since(start))
		return nil, err
	}
	metrics.RecordStoreOperation("create", metrics.OutcomeSuccess, time.Since(start))
	return record, nil
}

func (s *Store) create(ctx context.Context, image NewImage, payload string) (*ProjectImage, error) {
	if !image.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, string(image.Category))
	}

	current := s.List(ctx)

	now := s.now()
	record := ProjectImage{
		ID:          s.newID(now),
		URL:         payload,
		Category:    image.Category,
		Title:       withDefault(image.Title, DefaultTitle),
		Description: withDefault(image.Description, DefaultDescription),
		CreatedAt:   now.UnixMilli(),
	}

	updated := make([]ProjectImage, 0, len(current)+1)
	updated = append(updated, record)
	updated = append(updated, current...)

	document, err := encodeCollection(updated)
	if err != nil {
		return nil, err
	}
	size := documentLength(document)
	if size > s.capacityLimit {
		slog.Warn("gallery: capacity guard rejected upload",
			"estimated_size", size,
			"capacity_limit", s.capacityLimit,
			"records", len(updated))
		return nil, fmt.Errorf("%w (estimated %d of %d characters)", ErrCapacityExceeded, size, s.capacityLimit)
	}

	if err := s.db.Save(ctx, document); err != nil {
		slog.Error("gallery: sync failed", "error", err, "record_id", record.ID)
		return nil, newSyncError(err)
	}
	metrics.RecordDocumentSize(size)

	slog.Info("gallery: record created", "record_id", record.ID, "category", record.Category, "records", len(updated))
	return &record, nil
}

// Delete removes the record with the given id and writes the rest back.
// An unknown id still rewrites the document and succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	start := time.Now()
	if err := s.delete(ctx, id); err != nil {
		metrics.RecordStoreOperation("delete", metrics.OutcomeError, time.Since(start))
		slog.Error("gallery: delete error", "record_id", id, "error", err)
		return err
	}
	metrics.RecordStoreOperation("delete", metrics.OutcomeSuccess, time.Since(start))
	return nil
}

func (s *Store) delete(ctx context.Context, id string) error {
	current := s.List(ctx)

	updated := make([]ProjectImage, 0, len(current))
	for _, image := range current {
		if image.ID != id {
			updated = append(updated, image)
		}
	}

	document, err := encodeCollection(updated)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	if err := s.db.Save(ctx, document); err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	metrics.RecordDocumentSize(documentLength(document))

	slog.Info("gallery: record deleted", "record_id", id, "removed", len(current)-len(updated))
	return nil
}

// encodeCollection serializes without HTML escaping; the capacity limit
// counts characters as JSON.stringify emits them
func encodeCollection(images []ProjectImage) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(images); err != nil {
		return nil, fmt.Errorf("encode gallery document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func newSyncError(err error) *SyncError {
	var statusErr *common.StatusError
	if errors.As(err, &statusErr) {
		return &SyncError{StatusCode: statusErr.StatusCode, Body: statusErr.Body, Err: err}
	}
	return &SyncError{Err: err}
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// documentLength counts the encoded document in UTF-16 code units, the way
// browsers measure a stringified JSON body. The encoder writes U+2028 and
// U+2029 as six character escapes; those count as the single unit a browser
// would have sent.
func documentLength(document []byte) int {
	n := 0
	for i := 0; i < len(document); {
		if document[i] == '\\' && i+1 < len(document) {
			if i+6 <= len(document) && document[i+1] == 'u' {
				if code := string(document[i+2 : i+6]); code == "2028" || code == "2029" {
					n++
					i += 6
					continue
				}
			}
			n += 2
			i += 2
			continue
		}
		r, size := utf8.DecodeRune(document[i:])
		n += max(utf16.RuneLen(r), 1)
		i += size
	}
	return n
}
