package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arisanhub/arisand/internal/domain"
)

// WinnerArchiveStore is the narrow read surface the archiver needs from the
// winner log. The Postgres WinnerStore satisfies it through ListBefore.
type WinnerArchiveStore interface {
	// ListBefore returns all winner rows recorded strictly before the cutoff.
	ListBefore(ctx context.Context, before time.Time) ([]domain.WinnerRecord, error)
}

// Payloads above multipartThreshold upload through the S3 multipart manager
// instead of a single PUT. partSize is the S3 minimum part size.
const (
	multipartThreshold = 8 << 20
	multipartPartSize  = 5 << 20
)

// ArchiveImpl implements domain.Archiver: it serializes winner rows and
// decoded event history to JSONL and uploads them to S3.
//
// Archived rows are not deleted from the primary store here; pruning is a
// separate, explicit step run after the archive has been verified.
type ArchiveImpl struct {
	writer  domain.BlobWriter
	reader  domain.BlobReader
	winners WinnerArchiveStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, reader domain.BlobReader, winners WinnerArchiveStore) *ArchiveImpl {
	return &ArchiveImpl{
		writer:  writer,
		reader:  reader,
		winners: winners,
	}
}

// ArchiveWinners uploads all winner rows recorded before the cutoff to
// archive/winners/YYYY-MM.jsonl and returns the archived count. A month whose
// archive object already exists is skipped, so re-runs are idempotent.
func (a *ArchiveImpl) ArchiveWinners(ctx context.Context, before time.Time) (int64, error) {
	path := archivePath("winners", before)

	if exists, err := a.reader.Exists(ctx, path); err == nil && exists {
		return 0, nil
	}

	winners, err := a.winners.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive winners query: %w", err)
	}
	if len(winners) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(winners)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive winners marshal: %w", err)
	}
	if err := a.upload(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive winners upload: %w", err)
	}
	return int64(len(winners)), nil
}

// ArchiveHistory uploads one group's decoded event feed to
// archive/history/{group}.jsonl, replacing any previous snapshot for that
// group.
func (a *ArchiveImpl) ArchiveHistory(ctx context.Context, groupAddress string, events []domain.EventRecord) error {
	if len(events) == 0 {
		return nil
	}

	buf, err := marshalJSONL(events)
	if err != nil {
		return fmt.Errorf("s3blob: archive history marshal: %w", err)
	}
	path := fmt.Sprintf("archive/history/%s.jsonl", domain.NormalizeAddress(groupAddress))
	if err := a.upload(ctx, path, buf); err != nil {
		return fmt.Errorf("s3blob: archive history upload: %w", err)
	}
	return nil
}

// upload picks the plain PUT or the multipart manager based on payload size.
func (a *ArchiveImpl) upload(ctx context.Context, path string, buf []byte) error {
	if len(buf) > multipartThreshold {
		return a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), multipartPartSize)
	}
	return a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
}

// archivePath builds the S3 key for a monthly archive file.
//
//	archive/winners/2026-08.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
