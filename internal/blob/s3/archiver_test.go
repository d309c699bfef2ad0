package s3blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arisanhub/arisand/internal/domain"
)

type memBlob struct {
	objects   map[string][]byte
	multipart []string
}

func newMemBlob() *memBlob { return &memBlob{objects: map[string][]byte{}} }

func (m *memBlob) Put(_ context.Context, path string, data io.Reader, _ string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.objects[path] = buf
	return nil
}

func (m *memBlob) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	m.multipart = append(m.multipart, path)
	return m.Put(ctx, path, data, "")
}

func (m *memBlob) Get(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlob) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	var infos []domain.BlobInfo
	for path, data := range m.objects {
		if strings.HasPrefix(path, prefix) {
			infos = append(infos, domain.BlobInfo{Path: path, Size: int64(len(data))})
		}
	}
	return infos, nil
}

func (m *memBlob) Exists(_ context.Context, path string) (bool, error) {
	_, ok := m.objects[path]
	return ok, nil
}

func (m *memBlob) Delete(_ context.Context, path string) error {
	delete(m.objects, path)
	return nil
}

type stubWinners struct {
	recs []domain.WinnerRecord
}

func (s *stubWinners) ListBefore(context.Context, time.Time) ([]domain.WinnerRecord, error) {
	return s.recs, nil
}

func TestArchiveWinnersWritesMonthlyJSONL(t *testing.T) {
	blob := newMemBlob()
	winners := &stubWinners{recs: []domain.WinnerRecord{
		{GroupAddress: "0xaaa", WinnerAddress: "0x1", CycleNumber: 1, PrizeAmount: "15"},
		{GroupAddress: "0xaaa", WinnerAddress: "0x2", CycleNumber: 2, PrizeAmount: "15"},
	}}
	a := NewArchiver(blob, blob, winners)

	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	count, err := a.ArchiveWinners(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	data, ok := blob.objects["archive/winners/2026-08.jsonl"]
	require.True(t, ok)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2, "one JSON object per line")
	assert.Contains(t, lines[0], `"0xaaa"`)
}

func TestArchiveWinnersIdempotentPerMonth(t *testing.T) {
	blob := newMemBlob()
	winners := &stubWinners{recs: []domain.WinnerRecord{{GroupAddress: "0xaaa"}}}
	a := NewArchiver(blob, blob, winners)
	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	count, err := a.ArchiveWinners(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = a.ArchiveWinners(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Zero(t, count, "existing month archives are not rewritten")
}

func TestArchiveWinnersEmptyIsNoOp(t *testing.T) {
	blob := newMemBlob()
	a := NewArchiver(blob, blob, &stubWinners{})

	count, err := a.ArchiveWinners(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, blob.objects)
}

func TestArchiveHistory(t *testing.T) {
	blob := newMemBlob()
	a := NewArchiver(blob, blob, &stubWinners{})

	events := []domain.EventRecord{
		{Type: domain.EventWinner, Participant: "0x1", Amount: "15", BlockNumber: 9},
		{Type: domain.EventJoined, Participant: "0x1", Amount: "5", BlockNumber: 5},
	}
	require.NoError(t, a.ArchiveHistory(context.Background(), "0xAAA", events))

	data, ok := blob.objects["archive/history/0xaaa.jsonl"]
	require.True(t, ok, "group key is normalized")
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)

	require.NoError(t, a.ArchiveHistory(context.Background(), "0xbbb", nil))
	_, ok = blob.objects["archive/history/0xbbb.jsonl"]
	assert.False(t, ok, "empty feeds are not uploaded")
	assert.Empty(t, blob.multipart, "small feeds take the single PUT path")
}

func TestArchiveHistoryLargeFeedUsesMultipart(t *testing.T) {
	blob := newMemBlob()
	a := NewArchiver(blob, blob, &stubWinners{})

	pad := strings.Repeat("f", 1024)
	events := make([]domain.EventRecord, 9*1024)
	for i := range events {
		events[i] = domain.EventRecord{Type: domain.EventJoined, TxHash: pad, BlockNumber: uint64(i)}
	}
	require.NoError(t, a.ArchiveHistory(context.Background(), "0xaaa", events))

	require.Len(t, blob.multipart, 1)
	assert.Equal(t, "archive/history/0xaaa.jsonl", blob.multipart[0])
}
