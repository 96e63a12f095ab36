package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/kalshibot/internal/domain"
)

// archiveBatchSize caps how many rows one archive file holds; larger backlogs
// are drained across multiple calls and files.
const archiveBatchSize = 10000

// Archiver implements domain.Archiver: aged rows are read from the primary
// store, serialized to JSONL, uploaded to object storage, and only then
// deleted from the database. An upload failure leaves the rows in place for
// the next run.
type Archiver struct {
	writer    domain.BlobWriter
	snapshots domain.SnapshotStore
	decisions domain.DecisionStore
}

// NewArchiver creates an Archiver over the given writer and stores.
func NewArchiver(writer domain.BlobWriter, snapshots domain.SnapshotStore, decisions domain.DecisionStore) *Archiver {
	return &Archiver{
		writer:    writer,
		snapshots: snapshots,
		decisions: decisions,
	}
}

// ArchiveSnapshots moves book snapshots older than the cutoff to
// archive/snapshots/ and returns the number of rows deleted.
func (a *Archiver) ArchiveSnapshots(ctx context.Context, before time.Time) (int64, error) {
	rows, err := a.snapshots.ListBefore(ctx, before, archiveBatchSize)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive snapshots query: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(rows)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive snapshots marshal: %w", err)
	}

	path := archivePath("snapshots", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive snapshots upload: %w", err)
	}

	// Delete bounded to the last archived row so rows newer than the batch
	// survive for the next run.
	cutoff := rows[len(rows)-1].Timestamp.Add(time.Nanosecond)
	if cutoff.After(before) {
		cutoff = before
	}
	deleted, err := a.snapshots.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive snapshots delete: %w", err)
	}
	return deleted, nil
}

// ArchiveDecisions moves quoting decisions older than the cutoff to
// archive/decisions/ and returns the number of rows deleted.
func (a *Archiver) ArchiveDecisions(ctx context.Context, before time.Time) (int64, error) {
	rows, err := a.decisions.ListBefore(ctx, before, archiveBatchSize)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive decisions query: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(rows)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive decisions marshal: %w", err)
	}

	path := archivePath("decisions", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive decisions upload: %w", err)
	}

	cutoff := rows[len(rows)-1].CreatedAt.Add(time.Nanosecond)
	if cutoff.After(before) {
		cutoff = before
	}
	deleted, err := a.decisions.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive decisions delete: %w", err)
	}
	return deleted, nil
}

// archivePath builds the object key for an archive file, partitioned by the
// cutoff's date plus a timestamp so repeated runs never collide.
//
//	archive/snapshots/2025-01/20250131T030000Z.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s/%s.jsonl",
		kind, before.Format("2006-01"), time.Now().UTC().Format("20060102T150405Z"))
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
var _ domain.Archiver = (*Archiver)(nil)
