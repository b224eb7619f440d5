package catalog_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"transformrecorder/internal/capture"
	"transformrecorder/internal/catalog"
	"transformrecorder/internal/sequence"
	"transformrecorder/internal/testsupport"
	"transformrecorder/internal/transform"
)

func sessionRecord(id string, stopped time.Time, ordinals ...int) capture.SessionRecord {
	rec := capture.SessionRecord{
		ID:        id,
		StartedAt: stopped.Add(-2 * time.Second),
		StoppedAt: stopped,
		Duration:  2,
		Events:    60,
	}
	for _, ordinal := range ordinals {
		rec.Files = append(rec.Files, sequence.Result{
			Ordinal: ordinal,
			Channel: "Channel",
			Path:    filepath.Join("/data", id, "file.mha"),
			Frames:  60,
			Size:    4096,
			SHA256:  "abc123",
		})
	}
	return rec
}

func TestRecordSessionAndQuery(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog())
	cat := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	if err := cat.RecordSession(ctx, sessionRecord("first", base, 3, 1)); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if err := cat.RecordSession(ctx, sessionRecord("second", base.Add(time.Minute), 2)); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}

	files, err := cat.FilesForSession(ctx, "first")
	if err != nil {
		t.Fatalf("FilesForSession: %v", err)
	}
	if len(files) != 2 || files[0].Ordinal != 1 || files[1].Ordinal != 3 {
		t.Fatalf("unexpected session files %+v", files)
	}
	if files[0].Frames != 60 || files[0].Size != 4096 || files[0].SHA256 != "abc123" {
		t.Fatalf("unexpected file fields %+v", files[0])
	}
	if !files[0].CreatedAt.Equal(base) {
		t.Fatalf("unexpected created_at %v", files[0].CreatedAt)
	}

	latest, err := cat.ListFiles(ctx, 1)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(latest) != 1 || latest[0].SessionID != "second" {
		t.Fatalf("expected newest file first, got %+v", latest)
	}
	all, err := cat.ListFiles(ctx, 0)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 files, got %d", len(all))
	}

	sess, err := cat.GetSession(ctx, "first")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess == nil || sess.Files != 2 || sess.Events != 60 || sess.Duration != 2 {
		t.Fatalf("unexpected session %+v", sess)
	}
	if !sess.StartedAt.Equal(base.Add(-2 * time.Second)) {
		t.Fatalf("unexpected start %v", sess.StartedAt)
	}
	missing, err := cat.GetSession(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil session, got %+v err=%v", missing, err)
	}
}

func TestRecordSessionRejectsDuplicate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cat := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	rec := sessionRecord("dup", time.Now(), 1)
	if err := cat.RecordSession(ctx, rec); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if err := cat.RecordSession(ctx, rec); err == nil {
		t.Fatal("expected duplicate session id to fail")
	}
	files, err := cat.FilesForSession(ctx, "dup")
	if err != nil {
		t.Fatalf("FilesForSession: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("failed insert must roll back, got %d files", len(files))
	}
	if err := cat.RecordSession(ctx, capture.SessionRecord{}); err == nil {
		t.Fatal("expected empty session id to fail")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")
	cat, err := catalog.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := cat.RecordSession(context.Background(), sessionRecord("kept", time.Now(), 2)); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if err := cat.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := catalog.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	files, err := reopened.ListFiles(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 || files[0].SessionID != "kept" {
		t.Fatalf("unexpected files after reopen %+v", files)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	cat, err := catalog.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	cat.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := catalog.Open(path); !errors.Is(err, catalog.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestControllerRecordsIntoCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog())
	cat := testsupport.MustOpenCatalog(t, cfg)

	enc := sequence.NewEncoder(cfg.Paths.OutputDir)
	ctl := capture.NewController(capture.WithEncoder(enc), capture.WithCatalog(cat))
	if err := ctl.BindChannel(2, transform.NewStatic("Stylus")); err != nil {
		t.Fatal(err)
	}
	if err := ctl.Record(); err != nil {
		t.Fatal(err)
	}
	if err := ctl.OnSourceChanged(); err != nil {
		t.Fatal(err)
	}
	result, err := ctl.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}

	files, err := cat.FilesForSession(context.Background(), result.SessionID)
	if err != nil {
		t.Fatalf("FilesForSession: %v", err)
	}
	if len(files) != 1 || files[0].Path != result.Files[0].Path || files[0].Channel != "Stylus" {
		t.Fatalf("unexpected cataloged files %+v", files)
	}
}
