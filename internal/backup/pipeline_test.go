package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dbxbak/dbxbak/internal/testing/mocks"
	"github.com/dbxbak/dbxbak/internal/types"
)

func fileEntry(id, path string, size int64, modified time.Time) types.FileMetadata {
	return types.FileMetadata{
		EntryID:        id,
		PathDisplay:    path,
		Size:           size,
		ServerModified: modified,
		IsFile:         true,
	}
}

func folderEntry(id, path string) types.FileMetadata {
	return types.FileMetadata{EntryID: id, PathDisplay: path}
}

// singlePageLister serves a fixed listing per member ID
func singlePageLister(pages map[string][]types.FileMetadata) *mocks.TeamLister {
	return &mocks.TeamLister{
		ListRootFunc: func(ctx context.Context, memberID string) (types.FolderListPage, error) {
			return types.FolderListPage{Entries: pages[memberID]}, nil
		},
	}
}

func contentFetcher() *mocks.ContentFetcher {
	return &mocks.ContentFetcher{
		FetchToFunc: func(ctx context.Context, memberID, entryID string, w io.Writer) (int64, error) {
			n, err := fmt.Fprintf(w, "content-of-%s", entryID)
			return int64(n), err
		},
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	modified := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	lister := singlePageLister(map[string][]types.FileMetadata{
		"dbmid:ann": {
			fileEntry("id:report", "/Work/report.pdf", 50_000_000, modified),
			folderEntry("id:dir", "/Work"),
		},
		"dbmid:bob": {
			fileEntry("id:video", "/Raw/footage.mov", 200_000_000, modified),
			fileEntry("id:notes", `/Notes/q2: "draft".txt`, 1_000, modified),
		},
	})

	outRoot := t.TempDir()
	p := NewPipeline(lister, contentFetcher(), Options{
		OutputRoot: outRoot,
		Filter:     FilterConfig{MaxSizeMB: 100},
		Workers:    4,
		QueueSize:  2,
	}, nil)

	members := []types.Member{
		{ID: "dbmid:ann", DisplayName: "Ann A"},
		{ID: "dbmid:bob", DisplayName: "Bob B"},
	}
	summary := p.Run(context.Background(), members)

	if p.State() != StateStopped {
		t.Errorf("state = %v, want stopped", p.State())
	}
	if summary.Downloaded != 2 {
		t.Errorf("downloaded = %d, want 2", summary.Downloaded)
	}
	if summary.Filtered != 2 {
		t.Errorf("filtered = %d, want 2 (oversized file and folder)", summary.Filtered)
	}
	if summary.Failed != 0 || summary.ListErrors != 0 {
		t.Errorf("unexpected failures: %+v", summary)
	}

	report := filepath.Join(outRoot, "Work", "report.pdf")
	content, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("reading %s: %v", report, err)
	}
	if string(content) != "content-of-id:report" {
		t.Errorf("content = %q", content)
	}

	info, err := os.Stat(report)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(modified) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), modified)
	}

	// Illegal characters in the remote path are dropped on disk.
	notes := filepath.Join(outRoot, "Notes", "q2 draft.txt")
	if _, err := os.Stat(notes); err != nil {
		t.Errorf("sanitized file missing: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outRoot, "Raw", "footage.mov")); err == nil {
		t.Error("oversized file was downloaded")
	}
}

func TestPipeline_FinishesWhenEveryProducerFails(t *testing.T) {
	lister := &mocks.TeamLister{
		ListRootFunc: func(ctx context.Context, memberID string) (types.FolderListPage, error) {
			return types.FolderListPage{}, errors.New("member suspended")
		},
	}

	p := NewPipeline(lister, contentFetcher(), Options{
		OutputRoot: t.TempDir(),
		Workers:    3,
	}, nil)

	done := make(chan Summary, 1)
	go func() {
		done <- p.Run(context.Background(), []types.Member{
			{ID: "dbmid:a"}, {ID: "dbmid:b"}, {ID: "dbmid:c"},
		})
	}()

	select {
	case summary := <-done:
		if summary.ListErrors != 3 {
			t.Errorf("listErrors = %d, want 3", summary.ListErrors)
		}
		if summary.Downloaded != 0 {
			t.Errorf("downloaded = %d, want 0", summary.Downloaded)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not shut down after producer failures")
	}
}

func TestPipeline_SharedEntryDownloadsOnce(t *testing.T) {
	modified := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	shared := fileEntry("id:shared", "/Team/handbook.pdf", 1_000, modified)
	lister := singlePageLister(map[string][]types.FileMetadata{
		"dbmid:ann": {shared},
		"dbmid:bob": {shared},
	})

	var fetches atomic.Int64
	fetcher := &mocks.ContentFetcher{
		FetchToFunc: func(ctx context.Context, memberID, entryID string, w io.Writer) (int64, error) {
			fetches.Add(1)
			n, err := io.WriteString(w, "shared")
			return int64(n), err
		},
	}

	p := NewPipeline(lister, fetcher, Options{
		OutputRoot: t.TempDir(),
		Workers:    2,
	}, nil)
	summary := p.Run(context.Background(), []types.Member{
		{ID: "dbmid:ann"}, {ID: "dbmid:bob"},
	})

	if got := fetches.Load(); got != 1 {
		t.Errorf("shared entry fetched %d times, want once", got)
	}
	if summary.Downloaded != 1 {
		t.Errorf("downloaded = %d, want 1", summary.Downloaded)
	}
}

func TestPipeline_FailedDownloadDoesNotStopTheRun(t *testing.T) {
	modified := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	lister := singlePageLister(map[string][]types.FileMetadata{
		"dbmid:ann": {
			fileEntry("id:bad", "/bad.txt", 10, modified),
			fileEntry("id:good", "/good.txt", 10, modified),
		},
	})
	fetcher := &mocks.ContentFetcher{
		FetchToFunc: func(ctx context.Context, memberID, entryID string, w io.Writer) (int64, error) {
			if entryID == "id:bad" {
				return 0, errors.New("read timeout")
			}
			n, err := io.WriteString(w, "ok")
			return int64(n), err
		},
	}

	outRoot := t.TempDir()
	p := NewPipeline(lister, fetcher, Options{OutputRoot: outRoot, Workers: 1}, nil)
	summary := p.Run(context.Background(), []types.Member{{ID: "dbmid:ann"}})

	if summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", summary.Failed)
	}
	if summary.Downloaded != 1 {
		t.Errorf("downloaded = %d, want 1", summary.Downloaded)
	}
	if _, err := os.Stat(filepath.Join(outRoot, "good.txt")); err != nil {
		t.Errorf("surviving file missing: %v", err)
	}
}

func TestPipeline_MultiPageEnumeration(t *testing.T) {
	modified := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	lister := &mocks.TeamLister{
		ListRootFunc: func(ctx context.Context, memberID string) (types.FolderListPage, error) {
			return types.FolderListPage{
				Entries: []types.FileMetadata{fileEntry("id:1", "/a.txt", 1, modified)},
				Cursor:  "page-2",
				HasMore: true,
			}, nil
		},
		ListContinueFunc: func(ctx context.Context, memberID, cursor string) (types.FolderListPage, error) {
			if cursor != "page-2" {
				return types.FolderListPage{}, fmt.Errorf("unexpected cursor %q", cursor)
			}
			return types.FolderListPage{
				Entries: []types.FileMetadata{fileEntry("id:2", "/b.txt", 1, modified)},
			}, nil
		},
	}

	p := NewPipeline(lister, contentFetcher(), Options{OutputRoot: t.TempDir(), Workers: 2}, nil)
	summary := p.Run(context.Background(), []types.Member{{ID: "dbmid:ann"}})

	if summary.Downloaded != 2 {
		t.Errorf("downloaded = %d, want 2", summary.Downloaded)
	}
	if summary.Enumerated != 2 {
		t.Errorf("enumerated = %d, want 2", summary.Enumerated)
	}
}

func TestPipeline_ProgressCallback(t *testing.T) {
	modified := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	lister := singlePageLister(map[string][]types.FileMetadata{
		"dbmid:ann": {
			fileEntry("id:1", "/a.txt", 1, modified),
			fileEntry("id:2", "/b.txt", 1, modified),
		},
	})

	var reports atomic.Int64
	p := NewPipeline(lister, contentFetcher(), Options{
		OutputRoot: t.TempDir(),
		Workers:    2,
		OnProgress: func(pr Progress) {
			reports.Add(1)
			if pr.Err == nil && pr.Bytes == 0 {
				t.Error("successful progress report with zero bytes")
			}
		},
	}, nil)
	p.Run(context.Background(), []types.Member{{ID: "dbmid:ann"}})

	if got := reports.Load(); got != 2 {
		t.Errorf("progress reported %d times, want 2", got)
	}
}
