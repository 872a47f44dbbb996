package backup

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dbxbak/dbxbak/internal/logging"
)

// consume drains the queue until it receives a sentinel. Every failure is
// logged and counted; nothing a single file does can stop the pool.
func (p *Pipeline) consume(ctx context.Context, id int) {
	logger := p.logger
	logger.Debug("consumer started", logging.F("consumer", id))

	for {
		item, ok := p.queue.Get()
		if !ok {
			logger.Debug("consumer stopping", logging.F("consumer", id))
			return
		}

		bytes, err := p.download(ctx, item)
		if err != nil {
			p.failed.Add(1)
			logger.Error("download failed",
				logging.F("consumer", id),
				logging.F("memberId", item.Member.ID),
				logging.F("path", item.Entry.PathDisplay),
				logging.F("error", err.Error()),
			)
		} else {
			p.downloaded.Add(1)
			p.bytesWritten.Add(bytes)
			logger.Debug("download complete",
				logging.F("consumer", id),
				logging.F("path", item.Entry.PathDisplay),
				logging.F("bytes", bytes),
			)
		}

		if p.opts.OnProgress != nil {
			p.opts.OnProgress(Progress{Item: item, Bytes: bytes, Err: err})
		}
	}
}

// localPath maps a remote display path to its destination on disk. The
// sanitized remote path keeps its directory structure; the leading slash
// goes so the result stays inside the output root.
func (p *Pipeline) localPath(remote string) string {
	rel := strings.TrimPrefix(p.opts.Sanitize(remote), "/")
	return filepath.Join(p.opts.OutputRoot, filepath.FromSlash(rel))
}

// download fetches one file into place and restores its remote mtime
func (p *Pipeline) download(ctx context.Context, item WorkItem) (int64, error) {
	dest := p.localPath(item.Entry.PathDisplay)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, err
	}

	n, err := p.fetcher.FetchTo(ctx, item.Member.ID, item.Entry.EntryID, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, err
	}

	if !item.Entry.ServerModified.IsZero() {
		if err := os.Chtimes(dest, item.Entry.ServerModified, item.Entry.ServerModified); err != nil {
			// The content is safe on disk; a lost mtime is not worth
			// failing the file over.
			p.logger.Warn("could not restore modification time",
				logging.F("path", dest),
				logging.F("error", err.Error()),
			)
		}
	}
	return n, nil
}
