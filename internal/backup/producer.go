package backup

import (
	"context"

	"github.com/dbxbak/dbxbak/internal/logging"
	"github.com/dbxbak/dbxbak/internal/types"
)

// enumerate walks one member's full recursive listing and enqueues every
// entry that passes the filter. Errors end this member's enumeration but
// never the run; the partial work already enqueued still downloads.
func (p *Pipeline) enumerate(ctx context.Context, member types.Member) {
	logger := p.logger
	logger.Info("enumerating member",
		logging.F("memberId", member.ID),
		logging.F("member", member.DisplayName),
	)

	page, err := p.lister.ListRoot(ctx, member.ID)
	for {
		if err != nil {
			p.listErrors.Add(1)
			logger.Error("member enumeration failed",
				logging.F("memberId", member.ID),
				logging.F("member", member.DisplayName),
				logging.F("error", err.Error()),
			)
			return
		}

		for _, entry := range page.Entries {
			p.enumerated.Add(1)
			if !ShouldDownload(entry, p.opts.Filter) {
				p.filtered.Add(1)
				continue
			}
			if ctx.Err() != nil {
				return
			}
			p.queue.Put(WorkItem{Entry: entry, Member: member})
		}

		if !page.HasMore {
			logger.Debug("member enumeration complete",
				logging.F("memberId", member.ID),
			)
			return
		}
		page, err = p.lister.ListContinue(ctx, member.ID, page.Cursor)
	}
}
