// Package members enumerates the team roster once, up front, so the
// backup works from a stable member snapshot.
package members

import (
	"context"

	"github.com/dbxbak/dbxbak/internal/logging"
	"github.com/dbxbak/dbxbak/internal/types"
)

// PageSource fetches one page of team members at a time; an empty cursor
// means the first page.
type PageSource interface {
	MembersPage(ctx context.Context, cursor string) (types.MemberListPage, error)
}

// ListAll drains the paginated roster into a single slice. Any page
// failing fails the whole listing; a backup over a partial roster would
// silently skip people.
func ListAll(ctx context.Context, source PageSource, logger logging.Logger) ([]types.Member, error) {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}

	var all []types.Member
	cursor := ""
	for {
		page, err := source.MembersPage(ctx, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Members...)
		logger.Debug("member page fetched",
			logging.F("count", len(page.Members)),
			logging.F("total", len(all)),
		)
		if !page.HasMore {
			break
		}
		cursor = page.Cursor
	}

	logger.Info("team roster loaded", logging.F("members", len(all)))
	return all, nil
}
