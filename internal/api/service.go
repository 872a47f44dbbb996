package api

import (
	"context"
	"io"

	"github.com/dbxbak/dbxbak/internal/types"
)

// TeamService wraps a Client with per-call request contexts and error
// classification. It is the surface the backup pipeline consumes.
type TeamService struct {
	client *Client
}

// NewTeamService creates the traced service facade over a client
func NewTeamService(client *Client) *TeamService {
	return &TeamService{client: client}
}

// ListRoot starts a recursive listing of one member's root folder
func (s *TeamService) ListRoot(ctx context.Context, memberID string) (types.FolderListPage, error) {
	reqCtx := NewRequestContext(memberID, types.RequestTypeFolderList)
	return Execute(ctx, s.client, reqCtx, func() (types.FolderListPage, error) {
		return s.client.ListFolder(ctx, memberID)
	})
}

// ListContinue resumes a member's folder listing from a cursor
func (s *TeamService) ListContinue(ctx context.Context, memberID, cursor string) (types.FolderListPage, error) {
	reqCtx := NewRequestContext(memberID, types.RequestTypeFolderList)
	return Execute(ctx, s.client, reqCtx, func() (types.FolderListPage, error) {
		return s.client.ListFolderContinue(ctx, memberID, cursor)
	})
}

// FetchTo streams one file's content into w, acting as the given member
func (s *TeamService) FetchTo(ctx context.Context, memberID, entryID string, w io.Writer) (int64, error) {
	reqCtx := NewRequestContext(memberID, types.RequestTypeFileDownload)
	return Execute(ctx, s.client, reqCtx, func() (int64, error) {
		return s.client.DownloadTo(ctx, memberID, entryID, w)
	})
}

// MembersPage fetches one page of the team roster; an empty cursor
// starts from the beginning.
func (s *TeamService) MembersPage(ctx context.Context, cursor string) (types.MemberListPage, error) {
	reqCtx := NewRequestContext("", types.RequestTypeMemberList)
	return Execute(ctx, s.client, reqCtx, func() (types.MemberListPage, error) {
		if cursor == "" {
			return s.client.MembersList(ctx)
		}
		return s.client.MembersListContinue(ctx, cursor)
	})
}
