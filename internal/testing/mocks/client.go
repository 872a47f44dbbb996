// Package mocks provides function-field test doubles for the API
// surfaces the backup pipeline and CLI consume.
package mocks

import (
	"context"
	"errors"
	"io"

	"github.com/dbxbak/dbxbak/internal/types"
)

// TeamLister is a controllable backup.Lister
type TeamLister struct {
	ListRootFunc     func(ctx context.Context, memberID string) (types.FolderListPage, error)
	ListContinueFunc func(ctx context.Context, memberID, cursor string) (types.FolderListPage, error)
}

func (m *TeamLister) ListRoot(ctx context.Context, memberID string) (types.FolderListPage, error) {
	if m.ListRootFunc != nil {
		return m.ListRootFunc(ctx, memberID)
	}
	return types.FolderListPage{}, errors.New("ListRootFunc not set")
}

func (m *TeamLister) ListContinue(ctx context.Context, memberID, cursor string) (types.FolderListPage, error) {
	if m.ListContinueFunc != nil {
		return m.ListContinueFunc(ctx, memberID, cursor)
	}
	return types.FolderListPage{}, errors.New("ListContinueFunc not set")
}

// ContentFetcher is a controllable backup.Fetcher
type ContentFetcher struct {
	FetchToFunc func(ctx context.Context, memberID, entryID string, w io.Writer) (int64, error)
}

func (m *ContentFetcher) FetchTo(ctx context.Context, memberID, entryID string, w io.Writer) (int64, error) {
	if m.FetchToFunc != nil {
		return m.FetchToFunc(ctx, memberID, entryID, w)
	}
	return 0, errors.New("FetchToFunc not set")
}

// MemberPager is a controllable members.PageSource
type MemberPager struct {
	MembersPageFunc func(ctx context.Context, cursor string) (types.MemberListPage, error)
}

func (m *MemberPager) MembersPage(ctx context.Context, cursor string) (types.MemberListPage, error) {
	if m.MembersPageFunc != nil {
		return m.MembersPageFunc(ctx, cursor)
	}
	return types.MemberListPage{}, errors.New("MembersPageFunc not set")
}
