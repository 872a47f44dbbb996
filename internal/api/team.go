package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/dbxbak/dbxbak/internal/errors"
	"github.com/dbxbak/dbxbak/internal/types"
	"github.com/dbxbak/dbxbak/internal/utils"
)

// API endpoint paths, relative to the api/content base URLs
const (
	pathMembersList         = "/team/members/list_v2"
	pathMembersListContinue = "/team/members/list/continue_v2"
	pathListFolder          = "/files/list_folder"
	pathListFolderContinue  = "/files/list_folder/continue"
	pathDownload            = "/files/download"
)

const listFolderPageLimit = 2000

type memberProfile struct {
	TeamMemberID string `json:"team_member_id"`
	Email        string `json:"email"`
	Status       struct {
		Tag string `json:".tag"`
	} `json:"status"`
	Name struct {
		DisplayName string `json:"display_name"`
	} `json:"name"`
}

type membersListResponse struct {
	Members []struct {
		Profile memberProfile `json:"profile"`
	} `json:"members"`
	Cursor  string `json:"cursor"`
	HasMore bool   `json:"has_more"`
}

type folderEntry struct {
	Tag            string    `json:".tag"`
	ID             string    `json:"id"`
	PathDisplay    string    `json:"path_display"`
	Size           int64     `json:"size"`
	ServerModified time.Time `json:"server_modified"`
}

type listFolderResponse struct {
	Entries []folderEntry `json:"entries"`
	Cursor  string        `json:"cursor"`
	HasMore bool          `json:"has_more"`
}

type apiErrorBody struct {
	ErrorSummary string `json:"error_summary"`
}

func newAPIError(resp *http.Response, endpoint string) *errors.APIError {
	apiErr := &errors.APIError{
		StatusCode: resp.StatusCode,
		Endpoint:   endpoint,
	}
	if body, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		var parsed apiErrorBody
		if json.Unmarshal(body, &parsed) == nil && parsed.ErrorSummary != "" {
			apiErr.Summary = parsed.ErrorSummary
		} else {
			apiErr.Summary = string(bytes.TrimSpace(body))
		}
	}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if seconds, err := strconv.Atoi(ra); err == nil {
			apiErr.RetryAfter = seconds
		}
	}
	return apiErr
}

// postJSON posts an RPC-style request and decodes the JSON response.
// memberID, when non-empty, makes the call act as that team member.
func (c *Client) postJSON(ctx context.Context, endpoint, memberID string, args, out interface{}) error {
	payload, err := json.Marshal(args)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseAPI+endpoint, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if memberID != "" {
		req.Header.Set(utils.SelectUserHeader, memberID)
	}

	resp, err := c.do(req, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}

func toMemberPage(resp membersListResponse) types.MemberListPage {
	page := types.MemberListPage{
		Cursor:  resp.Cursor,
		HasMore: resp.HasMore,
		Members: make([]types.Member, 0, len(resp.Members)),
	}
	for _, m := range resp.Members {
		page.Members = append(page.Members, types.Member{
			ID:          m.Profile.TeamMemberID,
			DisplayName: m.Profile.Name.DisplayName,
			Email:       m.Profile.Email,
			Status:      m.Profile.Status.Tag,
		})
	}
	return page
}

func toFolderPage(resp listFolderResponse) types.FolderListPage {
	page := types.FolderListPage{
		Cursor:  resp.Cursor,
		HasMore: resp.HasMore,
		Entries: make([]types.FileMetadata, 0, len(resp.Entries)),
	}
	for _, e := range resp.Entries {
		page.Entries = append(page.Entries, types.FileMetadata{
			EntryID:        e.ID,
			PathDisplay:    e.PathDisplay,
			Size:           e.Size,
			ServerModified: e.ServerModified,
			IsFile:         e.Tag == "file",
		})
	}
	return page
}

// MembersList fetches the first page of the team member listing
func (c *Client) MembersList(ctx context.Context) (types.MemberListPage, error) {
	var resp membersListResponse
	args := map[string]interface{}{"limit": 100}
	if err := c.postJSON(ctx, pathMembersList, "", args, &resp); err != nil {
		return types.MemberListPage{}, err
	}
	return toMemberPage(resp), nil
}

// MembersListContinue fetches the next page of the team member listing
func (c *Client) MembersListContinue(ctx context.Context, cursor string) (types.MemberListPage, error) {
	var resp membersListResponse
	args := map[string]string{"cursor": cursor}
	if err := c.postJSON(ctx, pathMembersListContinue, "", args, &resp); err != nil {
		return types.MemberListPage{}, err
	}
	return toMemberPage(resp), nil
}

// ListFolder starts a recursive listing of a member's root folder
func (c *Client) ListFolder(ctx context.Context, memberID string) (types.FolderListPage, error) {
	var resp listFolderResponse
	args := map[string]interface{}{
		"path":      "",
		"recursive": true,
		"limit":     listFolderPageLimit,
	}
	if err := c.postJSON(ctx, pathListFolder, memberID, args, &resp); err != nil {
		return types.FolderListPage{}, err
	}
	return toFolderPage(resp), nil
}

// ListFolderContinue fetches the next page of a member's folder listing
func (c *Client) ListFolderContinue(ctx context.Context, memberID, cursor string) (types.FolderListPage, error) {
	var resp listFolderResponse
	args := map[string]string{"cursor": cursor}
	if err := c.postJSON(ctx, pathListFolderContinue, memberID, args, &resp); err != nil {
		return types.FolderListPage{}, err
	}
	return toFolderPage(resp), nil
}

// Download fetches a file's content as that team member. The caller must
// close the returned reader.
func (c *Client) Download(ctx context.Context, memberID, entryID string) (io.ReadCloser, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseContent+pathDownload, nil)
	if err != nil {
		return nil, err
	}
	arg, err := json.Marshal(map[string]string{"path": entryID})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Dropbox-API-Arg", string(arg))
	if memberID != "" {
		req.Header.Set(utils.SelectUserHeader, memberID)
	}

	resp, err := c.do(req, pathDownload)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// DownloadTo streams a file's content into the given writer
func (c *Client) DownloadTo(ctx context.Context, memberID, entryID string, w io.Writer) (int64, error) {
	body, err := c.Download(ctx, memberID, entryID)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	n, err := io.Copy(w, body)
	if err != nil {
		return n, fmt.Errorf("copying download body: %w", err)
	}
	return n, nil
}
