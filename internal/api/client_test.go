package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"

	"github.com/dbxbak/dbxbak/internal/errors"
	"github.com/dbxbak/dbxbak/internal/logging"
	"github.com/dbxbak/dbxbak/internal/utils"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	client := NewClient(ts, Options{
		MaxRetries:   0,
		RetryDelayMs: 1,
		BaseAPI:      server.URL,
		BaseContent:  server.URL,
	}, logging.NewNoOpLogger())
	return client, server
}

func TestMembersList_Pagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(pathMembersList, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", auth)
		}
		fmt.Fprint(w, `{
			"members": [
				{"profile": {"team_member_id": "dbmid:aaa", "email": "ann@corp.com",
					"status": {".tag": "active"}, "name": {"display_name": "Ann A"}}}
			],
			"cursor": "cur-1",
			"has_more": true
		}`)
	})
	mux.HandleFunc(pathMembersListContinue, func(w http.ResponseWriter, r *http.Request) {
		var args map[string]string
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			t.Fatalf("decode args: %v", err)
		}
		if args["cursor"] != "cur-1" {
			t.Errorf("cursor = %q, want cur-1", args["cursor"])
		}
		fmt.Fprint(w, `{
			"members": [
				{"profile": {"team_member_id": "dbmid:bbb", "email": "bob@corp.com",
					"status": {".tag": "active"}, "name": {"display_name": "Bob B"}}}
			],
			"cursor": "",
			"has_more": false
		}`)
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	page, err := client.MembersList(ctx)
	if err != nil {
		t.Fatalf("MembersList() error = %v", err)
	}
	if len(page.Members) != 1 || page.Members[0].ID != "dbmid:aaa" {
		t.Fatalf("unexpected first page: %+v", page)
	}
	if !page.HasMore {
		t.Fatal("expected has_more on first page")
	}

	page, err = client.MembersListContinue(ctx, page.Cursor)
	if err != nil {
		t.Fatalf("MembersListContinue() error = %v", err)
	}
	if len(page.Members) != 1 || page.Members[0].DisplayName != "Bob B" {
		t.Fatalf("unexpected second page: %+v", page)
	}
	if page.HasMore {
		t.Fatal("expected listing to end")
	}
}

func TestListFolder_SelectUserHeaderAndEntryKinds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(pathListFolder, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(utils.SelectUserHeader); got != "dbmid:aaa" {
			t.Errorf("select-user header = %q, want dbmid:aaa", got)
		}
		var args map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			t.Fatalf("decode args: %v", err)
		}
		if args["recursive"] != true {
			t.Error("expected recursive listing")
		}
		fmt.Fprint(w, `{
			"entries": [
				{".tag": "file", "id": "id:1", "path_display": "/Docs/a.txt",
					"size": 10, "server_modified": "2025-06-01T12:00:00Z"},
				{".tag": "folder", "id": "id:2", "path_display": "/Docs"}
			],
			"cursor": "",
			"has_more": false
		}`)
	})

	client, _ := newTestClient(t, mux)

	page, err := client.ListFolder(context.Background(), "dbmid:aaa")
	if err != nil {
		t.Fatalf("ListFolder() error = %v", err)
	}
	if len(page.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(page.Entries))
	}
	if !page.Entries[0].IsFile || page.Entries[0].Size != 10 {
		t.Errorf("file entry parsed wrong: %+v", page.Entries[0])
	}
	if page.Entries[1].IsFile {
		t.Errorf("folder entry parsed as file: %+v", page.Entries[1])
	}
}

func TestDownload_SendsAPIArg(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(pathDownload, func(w http.ResponseWriter, r *http.Request) {
		var arg map[string]string
		if err := json.Unmarshal([]byte(r.Header.Get("Dropbox-API-Arg")), &arg); err != nil {
			t.Fatalf("bad api arg header: %v", err)
		}
		if arg["path"] != "id:42" {
			t.Errorf("path arg = %q, want id:42", arg["path"])
		}
		fmt.Fprint(w, "file-content")
	})

	client, _ := newTestClient(t, mux)

	body, err := client.Download(context.Background(), "dbmid:aaa", "id:42")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer body.Close()

	content, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(content) != "file-content" {
		t.Errorf("content = %q, want file-content", content)
	}
}

func TestErrorResponsesBecomeAPIErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(pathListFolder, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error_summary": "path/not_found/..", "error": {}}`)
	})

	client, _ := newTestClient(t, mux)

	_, err := client.ListFolder(context.Background(), "dbmid:aaa")
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*errors.APIError)
	if !ok {
		t.Fatalf("error type = %T, want *errors.APIError", err)
	}
	if apiErr.StatusCode != 409 {
		t.Errorf("status = %d, want 409", apiErr.StatusCode)
	}
	if apiErr.Summary != "path/not_found/.." {
		t.Errorf("summary = %q, want path/not_found/..", apiErr.Summary)
	}
	if apiErr.IsRetryable() {
		t.Error("409 must not be retryable")
	}
}
