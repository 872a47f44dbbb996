package types

import "time"

// Member is one user account within the team whose files are backed up.
// The ID is the provider-assigned team member ID; it is immutable for a run.
type Member struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	Status      string `json:"status,omitempty"`
}

// FileMetadata is one node returned by a folder listing call.
// EntryID is the provider-assigned stable identity; Size and ServerModified
// are only meaningful when IsFile is true.
type FileMetadata struct {
	EntryID        string    `json:"id"`
	PathDisplay    string    `json:"pathDisplay"`
	Size           int64     `json:"size,omitempty"`
	ServerModified time.Time `json:"serverModified,omitempty"`
	IsFile         bool      `json:"isFile"`
}

// MemberListPage is one page of the team member listing
type MemberListPage struct {
	Members []Member
	Cursor  string
	HasMore bool
}

// FolderListPage is one page of a member's file listing
type FolderListPage struct {
	Entries []FileMetadata
	Cursor  string
	HasMore bool
}

// MemberListRenderer renders members as a table
type MemberListRenderer struct {
	Members []Member
}

func (r *MemberListRenderer) Headers() []string {
	return []string{"ID", "Name", "Email", "Status"}
}

func (r *MemberListRenderer) Rows() [][]string {
	rows := make([][]string, 0, len(r.Members))
	for _, m := range r.Members {
		rows = append(rows, []string{m.ID, m.DisplayName, m.Email, m.Status})
	}
	return rows
}

func (r *MemberListRenderer) EmptyMessage() string {
	return "No team members found."
}
