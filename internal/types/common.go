package types

// OutputFormat selects how command results are rendered
type OutputFormat string

const (
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
)

// RequestType identifies the kind of API request for logging and error context
type RequestType string

const (
	RequestTypeMemberList   RequestType = "member_list"
	RequestTypeFolderList   RequestType = "folder_list"
	RequestTypeFileDownload RequestType = "file_download"
)

// RequestContext carries per-request metadata through the API layer
type RequestContext struct {
	MemberID    string
	RequestType RequestType
	TraceID     string
}

// GlobalFlags holds flags shared by all commands
type GlobalFlags struct {
	OutputFormat OutputFormat
	Quiet        bool
	Verbose      bool
	Debug        bool
	LogFile      string
	Config       string
	Token        string
	JSON         bool
}

// CLIError is the stable, machine-readable error shape
type CLIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"httpStatus,omitempty"`
	APISummary string                 `json:"apiSummary,omitempty"`
	Retryable  bool                   `json:"retryable,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// CLIOutput is the envelope for JSON command output
type CLIOutput struct {
	SchemaVersion string      `json:"schemaVersion"`
	TraceID       string      `json:"traceId,omitempty"`
	Command       string      `json:"command"`
	Data          interface{} `json:"data,omitempty"`
	Warnings      []string    `json:"warnings,omitempty"`
	Errors        []CLIError  `json:"errors"`
}

type TableRenderer interface {
	Headers() []string
	Rows() [][]string
	EmptyMessage() string
}
