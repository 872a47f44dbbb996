package utils

// Dropbox Business API base URLs
const (
	APIBase     = "https://api.dropboxapi.com/2"
	ContentBase = "https://content.dropboxapi.com/2"
)

// SelectUserHeader makes an API call act as a specific team member
const SelectUserHeader = "Dropbox-API-Select-User"

// Backup defaults
const (
	DefaultMaxFileSizeMB   = 100
	DefaultDownloadWorkers = 8
	DefaultQueueSize       = 100_000
	// MegabyteBytes converts the --maxsize flag to bytes. Decimal on
	// purpose: the size filter has always been 10^6 per MB.
	MegabyteBytes = 1_000_000
)

// Retry configuration for the HTTP transport
const (
	DefaultMaxRetries   = 3
	DefaultRetryDelayMs = 1000
	MaxRetryDelayMs     = 32000
)

// Token environment variable
const TokenEnvVar = "DROPBOX_TEAM_TOKEN"

// Keyring service name for stored tokens
const KeyringService = "dbxbak"

// Schema version for JSON output
const SchemaVersion = "1.0"
