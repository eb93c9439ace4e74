package session

// Credential is the persisted login of one client.
type Credential struct {
	ClientID string
	Token    string

	SavedAt   int64
	ExpiresAt int64
}
