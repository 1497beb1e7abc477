package store

// Roles of marketplace users.
const (
	RoleClient = "client"
	RoleLawyer = "lawyer"
)

// Hire statuses. Only accepted hires make two users contacts.
const (
	HirePending   = "pending"
	HireAccepted  = "accepted"
	HireDeclined  = "declined"
)

// User is a marketplace account.
type User struct {
	ID         string
	Name       string
	Handle     string
	Picture    string
	Role       string
	LastSeenAt int64
}

// Hire links a client to a lawyer.
type Hire struct {
	ClientID string
	LawyerID string
	Status   string
}

// Conversation is the persistent thread between two users.
type Conversation struct {
	ID        string
	UserLow   string
	UserHigh  string
	CreatedAt int64
}

// Message is one stored chat message. CreatedAt is in Unix milliseconds.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Body           string
	CreatedAt      int64
}

// Has reports whether userID takes part in the conversation.
func (c *Conversation) Has(userID string) bool {
	return c.UserLow == userID || c.UserHigh == userID
}

// Peer returns the other participant.
func (c *Conversation) Peer(userID string) string {
	if c.UserLow == userID {
		return c.UserHigh
	}
	return c.UserLow
}
