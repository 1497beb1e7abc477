package chat

// Bus event kinds published by the core. Failure events carry the typed error
// as payload; the others carry the value named in the comment.
const (
	EventContactsLoaded  = "chat.contacts_loaded"  // []Contact
	EventContactsFailed  = "chat.contacts_failed"  // *FetchError
	EventStateChanged    = "chat.state_changed"    // StateChange
	EventOpenFailed      = "chat.open_failed"      // *ConversationStartError
	EventMessagesChanged = "chat.messages_changed" // conversation ID
	EventFetchFailed     = "chat.fetch_failed"     // *FetchError
	EventSendFailed      = "chat.send_failed"      // *SendError
	EventMessageSent     = "chat.message_sent"     // local message ID
	EventPresenceChanged = "chat.presence_changed" // []string online IDs
)
