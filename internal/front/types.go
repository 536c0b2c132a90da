package front

// Contact is the platform-native party on a conversation or message.
// Handle is an email string, a phone-like string, or a social username.
type Contact struct {
	Handle string `json:"handle"`
	Name   string `json:"name"`
}

type Conversation struct {
	ID        string  `json:"id"`
	Subject   string  `json:"subject"`
	Recipient Contact `json:"recipient"`
	ChannelID string  `json:"channel_id"`
}

type Message struct {
	ID        string  `json:"id"`
	IsInbound bool    `json:"is_inbound"`
	IsDraft   bool    `json:"is_draft"`
	CreatedAt float64 `json:"created_at"` // epoch seconds
	Author    Contact `json:"author"`
	Text      string  `json:"text"`
	Blurb     string  `json:"blurb"`
}

// ConversationPage is one page of the conversation feed. NextCursor is
// nil at the end of the feed; otherwise it is the fully-qualified URL of
// the next page.
type ConversationPage struct {
	Conversations []Conversation
	NextCursor    *string
}

type pagination struct {
	Next *string `json:"next"`
}

type conversationListResponse struct {
	Results    []Conversation `json:"_results"`
	Pagination pagination     `json:"_pagination"`
}

type messageListResponse struct {
	Results    []Message  `json:"_results"`
	Pagination pagination `json:"_pagination"`
}
