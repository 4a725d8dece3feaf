package entities

// Chat roles understood by the text-generation service.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tunes a single completion request. Zero values fall back to the
// service defaults.
type ChatOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}
