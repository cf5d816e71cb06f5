package models

// Role of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the running dialogue
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Question string `json:"question"`
}

// Source is a citation returned alongside an answer
type Source struct {
	Page *int   `json:"page"`
	Text string `json:"text"`
}

type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}
