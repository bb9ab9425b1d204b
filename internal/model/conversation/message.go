package conversation

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TypeWelcome tags the canned greeting appended when a session starts.
const TypeWelcome = "welcome"

// Message is one turn entry in a session transcript. Position is implicit:
// append order is the only ordering.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}
