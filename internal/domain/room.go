package domain

type RoomID string

const (
	DefaultCode       = "// Start coding..."
	DefaultLanguage   = LangJavaScript
	DefaultLastOutput = "Output will appear here..."
)

// Room is the shared state of one session. It carries no locking; core owns that.
type Room struct {
	ID         RoomID
	Code       string
	Language   Language
	LastOutput string
}

func NewRoom(id RoomID) *Room {
	return &Room{
		ID:         id,
		Code:       DefaultCode,
		Language:   DefaultLanguage,
		LastOutput: DefaultLastOutput,
	}
}
