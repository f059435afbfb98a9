package models

// User is a chat participant as returned by GET /api/users.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	Surname   string `json:"surname"`
}

// Profile is the current user's view of themselves (GET /api/users/me).
type Profile struct {
	FirstName string `json:"firstName"`
	Surname   string `json:"surname"`
}

// Chat identifies a two-party conversation. The backend guarantees at
// most one chat per unordered pair of participants.
type Chat struct {
	ID      int64 `json:"id"`
	UserAID int64 `json:"userAId"`
	UserBID int64 `json:"userBId"`
}

// Message is one chat message. SentAt is a timestamp string in whatever
// format the backend emits; the client only renders it.
type Message struct {
	ChatID   int64  `json:"chatId"`
	SenderID int64  `json:"senderId"`
	Content  string `json:"content"`
	SentAt   string `json:"sentAt"`
}

// TokenPair is the credential pair issued on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
