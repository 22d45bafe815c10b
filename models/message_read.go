package models

// MessageRead marks that UserID has seen MessageID. Rows are only created
// for the non-sender of a message; absence means unread.
type MessageRead struct {
	Model
	UserID    uint `json:"user_id" gorm:"not null;uniqueIndex:idx_message_reads_pair"`
	MessageID uint `json:"message_id" gorm:"not null;uniqueIndex:idx_message_reads_pair"`
}
