package models

import "time"

// Model is the base for all persisted entities. The autoincrement ID doubles
// as insertion order where callers need a stable total order.
type Model struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
