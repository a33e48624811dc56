package domain

import "time"

// User is a signed-in account (Google login on the frontend). The service
// only ever sees the email/name/picture triple the login flow posts.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"type:text;not null;uniqueIndex:idx_users_email" json:"email"`
	Name      string    `gorm:"type:text" json:"name"`
	Picture   string    `gorm:"type:text" json:"picture"`
	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}

// UsageRecord is one row of the append-only generation ledger. Today's
// count for a user is the number of rows for that email with today's date.
// Rows are never updated or deleted.
type UsageRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"type:text;not null;index:idx_usage_email" json:"email"`
	CreatedAt time.Time `gorm:"index:idx_usage_created" json:"created_at"`
}

// TableName returns the database table name for UsageRecord.
func (UsageRecord) TableName() string {
	return "user_usage"
}
