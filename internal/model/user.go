package model

// User is an account row (table users).
type User struct {
	UserID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name          string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email         string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash  string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role          Role   `gorm:"type:varchar(20);not null;default:'client'"     json:"role"`
	EmailVerified bool   `gorm:"not null;default:false"                         json:"email_verified"`
	BaseModel
}

// TableName sets the table name.
func (User) TableName() string { return "users" }
