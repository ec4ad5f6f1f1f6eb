package model

import "regexp"

// CodeLength is the fixed length of a printed redemption code.
const CodeLength = 10

// CodeAlphabet is the character set redemption codes are drawn from.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var codePattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// ValidCodeFormat reports whether s is a well-formed redemption code.
func ValidCodeFormat(s string) bool {
	return codePattern.MatchString(s)
}

// Code is a single-use printed redemption token (table codes).
// IsUsed flips false → true exactly once, in the same transaction that
// creates the Participation.
type Code struct {
	CodeID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"code_id"`
	Code   string `gorm:"type:char(10);not null;uniqueIndex"             json:"code"`
	GainID string `gorm:"type:uuid;not null;index"                       json:"gain_id"`
	IsUsed bool   `gorm:"not null;default:false"                         json:"is_used"`
	BaseModel

	Gain *Gain `gorm:"foreignKey:GainID;references:GainID" json:"gain,omitempty"`
}

// TableName sets the table name.
func (Code) TableName() string { return "codes" }
