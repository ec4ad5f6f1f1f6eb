package model

import "time"

// Participation records a successful code redemption (table participations).
// A unique index on code_id makes it 1:1 with its Code; a unique index on
// (user_id, participation_day) enforces one participation per user per
// campaign day even under concurrent redemptions.
type Participation struct {
	ParticipationID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"participation_id"`
	UserID              string     `gorm:"type:uuid;not null;index;uniqueIndex:idx_participations_user_day" json:"user_id"`
	CodeID              string     `gorm:"type:uuid;not null;uniqueIndex"                 json:"code_id"`
	GainID              string     `gorm:"type:uuid;not null;index"                       json:"gain_id"`
	ParticipationDate   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"participation_date"`
	ParticipationDay    string     `gorm:"type:date;not null;uniqueIndex:idx_participations_user_day"      json:"participation_day"`
	IPAddress           string     `gorm:"type:varchar(45);not null;default:''"           json:"ip_address"`
	UserAgent           string     `gorm:"type:varchar(512);not null;default:''"          json:"user_agent"`
	IsClaimed           bool       `gorm:"not null;default:false"                         json:"is_claimed"`
	ClaimedAt           *time.Time `json:"claimed_at,omitempty"`
	ClaimedByEmployeeID *string    `gorm:"type:uuid"                                      json:"claimed_by_employee_id,omitempty"`
	BaseModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Code *Code `gorm:"foreignKey:CodeID;references:CodeID" json:"code,omitempty"`
	Gain *Gain `gorm:"foreignKey:GainID;references:GainID" json:"gain,omitempty"`
}

// TableName sets the table name.
func (Participation) TableName() string { return "participations" }

// DayOf formats a timestamp as the participation day in the campaign timezone.
func DayOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
