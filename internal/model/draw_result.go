package model

import "time"

// DrawResult stores the grand draw outcome (table draw_results).
// The unique index on campaign makes the NotDrawn → Drawn transition
// one-way: once a row exists the draw is final and every later call
// returns it unchanged.
type DrawResult struct {
	DrawResultID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"draw_result_id"`
	Campaign         string    `gorm:"type:varchar(100);not null;uniqueIndex"         json:"campaign"`
	WinnerUserID     string    `gorm:"type:uuid;not null"                             json:"winner_user_id"`
	ParticipantCount int64     `gorm:"not null"                                       json:"participant_count"`
	DrawnAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"drawn_at"`
	DrawnBy          *string   `gorm:"type:uuid"                                      json:"drawn_by,omitempty"`

	Winner *User `gorm:"foreignKey:WinnerUserID;references:UserID" json:"winner,omitempty"`
}

// TableName sets the table name.
func (DrawResult) TableName() string { return "draw_results" }
