package model

// Gain is a prize type with a finite stock (table gains).
// Invariant: 0 <= RemainingQuantity <= Quantity (enforced by a CHECK constraint).
type Gain struct {
	GainID            string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"gain_id"`
	Name              string `gorm:"type:varchar(100);not null"                     json:"name"`
	Value             int64  `gorm:"not null;default:0"                             json:"value"` // euro cents
	Description       string `gorm:"type:text;not null;default:''"                  json:"description"`
	Quantity          int    `gorm:"not null"                                       json:"quantity"`
	RemainingQuantity int    `gorm:"not null"                                       json:"remaining_quantity"`
	BaseModel
}

// TableName sets the table name.
func (Gain) TableName() string { return "gains" }
