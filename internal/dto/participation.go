package dto

// ── participation requests ──

// ValidateCodeRequest redeems a printed code.
type ValidateCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ── participation responses ──

// GainResponse is the public view of a prize type.
type GainResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Value       int64  `json:"value"`
	Description string `json:"description,omitempty"`
}

// RedeemResponse is returned on a successful redemption.
// Every committed redemption is a win.
type RedeemResponse struct {
	Success       bool                  `json:"success"`
	IsWinner      bool                  `json:"is_winner"`
	Gain          GainResponse          `json:"gain"`
	Participation ParticipationResponse `json:"participation"`
}

// ParticipationResponse is the public view of a participation.
type ParticipationResponse struct {
	ID                string        `json:"id"`
	Code              string        `json:"code,omitempty"`
	Gain              *GainResponse `json:"gain,omitempty"`
	User              *UserResponse `json:"user,omitempty"`
	ParticipationDate string        `json:"participation_date"`
	IsClaimed         bool          `json:"is_claimed"`
	ClaimedAt         string        `json:"claimed_at,omitempty"`
}
