package dto

// ── admin requests ──

// CreateGainRequest registers a prize type before the campaign starts.
type CreateGainRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=100"`
	Value       int64  `json:"value"       binding:"min=0"`
	Description string `json:"description" binding:"max=2000"`
	Quantity    int    `json:"quantity"    binding:"required,min=1"`
}

// GenerateCodesRequest bulk-creates redemption codes for a gain.
type GenerateCodesRequest struct {
	GainID string `json:"gain_id" binding:"required,uuid"`
	Count  int    `json:"count"   binding:"required,min=1,max=10000"`
}

// ── admin responses ──

// GenerateCodesResponse reports a code generation run.
type GenerateCodesResponse struct {
	GainID    string   `json:"gain_id"`
	Generated int      `json:"generated"`
	Codes     []string `json:"codes"`
}

// GainStats is one row of the per-gain distribution board.
type GainStats struct {
	Gain              GainResponse `json:"gain"`
	Quantity          int          `json:"quantity"`
	RemainingQuantity int          `json:"remaining_quantity"`
	Participations    int64        `json:"participations"`
	Claimed           int64        `json:"claimed"`
}

// AdminStatsResponse is the campaign dashboard.
type AdminStatsResponse struct {
	TotalUsers          int64       `json:"total_users"`
	TotalParticipations int64       `json:"total_participations"`
	TotalCodes          int64       `json:"total_codes"`
	UsedCodes           int64       `json:"used_codes"`
	Gains               []GainStats `json:"gains"`
}

// DrawResponse reports the grand draw outcome.
type DrawResponse struct {
	Drawn            bool          `json:"drawn"`
	Winner           *UserResponse `json:"winner,omitempty"`
	ParticipantCount int64         `json:"participant_count,omitempty"`
	DrawnAt          string        `json:"drawn_at,omitempty"`
}
