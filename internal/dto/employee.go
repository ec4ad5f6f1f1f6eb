package dto

// EmployeeStatsResponse is the back-office counter board.
type EmployeeStatsResponse struct {
	TotalParticipations int64 `json:"total_participations"`
	ClaimedPrizes       int64 `json:"claimed_prizes"`
	UnclaimedPrizes     int64 `json:"unclaimed_prizes"`
	ClaimedToday        int64 `json:"claimed_today"`
}
