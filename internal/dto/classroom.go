package dto

// ClassCharacterResponse resolves a classroom balance into its display
// character.
type ClassCharacterResponse struct {
	CoinCount float64 `json:"coinCount"`
	Level     int     `json:"level"`
	Image     string  `json:"image"`
}

// ClassCharacterQuery optionally targets an explicit classroom tuple; omitted
// fields default from the authenticated principal's own class or homeroom.
type ClassCharacterQuery struct {
	EducationOfficeCode *string `form:"educationOfficeCode"`
	SchoolCode          *string `form:"schoolCode"`
	Grade               *int    `form:"grade"`
	ClassNumber         *int    `form:"classNumber"`
}

// IncrementCoinRequest is the teacher-only manual credit. Codes and class
// tuple default from the calling teacher's own school and homeroom.
type IncrementCoinRequest struct {
	EducationOfficeCode *string  `json:"educationOfficeCode,omitempty"`
	SchoolCode          *string  `json:"schoolCode,omitempty"`
	Grade               *int     `json:"grade,omitempty"`
	ClassNumber         *int     `json:"classNumber,omitempty"`
	CoinDelta           *float64 `json:"coinDelta" validate:"required"`
}

// ClassCoinResponse echoes the updated classroom ledger row.
type ClassCoinResponse struct {
	EducationOfficeCode string  `json:"educationOfficeCode"`
	SchoolCode          string  `json:"schoolCode"`
	Grade               int     `json:"grade"`
	ClassNumber         int     `json:"classNumber"`
	CoinCount           float64 `json:"coinCount"`
}

// CheckUserIDResponse mirrors the original signup helper: haveId is true when
// the identifier is already taken.
type CheckUserIDResponse struct {
	HaveID bool `json:"haveId"`
}
