package models

// ClassKey identifies a classroom by its natural tuple.
type ClassKey struct {
	EducationOfficeCode string `db:"education_office_code" json:"educationOfficeCode"`
	SchoolCode          string `db:"school_code" json:"schoolCode"`
	Grade               int    `db:"grade" json:"grade"`
	ClassNumber         int    `db:"class_number" json:"classNumber"`
}

// SchoolClass is the ledger account for a classroom: all coin accrual is
// scoped to it. Rows are created lazily on first reference.
type SchoolClass struct {
	ID string `db:"id" json:"id"`
	ClassKey
	CoinCount float64 `db:"coin_count" json:"coinCount"`
}
