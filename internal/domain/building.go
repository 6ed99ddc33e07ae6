package domain

// Building is a campus building that users rate.
type Building struct {
	ID                 int64
	Name               string
	ArchitecturalStyle *string
}

// Rating is one user's scores for one building. Each score is 1..10.
type Rating struct {
	ID                 int64
	BuildingID         int64
	UserID             int64
	Aesthetic          int
	Functionality      int
	PhotoWorthiness    int
	InstagramPotential int
	WeirdnessFactor    int
}

// BuildingAverages aggregates all ratings of one building. Averages are nil
// when the building has no ratings.
type BuildingAverages struct {
	Functionality      *float64
	Aesthetic          *float64
	PhotoWorthiness    *float64
	InstagramPotential *float64
	WeirdnessFactor    *float64
	TotalRatings       int
}
