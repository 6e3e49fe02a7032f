package domain

// Square footage assumed when a job has no recorded size.
const DefaultSquareFootage = 2000

// EstimateServiceMinutes maps a property's square footage to the expected
// on-site shoot duration in minutes.
//
// The bands are a deliberate step function rather than a continuous formula:
// they match how shoots are actually quoted, and downstream arrival-time
// arithmetic depends on these exact outputs.
func EstimateServiceMinutes(squareFootage *int) int {
	sqft := DefaultSquareFootage
	if squareFootage != nil {
		sqft = *squareFootage
	}

	switch {
	case sqft < 1500:
		return 60
	case sqft < 2500:
		return 75
	case sqft < 3500:
		return 90
	case sqft < 5000:
		return 105
	default:
		return 120
	}
}
