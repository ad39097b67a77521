package viewcheck

// Generator constants.
const (
	selectColumnPercent = 35
	maxValuesPerColumn  = 3
)

// Runner constants.
const (
	PercentageMultiplier = 100
	coordinateTolerance  = 1e-9
)
