package app

// Scoring policy: a first-instant answer earns 1000 points, each elapsed
// second costs 10, and no correct answer earns less than 100.
const (
	basePoints     = 1000
	floorPoints    = 100
	decayPerSecond = 10
)

// Points computes the award for a correct answer submitted timeTaken seconds
// into a question with the given time limit. timeTaken is clamped into
// [0, timeLimit] before the curve is applied.
func Points(timeLimit, timeTaken int) int {
	if timeTaken < 0 {
		timeTaken = 0
	}
	if timeTaken > timeLimit {
		timeTaken = timeLimit
	}
	p := basePoints - decayPerSecond*timeTaken
	if p < floorPoints {
		return floorPoints
	}
	return p
}
