package transform

// Sample is one captured transform with its elapsed-time stamp in seconds
// relative to capture start.
type Sample struct {
	Timestamp float64
	Matrix    Matrix
}
