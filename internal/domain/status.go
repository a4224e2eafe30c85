package domain

// Status is the mood label attached to a training session.
type Status string

// The four fixed mood labels, in display order.
const (
	StatusGreat Status = "아주 좋았어요 😊"
	StatusOkay  Status = "괜찮았어요 🙂"
	StatusHard  Status = "힘들었어요 😓"
	StatusBad   Status = "별로였어요 😞"
)

// Statuses returns the mood labels in display order.
func Statuses() []Status {
	return []Status{StatusGreat, StatusOkay, StatusHard, StatusBad}
}

// Valid reports whether s is one of the fixed labels.
func (s Status) Valid() bool {
	switch s {
	case StatusGreat, StatusOkay, StatusHard, StatusBad:
		return true
	}
	return false
}
