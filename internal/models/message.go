package models

// MessageType tags a feedback message slot. A parent block consults at most
// one message child per type; first match in traversal order wins.
type MessageType string

const (
	MessageCompleted          MessageType = "completed"
	MessageIncomplete         MessageType = "incomplete"
	MessageMaxAttemptsReached MessageType = "max_attempts_reached"
	MessageOnAssessmentReview MessageType = "on_assessment_review"
)

func (mt MessageType) Valid() bool {
	switch mt {
	case MessageCompleted, MessageIncomplete, MessageMaxAttemptsReached, MessageOnAssessmentReview:
		return true
	default:
		return false
	}
}
