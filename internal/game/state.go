package game

// State is one phase of the round state machine. Transitions form a linear
// cycle driven by AdvanceState actions the engine enqueues for itself.
type State int

const (
	StateNotStarted State = iota
	StateWaitingForRoundToStart
	StateSendQuestion
	StateQuestionSent
	StateWaitingForAnswers
	StateEvaluateAnswers
	StateWaitingForNextQuestion
	StateRoundComplete
	StateWaitingForNextRound
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "Not started"
	case StateWaitingForRoundToStart:
		return "Waiting for round to start"
	case StateSendQuestion:
		return "Sending question"
	case StateQuestionSent:
		return "Question sent"
	case StateWaitingForAnswers:
		return "Waiting for answers"
	case StateEvaluateAnswers:
		return "Evaluating answers"
	case StateWaitingForNextQuestion:
		return "Waiting for next question"
	case StateRoundComplete:
		return "Round complete"
	case StateWaitingForNextRound:
		return "Waiting for next round"
	}
	return "Unknown"
}
