package domain

// Difficulty narrows the question pool for a round.
type Difficulty string

const (
	DifficultyAny    Difficulty = "any"
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts the lowercase API form ("easy") as well as the
// display form ("Easy"). Empty input means any.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch raw {
	case "", "any", "Any":
		return DifficultyAny, nil
	case "easy", "Easy":
		return DifficultyEasy, nil
	case "medium", "Medium":
		return DifficultyMedium, nil
	case "hard", "Hard":
		return DifficultyHard, nil
	}
	return DifficultyAny, ErrUnknownDifficulty
}

// Display returns the capitalized form shown to players.
func (d Difficulty) Display() string {
	switch d {
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	default:
		return "Any"
	}
}

// Category is one entry from the content provider's category listing.
type Category struct {
	ID   int
	Name string
}

// Question is a single round-scoped question. Number is 1-based within the
// round. Options is keyed 1-based; option order and the position of the
// correct option are fixed at load time and never change afterwards.
type Question struct {
	Number        int
	Category      string
	Difficulty    string
	Text          string
	Options       map[int]string
	CorrectOption int
}

// Answer records one participant's pick for one question of one round.
type Answer struct {
	RoundID     int
	QuestionID  int
	ClientID    int
	OptionIndex int
}

// RoundInfo is the snapshot returned for a round-details query. When no
// round is live it reflects the configured next-round settings instead.
type RoundInfo struct {
	RoundID          int
	QuestionCount    int
	ParticipantCount int
	Category         string
	Difficulty       string
	QuestionID       int
	Status           string
	IsParticipant    bool
}
