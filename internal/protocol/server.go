package protocol

import (
	"sort"
	"strconv"
	"strings"
)

// SetupConnection answers a Request with the allocated client id and the
// endpoint of the push listener the client must connect to next.
type SetupConnection struct {
	ClientID int
	PushAddr string
}

func (SetupConnection) Tag() ServerTag { return TagSetupConnection }

func (m SetupConnection) Payload() string {
	return itoa(m.ClientID) + fieldSep + m.PushAddr
}

func parseSetupConnection(payload string) (SetupConnection, error) {
	parts, err := splitFields(payload, 2)
	if err != nil {
		return SetupConnection{}, err
	}
	id, err := parseInt(parts[0])
	if err != nil {
		return SetupConnection{}, err
	}
	if parts[1] == "" {
		return SetupConnection{}, ErrInvalidPayload
	}
	return SetupConnection{ClientID: id, PushAddr: parts[1]}, nil
}

// Accepted acknowledges a valid client request. It carries no payload.
type Accepted struct{}

func (Accepted) Tag() ServerTag { return TagAccepted }

func (Accepted) Payload() string { return "" }

// RoundStart announces a new round to every participant.
type RoundStart struct {
	RoundID          int
	QuestionCount    int
	ParticipantCount int
}

func (RoundStart) Tag() ServerTag { return TagRoundStart }

func (m RoundStart) Payload() string {
	return joinFields([]string{itoa(m.RoundID), itoa(m.QuestionCount), itoa(m.ParticipantCount)})
}

func parseRoundStart(payload string) (RoundStart, error) {
	parts, err := splitFields(payload, 3)
	if err != nil {
		return RoundStart{}, err
	}
	vals, err := parseInts(parts)
	if err != nil {
		return RoundStart{}, err
	}
	return RoundStart{RoundID: vals[0], QuestionCount: vals[1], ParticipantCount: vals[2]}, nil
}

// Question delivers one question with its shuffled options.
type Question struct {
	RoundID       int
	QuestionCount int
	Category      string
	Difficulty    string
	QuestionID    int
	Text          string
	Options       map[int]string
}

func (Question) Tag() ServerTag { return TagQuestion }

func (m Question) Payload() string {
	fields := []string{
		itoa(m.RoundID),
		itoa(m.QuestionCount),
		encodeText(m.Category),
		encodeText(m.Difficulty),
		itoa(m.QuestionID),
		encodeText(m.Text),
		encodeOptions(m.Options),
	}
	return joinFields(fields)
}

func parseQuestion(payload string) (Question, error) {
	parts, err := splitFields(payload, 7)
	if err != nil {
		return Question{}, err
	}
	roundID, err := parseInt(parts[0])
	if err != nil {
		return Question{}, err
	}
	questionCount, err := parseInt(parts[1])
	if err != nil {
		return Question{}, err
	}
	category, err := decodeText(parts[2])
	if err != nil {
		return Question{}, err
	}
	difficulty, err := decodeText(parts[3])
	if err != nil {
		return Question{}, err
	}
	questionID, err := parseInt(parts[4])
	if err != nil {
		return Question{}, err
	}
	text, err := decodeText(parts[5])
	if err != nil {
		return Question{}, err
	}
	options, err := decodeOptions(parts[6])
	if err != nil {
		return Question{}, err
	}
	return Question{
		RoundID:       roundID,
		QuestionCount: questionCount,
		Category:      category,
		Difficulty:    difficulty,
		QuestionID:    questionID,
		Text:          text,
		Options:       options,
	}, nil
}

// encodeOptions renders the answer map as `idx:b64(text)` entries joined
// with `?`, in ascending index order so encoding is deterministic.
func encodeOptions(options map[int]string) string {
	keys := make([]int, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	entries := make([]string, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, strconv.Itoa(k)+optionKV+encodeText(options[k]))
	}
	return strings.Join(entries, optionSep)
}

func decodeOptions(raw string) (map[int]string, error) {
	if raw == "" {
		return nil, ErrInvalidPayload
	}
	options := make(map[int]string)
	for _, entry := range strings.Split(raw, optionSep) {
		kv := strings.SplitN(entry, optionKV, 2)
		if len(kv) != 2 {
			return nil, ErrInvalidPayload
		}
		idx, err := parseInt(kv[0])
		if err != nil {
			return nil, err
		}
		text, err := decodeText(kv[1])
		if err != nil {
			return nil, err
		}
		options[idx] = text
	}
	return options, nil
}

// Result tells one participant how they did on the question just evaluated.
type Result struct {
	RoundID           int
	QuestionCount     int
	QuestionID        int
	AnswerText        string
	Correct           bool
	CorrectAnswerText string
}

func (Result) Tag() ServerTag { return TagResult }

func (m Result) Payload() string {
	fields := []string{
		itoa(m.RoundID),
		itoa(m.QuestionCount),
		itoa(m.QuestionID),
		encodeText(m.AnswerText),
		formatBool(m.Correct),
		encodeText(m.CorrectAnswerText),
	}
	return joinFields(fields)
}

func parseResult(payload string) (Result, error) {
	parts, err := splitFields(payload, 6)
	if err != nil {
		return Result{}, err
	}
	roundID, err := parseInt(parts[0])
	if err != nil {
		return Result{}, err
	}
	questionCount, err := parseInt(parts[1])
	if err != nil {
		return Result{}, err
	}
	questionID, err := parseInt(parts[2])
	if err != nil {
		return Result{}, err
	}
	answerText, err := decodeText(parts[3])
	if err != nil {
		return Result{}, err
	}
	correct, err := parseBool(parts[4])
	if err != nil {
		return Result{}, err
	}
	correctText, err := decodeText(parts[5])
	if err != nil {
		return Result{}, err
	}
	return Result{
		RoundID:           roundID,
		QuestionCount:     questionCount,
		QuestionID:        questionID,
		AnswerText:        answerText,
		Correct:           correct,
		CorrectAnswerText: correctText,
	}, nil
}

// RoundEnd closes a round with overall and per-round standings, personalized
// with the recipient's own rank and score.
type RoundEnd struct {
	RoundID            int
	OverallLeader      string
	OverallLeaderScore int
	RoundLeader        string
	RoundLeaderScore   int
	OverallScore       int
	Score              int
	OverallRank        int
	Rank               int
}

func (RoundEnd) Tag() ServerTag { return TagRoundEnd }

func (m RoundEnd) Payload() string {
	fields := []string{
		itoa(m.RoundID),
		encodeText(m.OverallLeader),
		itoa(m.OverallLeaderScore),
		encodeText(m.RoundLeader),
		itoa(m.RoundLeaderScore),
		itoa(m.OverallScore),
		itoa(m.Score),
		itoa(m.OverallRank),
		itoa(m.Rank),
	}
	return joinFields(fields)
}

func parseRoundEnd(payload string) (RoundEnd, error) {
	parts, err := splitFields(payload, 9)
	if err != nil {
		return RoundEnd{}, err
	}
	roundID, err := parseInt(parts[0])
	if err != nil {
		return RoundEnd{}, err
	}
	overallLeader, err := decodeText(parts[1])
	if err != nil {
		return RoundEnd{}, err
	}
	roundLeader, err := decodeText(parts[3])
	if err != nil {
		return RoundEnd{}, err
	}
	ints, err := parseInts([]string{parts[2], parts[4], parts[5], parts[6], parts[7], parts[8]})
	if err != nil {
		return RoundEnd{}, err
	}
	return RoundEnd{
		RoundID:            roundID,
		OverallLeader:      overallLeader,
		OverallLeaderScore: ints[0],
		RoundLeader:        roundLeader,
		RoundLeaderScore:   ints[1],
		OverallScore:       ints[2],
		Score:              ints[3],
		OverallRank:        ints[4],
		Rank:               ints[5],
	}, nil
}

// RoundDetails is the push-channel reply to a RoundDetailsRequest.
type RoundDetails struct {
	RoundID          int
	QuestionCount    int
	ParticipantCount int
	Category         string
	Difficulty       string
	QuestionID       int
	Status           string
	IsParticipant    bool
}

func (RoundDetails) Tag() ServerTag { return TagRoundDetails }

func (m RoundDetails) Payload() string {
	fields := []string{
		itoa(m.RoundID),
		itoa(m.QuestionCount),
		itoa(m.ParticipantCount),
		encodeText(m.Category),
		encodeText(m.Difficulty),
		itoa(m.QuestionID),
		encodeText(m.Status),
		formatBool(m.IsParticipant),
	}
	return joinFields(fields)
}

func parseRoundDetails(payload string) (RoundDetails, error) {
	parts, err := splitFields(payload, 8)
	if err != nil {
		return RoundDetails{}, err
	}
	ints, err := parseInts([]string{parts[0], parts[1], parts[2], parts[5]})
	if err != nil {
		return RoundDetails{}, err
	}
	category, err := decodeText(parts[3])
	if err != nil {
		return RoundDetails{}, err
	}
	difficulty, err := decodeText(parts[4])
	if err != nil {
		return RoundDetails{}, err
	}
	status, err := decodeText(parts[6])
	if err != nil {
		return RoundDetails{}, err
	}
	isParticipant, err := parseBool(parts[7])
	if err != nil {
		return RoundDetails{}, err
	}
	return RoundDetails{
		RoundID:          ints[0],
		QuestionCount:    ints[1],
		ParticipantCount: ints[2],
		Category:         category,
		Difficulty:       difficulty,
		QuestionID:       ints[3],
		Status:           status,
		IsParticipant:    isParticipant,
	}, nil
}

// Error reports a rejected request or handshake. The whole payload is the
// base64 message, no field delimiter.
type Error struct {
	Message string
}

func (Error) Tag() ServerTag { return TagError }

func (m Error) Payload() string { return encodeText(m.Message) }

func parseError(payload string) (Error, error) {
	msg, err := decodeText(payload)
	if err != nil || msg == "" {
		return Error{}, ErrInvalidPayload
	}
	return Error{Message: msg}, nil
}

// ParseServer decodes one server→client frame body. Like ParseClient it
// fails closed: a valid message or an error, never partial data.
func ParseServer(tag byte, payload string) (ServerMessage, error) {
	if ServerTag(tag) == TagAccepted {
		if !emptyPayload(payload) {
			return nil, ErrInvalidPayload
		}
		return Accepted{}, nil
	}
	if emptyPayload(payload) {
		return nil, ErrInvalidPayload
	}
	switch ServerTag(tag) {
	case TagSetupConnection:
		m, err := parseSetupConnection(payload)
		if err != nil {
			return nil, err
		}
		return m, nil
	case TagRoundStart:
		m, err := parseRoundStart(payload)
		if err != nil {
			return nil, err
		}
		return m, nil
	case TagQuestion:
		m, err := parseQuestion(payload)
		if err != nil {
			return nil, err
		}
		return m, nil
	case TagResult:
		m, err := parseResult(payload)
		if err != nil {
			return nil, err
		}
		return m, nil
	case TagRoundEnd:
		m, err := parseRoundEnd(payload)
		if err != nil {
			return nil, err
		}
		return m, nil
	case TagRoundDetails:
		m, err := parseRoundDetails(payload)
		if err != nil {
			return nil, err
		}
		return m, nil
	case TagError:
		m, err := parseError(payload)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, ErrUnknownTag
}

func itoa(v int) string { return strconv.Itoa(v) }

func joinFields(fields []string) string { return strings.Join(fields, fieldSep) }

func parseInts(parts []string) ([]int, error) {
	vals := make([]int, len(parts))
	for i, p := range parts {
		v, err := parseInt(p)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
