package protocol

// Request asks the server for a client id and a push endpoint. Sent on the
// request listener as the first step of the handshake.
type Request struct {
	Name string
}

func (Request) Tag() ClientTag { return TagRequest }

func (m Request) Payload() string { return encodeText(m.Name) }

func parseRequest(payload string) (Request, error) {
	name, err := decodeText(payload)
	if err != nil || name == "" {
		return Request{}, ErrInvalidPayload
	}
	return Request{Name: name}, nil
}

// Connect binds a previously issued client id to the push connection it is
// sent on. It is the only message ever read from the push listener.
type Connect struct {
	ClientID int
	Name     string
}

func (Connect) Tag() ClientTag { return TagConnect }

func (m Connect) Payload() string {
	return itoa(m.ClientID) + fieldSep + encodeText(m.Name)
}

func parseConnect(payload string) (Connect, error) {
	id, name, err := parseIdentity(payload)
	if err != nil {
		return Connect{}, err
	}
	return Connect{ClientID: id, Name: name}, nil
}

// Disconnect removes the sender from the game.
type Disconnect struct {
	ClientID int
	Name     string
}

func (Disconnect) Tag() ClientTag { return TagDisconnect }

func (m Disconnect) Payload() string {
	return itoa(m.ClientID) + fieldSep + encodeText(m.Name)
}

func parseDisconnect(payload string) (Disconnect, error) {
	id, name, err := parseIdentity(payload)
	if err != nil {
		return Disconnect{}, err
	}
	return Disconnect{ClientID: id, Name: name}, nil
}

// RoundDetailsRequest asks for a snapshot of the live or upcoming round.
// The snapshot itself arrives on the push connection.
type RoundDetailsRequest struct {
	ClientID int
	Name     string
}

func (RoundDetailsRequest) Tag() ClientTag { return TagRoundDetailsRequest }

func (m RoundDetailsRequest) Payload() string {
	return itoa(m.ClientID) + fieldSep + encodeText(m.Name)
}

func parseRoundDetailsRequest(payload string) (RoundDetailsRequest, error) {
	id, name, err := parseIdentity(payload)
	if err != nil {
		return RoundDetailsRequest{}, err
	}
	return RoundDetailsRequest{ClientID: id, Name: name}, nil
}

// TriviaAnswer submits an option pick for the current question.
type TriviaAnswer struct {
	RoundID     int
	QuestionID  int
	ClientID    int
	Name        string
	AnswerIndex int
}

func (TriviaAnswer) Tag() ClientTag { return TagTriviaAnswer }

func (m TriviaAnswer) Payload() string {
	fields := []string{
		itoa(m.RoundID),
		itoa(m.QuestionID),
		itoa(m.ClientID),
		encodeText(m.Name),
		itoa(m.AnswerIndex),
	}
	return joinFields(fields)
}

func parseTriviaAnswer(payload string) (TriviaAnswer, error) {
	parts, err := splitFields(payload, 5)
	if err != nil {
		return TriviaAnswer{}, err
	}
	roundID, err := parseInt(parts[0])
	if err != nil {
		return TriviaAnswer{}, err
	}
	questionID, err := parseInt(parts[1])
	if err != nil {
		return TriviaAnswer{}, err
	}
	clientID, err := parseInt(parts[2])
	if err != nil {
		return TriviaAnswer{}, err
	}
	name, err := decodeText(parts[3])
	if err != nil || name == "" {
		return TriviaAnswer{}, ErrInvalidPayload
	}
	answerIndex, err := parseInt(parts[4])
	if err != nil {
		return TriviaAnswer{}, err
	}
	return TriviaAnswer{
		RoundID:     roundID,
		QuestionID:  questionID,
		ClientID:    clientID,
		Name:        name,
		AnswerIndex: answerIndex,
	}, nil
}

// parseIdentity decodes the shared `clientId|b64(name)` shape.
func parseIdentity(payload string) (int, string, error) {
	parts, err := splitFields(payload, 2)
	if err != nil {
		return 0, "", err
	}
	id, err := parseInt(parts[0])
	if err != nil {
		return 0, "", err
	}
	name, err := decodeText(parts[1])
	if err != nil || name == "" {
		return 0, "", ErrInvalidPayload
	}
	return id, name, nil
}

// ParseClient decodes one client→server frame body. It either returns a
// fully valid message or an error, never a partial message.
func ParseClient(tag byte, payload string) (ClientMessage, error) {
	if emptyPayload(payload) {
		return nil, ErrInvalidPayload
	}
	switch ClientTag(tag) {
	case TagRequest:
		m, err := parseRequest(payload)
		if err != nil {
			return nil, err
		}
		return m, nil
	case TagConnect:
		m, err := parseConnect(payload)
		if err != nil {
			return nil, err
		}
		return m, nil
	case TagDisconnect:
		m, err := parseDisconnect(payload)
		if err != nil {
			return nil, err
		}
		return m, nil
	case TagRoundDetailsRequest:
		m, err := parseRoundDetailsRequest(payload)
		if err != nil {
			return nil, err
		}
		return m, nil
	case TagTriviaAnswer:
		m, err := parseTriviaAnswer(payload)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, ErrUnknownTag
}
