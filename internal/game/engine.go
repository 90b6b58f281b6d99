package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"trivia-arena/internal/domain"
	"trivia-arena/internal/protocol"
	"trivia-arena/internal/registry"
	"trivia-arena/internal/trivia"
)

// noAnswerText is shown in a Result when a participant never answered.
const noAnswerText = "No answer"

// fetchTimeout bounds one content-provider call.
const fetchTimeout = 30 * time.Second

// Sender delivers a message to one participant's push connection. The
// registry implements it.
type Sender interface {
	Send(clientID int, msg protocol.ServerMessage) error
}

// Engine is the single writer for all game state. Its Run loop is the only
// consumer of the action queue, so participant joins, disconnects, answer
// submissions, and the engine's own phase advances are applied in one total
// order. Timed waits are expressed as timers that enqueue AdvanceState
// actions back onto the same queue.
type Engine struct {
	queue    *Queue
	registry *registry.Registry
	provider trivia.Provider
	sender   Sender
	archive  Archiver
	feed     *Broadcaster
	log      zerolog.Logger

	settingsMu sync.Mutex
	settings   Settings

	// Owned exclusively by the Run goroutine.
	state        State
	round        *Round
	roundSeq     int
	advanceToken int
	startArmed   bool
	ctx          context.Context

	running atomic.Bool
}

func NewEngine(queue *Queue, reg *registry.Registry, provider trivia.Provider, sender Sender, log zerolog.Logger) *Engine {
	return &Engine{
		queue:    queue,
		registry: reg,
		provider: provider,
		sender:   sender,
		feed:     NewBroadcaster(),
		log:      log.With().Str("component", "engine").Logger(),
		settings: defaultSettings(),
		state:    StateNotStarted,
		round:    NewRound(),
	}
}

// SetArchiver wires an optional round archive. Must be called before Run.
func (e *Engine) SetArchiver(a Archiver) { e.archive = a }

// Queue returns the action queue producers enqueue into.
func (e *Engine) Queue() *Queue { return e.queue }

// Watch subscribes to spectator snapshots.
func (e *Engine) Watch() (<-chan Snapshot, func()) { return e.feed.Watch() }

// Ping reports whether the dispatch loop is running.
func (e *Engine) Ping() bool { return e.running.Load() }

// Run drains the action queue until ctx is done. It must be called exactly
// once; everything below it runs on this goroutine.
func (e *Engine) Run(ctx context.Context) {
	e.ctx = ctx
	e.running.Store(true)
	defer e.running.Store(false)

	e.state = StateWaitingForRoundToStart
	e.log.Info().Msg("engine running, waiting for participants")
	e.publish()

	for {
		action, ok := e.queue.Dequeue(ctx)
		if !ok {
			e.log.Info().Msg("engine stopped")
			return
		}
		e.handle(action)
	}
}

func (e *Engine) handle(action Action) {
	switch a := action.(type) {
	case SendMessage:
		if err := e.sender.Send(a.ClientID, a.Message); err != nil {
			e.log.Warn().Err(err).Int("client", a.ClientID).Msg("push send failed, dropping participant")
			e.queue.Enqueue(RemoveParticipant{ClientID: a.ClientID})
		}
	case AddParticipant:
		e.handleAdd(a)
	case RemoveParticipant:
		e.handleRemove(a)
	case SetAnswer:
		e.handleSetAnswer(a)
	case AdvanceState:
		e.handleAdvance(a)
	case ProvideRoundDetails:
		e.handleDetails(a)
	}
}

func (e *Engine) handleAdd(a AddParticipant) {
	info, ok := e.registry.Get(a.ClientID)
	if !ok {
		return
	}
	e.log.Info().Int("client", a.ClientID).Str("name", info.Name).Msg("participant joined")

	if e.state == StateWaitingForRoundToStart && !e.startArmed {
		delay := e.currentSettings().RoundStartDelay
		e.log.Info().Dur("delay", delay).Msg("round starting soon")
		e.startArmed = true
		e.scheduleAdvance(delay)
	}
	e.publish()
}

func (e *Engine) handleRemove(a RemoveParticipant) {
	if _, ok := e.registry.Get(a.ClientID); !ok {
		return
	}
	e.registry.Remove(a.ClientID)
	e.log.Info().Int("client", a.ClientID).Msg("participant removed")

	if e.round.Started && !e.round.Over && e.registry.Len() == 0 {
		// Everyone left mid-round: abort without finishing the remaining
		// questions and go back to waiting.
		e.log.Warn().Int("round", e.round.ID).Msg("all participants gone, aborting round")
		e.abortRound()
	}
	e.publish()
}

func (e *Engine) abortRound() {
	e.round.Reset()
	e.advanceToken++ // invalidate any in-flight phase timer
	e.startArmed = false
	e.state = StateWaitingForRoundToStart
}

func (e *Engine) handleSetAnswer(a SetAnswer) {
	if e.state != StateQuestionSent && e.state != StateWaitingForAnswers {
		e.log.Debug().Int("client", a.Answer.ClientID).Msg("answer rejected: no question open")
		return
	}
	if !e.round.RecordAnswer(a.Answer) {
		e.log.Debug().
			Int("client", a.Answer.ClientID).
			Int("round", a.Answer.RoundID).
			Int("question", a.Answer.QuestionID).
			Msg("answer rejected")
		return
	}
	e.log.Debug().Int("client", a.Answer.ClientID).Int("option", a.Answer.OptionIndex).Msg("answer recorded")
}

func (e *Engine) handleAdvance(a AdvanceState) {
	if a.Token != e.advanceToken {
		// A timer from an aborted phase; ignore.
		return
	}
	switch e.state {
	case StateWaitingForRoundToStart:
		e.startArmed = false
		e.startRound()
	case StateSendQuestion:
		e.sendQuestion()
	case StateWaitingForAnswers:
		e.evaluateAnswers()
	case StateWaitingForNextQuestion:
		e.nextQuestion()
	case StateWaitingForNextRound:
		e.state = StateWaitingForRoundToStart
		e.startRound()
	}
}

func (e *Engine) startRound() {
	if e.registry.Len() == 0 {
		e.log.Info().Msg("no participants, postponing round")
		e.publish()
		return
	}

	settings := e.currentSettings()
	fetchCtx, cancel := context.WithTimeout(e.ctx, fetchTimeout)
	questions, err := e.provider.Questions(fetchCtx, settings.Difficulty, settings.Category, settings.QuestionCount)
	cancel()
	if err != nil {
		e.log.Error().Err(err).Msg("fetching questions failed, retrying after delay")
		e.startArmed = true
		e.scheduleAdvance(settings.RoundStartDelay)
		return
	}
	for i := range questions {
		questions[i].Number = i + 1
	}

	roster := make(map[int]string)
	for _, info := range e.registry.Snapshot() {
		roster[info.ID] = info.Name
	}
	if len(roster) == 0 {
		e.log.Info().Msg("participants left during fetch, postponing round")
		e.publish()
		return
	}

	e.roundSeq++
	e.round.Start(e.roundSeq, settings.Category, settings.Difficulty, questions, roster)
	e.log.Info().
		Int("round", e.round.ID).
		Int("questions", len(questions)).
		Int("participants", len(roster)).
		Msg("round started")

	e.broadcastRoster(protocol.RoundStart{
		RoundID:          e.round.ID,
		QuestionCount:    len(questions),
		ParticipantCount: len(roster),
	})
	e.state = StateSendQuestion
	e.publish()
	e.scheduleAdvance(0)
}

func (e *Engine) sendQuestion() {
	question, ok := e.round.CurrentQuestion()
	if !ok {
		e.finishRound()
		return
	}
	e.state = StateQuestionSent
	e.broadcastRoster(protocol.Question{
		RoundID:       e.round.ID,
		QuestionCount: len(e.round.Questions),
		Category:      question.Category,
		Difficulty:    question.Difficulty,
		QuestionID:    question.Number,
		Text:          question.Text,
		Options:       question.Options,
	})
	e.log.Info().Int("round", e.round.ID).Int("question", question.Number).Msg("question sent")

	e.state = StateWaitingForAnswers
	e.publish()
	e.scheduleAdvance(e.currentSettings().AnswerDelay)
}

func (e *Engine) evaluateAnswers() {
	e.state = StateEvaluateAnswers
	question, ok := e.round.CurrentQuestion()
	if !ok {
		e.finishRound()
		return
	}
	results := e.round.Evaluate()

	// Overall scores are awarded here, at evaluation time; the round's own
	// scoreboard is credited later when the question advances.
	for clientID, correct := range results {
		if correct {
			e.registry.AddScore(clientID, 1)
		}
	}

	correctText := question.Options[question.CorrectOption]
	for clientID := range e.round.Roster {
		answerText := noAnswerText
		if answer, answered := e.round.Answers[clientID]; answered {
			if text, valid := question.Options[answer.OptionIndex]; valid {
				answerText = text
			}
		}
		e.queue.Enqueue(SendMessage{ClientID: clientID, Message: protocol.Result{
			RoundID:           e.round.ID,
			QuestionCount:     len(e.round.Questions),
			QuestionID:        question.Number,
			AnswerText:        answerText,
			Correct:           results[clientID],
			CorrectAnswerText: correctText,
		}})
	}
	e.log.Info().Int("round", e.round.ID).Int("question", question.Number).Msg("answers evaluated")

	e.state = StateWaitingForNextQuestion
	e.publish()
	e.scheduleAdvance(e.currentSettings().NextQuestionDelay)
}

func (e *Engine) nextQuestion() {
	if e.round.Advance() {
		e.state = StateSendQuestion
		e.scheduleAdvance(0)
		return
	}
	e.finishRound()
}

func (e *Engine) finishRound() {
	e.state = StateRoundComplete

	names := make(map[int]string)
	overallScores := make(map[int]int)
	for _, info := range e.registry.Snapshot() {
		names[info.ID] = info.Name
		overallScores[info.ID] = info.Score
	}
	for clientID, name := range e.round.Roster {
		names[clientID] = name
	}
	overall := standingsFromScores(overallScores, names)
	roundStandings := standingsFromScores(e.round.Scoreboard, names)

	for clientID := range e.round.Roster {
		own, inOverall := standingOf(overall, clientID)
		if !inOverall {
			// Left mid-round; nothing to deliver to.
			continue
		}
		roundOwn, _ := standingOf(roundStandings, clientID)
		var msg protocol.ServerMessage = protocol.RoundEnd{
			RoundID:            e.round.ID,
			OverallLeader:      leaderName(overall, clientID),
			OverallLeaderScore: overall[0].Score,
			RoundLeader:        leaderName(roundStandings, clientID),
			RoundLeaderScore:   roundStandings[0].Score,
			OverallScore:       own.Score,
			Score:              roundOwn.Score,
			OverallRank:        own.Rank,
			Rank:               roundOwn.Rank,
		}
		e.queue.Enqueue(SendMessage{ClientID: clientID, Message: msg})
	}

	e.log.Info().Int("round", e.round.ID).Msg("round complete")
	e.archiveRound(roundStandings)
	e.round.Stop()

	e.state = StateWaitingForNextRound
	e.publish()
	e.scheduleAdvance(e.currentSettings().RoundStartDelay)
}

func (e *Engine) archiveRound(standings []Standing) {
	if e.archive == nil {
		return
	}
	record := RoundRecord{
		RoundID:       e.round.ID,
		Category:      e.categoryName(e.round.Category),
		Difficulty:    e.round.Difficulty.Display(),
		QuestionCount: len(e.round.Questions),
		Standings:     standings,
		FinishedAt:    time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.archive.SaveRound(ctx, record); err != nil {
			e.log.Warn().Err(err).Int("round", record.RoundID).Msg("archiving round failed")
		}
	}()
}

func (e *Engine) handleDetails(a ProvideRoundDetails) {
	info := e.roundInfo(a.ClientID)
	e.queue.Enqueue(SendMessage{ClientID: a.ClientID, Message: protocol.RoundDetails{
		RoundID:          info.RoundID,
		QuestionCount:    info.QuestionCount,
		ParticipantCount: info.ParticipantCount,
		Category:         info.Category,
		Difficulty:       info.Difficulty,
		QuestionID:       info.QuestionID,
		Status:           info.Status,
		IsParticipant:    info.IsParticipant,
	}})
}

// roundInfo snapshots the live round, or the configured next round when
// none is live.
func (e *Engine) roundInfo(clientID int) domain.RoundInfo {
	if e.round.Started && !e.round.Over {
		questionID := 0
		if question, ok := e.round.CurrentQuestion(); ok {
			questionID = question.Number
		}
		_, isParticipant := e.round.Roster[clientID]
		return domain.RoundInfo{
			RoundID:          e.round.ID,
			QuestionCount:    len(e.round.Questions),
			ParticipantCount: len(e.round.Roster),
			Category:         e.categoryName(e.round.Category),
			Difficulty:       e.round.Difficulty.Display(),
			QuestionID:       questionID,
			Status:           e.state.String(),
			IsParticipant:    isParticipant,
		}
	}

	settings := e.currentSettings()
	_, registered := e.registry.Get(clientID)
	return domain.RoundInfo{
		RoundID:          e.roundSeq + 1,
		QuestionCount:    settings.QuestionCount,
		ParticipantCount: e.registry.Len(),
		Category:         e.categoryName(settings.Category),
		Difficulty:       settings.Difficulty.Display(),
		QuestionID:       0,
		Status:           e.state.String(),
		IsParticipant:    registered,
	}
}

func (e *Engine) categoryName(category *domain.Category) string {
	if category == nil {
		return "Any"
	}
	return category.Name
}

// broadcastRoster queues one copy of msg for every roster member. Sends go
// through the queue so they interleave with other actions in order.
func (e *Engine) broadcastRoster(msg protocol.ServerMessage) {
	for clientID := range e.round.Roster {
		e.queue.Enqueue(SendMessage{ClientID: clientID, Message: msg})
	}
}

// scheduleAdvance arms the next phase transition. A non-positive delay
// enqueues immediately; otherwise a timer goroutine enqueues when it fires.
// The token invalidates timers from phases that were since aborted.
func (e *Engine) scheduleAdvance(delay time.Duration) {
	e.advanceToken++
	token := e.advanceToken
	if delay <= 0 {
		e.queue.Enqueue(AdvanceState{Token: token})
		return
	}
	timer := time.NewTimer(delay)
	go func() {
		defer timer.Stop()
		select {
		case <-timer.C:
			e.queue.Enqueue(AdvanceState{Token: token})
		case <-e.ctx.Done():
		}
	}()
}

func (e *Engine) publish() {
	names := make(map[int]string)
	scores := make(map[int]int)
	for _, info := range e.registry.Snapshot() {
		names[info.ID] = info.Name
		scores[info.ID] = info.Score
	}

	snap := Snapshot{
		State:     e.state.String(),
		Standings: standingsFromScores(scores, names),
	}
	if e.round.Started && !e.round.Over {
		snap.RoundID = e.round.ID
		snap.QuestionCount = len(e.round.Questions)
		if question, ok := e.round.CurrentQuestion(); ok {
			snap.QuestionNumber = question.Number
		}
	}
	e.feed.Publish(snap)
}
