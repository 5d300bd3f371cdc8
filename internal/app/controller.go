package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"academy-quiz-service/internal/domain"
	"academy-quiz-service/internal/metrics"
	"github.com/sirupsen/logrus"
)

// DefaultPointsPerCorrect is awarded per correct answer when scoring locally.
const DefaultPointsPerCorrect = 10

// State is the lifecycle phase of a controller.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateAnswering State = "answering"
	StateRevealed  State = "revealed"
	StateFinished  State = "finished"
)

// LoadRequest selects the question batch for a new session.
type LoadRequest struct {
	Mode      domain.Mode `json:"mode"`
	AcademyID string      `json:"academyId,omitempty"`
	TopicID   string      `json:"topicId,omitempty"`
	// QuestionIDs, when non-empty, overrides the mode and loads exactly
	// these questions.
	QuestionIDs []string `json:"questionIds,omitempty"`
	// KeepOrder serves a server-curated ordering without shuffling.
	KeepOrder bool `json:"keepOrder,omitempty"`
}

// AnswerOutcome is the result of SubmitAnswer. RemoteErrors lists the
// best-effort remote calls that failed; they never change Correct.
type AnswerOutcome struct {
	Correct      bool                `json:"correct"`
	Record       domain.AnswerRecord `json:"record"`
	Score        int                 `json:"score"`
	RemoteErrors []error             `json:"-"`
}

// Snapshot is a read-only view of the controller state.
type Snapshot struct {
	State        State                 `json:"state"`
	Mode         domain.Mode           `json:"mode,omitempty"`
	AcademyID    string                `json:"academyId,omitempty"`
	TopicID      string                `json:"topicId,omitempty"`
	SessionID    string                `json:"sessionId,omitempty"`
	CurrentIndex int                   `json:"currentIndex"`
	Total        int                   `json:"total"`
	Score        int                   `json:"score"`
	Selected     string                `json:"selected,omitempty"`
	Revealed     bool                  `json:"revealed"`
	Finished     bool                  `json:"finished"`
	Answers      []domain.AnswerRecord `json:"answers"`
}

// Dependencies are the collaborators a controller calls. Recorder, Statuses
// and Profiles may be nil, in which case the matching remote bookkeeping is
// skipped.
type Dependencies struct {
	Questions QuestionStore
	Recorder  SessionRecorder
	Statuses  QuestionStatusStore
	Profiles  ProfileStore
	Logger    logrus.FieldLogger
	Metrics   *metrics.Metrics
}

// Option customizes a controller.
type Option func(*Controller)

// WithClock replaces time.Now, for deterministic elapsed times in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithRand sets the random source used for shuffling.
func WithRand(rnd *rand.Rand) Option {
	return func(c *Controller) { c.rnd = rnd }
}

// WithPointsPerCorrect overrides DefaultPointsPerCorrect.
func WithPointsPerCorrect(points int) Option {
	return func(c *Controller) {
		if points >= 0 {
			c.pointsPerCorrect = points
		}
	}
}

// WithTestBatchSize caps test-mode batches after shuffling. Zero serves all.
func WithTestBatchSize(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.batchSize = n
		}
	}
}

// Controller drives one quiz attempt for one user: load a batch, take one
// answer per question, advance, and complete into a QuizStats summary.
//
// Local state is the source of truth for progression; the session recorder
// is the source of truth for the final aggregate when it answers sensibly.
// Remote failures are logged and reported through the Notifier and never
// abort the local flow.
type Controller struct {
	user     domain.User
	deps     Dependencies
	log      logrus.FieldLogger
	notifier Notifier

	now              func() time.Time
	rnd              *rand.Rand
	pointsPerCorrect int
	batchSize        int

	mu sync.Mutex
	// generation changes whenever the session is replaced or reset; remote
	// results captured under an older generation are dropped.
	generation uint64
	loading    bool
	answering  bool
	completed  bool
	stats      domain.QuizStats
	mode       domain.Mode
	academyID  string
	topicID    string
	sessionID  string
	questions  []domain.Question
	index      int
	score      int
	answers    []domain.AnswerRecord
	selected   string
	revealed   bool
	startedAt  time.Time
}

// NewController binds a controller to user. notifier may be nil.
func NewController(user domain.User, deps Dependencies, notifier Notifier, opts ...Option) *Controller {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Controller{
		user:             user,
		deps:             deps,
		log:              log.WithField("user_id", user.ID),
		notifier:         notifier,
		now:              time.Now,
		pointsPerCorrect: DefaultPointsPerCorrect,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewSource(c.now().UnixNano()))
	}
	c.startedAt = c.now()
	return c
}

// LoadQuestions fetches, shuffles and installs a new question batch, and
// tries to open a remote session for it. Precondition failures return
// ErrNoUser, ErrMissingFilters or ErrInvalidMode without touching state.
// An empty batch returns ErrNoQuestionsAvailable and leaves the previous
// session in place.
func (c *Controller) LoadQuestions(ctx context.Context, req LoadRequest) error {
	if c.user.ID == "" {
		return domain.ErrNoUser
	}
	explicit := len(req.QuestionIDs) > 0
	if !explicit {
		if !req.Mode.Valid() {
			return domain.ErrInvalidMode
		}
		if req.Mode == domain.ModeTest && (req.AcademyID == "" || req.TopicID == "") {
			return domain.ErrMissingFilters
		}
	}

	c.mu.Lock()
	c.loading = true
	gen := c.generation
	c.mu.Unlock()

	questions, err := c.fetch(ctx, req)
	if err != nil {
		c.finishLoading()
		if errors.Is(err, domain.ErrNoQuestionsAvailable) {
			return err
		}
		c.remoteFailure("load_questions", err, "Could not load questions. Please try again.")
		return fmt.Errorf("load questions: %w", err)
	}
	questions = c.usable(dedupe(questions))
	if len(questions) == 0 {
		c.finishLoading()
		return domain.ErrNoQuestionsAvailable
	}

	c.mu.Lock()
	if !req.KeepOrder {
		shuffleQuestions(c.rnd, questions)
	}
	c.mu.Unlock()
	if !explicit && req.Mode == domain.ModeTest && c.batchSize > 0 && len(questions) > c.batchSize {
		questions = questions[:c.batchSize]
	}

	mode := req.Mode
	if explicit && !mode.Valid() {
		mode = domain.ModeTest
	}
	sessionID := c.openSession(ctx, OpenSessionRequest{
		UserID:        c.user.ID,
		AcademyID:     req.AcademyID,
		TopicID:       req.TopicID,
		Mode:          mode,
		QuestionCount: len(questions),
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if c.generation != gen {
		return domain.ErrSessionSuperseded
	}
	c.generation++
	c.mode = mode
	c.academyID = req.AcademyID
	c.topicID = req.TopicID
	c.sessionID = sessionID
	c.questions = questions
	c.index = 0
	c.score = 0
	c.answers = nil
	c.selected = ""
	c.revealed = false
	c.answering = false
	c.completed = false
	c.stats = domain.QuizStats{}
	c.startedAt = c.now()

	c.deps.Metrics.ObserveQuestionsLoaded(string(mode), len(questions))
	c.log.WithFields(logrus.Fields{
		"mode":       mode,
		"questions":  len(questions),
		"session_id": sessionID,
	}).Info("quiz loaded")
	return nil
}

func (c *Controller) fetch(ctx context.Context, req LoadRequest) ([]domain.Question, error) {
	if len(req.QuestionIDs) > 0 {
		return c.deps.Questions.QuestionsByIDs(ctx, req.QuestionIDs)
	}
	if req.Mode == domain.ModeTest {
		return c.deps.Questions.QuestionsByTopic(ctx, req.AcademyID, req.TopicID)
	}

	if c.deps.Statuses == nil {
		return nil, domain.ErrNoQuestionsAvailable
	}
	ids, err := c.deps.Statuses.FailedQuestionIDs(ctx, c.user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed questions: %w", err)
	}
	if len(ids) == 0 {
		return nil, domain.ErrNoQuestionsAvailable
	}
	questions, err := c.deps.Questions.QuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if req.AcademyID == "" && req.TopicID == "" {
		return questions, nil
	}
	filtered := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if req.AcademyID != "" && q.AcademyID != req.AcademyID {
			continue
		}
		if req.TopicID != "" && q.TopicID != req.TopicID {
			continue
		}
		filtered = append(filtered, q)
	}
	return filtered, nil
}

// usable drops questions that break their invariants.
func (c *Controller) usable(questions []domain.Question) []domain.Question {
	out := questions[:0]
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			c.log.WithError(err).Warn("skipping invalid question")
			continue
		}
		out = append(out, q)
	}
	return out
}

func (c *Controller) openSession(ctx context.Context, req OpenSessionRequest) string {
	if c.deps.Recorder == nil {
		return ""
	}
	id, err := c.deps.Recorder.OpenSession(ctx, req)
	if err != nil {
		c.log.WithError(err).Warn("open session failed, scoring locally")
		c.deps.Metrics.ObserveRemoteFailure("open_session")
		c.notify(LevelWarning, "Progress will be scored on this device only.")
		return ""
	}
	return id
}

func (c *Controller) finishLoading() {
	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
}

// SubmitAnswer records the answer to the current question and reveals it.
// It returns ErrSubmitRefused when there is no current question, the
// question is already revealed or another submission is in flight.
// Remote bookkeeping is best-effort: failures are collected in
// AnswerOutcome.RemoteErrors and never change the local result.
func (c *Controller) SubmitAnswer(ctx context.Context, selected string) (AnswerOutcome, error) {
	// Recorders compare labels verbatim; send the same label IsCorrect saw.
	selected = strings.ToUpper(strings.TrimSpace(selected))

	c.mu.Lock()
	question, ok := c.currentLocked()
	if !ok || c.revealed || c.answering || c.loading || c.completed {
		c.mu.Unlock()
		return AnswerOutcome{}, domain.ErrSubmitRefused
	}
	c.answering = true
	c.selected = selected
	gen := c.generation
	sessionID := c.sessionID
	mode := c.mode
	now := c.now()
	elapsed := int(now.Sub(c.startedAt) / time.Second)
	c.mu.Unlock()

	if elapsed < 0 {
		elapsed = 0
	}
	correct := domain.IsCorrect(selected, question.CorrectOption)
	record := domain.AnswerRecord{
		QuestionID:     question.ID,
		SelectedOption: selected,
		CorrectOption:  question.CorrectOption,
		Correct:        correct,
		ElapsedSeconds: elapsed,
		AnsweredAt:     now,
	}
	remoteErrs := c.recordRemotely(ctx, sessionID, mode, record)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return AnswerOutcome{}, domain.ErrSessionSuperseded
	}
	c.answering = false
	c.answers = append(c.answers, record)
	if correct {
		c.score++
	}
	c.revealed = true
	c.deps.Metrics.ObserveAnswer(correct)

	return AnswerOutcome{
		Correct:      correct,
		Record:       record,
		Score:        c.score,
		RemoteErrors: remoteErrs,
	}, nil
}

func (c *Controller) recordRemotely(ctx context.Context, sessionID string, mode domain.Mode, record domain.AnswerRecord) []error {
	var errs []error
	fail := func(op string, err error) {
		c.log.WithError(err).WithField("question_id", record.QuestionID).Warnf("%s failed", op)
		c.deps.Metrics.ObserveRemoteFailure(op)
		errs = append(errs, fmt.Errorf("%s: %w", op, err))
	}

	if statuses := c.deps.Statuses; statuses != nil {
		if err := statuses.MarkOutcome(ctx, c.user.ID, record.QuestionID, record.Correct); err != nil {
			fail("mark_outcome", err)
		}
	}
	if sessionID != "" && c.deps.Recorder != nil {
		err := c.deps.Recorder.RecordAnswer(ctx, RecordAnswerRequest{
			SessionID:      sessionID,
			QuestionID:     record.QuestionID,
			SelectedOption: record.SelectedOption,
			ElapsedSeconds: record.ElapsedSeconds,
		})
		if err != nil {
			fail("record_answer", err)
		}
	}

	if statuses := c.deps.Statuses; statuses != nil {
		switch {
		case mode == domain.ModePractice && record.Correct:
			if err := statuses.RemoveFailed(ctx, c.user.ID, record.QuestionID); err != nil {
				fail("remove_failed", err)
			}
		case mode == domain.ModeTest && !record.Correct:
			if err := statuses.AddFailed(ctx, c.user.ID, record.QuestionID); err != nil {
				fail("add_failed", err)
			}
		}
	}

	if len(errs) > 0 {
		c.notify(LevelWarning, "Your answer could not be saved online.")
	}
	return errs
}

// NextQuestion advances to the next question and resets per-question state.
// It does not check bounds: past the end CurrentQuestion reports false.
func (c *Controller) NextQuestion() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index++
	c.selected = ""
	c.revealed = false
	c.startedAt = c.now()
}

// CompleteQuiz closes the session and returns its summary. With an open
// remote session the recorder's summary wins; if it errors or has an
// unexpected shape the summary is computed locally. Without a remote
// session the stats are local and the points are credited to the profile
// here. The session id is always cleared; answer history is kept until
// ResetQuiz. Calling it again returns the same summary.
func (c *Controller) CompleteQuiz(ctx context.Context) (domain.QuizStats, error) {
	c.mu.Lock()
	if c.completed {
		stats := c.stats
		c.mu.Unlock()
		return stats, nil
	}
	sessionID := c.sessionID
	c.sessionID = ""
	gen := c.generation
	total := len(c.questions)
	answers := append([]domain.AnswerRecord(nil), c.answers...)
	ids := make([]string, 0, len(c.questions))
	for _, q := range c.questions {
		ids = append(ids, q.ID)
	}
	c.mu.Unlock()

	var stats domain.QuizStats
	if sessionID != "" && c.deps.Recorder != nil {
		stats = c.remoteStats(ctx, sessionID, total, answers)
	} else {
		stats = ManualStats(total, answers, c.pointsPerCorrect)
		c.creditPoints(ctx, stats.PointsEarned)
	}
	if stats.AverageSeconds == 0 && len(answers) > 0 {
		stats.AverageSeconds = ManualStats(total, answers, c.pointsPerCorrect).AverageSeconds
	}
	stats.FailedRemaining = c.failedRemaining(ctx, ids)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return stats, domain.ErrSessionSuperseded
	}
	c.completed = true
	c.stats = stats
	c.deps.Metrics.ObserveCompletion(string(stats.Source))
	c.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"source":     stats.Source,
		"correct":    stats.CorrectAnswers,
		"total":      stats.TotalQuestions,
	}).Info("quiz completed")
	return stats, nil
}

func (c *Controller) remoteStats(ctx context.Context, sessionID string, total int, answers []domain.AnswerRecord) domain.QuizStats {
	raw, err := c.deps.Recorder.CompleteSession(ctx, sessionID)
	if err == nil {
		var stats domain.QuizStats
		if stats, err = ParseSessionSummary(raw); err == nil {
			return stats
		}
	}
	c.log.WithError(err).WithField("session_id", sessionID).Warn("complete session failed, using local stats")
	c.deps.Metrics.ObserveRemoteFailure("complete_session")
	c.notify(LevelWarning, "Results were calculated on this device.")
	return ManualStats(total, answers, c.pointsPerCorrect)
}

func (c *Controller) creditPoints(ctx context.Context, points int) {
	if c.deps.Profiles == nil || points <= 0 {
		return
	}
	newTotal, err := c.deps.Profiles.AddPoints(ctx, c.user.ID, points)
	if err != nil {
		c.log.WithError(err).Warn("add points failed")
		c.deps.Metrics.ObserveRemoteFailure("add_points")
		c.notify(LevelError, "Your points could not be saved.")
		return
	}
	c.log.WithFields(logrus.Fields{"points": points, "total_points": newTotal}).Debug("points credited")
}

func (c *Controller) failedRemaining(ctx context.Context, ids []string) int {
	if c.deps.Statuses == nil || len(ids) == 0 {
		return 0
	}
	n, err := c.deps.Statuses.CountFailed(ctx, c.user.ID, ids)
	if err != nil {
		c.log.WithError(err).Warn("count failed questions failed")
		c.deps.Metrics.ObserveRemoteFailure("count_failed")
		return 0
	}
	return n
}

// ResetQuiz discards the session and its history. Remote calls still in
// flight for the old session are ignored when they return.
func (c *Controller) ResetQuiz() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.loading = false
	c.answering = false
	c.completed = false
	c.stats = domain.QuizStats{}
	c.mode = ""
	c.academyID = ""
	c.topicID = ""
	c.sessionID = ""
	c.questions = nil
	c.index = 0
	c.score = 0
	c.answers = nil
	c.selected = ""
	c.revealed = false
	c.startedAt = c.now()
}

// CurrentQuestion returns the question at the current index.
func (c *Controller) CurrentQuestion() (domain.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *Controller) currentLocked() (domain.Question, bool) {
	if c.index < 0 || c.index >= len(c.questions) {
		return domain.Question{}, false
	}
	return c.questions[c.index], true
}

// Questions returns a copy of the loaded batch in serving order.
func (c *Controller) Questions() []domain.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Question(nil), c.questions...)
}

// IsFinished reports whether every question has been answered and the
// index sits on the last one.
func (c *Controller) IsFinished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finishedLocked()
}

func (c *Controller) finishedLocked() bool {
	n := len(c.questions)
	return n > 0 && c.index == n-1 && len(c.answers) == n
}

// SessionID is the open remote session, empty when scoring locally.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// User returns the user the controller is bound to.
func (c *Controller) User() domain.User {
	return c.user
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:        c.stateLocked(),
		Mode:         c.mode,
		AcademyID:    c.academyID,
		TopicID:      c.topicID,
		SessionID:    c.sessionID,
		CurrentIndex: c.index,
		Total:        len(c.questions),
		Score:        c.score,
		Selected:     c.selected,
		Revealed:     c.revealed,
		Finished:     c.finishedLocked(),
		Answers:      append([]domain.AnswerRecord(nil), c.answers...),
	}
}

func (c *Controller) stateLocked() State {
	switch {
	case c.loading:
		return StateLoading
	case c.completed:
		return StateFinished
	case len(c.questions) == 0:
		return StateIdle
	case c.revealed:
		return StateRevealed
	default:
		return StateAnswering
	}
}

func (c *Controller) remoteFailure(op string, err error, message string) {
	c.log.WithError(err).Errorf("%s failed", op)
	c.deps.Metrics.ObserveRemoteFailure(op)
	c.notify(LevelError, message)
}

func (c *Controller) notify(level Level, message string) {
	c.notifier.Notify(Notification{Level: level, Message: message})
}
