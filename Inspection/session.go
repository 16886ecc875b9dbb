package Inspection

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// SessionState tracks where a scoring session sits in its lifecycle.
type SessionState string

const (
	StateNotStarted SessionState = "NOT_STARTED"
	StateScoring    SessionState = "SCORING"
	StateSubmitting SessionState = "SUBMITTING"
	StateSubmitted  SessionState = "SUBMITTED"
	StateFailed     SessionState = "FAILED"
)

// Appointments must be in this status before scoring can begin.
const StatusConfirmed = "CONFIRMED"

var (
	// ErrEmptySubmission rejects a submit attempt with every score still
	// at zero. Raised before any network call is made.
	ErrEmptySubmission = errors.New("no scores entered, at least one item must be scored")

	// ErrScoreOverflow means the sheet total exceeds the maximum, which
	// clamping should make impossible. It signals a corrupted sheet, not
	// a user mistake.
	ErrScoreOverflow = errors.New("total score exceeds the maximum, score sheet is corrupted")
)

// SubmissionRejectedError carries the remote service's reason for
// refusing an inspection result. The session stays open for retry.
type SubmissionRejectedError struct {
	Message string
}

func (e *SubmissionRejectedError) Error() string {
	return e.Message
}

// ResultPayload is the wire shape sent when completing an appointment.
// Item scores are ordered by template ordinal.
type ResultPayload struct {
	TotalScore       int    `json:"total_score"`
	ItemScores       []int  `json:"item_scores"`
	OwnerObservation string `json:"owner_observation,omitempty"`
}

// Receipt reports a recorded inspection back to the user. Reason is set
// when a failing item forced the verdict down, so a rejection can be
// explained even when the total clears the passing mark.
type Receipt struct {
	ResultID   string `json:"result_id,omitempty"`
	TotalScore int    `json:"total_score"`
	Passed     bool   `json:"passed"`
	Reason     string `json:"reason,omitempty"`
}

// Submitter records a completed inspection with the collaborating
// service. Implementations must create exactly one result per call.
type Submitter interface {
	CompleteAppointment(appointmentID string, payload ResultPayload) (*Receipt, error)
}

// Session drives one inspector through scoring a single appointment. It
// owns its score sheet exclusively and allows at most one outstanding
// submission at a time.
type Session struct {
	mu            sync.Mutex
	state         SessionState
	appointmentID string
	sheet         *ScoreSheet
	observation   string
	submitter     Submitter
}

func NewSession(submitter Submitter) *Session {
	return &Session{
		state:     StateNotStarted,
		sheet:     NewScoreSheet(),
		submitter: submitter,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AppointmentID returns the appointment being scored, empty before Begin.
func (s *Session) AppointmentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appointmentID
}

// Begin starts scoring the given appointment. Only confirmed appointments
// are eligible. All scores reset to zero. Begin may be called again to
// switch appointments at any point except while a submit is in flight.
func (s *Session) Begin(appointmentID string, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return fmt.Errorf("cannot start a new session while a submission is in flight")
	}
	if status != StatusConfirmed {
		return fmt.Errorf("appointment %s is not confirmed, cannot start scoring", appointmentID)
	}
	s.appointmentID = appointmentID
	s.sheet.Reset()
	s.observation = ""
	s.state = StateScoring
	return nil
}

// SetScore records one item score. Valid only while scoring.
func (s *Session) SetScore(ordinal int, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateScoring {
		return fmt.Errorf("no scoring session in progress")
	}
	s.sheet.SetScore(ordinal, value)
	return nil
}

// SetRawScore records free-form input for one item. Valid only while
// scoring.
func (s *Session) SetRawScore(ordinal int, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateScoring {
		return fmt.Errorf("no scoring session in progress")
	}
	s.sheet.SetRawScore(ordinal, raw)
	return nil
}

// SetObservation stores the inspector's free-text observation. Trimmed at
// submit time and omitted from the payload when empty.
func (s *Session) SetObservation(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateScoring {
		return fmt.Errorf("no scoring session in progress")
	}
	s.observation = text
	return nil
}

// Verdict returns the current computed outcome of the sheet.
func (s *Session) Verdict() Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheet.Verdict()
}

// Submit validates the sheet and records the result through the
// submitter. Validation failures surface before any network call. A
// remote rejection returns the session to scoring so the inspector can
// retry; nothing is retried automatically. A second Submit while one is
// outstanding is refused.
func (s *Session) Submit() (*Receipt, error) {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return nil, fmt.Errorf("a submission is already in progress")
	}
	if s.state != StateScoring {
		s.mu.Unlock()
		return nil, fmt.Errorf("no scoring session in progress")
	}

	total := s.sheet.TotalScore()
	if total == 0 {
		s.mu.Unlock()
		return nil, ErrEmptySubmission
	}
	if total > MaxTotalScore {
		s.state = StateFailed
		s.mu.Unlock()
		return nil, ErrScoreOverflow
	}

	verdict := s.sheet.Verdict()
	payload := ResultPayload{
		TotalScore:       total,
		ItemScores:       s.sheet.Scores(),
		OwnerObservation: strings.TrimSpace(s.observation),
	}
	appointmentID := s.appointmentID
	s.state = StateSubmitting
	s.mu.Unlock()

	receipt, err := s.submitter.CompleteAppointment(appointmentID, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateScoring
		var rejected *SubmissionRejectedError
		if errors.As(err, &rejected) {
			return nil, err
		}
		return nil, &SubmissionRejectedError{Message: err.Error()}
	}

	s.state = StateSubmitted
	if receipt == nil {
		receipt = &Receipt{TotalScore: verdict.TotalScore, Passed: verdict.Passed}
	}
	if receipt.Reason == "" {
		receipt.Reason = verdict.Reason
	}
	return receipt, nil
}
