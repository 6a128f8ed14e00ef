package service

import (
	"fmt"
	"sync"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

// FlowState is a step of the submission lifecycle.
type FlowState string

const (
	FlowEmpty      FlowState = "empty"
	FlowEditing    FlowState = "editing"
	FlowValidating FlowState = "validating"
	FlowInvalid    FlowState = "invalid"
	FlowSubmitting FlowState = "submitting"
	FlowSucceeded  FlowState = "succeeded"
	FlowFailed     FlowState = "failed"
)

// SubmissionFlow tracks one draft from first edit to upstream answer.
//
//	Empty -> Editing -> Validating -> Invalid | Submitting -> Succeeded | Failed
//
// Invalid and Failed go back to Editing on the next edit. Succeeded hands
// out the submission id and leaves an empty draft behind.
type SubmissionFlow struct {
	mu           sync.Mutex
	state        FlowState
	draft        models.Draft
	errors       []models.FieldError
	failure      string
	submissionID string
	rules        SubmissionRules
}

// NewSubmissionFlow returns a flow in the Empty state.
func NewSubmissionFlow(rules SubmissionRules) *SubmissionFlow {
	return &SubmissionFlow{state: FlowEmpty, rules: rules}
}

// State reports the current step.
func (f *SubmissionFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns the draft held by the flow.
func (f *SubmissionFlow) Draft() models.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Errors returns the field errors of the last validation.
func (f *SubmissionFlow) Errors() []models.FieldError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.FieldError(nil), f.errors...)
}

// Failure returns the message of the last failed send.
func (f *SubmissionFlow) Failure() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failure
}

// SubmissionID returns the id handed out by the last success.
func (f *SubmissionFlow) SubmissionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submissionID
}

// Edit replaces the draft. Field errors are recomputed so that switching
// category never leaves an error for a field that is no longer required.
func (f *SubmissionFlow) Edit(draft models.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case FlowEmpty, FlowEditing, FlowInvalid, FlowFailed, FlowSucceeded:
	default:
		return f.transitionError("edit")
	}
	hadErrors := len(f.errors) > 0
	f.draft = draft
	f.failure = ""
	f.state = FlowEditing
	if hadErrors {
		f.errors = ValidateDraft(draft, f.rules)
	} else {
		f.errors = nil
	}
	return nil
}

// Begin validates the draft. It moves to Submitting and returns nil when
// the draft is valid, otherwise to Invalid with a *DraftValidationError.
func (f *SubmissionFlow) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case FlowEmpty, FlowEditing, FlowInvalid, FlowFailed:
	default:
		return f.transitionError("submit")
	}
	f.state = FlowValidating
	errs := ValidateDraft(f.draft, f.rules)
	if len(errs) > 0 {
		f.errors = errs
		f.state = FlowInvalid
		return &DraftValidationError{Fields: append([]models.FieldError(nil), errs...)}
	}
	f.errors = nil
	f.failure = ""
	f.state = FlowSubmitting
	return nil
}

// Succeed records the upstream acceptance and resets the draft.
func (f *SubmissionFlow) Succeed(submissionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FlowSubmitting {
		return f.transitionError("complete")
	}
	f.state = FlowSucceeded
	f.submissionID = submissionID
	f.draft = models.Draft{}
	f.errors = nil
	return nil
}

// Fail records a rejected or failed send. The draft stays as it was.
func (f *SubmissionFlow) Fail(message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FlowSubmitting {
		return f.transitionError("fail")
	}
	f.state = FlowFailed
	f.failure = message
	return nil
}

func (f *SubmissionFlow) transitionError(action string) error {
	return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot %s while %s", action, f.state))
}
