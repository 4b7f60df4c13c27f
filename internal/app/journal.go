package app

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"whaledeck/clients/whaleapi"
)

// JournalPhase is the lifecycle state of the journal panel for one signal.
type JournalPhase string

const (
	JournalHidden  JournalPhase = "hidden"  // no entry, no action taken
	JournalLoading JournalPhase = "loading" // create request in flight
	JournalForm    JournalPhase = "form"    // create failed, error shown with retry
	JournalDisplay JournalPhase = "display" // entry exists and is shown
)

// JournalView is a snapshot of the journal state machine.
type JournalView struct {
	Phase        JournalPhase
	Entry        *whaleapi.JournalEntry
	ErrMsg       string // create error, shown in the form state
	RefreshErr   string // refresh error, shown without leaving display
	SaveErr      string // note-save error, shown while editing continues
	EditingNotes bool
	NotesBuffer  string
}

// JournalStateMachine manages one user's self-reported position for one
// signal: hidden → loading → form(error) | display, with a nested
// note-editing toggle inside display. It has no memory across a close;
// Reset returns everything to hidden.
type JournalStateMachine struct {
	logger   *zap.Logger
	api      *whaleapi.Client
	signalID int

	mu           sync.Mutex
	phase        JournalPhase
	entry        *whaleapi.JournalEntry
	errMsg       string
	refreshErr   string
	saveErr      string
	editingNotes bool
	notesBuffer  string
}

// NewJournalStateMachine creates a journal state machine for one signal.
func NewJournalStateMachine(logger *zap.Logger, api *whaleapi.Client, signalID int) *JournalStateMachine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalStateMachine{
		logger:   logger,
		api:      api,
		signalID: signalID,
		phase:    JournalHidden,
	}
}

// View returns the current state snapshot.
func (j *JournalStateMachine) View() JournalView {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JournalView{
		Phase:        j.phase,
		Entry:        j.entry,
		ErrMsg:       j.errMsg,
		RefreshErr:   j.refreshErr,
		SaveErr:      j.saveErr,
		EditingNotes: j.editingNotes,
		NotesBuffer:  j.notesBuffer,
	}
}

// Open probes for an existing entry when the detail view opens. A found
// entry short-circuits straight to display. Any failure — not-found
// included — is treated as "no entry exists" and leaves the state hidden;
// this probe never produces an error banner.
func (j *JournalStateMachine) Open(ctx context.Context) {
	entry, err := j.api.Journal(ctx, j.signalID)
	if err != nil {
		if !whaleapi.IsNotFound(err) {
			j.logger.Warn("journal existence check failed, treating as absent",
				zap.Int("signalID", j.signalID),
				zap.Error(err),
			)
		}
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.phase = JournalDisplay
	j.entry = entry
	j.notesBuffer = entry.Thesis
}

// Add creates the entry for this signal (the "add to journal" action). It
// moves hidden → loading immediately, then display on success or form with
// the error message on failure. Calling it again from form is the retry.
func (j *JournalStateMachine) Add(ctx context.Context, notes *string) {
	j.mu.Lock()
	if j.phase != JournalHidden && j.phase != JournalForm {
		j.mu.Unlock()
		return
	}
	j.phase = JournalLoading
	j.errMsg = ""
	j.mu.Unlock()

	entry, err := j.api.CreateJournal(ctx, j.signalID, notes)

	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		j.phase = JournalForm
		j.errMsg = userMessage(err)
		return
	}
	j.phase = JournalDisplay
	j.entry = entry
	j.notesBuffer = entry.Thesis
}

// Refresh recomputes the entry from the backend (e.g. pulling the user's
// live on-chain position) and overwrites stored fields. Errors are captured
// and shown without leaving display.
func (j *JournalStateMachine) Refresh(ctx context.Context) {
	j.mu.Lock()
	if j.phase != JournalDisplay {
		j.mu.Unlock()
		return
	}
	j.mu.Unlock()

	entry, err := j.api.RefreshJournal(ctx, j.signalID)

	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		j.refreshErr = userMessage(err)
		return
	}
	j.refreshErr = ""
	j.entry = entry
	if !j.editingNotes {
		j.notesBuffer = entry.Thesis
	}
}

// BeginEditNotes expands the note editor, seeding the buffer from the
// stored thesis.
func (j *JournalStateMachine) BeginEditNotes() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.phase != JournalDisplay || j.entry == nil {
		return
	}
	j.editingNotes = true
	j.notesBuffer = j.entry.Thesis
}

// SetNotesBuffer updates the editable buffer.
func (j *JournalStateMachine) SetNotesBuffer(text string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.editingNotes {
		j.notesBuffer = text
	}
}

// CanSaveNotes reports whether Save would do anything: a buffer identical to
// the stored thesis disables the no-op save.
func (j *JournalStateMachine) CanSaveNotes() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.editingNotes && j.entry != nil && j.notesBuffer != j.entry.Thesis
}

// SaveNotes persists the edited thesis. A no-op save is rejected; mutation
// errors are captured and shown while editing continues.
func (j *JournalStateMachine) SaveNotes(ctx context.Context) error {
	j.mu.Lock()
	if !j.editingNotes || j.entry == nil {
		j.mu.Unlock()
		return errors.New("not editing")
	}
	if j.notesBuffer == j.entry.Thesis {
		j.mu.Unlock()
		return errors.New("notes unchanged")
	}
	buffer := j.notesBuffer
	j.mu.Unlock()

	entry, err := j.api.UpdateJournal(ctx, j.signalID, buffer)

	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		j.saveErr = userMessage(err)
		return err
	}
	j.entry = entry
	j.notesBuffer = entry.Thesis
	j.editingNotes = false
	j.saveErr = ""
	return nil
}

// CancelEditNotes discards the buffer and reverts to the stored thesis,
// returning to the collapsed view.
func (j *JournalStateMachine) CancelEditNotes() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.editingNotes = false
	j.saveErr = ""
	if j.entry != nil {
		j.notesBuffer = j.entry.Thesis
	}
}

// Reset returns the machine to hidden when the containing detail view
// closes. Nothing survives but what the backend persists.
func (j *JournalStateMachine) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.phase = JournalHidden
	j.entry = nil
	j.errMsg = ""
	j.refreshErr = ""
	j.saveErr = ""
	j.editingNotes = false
	j.notesBuffer = ""
}

// userMessage extracts the display text for an error: the backend's own
// message when it sent one, the raw error text otherwise.
func userMessage(err error) string {
	var apiErr *whaleapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
