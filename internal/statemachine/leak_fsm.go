package statemachine

import (
	"context"
	"fmt"

	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/looplab/fsm"
)

// LeakFSM wraps a leak with its recovery state machine. Detected leaks
// move through investigation and recovery to one of the two terminal
// states; a written-off leak can be reopened if money shows up later.
type LeakFSM struct {
	leak *models.Leak
	fsm  *fsm.FSM
}

// NewLeakFSM creates a new leak state machine
func NewLeakFSM(leak *models.Leak) *LeakFSM {
	lfsm := &LeakFSM{
		leak: leak,
	}

	lfsm.fsm = fsm.NewFSM(
		leak.Status,
		fsm.Events{
			// detected → investigating
			{Name: "investigate", Src: []string{models.LeakStatusDetected}, Dst: models.LeakStatusInvestigating},

			// detected/investigating → in_recovery
			{Name: "start_recovery", Src: []string{models.LeakStatusDetected, models.LeakStatusInvestigating}, Dst: models.LeakStatusInRecovery},

			// in_recovery → recovered
			{Name: "recover", Src: []string{models.LeakStatusInRecovery}, Dst: models.LeakStatusRecovered},

			// detected/investigating/in_recovery → written_off
			{Name: "write_off", Src: []string{models.LeakStatusDetected, models.LeakStatusInvestigating, models.LeakStatusInRecovery}, Dst: models.LeakStatusWrittenOff},

			// written_off → investigating (reopen)
			{Name: "reopen", Src: []string{models.LeakStatusWrittenOff}, Dst: models.LeakStatusInvestigating},
		},
		fsm.Callbacks{},
	)

	return lfsm
}

// Investigate transitions the leak to investigating
func (l *LeakFSM) Investigate(ctx context.Context) error {
	if err := l.fsm.Event(ctx, "investigate"); err != nil {
		return fmt.Errorf("leak cannot be investigated in current state %s: %w", l.leak.Status, err)
	}

	l.leak.Status = l.fsm.Current()
	return nil
}

// StartRecovery transitions the leak to in_recovery
func (l *LeakFSM) StartRecovery(ctx context.Context) error {
	if err := l.fsm.Event(ctx, "start_recovery"); err != nil {
		return fmt.Errorf("leak recovery cannot start in current state %s: %w", l.leak.Status, err)
	}

	l.leak.Status = l.fsm.Current()
	return nil
}

// Recover transitions the leak to recovered
func (l *LeakFSM) Recover(ctx context.Context) error {
	if err := l.fsm.Event(ctx, "recover"); err != nil {
		return fmt.Errorf("leak cannot be recovered in current state %s: %w", l.leak.Status, err)
	}

	l.leak.Status = l.fsm.Current()
	return nil
}

// WriteOff transitions the leak to written_off
func (l *LeakFSM) WriteOff(ctx context.Context) error {
	if err := l.fsm.Event(ctx, "write_off"); err != nil {
		return fmt.Errorf("leak cannot be written off in current state %s: %w", l.leak.Status, err)
	}

	l.leak.Status = l.fsm.Current()
	return nil
}

// Reopen transitions a written-off leak back to investigating
func (l *LeakFSM) Reopen(ctx context.Context) error {
	if err := l.fsm.Event(ctx, "reopen"); err != nil {
		return fmt.Errorf("leak cannot be reopened in current state %s: %w", l.leak.Status, err)
	}

	l.leak.Status = l.fsm.Current()
	return nil
}

// Current returns the current state
func (l *LeakFSM) Current() string {
	return l.fsm.Current()
}

// Can reports whether the named event is allowed from the current state
func (l *LeakFSM) Can(event string) bool {
	return l.fsm.Can(event)
}
