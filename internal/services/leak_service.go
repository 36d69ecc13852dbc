package services

import (
	"context"
	"fmt"

	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/leakwatch/leakwatch-api/internal/repository"
	"github.com/leakwatch/leakwatch-api/internal/statemachine"
)

// LeakService exposes the recovery workflow over detected leaks.
type LeakService struct {
	repo     repository.LeakRepository
	notifier AdminNotifier
}

func NewLeakService(repo repository.LeakRepository, notifier AdminNotifier) *LeakService {
	return &LeakService{repo: repo, notifier: notifier}
}

func (s *LeakService) FindByID(ctx context.Context, id uint) (*models.Leak, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *LeakService) FindByCompany(ctx context.Context, companyID uint, query *repository.ListQuery) ([]models.Leak, int64, error) {
	return s.repo.FindByCompany(ctx, companyID, query)
}

func (s *LeakService) Summary(ctx context.Context, companyID uint) (*repository.LeakSummary, error) {
	return s.repo.Summary(ctx, companyID)
}

// Transition applies a named recovery event to the leak and persists the
// resulting status. Invalid transitions return ErrInvalidState.
func (s *LeakService) Transition(ctx context.Context, id uint, event string) (*models.Leak, error) {
	leak, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	lfsm := statemachine.NewLeakFSM(leak)

	switch event {
	case "investigate":
		err = lfsm.Investigate(ctx)
	case "start_recovery":
		err = lfsm.StartRecovery(ctx)
	case "recover":
		err = lfsm.Recover(ctx)
	case "write_off":
		err = lfsm.WriteOff(ctx)
	case "reopen":
		err = lfsm.Reopen(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrInvalidState, event)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if err := s.repo.Update(ctx, leak); err != nil {
		return nil, err
	}

	if leak.Status == models.LeakStatusRecovered && s.notifier != nil {
		title := "Leak recovered"
		message := fmt.Sprintf("%s leak of $%.2f (ref %s) was marked recovered", leak.LeakType, leak.Amount, leak.SourceReference)
		s.notifier.NotifyAdmins(ctx, title, message, models.NotificationTypeLeakRecovered)
	}

	return leak, nil
}
