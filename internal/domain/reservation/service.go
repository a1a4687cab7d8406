package reservation

import (
	"context"
	"errors"
	"time"

	"classbook/internal/domain/entitlement"
)

// DefaultCancelCutoff is how close to the slot start a cancellation is
// still accepted.
const DefaultCancelCutoff = 2 * time.Hour

type Service struct {
	repo   Repository
	slots  SlotStore
	ledger EntitlementLedger
	cutoff time.Duration
}

func NewService(repo Repository, slots SlotStore, ledger EntitlementLedger, cutoff time.Duration) *Service {
	if cutoff <= 0 {
		cutoff = DefaultCancelCutoff
	}
	return &Service{repo: repo, slots: slots, ledger: ledger, cutoff: cutoff}
}

// Book creates a single reservation: entitlement check, atomic capacity
// reserve, reservation insert, entitlement debit. Any failure after the
// reserve compensates what came before it, so the operation is
// all-or-nothing.
func (s *Service) Book(ctx context.Context, userID, slotID int64) (*Reservation, error) {
	slot, err := s.slots.GetSlotByID(ctx, slotID)
	if err != nil {
		return nil, err
	}

	if !slot.StartTime.After(time.Now().UTC()) {
		return nil, ErrPastSlot
	}

	sub, err := s.ledger.ActiveSubscription(ctx, userID, slot.CompanyID)
	if err != nil {
		if errors.Is(err, entitlement.ErrSubscriptionNotFound) {
			return nil, ErrCannotBook
		}
		return nil, err
	}

	allowed, err := s.ledger.CanBook(ctx, sub.ID, slot.Date)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrCannotBook
	}

	if err := s.slots.Reserve(ctx, slot.ID); err != nil {
		return nil, err
	}

	res := &Reservation{
		UserID:    userID,
		CompanyID: slot.CompanyID,
		SlotID:    slot.ID,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		_ = s.slots.Release(ctx, slot.ID)
		return nil, err
	}

	if _, err := s.ledger.Debit(ctx, sub.ID, slot.Date, &res.ID, entitlement.UsageReservation); err != nil {
		_ = s.repo.Delete(ctx, res.ID)
		_ = s.slots.Release(ctx, slot.ID)
		return nil, err
	}

	return res, nil
}

// Cancel releases the slot and removes the reservation. The used class is
// not credited back: a cutoff-compliant cancellation still counts against
// the week's allowance, and only recurring-rule teardown restores quota.
func (s *Service) Cancel(ctx context.Context, reservationID, userID int64) error {
	res, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if res.UserID != userID {
		return ErrForbidden
	}

	slot, err := s.slots.GetSlotByID(ctx, res.SlotID)
	if err != nil {
		return err
	}
	if time.Until(slot.StartTime) < s.cutoff {
		return ErrCutoffExceeded
	}

	if err := s.repo.Delete(ctx, res.ID); err != nil {
		return err
	}
	return s.slots.Release(ctx, slot.ID)
}

// ActiveRules lists the user's active recurring rules at a company.
func (s *Service) ActiveRules(ctx context.Context, userID, companyID int64) ([]RecurringReservation, error) {
	return s.repo.ListActiveRules(ctx, userID, companyID)
}

func (s *Service) ListMyReservations(ctx context.Context, userID int64, limit, offset int) ([]Reservation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
