package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/logger"

	"kalyana/internal/models"
	"kalyana/internal/repositories"
	"kalyana/internal/utils"
)

const (
	PickupWindow        = 2 * time.Hour
	pickupCodeLength    = 6
	maxCodeAttempts     = 20
	maxPickupTxAttempts = 3
	mealsPerKg          = 2.5
)

var errCodeSpaceExhausted = errors.New("could not generate a unique pickup code")

// PickupCodeSender delivers the pickup code to the receiving NGO.
type PickupCodeSender interface {
	SendPickupCode(ctx context.Context, ngoID int, code string, pickupBy time.Time) error
}

type AllocationService struct {
	repo     repositories.AllocationRepository
	notifier Notifier
	sms      PickupCodeSender
	newCode  func() (string, error)
	now      func() time.Time
}

func NewAllocationService(repo repositories.AllocationRepository, notifier Notifier, sms PickupCodeSender) *AllocationService {
	return &AllocationService{
		repo:     repo,
		notifier: orNoop(notifier),
		sms:      sms,
		newCode:  func() (string, error) { return utils.GenerateNumericCode(pickupCodeLength) },
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RequestPickup reserves an available batch for the NGO and issues a pickup code.
// The batch row stays locked for the whole check-and-create sequence.
func (s *AllocationService) RequestPickup(ctx context.Context, actor Actor, surplusID int) (*models.Allocation, error) {
	if err := actor.require(models.RoleNGO); err != nil {
		return nil, err
	}

	var (
		created *models.Allocation
		err     error
	)
	// A concurrent request can take the same code between the check and the
	// insert; the unique index rejects it and the whole transaction is rerun.
	for attempt := 1; attempt <= maxPickupTxAttempts; attempt++ {
		created, err = s.requestOnce(ctx, actor, surplusID)
		if !errors.Is(err, repositories.ErrDuplicate) {
			break
		}
		logger.Warningf("[allocation][request] pickup code collision surplus_id=%d attempt=%d", surplusID, attempt)
	}
	if err != nil {
		return nil, err
	}

	logger.Infof("[allocation][request] ok id=%d surplus_id=%d ngo_id=%d", created.ID, surplusID, actor.UserID)
	s.notifier.Publish("allocation", "requested", models.RoleNGO)

	if s.sms != nil {
		if err := s.sms.SendPickupCode(ctx, actor.UserID, created.PickupCode, *created.PickupTime); err != nil {
			logger.Warningf("[allocation][request] pickup code sms failed ngo_id=%d: %v", actor.UserID, err)
		}
	}
	return created, nil
}

func (s *AllocationService) requestOnce(ctx context.Context, actor Actor, surplusID int) (*models.Allocation, error) {
	var created *models.Allocation
	err := s.repo.WithTx(ctx, func(tx repositories.AllocationTx) error {
		surplus, err := tx.GetSurplusForUpdate(ctx, surplusID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}
		if !canTransition(surplus.Status, models.SurplusRequested, SurplusTransitions) {
			return ErrNotReady
		}
		if strings.TrimSpace(surplus.PhotoPath) == "" {
			return ErrMissingPhoto
		}

		code, err := s.uniqueCode(ctx, tx)
		if err != nil {
			return err
		}

		pickupBy := s.now().Add(PickupWindow)
		a := &models.Allocation{
			SurplusID:  surplus.ID,
			ProviderID: surplus.ProviderID,
			NGOID:      actor.UserID,
			Status:     models.AllocationRequested,
			PickupTime: &pickupBy,
			PickupCode: code,
			FoodType:   surplus.FoodType,
			QuantityKg: surplus.QuantityKg,
		}
		if err := tx.CreateAllocation(ctx, a); err != nil {
			return fmt.Errorf("create allocation: %w", err)
		}
		if err := tx.UpdateSurplusStatus(ctx, surplus.ID, models.SurplusRequested); err != nil {
			return fmt.Errorf("update surplus status: %w", err)
		}
		created = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *AllocationService) uniqueCode(ctx context.Context, tx repositories.AllocationTx) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		taken, err := tx.ActiveCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", errCodeSpaceExhausted
}

// VerifyPickup completes an allocation when the provider enters the NGO's code.
// It reports changed=false when the allocation was already completed.
// A wrong code changes nothing and there is no lockout.
func (s *AllocationService) VerifyPickup(ctx context.Context, actor Actor, allocationID int, enteredCode string) (bool, error) {
	if err := actor.require(models.RoleProvider); err != nil {
		return false, err
	}
	entered := strings.TrimSpace(enteredCode)

	changed := false
	err := s.repo.WithTx(ctx, func(tx repositories.AllocationTx) error {
		a, err := tx.GetAllocationForUpdate(ctx, allocationID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}
		if a.ProviderID != actor.UserID {
			return ErrUnauthorized
		}
		if a.Status == models.AllocationCompleted {
			return nil
		}
		if entered == "" || a.PickupCode == "" ||
			subtle.ConstantTimeCompare([]byte(entered), []byte(a.PickupCode)) != 1 {
			return ErrInvalidCode
		}
		if !canTransition(a.Status, models.AllocationCompleted, AllocationTransitions) {
			return ErrInvalidCode
		}

		if err := tx.UpdateAllocationStatus(ctx, a.ID, models.AllocationCompleted); err != nil {
			return err
		}
		if err := tx.UpdateSurplusStatus(ctx, a.SurplusID, models.SurplusCompleted); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			logger.Warningf("[allocation][verify] invalid code id=%d provider_id=%d", allocationID, actor.UserID)
		}
		return false, err
	}

	if changed {
		logger.Infof("[allocation][verify] completed id=%d provider_id=%d", allocationID, actor.UserID)
		s.notifier.Publish("allocation", "completed", models.RoleProvider)
	}
	return changed, nil
}

// ProviderSummary lists the provider's allocations with completion counts and meals served.
func (s *AllocationService) ProviderSummary(ctx context.Context, actor Actor) (*models.AllocationSummary, error) {
	if err := actor.require(models.RoleProvider); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByProvider(ctx, actor.UserID, 0)
	if err != nil {
		return nil, err
	}
	return summarize(list), nil
}

func (s *AllocationService) ListForNGO(ctx context.Context, actor Actor) ([]models.Allocation, error) {
	if err := actor.require(models.RoleNGO); err != nil {
		return nil, err
	}
	return s.repo.ListByNGO(ctx, actor.UserID, "")
}

// NGOHistory lists completed pickups of the NGO.
func (s *AllocationService) NGOHistory(ctx context.Context, actor Actor) (*models.AllocationSummary, error) {
	if err := actor.require(models.RoleNGO); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByNGO(ctx, actor.UserID, models.AllocationCompleted)
	if err != nil {
		return nil, err
	}
	return summarize(list), nil
}

func summarize(list []models.Allocation) *models.AllocationSummary {
	res := &models.AllocationSummary{Allocations: list}
	var meals float64
	for _, a := range list {
		if a.Status == models.AllocationCompleted {
			res.CompletedCount++
		}
		meals += a.QuantityKg * mealsPerKg
	}
	res.PendingCount = len(list) - res.CompletedCount
	res.TotalMealsServed = int(meals)
	return res
}

// MealsServed converts a quantity in kg to an estimated meal count.
func MealsServed(kg float64) int {
	return int(kg * mealsPerKg)
}
