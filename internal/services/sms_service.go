package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/logger"

	"kalyana/internal/repositories"
	"kalyana/internal/utils"
)

// SMSSender is the outbound SMS transport.
type SMSSender interface {
	SendSMS(ctx context.Context, to, text string) (*utils.SendSMSResponse, error)
}

// SMSService texts pickup codes to NGOs with a verified phone number.
type SMSService struct {
	users  repositories.UserRepository
	client SMSSender
}

func NewSMSService(users repositories.UserRepository, client SMSSender) *SMSService {
	return &SMSService{users: users, client: client}
}

func (s *SMSService) SendPickupCode(ctx context.Context, ngoID int, code string, pickupBy time.Time) error {
	u, err := s.users.GetByID(ctx, ngoID)
	if err != nil {
		return fmt.Errorf("load ngo: %w", err)
	}
	if u.PhoneNumber == nil || *u.PhoneNumber == "" {
		logger.Infof("[sms][pickup] skip ngo_id=%d: no phone", ngoID)
		return nil
	}

	text := fmt.Sprintf("Kalyana Connection pickup code: %s. Show it to the provider before %s UTC.",
		code, pickupBy.UTC().Format("15:04"))
	resp, err := s.client.SendSMS(ctx, *u.PhoneNumber, text)
	if err != nil {
		return fmt.Errorf("mobizon error: %w", err)
	}
	logger.Infof("[sms][pickup][send] ok ngo_id=%d message_id=%s", ngoID, resp.Data.MessageID)
	return nil
}
