package model

import (
	"time"

	"press-subscription/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

const (
	MinDurationMonths = 1
	MaxDurationMonths = 36

	// DaysPerMonth is the fixed month length used for end dates; it is not calendar-accurate.
	DaysPerMonth = 30
)

// Subscription is one paid entitlement of a user to a publication.
// Price is fixed at creation. Publication is a read-only snapshot for display.
type Subscription struct {
	ID            string             `json:"id"`
	UserID        string             `json:"user_id"`
	PublicationID string             `json:"publication_id"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       time.Time          `json:"end_date"`
	Status        SubscriptionStatus `json:"status"`
	Price         decimal.Decimal    `json:"price"`
	AutoRenew     bool               `json:"auto_renew"`
	CreatedAt     time.Time          `json:"created_at"`

	Publication *Publication `json:"publication,omitempty"`
}

// ValidDuration reports whether months is inside the accepted subscription length.
func ValidDuration(months int) bool {
	return months >= MinDurationMonths && months <= MaxDurationMonths
}

// SubscriptionEnd returns start + 30 days per month.
func SubscriptionEnd(start time.Time, months int) time.Time {
	return start.AddDate(0, 0, DaysPerMonth*months)
}

// NewSubscription opens an active subscription starting at now (UTC) and priced by Price.
func NewSubscription(id, userID string, pub *Publication, months int, autoRenew bool, now time.Time) (*Subscription, error) {
	if userID == "" || pub == nil || pub.ID == "" {
		return nil, domain.ErrInvalidArgument
	}
	price, err := Price(pub.PriceMonthly, pub.PriceYearly, months)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	start := now.UTC()
	return &Subscription{
		ID:            id,
		UserID:        userID,
		PublicationID: pub.ID,
		StartDate:     start,
		EndDate:       SubscriptionEnd(start, months),
		Status:        SubscriptionStatusActive,
		Price:         price,
		AutoRenew:     autoRenew,
		CreatedAt:     start,
		Publication:   pub,
	}, nil
}

func (s *Subscription) IsActive() bool { return s != nil && s.Status == SubscriptionStatusActive }

// Cancel moves an active subscription to cancelled and turns off renewal.
func (s *Subscription) Cancel() error {
	if !s.IsActive() {
		return domain.ErrInvalidState
	}
	s.Status = SubscriptionStatusCancelled
	s.AutoRenew = false
	return nil
}
