package model

import (
	"strings"
	"time"

	"press-subscription/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PublicationType string

const (
	PublicationTypeMagazine  PublicationType = "magazine"
	PublicationTypeNewspaper PublicationType = "newspaper"
	PublicationTypeJournal   PublicationType = "journal"
)

func (t PublicationType) Valid() bool {
	switch t {
	case PublicationTypeMagazine, PublicationTypeNewspaper, PublicationTypeJournal:
		return true
	}
	return false
}

// Publication is a catalog entry. The two flags are independent:
// IsAvailable=false hides it from everyone, IsVisible=false hides it from non-admins only.
type Publication struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   *string         `json:"description"`
	Type          PublicationType `json:"type"`
	Publisher     *string         `json:"publisher"`
	Frequency     *string         `json:"frequency"`
	PriceMonthly  decimal.Decimal `json:"price_monthly"`
	PriceYearly   decimal.Decimal `json:"price_yearly"`
	CoverImageURL *string         `json:"cover_image_url"`
	IsVisible     bool            `json:"is_visible"`
	IsAvailable   bool            `json:"is_available"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PublicationFields carries the editable attributes of a publication.
// Nil pointers mean "unchanged" on update.
type PublicationFields struct {
	Title         *string
	Description   *string
	Type          *PublicationType
	Publisher     *string
	Frequency     *string
	PriceMonthly  *decimal.Decimal
	PriceYearly   *decimal.Decimal
	CoverImageURL *string
	IsVisible     *bool
	IsAvailable   *bool
}

// NewPublication validates and constructs a visible, available publication.
func NewPublication(id string, f PublicationFields) (*Publication, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if f.Title == nil || strings.TrimSpace(*f.Title) == "" || f.Type == nil ||
		f.PriceMonthly == nil || f.PriceYearly == nil {
		return nil, domain.ErrInvalidArgument
	}
	p := &Publication{
		ID:          id,
		IsVisible:   true,
		IsAvailable: true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := p.Apply(f); err != nil {
		return nil, err
	}
	return p, nil
}

// maxPrice is the first value that no longer fits NUMERIC(12,2).
var maxPrice = decimal.New(1, 10)

// ValidPrice reports whether d is a positive amount in whole cents that the
// price columns can hold without rounding.
func ValidPrice(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(2)) && d.LessThan(maxPrice)
}

// Apply merges non-nil fields into p. Blank strings clear optional text fields.
// Prices are checked before anything is written, so a rejected update leaves p unchanged.
func (p *Publication) Apply(f PublicationFields) error {
	if f.PriceMonthly != nil && !ValidPrice(*f.PriceMonthly) {
		return domain.ErrInvalidArgument
	}
	if f.PriceYearly != nil && !ValidPrice(*f.PriceYearly) {
		return domain.ErrInvalidArgument
	}
	if f.Title != nil {
		t := strings.TrimSpace(*f.Title)
		if t == "" {
			return domain.ErrInvalidArgument
		}
		p.Title = t
	}
	if f.Type != nil {
		if !f.Type.Valid() {
			return domain.ErrInvalidArgument
		}
		p.Type = *f.Type
	}
	if f.PriceMonthly != nil {
		p.PriceMonthly = *f.PriceMonthly
	}
	if f.PriceYearly != nil {
		p.PriceYearly = *f.PriceYearly
	}
	if f.Description != nil {
		p.Description = blankToNil(f.Description)
	}
	if f.Publisher != nil {
		p.Publisher = blankToNil(f.Publisher)
	}
	if f.Frequency != nil {
		p.Frequency = blankToNil(f.Frequency)
	}
	if f.CoverImageURL != nil {
		p.CoverImageURL = blankToNil(f.CoverImageURL)
	}
	if f.IsVisible != nil {
		p.IsVisible = *f.IsVisible
	}
	if f.IsAvailable != nil {
		p.IsAvailable = *f.IsAvailable
	}
	return nil
}

// Subscribable reports whether a new subscription may be opened right now.
func (p *Publication) Subscribable() bool {
	return p != nil && p.IsAvailable && p.IsVisible
}

// VisibleTo reports whether the catalog exposes p to the given viewer (nil = anonymous).
func (p *Publication) VisibleTo(viewer *User) bool {
	if p == nil || !p.IsAvailable {
		return false
	}
	return p.IsVisible || viewer.IsAdmin()
}

// SoftDelete hides the publication from every listing and blocks new subscriptions.
func (p *Publication) SoftDelete() {
	p.IsVisible = false
	p.IsAvailable = false
}
