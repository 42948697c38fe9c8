package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"press-subscription/internal/domain"
	"press-subscription/internal/domain/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// ===== Requests =====

type registerRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Username string  `json:"username" validate:"required,min=1,max=50"`
	Password string  `json:"password" validate:"required,min=8,max=100"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=50"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=100"`
}

type userStatusRequest struct {
	IsActive *bool   `json:"is_active"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin user"`
}

type publicationCreateRequest struct {
	Title         string          `json:"title" validate:"required,max=255"`
	Description   *string         `json:"description"`
	Type          string          `json:"type" validate:"required,oneof=magazine newspaper journal"`
	Publisher     *string         `json:"publisher" validate:"omitempty,max=255"`
	Frequency     *string         `json:"frequency" validate:"omitempty,max=50"`
	PriceMonthly  decimal.Decimal `json:"price_monthly" validate:"gt=0"`
	PriceYearly   decimal.Decimal `json:"price_yearly" validate:"gt=0"`
	CoverImageURL *string         `json:"cover_image_url" validate:"omitempty,max=500"`
}

type publicationUpdateRequest struct {
	Title         *string          `json:"title" validate:"omitempty,max=255"`
	Description   *string          `json:"description"`
	Type          *string          `json:"type" validate:"omitempty,oneof=magazine newspaper journal"`
	Publisher     *string          `json:"publisher" validate:"omitempty,max=255"`
	Frequency     *string          `json:"frequency" validate:"omitempty,max=50"`
	PriceMonthly  *decimal.Decimal `json:"price_monthly" validate:"omitempty,gt=0"`
	PriceYearly   *decimal.Decimal `json:"price_yearly" validate:"omitempty,gt=0"`
	CoverImageURL *string          `json:"cover_image_url" validate:"omitempty,max=500"`
	IsVisible     *bool            `json:"is_visible"`
	IsAvailable   *bool            `json:"is_available"`
}

type subscriptionCreateRequest struct {
	PublicationID  string `json:"publication_id" validate:"required,uuid"`
	DurationMonths int    `json:"duration_months" validate:"min=1,max=36"`
	AutoRenew      bool   `json:"auto_renew"`
}

func (r publicationCreateRequest) fields() model.PublicationFields {
	typ := model.PublicationType(r.Type)
	return model.PublicationFields{
		Title:         &r.Title,
		Description:   r.Description,
		Type:          &typ,
		Publisher:     r.Publisher,
		Frequency:     r.Frequency,
		PriceMonthly:  &r.PriceMonthly,
		PriceYearly:   &r.PriceYearly,
		CoverImageURL: r.CoverImageURL,
	}
}

func (r publicationUpdateRequest) fields() model.PublicationFields {
	f := model.PublicationFields{
		Title:         r.Title,
		Description:   r.Description,
		Publisher:     r.Publisher,
		Frequency:     r.Frequency,
		PriceMonthly:  r.PriceMonthly,
		PriceYearly:   r.PriceYearly,
		CoverImageURL: r.CoverImageURL,
		IsVisible:     r.IsVisible,
		IsAvailable:   r.IsAvailable,
	}
	if r.Type != nil {
		typ := model.PublicationType(*r.Type)
		f.Type = &typ
	}
	return f
}

// ===== Responses =====

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  *string   `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type publicationResponse struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   *string         `json:"description"`
	Type          string          `json:"type"`
	Publisher     *string         `json:"publisher"`
	Frequency     *string         `json:"frequency"`
	PriceMonthly  decimal.Decimal `json:"price_monthly"`
	PriceYearly   decimal.Decimal `json:"price_yearly"`
	CoverImageURL *string         `json:"cover_image_url"`
	IsVisible     bool            `json:"is_visible"`
	IsAvailable   bool            `json:"is_available"`
	CreatedAt     time.Time       `json:"created_at"`
}

type subscriptionResponse struct {
	ID            string               `json:"id"`
	UserID        string               `json:"user_id"`
	PublicationID string               `json:"publication_id"`
	StartDate     time.Time            `json:"start_date"`
	EndDate       time.Time            `json:"end_date"`
	Status        string               `json:"status"`
	Price         decimal.Decimal      `json:"price"`
	AutoRenew     bool                 `json:"auto_renew"`
	CreatedAt     time.Time            `json:"created_at"`
	Publication   *publicationResponse `json:"publication,omitempty"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func toPublicationResponse(p *model.Publication) publicationResponse {
	return publicationResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Type:          string(p.Type),
		Publisher:     p.Publisher,
		Frequency:     p.Frequency,
		PriceMonthly:  p.PriceMonthly,
		PriceYearly:   p.PriceYearly,
		CoverImageURL: p.CoverImageURL,
		IsVisible:     p.IsVisible,
		IsAvailable:   p.IsAvailable,
		CreatedAt:     p.CreatedAt,
	}
}

func toSubscriptionResponse(s *model.Subscription) subscriptionResponse {
	out := subscriptionResponse{
		ID:            s.ID,
		UserID:        s.UserID,
		PublicationID: s.PublicationID,
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		Status:        string(s.Status),
		Price:         s.Price,
		AutoRenew:     s.AutoRenew,
		CreatedAt:     s.CreatedAt,
	}
	if s.Publication != nil {
		p := toPublicationResponse(s.Publication)
		out.Publication = &p
	}
	return out
}

func toPublicationList(ps []*model.Publication) []publicationResponse {
	return lo.Map(ps, func(p *model.Publication, _ int) publicationResponse {
		return toPublicationResponse(p)
	})
}

func toSubscriptionList(ss []*model.Subscription) []subscriptionResponse {
	return lo.Map(ss, func(s *model.Subscription, _ int) subscriptionResponse {
		return toSubscriptionResponse(s)
	})
}

// ===== Binding =====

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterStructValidation(validatePublicationPrices, publicationCreateRequest{}, publicationUpdateRequest{})
	return v
}

// validatePublicationPrices rejects amounts the price columns would round
// (sub-cent) or overflow. Sign is left to the gt=0 tags.
func validatePublicationPrices(sl validator.StructLevel) {
	check := func(d *decimal.Decimal, field, structField string) {
		if d != nil && d.IsPositive() && !model.ValidPrice(*d) {
			sl.ReportError(d.String(), field, structField, "price", "")
		}
	}
	switch req := sl.Current().Interface().(type) {
	case publicationCreateRequest:
		check(&req.PriceMonthly, "price_monthly", "PriceMonthly")
		check(&req.PriceYearly, "price_yearly", "PriceYearly")
	case publicationUpdateRequest:
		check(req.PriceMonthly, "price_monthly", "PriceMonthly")
		check(req.PriceYearly, "price_yearly", "PriceYearly")
	}
}

// decodeJSON reads a bounded JSON body into dst and validates it. Strict
// decoding rejects unknown fields.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, strict bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed request body: %w", domain.ErrInvalidArgument)
	}
	return s.validate.Struct(dst)
}

// pathID binds the {id} URL parameter as a UUID.
func pathID(value string) (string, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", value, &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return "", fmt.Errorf("invalid id: %w", domain.ErrInvalidArgument)
	}
	return id.String(), nil
}

type pageQuery struct {
	Skip  *int
	Limit *int
	Type  *string
}

func (q pageQuery) offset() int { return lo.FromPtrOr(q.Skip, 0) }
func (q pageQuery) limit() int  { return lo.FromPtrOr(q.Limit, 0) }

// bindPage reads the optional skip, limit and type query parameters.
func bindPage(r *http.Request) (pageQuery, error) {
	var q pageQuery
	params := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "skip", params, &q.Skip); err != nil {
		return q, fmt.Errorf("invalid skip: %w", domain.ErrInvalidArgument)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", params, &q.Limit); err != nil {
		return q, fmt.Errorf("invalid limit: %w", domain.ErrInvalidArgument)
	}
	if err := runtime.BindQueryParameter("form", true, false, "type", params, &q.Type); err != nil {
		return q, fmt.Errorf("invalid type: %w", domain.ErrInvalidArgument)
	}
	if q.offset() < 0 || q.limit() < 0 {
		return q, fmt.Errorf("skip and limit must not be negative: %w", domain.ErrInvalidArgument)
	}
	return q, nil
}
