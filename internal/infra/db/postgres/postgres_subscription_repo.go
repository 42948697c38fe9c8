package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"press-subscription/internal/domain"
	"press-subscription/internal/domain/model"
	"press-subscription/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `s.id::text, s.user_id::text, s.publication_id::text, s.start_date, s.end_date,
       s.status, s.price::text, s.auto_renew, s.created_at`

func (r *subscriptionRepo) Insert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, user_id, publication_id, start_date, end_date, status, price, auto_renew, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8,$9);`
	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, s.PublicationID, s.StartDate, s.EndDate, string(s.Status), s.Price.String(), s.AutoRenew, s.CreatedAt)
	return mapWriteErr(err)
}

func (r *subscriptionRepo) FindActive(ctx context.Context, tx repository.Tx, userID, publicationID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + `
  FROM subscriptions s
 WHERE s.user_id=$1 AND s.publication_id=$2 AND s.status='active'
 LIMIT 1;`
	return scanSubscription(pickRow(ctx, r.pool, tx, q, userID, publicationID))
}

func (r *subscriptionRepo) FindOwned(ctx context.Context, tx repository.Tx, id, userID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + `
  FROM subscriptions s
 WHERE s.id=$1 AND s.user_id=$2`
	if _, inTx := tx.(pgx.Tx); inTx {
		q += ` FOR UPDATE`
	}
	return scanSubscription(pickRow(ctx, r.pool, tx, q, id, userID))
}

// ListByUser joins the publication so each row carries its snapshot.
func (r *subscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + `, ` + publicationColumns + `
  FROM subscriptions s
  JOIN publications p ON p.id = s.publication_id
 WHERE s.user_id=$1
 ORDER BY s.created_at DESC, s.id;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, mapReadErr(err)
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscriptionWithPublication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *subscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `UPDATE subscriptions SET status=$2, auto_renew=$3 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, s.ID, string(s.Status), s.AutoRenew)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM subscriptions GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, mapReadErr(err)
	}
	defer rows.Close()

	out := make(map[model.SubscriptionStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[model.SubscriptionStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func subscriptionDest(s *model.Subscription, status, price *string) []interface{} {
	return []interface{}{&s.ID, &s.UserID, &s.PublicationID, &s.StartDate, &s.EndDate, status, price, &s.AutoRenew, &s.CreatedAt}
}

func finishSubscription(s *model.Subscription, status, price string) error {
	s.Status = model.SubscriptionStatus(status)
	p, err := decimal.NewFromString(price)
	if err != nil {
		return domain.ErrReadDatabaseRow
	}
	s.Price = p
	s.StartDate = s.StartDate.UTC()
	s.EndDate = s.EndDate.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return nil
}

func scanSubscription(row rowScanner) (*model.Subscription, error) {
	var (
		s             model.Subscription
		status, price string
	)
	if err := row.Scan(subscriptionDest(&s, &status, &price)...); err != nil {
		return nil, mapReadErr(err)
	}
	if err := finishSubscription(&s, status, price); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSubscriptionWithPublication(row rowScanner) (*model.Subscription, error) {
	var (
		s                                   model.Subscription
		p                                   model.Publication
		status, price, typ, monthly, yearly string
	)
	dest := subscriptionDest(&s, &status, &price)
	dest = append(dest, &p.ID, &p.Title, &p.Description, &typ, &p.Publisher, &p.Frequency,
		&monthly, &yearly, &p.CoverImageURL, &p.IsVisible, &p.IsAvailable, &p.CreatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, mapReadErr(err)
	}
	if err := finishSubscription(&s, status, price); err != nil {
		return nil, err
	}
	p.Type = model.PublicationType(typ)
	var err error
	if p.PriceMonthly, err = decimal.NewFromString(monthly); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if p.PriceYearly, err = decimal.NewFromString(yearly); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	s.Publication = &p
	return &s, nil
}
