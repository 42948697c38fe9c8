package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"press-subscription/internal/domain"
	"press-subscription/internal/domain/model"
	"press-subscription/internal/domain/ports/repository"
)

var _ repository.PublicationRepository = (*PostgresPublicationRepo)(nil)

type PostgresPublicationRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPublicationRepo(pool *pgxpool.Pool) *PostgresPublicationRepo {
	return &PostgresPublicationRepo{pool: pool}
}

// prices are read as text so decimal precision survives the round trip
const publicationColumns = `p.id::text, p.title, p.description, p.type, p.publisher, p.frequency,
       p.price_monthly::text, p.price_yearly::text, p.cover_image_url, p.is_visible, p.is_available, p.created_at`

func (r *PostgresPublicationRepo) Save(ctx context.Context, tx repository.Tx, p *model.Publication) error {
	const q = `
INSERT INTO publications (
  id, title, description, type, publisher, frequency,
  price_monthly, price_yearly, cover_image_url, is_visible, is_available, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8::numeric,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  title=$2, description=$3, type=$4, publisher=$5, frequency=$6,
  price_monthly=$7::numeric, price_yearly=$8::numeric, cover_image_url=$9, is_visible=$10, is_available=$11;`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.Title, p.Description, string(p.Type), p.Publisher, p.Frequency,
		p.PriceMonthly.String(), p.PriceYearly.String(), p.CoverImageURL, p.IsVisible, p.IsAvailable, p.CreatedAt)
	return mapWriteErr(err)
}

func (r *PostgresPublicationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Publication, error) {
	q := `SELECT ` + publicationColumns + ` FROM publications p WHERE p.id=$1;`
	return scanPublication(pickRow(ctx, r.pool, tx, q, id))
}

func (r *PostgresPublicationRepo) List(ctx context.Context, tx repository.Tx, f repository.PublicationFilter) ([]*model.Publication, error) {
	var (
		where = []string{"p.is_available"}
		args  []interface{}
	)
	if f.OnlyVisible {
		where = append(where, "p.is_visible")
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		where = append(where, fmt.Sprintf("p.type=$%d", len(args)))
	}
	q := `SELECT ` + publicationColumns + ` FROM publications p WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY p.created_at DESC, p.id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapReadErr(err)
	}
	defer rows.Close()
	var out []*model.Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanPublication(row rowScanner) (*model.Publication, error) {
	var (
		p                            model.Publication
		typ, monthlyText, yearlyText string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &typ, &p.Publisher, &p.Frequency,
		&monthlyText, &yearlyText, &p.CoverImageURL, &p.IsVisible, &p.IsAvailable, &p.CreatedAt); err != nil {
		return nil, mapReadErr(err)
	}
	p.Type = model.PublicationType(typ)
	var err error
	if p.PriceMonthly, err = decimal.NewFromString(monthlyText); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if p.PriceYearly, err = decimal.NewFromString(yearlyText); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &p, nil
}
