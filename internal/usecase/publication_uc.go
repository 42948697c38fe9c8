package usecase

import (
	"context"

	"press-subscription/internal/domain"
	"press-subscription/internal/domain/model"
	"press-subscription/internal/domain/ports/repository"
	"press-subscription/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500
)

// Compile-time check
var _ PublicationUseCase = (*publicationUC)(nil)

// PublicationUseCase manages the catalog. Mutations are admin-only.
type PublicationUseCase interface {
	Create(ctx context.Context, actor *model.User, f model.PublicationFields) (*model.Publication, error)
	// List returns visible, available publications for anyone.
	List(ctx context.Context, typ model.PublicationType, offset, limit int) ([]*model.Publication, error)
	// ListAll returns every available publication, hidden ones included.
	ListAll(ctx context.Context, actor *model.User, offset, limit int) ([]*model.Publication, error)
	Get(ctx context.Context, viewer *model.User, id string) (*model.Publication, error)
	Update(ctx context.Context, actor *model.User, id string, f model.PublicationFields) (*model.Publication, error)
	Delete(ctx context.Context, actor *model.User, id string) error
}

type publicationUC struct {
	pubs repository.PublicationRepository
	tm   repository.TransactionManager
	log  *zerolog.Logger
}

func NewPublicationUseCase(pubs repository.PublicationRepository, tm repository.TransactionManager, logger *zerolog.Logger) *publicationUC {
	return &publicationUC{pubs: pubs, tm: tm, log: logging.OrNop(logger)}
}

func (u *publicationUC) Create(ctx context.Context, actor *model.User, f model.PublicationFields) (*model.Publication, error) {
	defer logging.TraceDuration(u.log, "PublicationUC.Create")()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := model.NewPublication("", f)
	if err != nil {
		return nil, err
	}
	if err := u.pubs.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("publication_id", p.ID).Msg("publication created")
	return p, nil
}

func (u *publicationUC) List(ctx context.Context, typ model.PublicationType, offset, limit int) ([]*model.Publication, error) {
	defer logging.TraceDuration(u.log, "PublicationUC.List")()

	if typ != "" && !typ.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	return u.list(ctx, repository.PublicationFilter{OnlyVisible: true, Type: typ, Offset: offset, Limit: limit})
}

func (u *publicationUC) ListAll(ctx context.Context, actor *model.User, offset, limit int) ([]*model.Publication, error) {
	defer logging.TraceDuration(u.log, "PublicationUC.ListAll")()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return u.list(ctx, repository.PublicationFilter{Offset: offset, Limit: limit})
}

func (u *publicationUC) list(ctx context.Context, f repository.PublicationFilter) ([]*model.Publication, error) {
	if f.Offset < 0 || f.Limit < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if f.Limit == 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	out, err := u.pubs.List(ctx, repository.NoTX, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*model.Publication{}
	}
	return out, nil
}

// Get hides unavailable publications from everyone and invisible ones from non-admins.
func (u *publicationUC) Get(ctx context.Context, viewer *model.User, id string) (*model.Publication, error) {
	defer logging.TraceDuration(u.log, "PublicationUC.Get")()

	p, err := u.pubs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if !p.VisibleTo(viewer) {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (u *publicationUC) Update(ctx context.Context, actor *model.User, id string, f model.PublicationFields) (*model.Publication, error) {
	defer logging.TraceDuration(u.log, "PublicationUC.Update")()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var out *model.Publication
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.pubs.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := p.Apply(f); err != nil {
			return err
		}
		if err := u.pubs.Save(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// Delete is a soft delete: the row stays for existing subscriptions' snapshots.
func (u *publicationUC) Delete(ctx context.Context, actor *model.User, id string) error {
	defer logging.TraceDuration(u.log, "PublicationUC.Delete")()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.pubs.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		p.SoftDelete()
		return u.pubs.Save(ctx, tx, p)
	})
}
