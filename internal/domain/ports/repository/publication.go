package repository

import (
	"context"

	"press-subscription/internal/domain/model"
)

// PublicationFilter narrows catalog listings. Zero values mean "no constraint".
type PublicationFilter struct {
	OnlyVisible bool
	Type        model.PublicationType
	Offset      int
	Limit       int
}

// PublicationRepository is the port for the publication catalog.
// Listings always exclude unavailable publications and are ordered newest first.
type PublicationRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Publication) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Publication, error)
	List(ctx context.Context, tx Tx, f PublicationFilter) ([]*model.Publication, error)
}
