package shares

import "context"

type Repository interface {
	Create(ctx context.Context, s Share) error
	Update(ctx context.Context, s Share) error
	GetByID(ctx context.Context, id string) (Share, error)
	ListByFarm(ctx context.Context, farmID string) ([]Share, error)
	ListByGrantee(ctx context.Context, granteeUserID string) ([]Share, error)
}
