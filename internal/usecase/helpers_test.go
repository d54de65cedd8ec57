package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/assetlease/assetlease/internal/config"
)

func testUsecase(repo Repository, now time.Time) Usecase {
	return Usecase{
		repo:      repo,
		now:       func() time.Time { return now },
		maxSupply: DefaultMaxSupply,
	}
}

// asCaller builds the context the auth middleware would produce for
// an authenticated request.
func asCaller(id uuid.UUID, role AccountRole) context.Context {
	ctx := context.WithValue(context.Background(), config.CTX_KEY_USER_ID, id)
	return context.WithValue(ctx, config.CTX_KEY_USER_ROLE, role)
}
