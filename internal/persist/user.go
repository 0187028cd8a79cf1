package persist

import (
	"context"

	"budgetbook/internal/core"
)

// userScoped binds a UserGateway to a fixed user so callers that only speak
// Gateway can use the remote store.
type userScoped struct {
	remote UserGateway
	userID string
}

// ForUser adapts a UserGateway into a Gateway for one user.
func ForUser(remote UserGateway, userID string) Gateway {
	return &userScoped{remote: remote, userID: userID}
}

func (g *userScoped) Load(ctx context.Context) (core.Ledger, error) {
	return g.remote.LoadUser(ctx, g.userID)
}

func (g *userScoped) Save(ctx context.Context, ledger core.Ledger) error {
	return g.remote.SaveUser(ctx, g.userID, ledger)
}
