//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"context"

	"github.com/google/wire"

	"github.com/zeusync/viewsync/internal/client"
)

// InitializeClient dials the runtime and builds a client around a fresh view.
func InitializeClient(ctx context.Context, config client.Config) (*client.Client, func(), error) {
	wire.Build(ClientSet)
	return nil, nil, nil
}
