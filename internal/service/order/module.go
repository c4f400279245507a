package order

import (
	"go.uber.org/fx"

	repo "github.com/osdesk/ostrack/internal/repository/order"
)

// Module provides the order service to Fx, binding the concrete repository
// to the service's Repository interface.
var Module = fx.Options(
	fx.Provide(func(r *repo.Repository) Repository { return r }),
	fx.Provide(NewService),
)
