package http

import (
	"go.uber.org/fx"

	ordertransport "github.com/osdesk/ostrack/internal/transport/http/order"
	reporttransport "github.com/osdesk/ostrack/internal/transport/http/report"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	reporttransport.Module,
)
