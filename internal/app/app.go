package app

import (
	"go.uber.org/fx"

	"github.com/osdesk/ostrack/internal/cache"
	"github.com/osdesk/ostrack/internal/config"
	"github.com/osdesk/ostrack/internal/database"
	"github.com/osdesk/ostrack/internal/logger"
	"github.com/osdesk/ostrack/internal/messaging"
	"github.com/osdesk/ostrack/internal/observability"
	repositoryorder "github.com/osdesk/ostrack/internal/repository/order"
	httpserver "github.com/osdesk/ostrack/internal/server/http"
	serviceorder "github.com/osdesk/ostrack/internal/service/order"
	servicereport "github.com/osdesk/ostrack/internal/service/report"
	transporthttp "github.com/osdesk/ostrack/internal/transport/http"
	"github.com/osdesk/ostrack/internal/worker"
	workerorder "github.com/osdesk/ostrack/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositoryorder.Module,
	serviceorder.Module,
	servicereport.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background order-event processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
