package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/multimap/internal/adapters/postgres"
	"github.com/samirrijal/multimap/internal/adapters/valkey"
	"github.com/samirrijal/multimap/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Descriptors *usecases.DescriptorService
	Widgets     *usecases.WidgetService
	Previews    *usecases.PreviewService
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
}
