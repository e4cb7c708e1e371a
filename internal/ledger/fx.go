package ledger

import (
	"github.com/smallbiznis/storagedesk/internal/ledger/service"
	"github.com/smallbiznis/storagedesk/internal/ledger/store"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(store.Provide),
	fx.Provide(service.NewService),
)
