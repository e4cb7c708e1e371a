package rental

import (
	"github.com/smallbiznis/storagedesk/internal/rental/repository"
	"github.com/smallbiznis/storagedesk/internal/rental/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rental.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
