package building

import (
	"github.com/smallbiznis/storagedesk/internal/building/repository"
	"github.com/smallbiznis/storagedesk/internal/building/service"
	"go.uber.org/fx"
)

var Module = fx.Module("building.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
