package unit

import (
	"github.com/smallbiznis/storagedesk/internal/unit/repository"
	"github.com/smallbiznis/storagedesk/internal/unit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("unit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
