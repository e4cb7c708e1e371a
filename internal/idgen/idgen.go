// Package idgen provides the snowflake node used for every entity ID.
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storagedesk/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("idgen",
	fx.Provide(NewNode),
)

func NewNode(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.NodeID, err)
	}
	return node, nil
}
