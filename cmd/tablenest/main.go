package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tablenest/tablenest/internal/clock"
	"github.com/tablenest/tablenest/internal/config"
	"github.com/tablenest/tablenest/internal/lock"
	"github.com/tablenest/tablenest/internal/migration"
	"github.com/tablenest/tablenest/internal/observability"
	"github.com/tablenest/tablenest/internal/server"
	"github.com/tablenest/tablenest/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,
		migration.Module,

		// HTTP surface plus the payout domain modules it pulls in
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
