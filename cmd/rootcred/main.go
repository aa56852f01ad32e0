package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/trufnetwork/rootcred/app"
)

func main() {
	if err := app.RootCmd().Execute(); err != nil {
		zap.L().Debug("command failed", zap.Error(err))
		os.Exit(1)
	}
	os.Exit(0)
}

func init() {
	zap.ReplaceGlobals(zap.Must(zap.NewProduction()))
}
