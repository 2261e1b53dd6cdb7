package main

import (
	"log/slog"
	"os"

	"github.com/YuminosukeSato/gdlinear/cmd/gdfit/cmd"
	"github.com/YuminosukeSato/gdlinear/pkg/log"
)

func main() {
	if err := log.SetupLogger(os.Stderr, "warn"); err != nil {
		panic(err)
	}
	if err := cmd.RootCmd().Execute(); err != nil {
		slog.Error("gdfit failed", log.ErrAttr(err))
		os.Exit(1)
	}
}
