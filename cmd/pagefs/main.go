package main

import (
	"context"
	"os"

	"github.com/absfs/pagefs/internal/cli"
	"github.com/charmbracelet/fang"
)

func main() {
	if err := fang.Execute(context.Background(), cli.NewRootCmd()); err != nil {
		os.Exit(1)
	}
}
