package main

import (
	"fmt"
	"os"

	"github.com/jaennil/heatmap_tiles/internal/app"
	"github.com/jaennil/heatmap_tiles/pkg/config"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	if err := app.Run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "heatmap tiles: %v\n", err)
		return 1
	}
	return 0
}
