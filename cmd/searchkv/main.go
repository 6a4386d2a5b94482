package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/searchkv/internal/config"
)

func main() {
	app := &cli.Command{
		Name:  "searchkv",
		Usage: "Lazy secondary-index queries over a Redis key-value bucket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment name (selects config/<env>.yaml)",
				Value:   config.GetEnv(),
				Sources: cli.EnvVars("ENV"),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path (overrides --env lookup)",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			countCommand(),
			getCommand(),
			listCommand(),
			atCommand(),
			putCommand(),
			keysCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "searchkv:", err)
		os.Exit(1)
	}
}
