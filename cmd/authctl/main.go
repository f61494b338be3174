package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/client/authclient"
	"github.com/dmitrijs2005/authkeeper/internal/client/cli"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/client/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, args, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx := context.Background()

	store, err := session.Open(ctx, cfg.SessionFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer store.Close()

	client, err := authclient.New(cfg.ServerEndpointAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer client.Close()

	app := cli.NewApp(cfg, client, store, os.Stdin, os.Stdout)
	if err := app.Run(ctx, args); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			return 2
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
