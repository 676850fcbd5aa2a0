package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/bwsite/bwsiterun"
	"github.com/basewarphq/bwsite/cmd/internal/cmdexec"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

var version = "dev"

type App struct {
	Version kong.VersionFlag `help:"Show version."`

	Doctor      DoctorCmd      `cmd:"" help:"Check that the required tools and artifacts are present."`
	Plan        PlanCmd        `cmd:"" help:"Print the resources of a deployment in dependency order."`
	Deploy      DeployCmd      `cmd:"" help:"Deploy infrastructure and assets, invalidating the CDN when assets changed."`
	Destroy     DestroyCmd     `cmd:"" help:"Tear down the stacks of a deployment."`
	Fingerprint FingerprintCmd `cmd:"" help:"Compare the asset fingerprints with the last deployment."`
	Invalidate  InvalidateCmd  `cmd:"" help:"Invalidate the whole CDN cache of a deployment."`
	Domain      DomainCmd      `cmd:"" help:"Show how a domain is split into record and hosted zone."`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var app App
	kctx := kong.Parse(&app,
		kong.Name("bwsite"),
		kong.Description("Deploys a static site with a serverless backend to AWS."),
		kong.Vars{"version": version},
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.BindToProvider(bwsitecfg.Load),
		kong.BindTo(osfs.New("/"), (*billy.Filesystem)(nil)),
		kong.BindTo(cmdexec.Exec{}, (*cmdexec.Runner)(nil)),
		kong.Bind(starter(bwsiterun.Start), newReporter(os.Stdout)),
	)

	if err := kctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
