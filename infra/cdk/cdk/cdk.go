package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkutil"
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/infra/cdk"
	"github.com/go-git/go-billy/v5/osfs"
)

const projectPrefix = "bwsite"

func main() {
	defer jsii.Close()

	cfg, err := bwsitecfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := awscdk.NewApp(nil)

	bwcdkutil.SetupApp(app, bwcdkutil.AppConfig{
		Prefix: projectPrefix + "-",
	},
		cdk.SharedConstructor(cfg),
		cdk.DeploymentConstructor(cfg, osfs.New("/")),
	)

	app.Synth(nil)
}
