package main

import (
	"github.com/lifeos-app/shell/internal/cli"
	"github.com/lifeos-app/shell/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
