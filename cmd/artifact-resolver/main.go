package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/akuity/artifact-resolver/internal/logging"

	// Credential types register themselves with the artifacts package.
	_ "github.com/akuity/artifact-resolver/internal/artifacts/embedded"
	_ "github.com/akuity/artifact-resolver/internal/artifacts/github"
	_ "github.com/akuity/artifact-resolver/internal/artifacts/helm"
	_ "github.com/akuity/artifact-resolver/internal/artifacts/httpfile"
	_ "github.com/akuity/artifact-resolver/internal/artifacts/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()
	if err := Execute(ctx); err != nil {
		logging.LoggerFromContext(ctx).Error(err, "error executing command")
		stop()
		os.Exit(1)
	}
}
