// Command tagclips turns sports tagging exports into a clip dataset:
// a canonical manifest, one clip per event, and stratified splits.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/tagclips/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(exitFatal)
	}

	// SIGINT stops dispatching new work; finished output stays valid.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
