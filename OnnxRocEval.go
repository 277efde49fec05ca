package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"OnnxRocEval/logger"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code. A
// default logger is installed first so config and flag errors are
// reported too; loadConfig replaces it with the configured one.
func run(ctx context.Context, args []string) int {
	if err := logger.Init("info", false); err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
	}
	defer logger.Sync()
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Log().Error("evaluation failed", zap.Error(err))
		return 1
	}
	return 0
}
