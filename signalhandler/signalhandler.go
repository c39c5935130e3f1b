package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"imagededup/logging"
)

// SetupHandler returns a context that is cancelled on the first SIGINT or
// SIGTERM, letting a running scan finish its in-flight files. A second
// signal exits immediately.
func SetupHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logging.LogInfo("Received %v, stopping after in-flight files", sig)
			cancel()
		case <-ctx.Done():
			return
		}
		<-sigChan
		os.Exit(130)
	}()

	return ctx, cancel
}

// GetOptimalProcs returns the available hardware parallelism, at least 1
func GetOptimalProcs() int {
	return max(1, runtime.NumCPU())
}
