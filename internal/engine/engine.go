package engine

import (
	"context"

	"siphon/internal/pipeline"
)

type Config struct {
	MetricsPort int
	PipelineYml string
}

type Engine struct {
	runner *pipeline.Runner
}

// Run blocks until the stream terminates on its own or ctx is
// cancelled; either way the runner is fully closed before returning.
func (e *Engine) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		if err := e.runner.Close(); err != nil {
			return err
		}
		return e.runner.Err()
	case <-e.runner.Done():
		err := e.runner.Err()
		if cerr := e.runner.Close(); err == nil {
			err = cerr
		}
		return err
	}
}
