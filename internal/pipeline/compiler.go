package pipeline

import (
	"fmt"

	"siphon/internal/config"
	"siphon/internal/state"
	"siphon/sink"
	"siphon/sink/stdout"
)

// Compile turns a pipeline YAML into a ready-to-start Runner: source
// config, checkpoint store, and configured sinks.
func Compile(path string) (*Runner, error) {
	cfg, err := config.LoadPipelineSpec(path)
	if err != nil {
		return nil, err
	}

	if cfg.Source.Kind != "mqtt" {
		return nil, fmt.Errorf("unsupported source %q", cfg.Source.Kind)
	}
	mc, err := config.LoadSourceConfig(cfg.Source.Config)
	if err != nil {
		return nil, err
	}

	driver := cfg.Source.Driver
	if driver == "" {
		driver = "paho"
	}

	var store *state.Store
	if cfg.Checkpoint.Path != "" {
		store = state.NewStore(cfg.Checkpoint.Path)
	}

	r := NewRunner(mc, driver, store)

	for _, name := range cfg.Sinks {
		sDrv, err := sink.NewAdapter(name)
		if err != nil {
			return nil, err
		}

		switch name {
		case "stdout":
			err = sDrv.Configure(stdout.Config{
				PrintSummary:   cfg.Debug.PrintSummary,
				PrintRecords:   cfg.Debug.PrintRecords,
				RecordMaxBytes: cfg.Debug.RecordMaxBytes,
				BatchSize:      cfg.Debug.AckBatchSize,
				FlushMS:        cfg.Debug.AckFlushMS,
			})

		default:
			err = fmt.Errorf("no config block for sink %q", name)
		}
		if err != nil {
			return nil, err
		}
		r.AddSink(sDrv)
	}

	r.BindAcks()
	return r, nil
}
