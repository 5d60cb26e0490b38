package spec

type debugSection struct {
	PrintSummary   bool `yaml:"print_summary"`
	PrintRecords   bool `yaml:"print_records"`
	RecordMaxBytes int  `yaml:"record_max_bytes"`
	AckBatchSize   int  `yaml:"ack_batch_size"`
	AckFlushMS     int  `yaml:"ack_flush_ms"`
}

type File struct {
	SchemaVersion string `yaml:"schema_version"`

	Source struct {
		Kind   string `yaml:"kind"`   // "mqtt"
		Driver string `yaml:"driver"` // "paho"
		Config string `yaml:"config"`
	} `yaml:"source"`

	// Checkpoint.Path points at the state file the engine resumes from.
	Checkpoint struct {
		Path string `yaml:"path"`
	} `yaml:"checkpoint"`

	Sinks []string     `yaml:"sinks"`
	Debug debugSection `yaml:"debug"`
}
