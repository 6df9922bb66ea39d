package config

// Config is the root of snaprotate.yaml.
type Config struct {
	Logging     LoggingConfig `yaml:"logging"`
	Rsync       RsyncConfig   `yaml:"rsync"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Concurrency int           `yaml:"concurrency" validate:"gte=0"`
	Sets        []SetConfig   `yaml:"sets" validate:"required,min=1,dive"`
}

// SetConfig describes one snapshot set: a source tree rotated into
// Destination/Name.1 .. Destination/Name.<Retention>.
type SetConfig struct {
	Name         string   `yaml:"name" validate:"required,excludesall=/\\"`
	Source       string   `yaml:"source" validate:"required"`
	Destination  string   `yaml:"destination" validate:"required"`
	Retention    int      `yaml:"retention" validate:"gte=1"`
	Exclude      []string `yaml:"exclude" validate:"dive,required"`
	ModifyWindow int      `yaml:"modifyWindow" validate:"gte=0"` // seconds
	Debug        bool     `yaml:"debug"`
	LogFile      string   `yaml:"logFile"`
	PruneStale   bool     `yaml:"pruneStale"`
}

type RsyncConfig struct {
	Binary    string   `yaml:"binary"`
	ExtraArgs []string `yaml:"extraArgs"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // Prometheus textfile collector output, empty = off
}

const (
	DefaultRsyncBinary  = "rsync"
	DefaultModifyWindow = 3
	DefaultConcurrency  = 1
)

// Set returns the set named name.
func (c *Config) Set(name string) (SetConfig, bool) {
	for _, s := range c.Sets {
		if s.Name == name {
			return s, true
		}
	}
	return SetConfig{}, false
}

func (c *Config) applyDefaults(raw map[string]any) {
	if c.Rsync.Binary == "" {
		c.Rsync.Binary = DefaultRsyncBinary
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	// modifyWindow: 0 is a legal value, so only fill it in when the key is absent
	sets, _ := raw["sets"].([]any)
	for i := range c.Sets {
		if i < len(sets) {
			if m, ok := sets[i].(map[string]any); ok {
				if _, set := m["modifyWindow"]; set {
					continue
				}
			}
		}
		c.Sets[i].ModifyWindow = DefaultModifyWindow
	}
}
