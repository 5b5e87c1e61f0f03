package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/roach88/quench/internal/quench"
	"github.com/roach88/quench/internal/workflow"
)

// Config holds settings read from quench.yaml and QUENCH_* variables.
type Config struct {
	// DB is the launchpad database path.
	DB string `mapstructure:"db"`
	// CommandRef names the deferred solver command placeholder.
	CommandRef string `mapstructure:"command_ref"`
	// DBFileRef names the deferred results database placeholder.
	DBFileRef string `mapstructure:"db_file_ref"`
	// InputSet is the default vasp_input_set, empty for none.
	InputSet string `mapstructure:"vasp_input_set"`
}

// LoadConfig reads configuration from path, or from quench.yaml in the
// working directory or $HOME/.config/quench when path is empty. A missing
// default file is not an error; a missing explicit file is.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("db", "quench.db")
	v.SetDefault("command_ref", string(quench.DefaultRun.Command))
	v.SetDefault("db_file_ref", string(quench.DefaultRun.DBFile))
	v.SetDefault("vasp_input_set", "")

	v.SetEnvPrefix("QUENCH")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("quench")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "quench"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// applyRun fills the run settings a protocol left unset.
func (c *Config) applyRun(run quench.RunDefaults) quench.RunDefaults {
	if run.Command == "" {
		run.Command = workflow.DeferredRef(c.CommandRef)
	}
	if run.DBFile == "" {
		run.DBFile = workflow.DeferredRef(c.DBFileRef)
	}
	if run.InputSet == "" {
		run.InputSet = c.InputSet
	}
	return run
}
