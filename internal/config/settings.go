package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"kernbench/internal/benchmark"
	"kernbench/internal/workload"
)

// Settings is a typed snapshot of the loaded configuration.
type Settings struct {
	Runs         int
	Warmup       int
	Mode         benchmark.Mode
	TrialTimeout time.Duration
	Threads      int
	Threshold    float64

	TuningScale  float64
	TuningTables workload.Tables

	HistoryType string
	HistoryDSN  string

	MetricsTextfile string
	MetricsAddr     string

	Verbose   bool
	LogFile   string
	LogFormat string
}

// Current reads the settings from viper. Call ValidateConfig first for a
// complete list of problems; Current stops at the first one.
func Current() (*Settings, error) {
	mode, err := benchmark.ParseMode(viper.GetString("mode"))
	if err != nil {
		return nil, err
	}
	timeout, err := duration("trial_timeout")
	if err != nil {
		return nil, err
	}
	tables, err := tuningTables()
	if err != nil {
		return nil, err
	}
	return &Settings{
		Runs:            viper.GetInt("runs"),
		Warmup:          viper.GetInt("warmup"),
		Mode:            mode,
		TrialTimeout:    timeout,
		Threads:         viper.GetInt("threads"),
		Threshold:       viper.GetFloat64("threshold"),
		TuningScale:     viper.GetFloat64("tuning.scale"),
		TuningTables:    tables,
		HistoryType:     viper.GetString("history.type"),
		HistoryDSN:      viper.GetString("history.dsn"),
		MetricsTextfile: viper.GetString("metrics.textfile"),
		MetricsAddr:     viper.GetString("metrics_addr"),
		Verbose:         viper.GetBool("verbose"),
		LogFile:         viper.GetString("log_file"),
		LogFormat:       viper.GetString("log_format"),
	}, nil
}

// duration accepts either a Go duration string or a number of seconds.
func duration(key string) (time.Duration, error) {
	raw := viper.Get(key)
	if s, ok := raw.(string); ok {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(n * float64(time.Second)), nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	}
	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case nil:
		return 0, nil
	}
	n, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return time.Duration(n * float64(time.Second)), nil
}

// tuningTables decodes tuning.tables, a map of family to a map of size to
// parameter:
//
//	tuning:
//	  tables:
//	    vec: {32: 1000, 64: 500}
func tuningTables() (workload.Tables, error) {
	raw := viper.GetStringMap("tuning.tables")
	if len(raw) == 0 {
		return nil, nil
	}
	tables := make(workload.Tables, len(raw))
	for family, v := range raw {
		entries, err := cast.ToStringMapE(v)
		if err != nil {
			return nil, fmt.Errorf("tuning.tables.%s: %w", family, err)
		}
		table := make(map[int]float64, len(entries))
		for size, p := range entries {
			n, err := strconv.Atoi(size)
			if err != nil {
				return nil, fmt.Errorf("tuning.tables.%s: size %q is not an integer", family, size)
			}
			f, err := cast.ToFloat64E(p)
			if err != nil {
				return nil, fmt.Errorf("tuning.tables.%s.%s: %w", family, size, err)
			}
			table[n] = f
		}
		tables[family] = table
	}
	return tables, nil
}
