// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/cardinalhq/secsort/internal/compositekey"
	"github.com/cardinalhq/secsort/internal/shuffle"
)

// Config aggregates configuration for the application.
type Config struct {
	Job      JobConfig      `mapstructure:"job"`
	Handlers HandlersConfig `mapstructure:"handlers"`
}

// JobConfig describes the key types and shuffle settings of a sort job.
type JobConfig struct {
	GroupType      string `mapstructure:"group_type"`
	SortType       string `mapstructure:"sort_type"`
	Order          string `mapstructure:"order"`
	NumPartitions  int    `mapstructure:"num_partitions"`
	SpillThreshold int    `mapstructure:"spill_threshold"`
	TempDir        string `mapstructure:"temp_dir"`
	Workers        int    `mapstructure:"workers"`
	BatchSize      int    `mapstructure:"batch_size"`
}

// HandlersConfig selects which output handlers run.
type HandlersConfig struct {
	// Skip is a comma separated list of handler names.
	Skip string `mapstructure:"skip"`
}

func DefaultJobConfig() JobConfig {
	return JobConfig{
		GroupType:      compositekey.TypeText,
		SortType:       compositekey.TypeInt32,
		Order:          compositekey.PolicyNatural,
		NumPartitions:  4,
		SpillThreshold: 10000,
		Workers:        runtime.GOMAXPROCS(0),
		BatchSize:      1000,
	}
}

// Load reads configuration from files and environment variables.
// Environment variables use the prefix "SECSORT" and the dot character
// in keys is replaced by an underscore. For example, "job.group_type"
// becomes "SECSORT_JOB_GROUP_TYPE".
func Load() (*Config, error) {
	cfg := &Config{
		Job: DefaultJobConfig(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("SECSORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}

// Validate reports every problem with the job settings at once.
func (j JobConfig) Validate() error {
	var errs []error
	if _, err := j.SortPolicy(); err != nil {
		errs = append(errs, err)
	}
	if j.NumPartitions <= 0 {
		errs = append(errs, compositekey.InvalidPartitionCountError{NumPartitions: j.NumPartitions})
	}
	if j.Workers <= 0 {
		errs = append(errs, compositekey.ConfigurationError{Reason: fmt.Sprintf("workers must be positive, got %d", j.Workers)})
	}
	if j.SpillThreshold <= 0 {
		errs = append(errs, compositekey.ConfigurationError{Reason: fmt.Sprintf("spill threshold must be positive, got %d", j.SpillThreshold)})
	}
	if j.BatchSize <= 0 {
		errs = append(errs, compositekey.ConfigurationError{Reason: fmt.Sprintf("batch size must be positive, got %d", j.BatchSize)})
	}
	return errors.Join(errs...)
}

// SortPolicy resolves Order. Only orders that sort within a group are
// accepted.
func (j JobConfig) SortPolicy() (compositekey.Policy, error) {
	policy, err := compositekey.PolicyByName(j.Order)
	if err != nil {
		return nil, err
	}
	if policy == compositekey.Grouping {
		return nil, compositekey.ConfigurationError{Reason: "grouping is not a sort order"}
	}
	return policy, nil
}

// Binding configures the job's key types against reg.
func (j JobConfig) Binding(reg *compositekey.Registry) (*compositekey.Binding, error) {
	return compositekey.Configure(reg, j.GroupType, j.SortType)
}

// ShuffleOptions validates the job and converts it to shuffle options.
func (j JobConfig) ShuffleOptions() (shuffle.Options, error) {
	if err := j.Validate(); err != nil {
		return shuffle.Options{}, err
	}
	policy, err := j.SortPolicy()
	if err != nil {
		return shuffle.Options{}, err
	}
	return shuffle.Options{
		NumPartitions:  j.NumPartitions,
		SortPolicy:     policy,
		SpillThreshold: j.SpillThreshold,
		TempDir:        j.TempDir,
		BatchSize:      j.BatchSize,
		Workers:        j.Workers,
	}, nil
}
