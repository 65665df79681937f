package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option configures a single Load call.
type Option func(*options)

type options struct {
	files    []string
	optional bool
	prefix   string
	environ  map[string]string
}

// WithDotenv loads the given files into the process environment before
// parsing. Variables already set in the environment win. Missing files are an
// error unless WithOptionalDotenv is also used.
func WithDotenv(files ...string) Option {
	return func(o *options) {
		o.files = append(o.files, files...)
	}
}

// WithOptionalDotenv ignores dotenv files that do not exist.
func WithOptionalDotenv() Option {
	return func(o *options) {
		o.optional = true
	}
}

// WithPrefix prepends prefix to every variable name, e.g. "STAGING_".
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithEnvironment parses from the given map instead of the process environment.
// Dotenv files are not read in this mode.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) {
		o.environ = vars
	}
}

// Load parses environment variables into v according to its struct tags.
//
//	type DatabaseConfig struct {
//		URL      string `env:"DATABASE_URL,required"`
//		MaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`
//	}
//
//	var cfg DatabaseConfig
//	err := config.Load(&cfg)
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.environ == nil && len(o.files) > 0 {
		for _, f := range o.files {
			if err := godotenv.Load(f); err != nil {
				if o.optional && errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return errors.Join(ErrDotenv, fmt.Errorf("%s: %w", f, err))
			}
		}
	}

	envOpts := env.Options{Prefix: o.prefix}
	if o.environ != nil {
		envOpts.Environment = o.environ
	}
	if err := env.ParseWithOptions(v, envOpts); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Intended for main.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
