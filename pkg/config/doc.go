// Package config fills tagged structs from the environment.
//
// Every package that needs settings exposes a Config struct with env and
// envDefault tags (see dispatch.Config or httpserver.Config); the binary loads
// them through Load, which optionally reads .env files first.
//
//	var cfg dispatch.Config
//	if err := config.Load(&cfg, config.WithDotenv(".env")); err != nil {
//		return err
//	}
package config
