package main

import (
	"github.com/dmitrymomot/notifyqueue/pkg/dispatch"
	"github.com/dmitrymomot/notifyqueue/pkg/email"
	"github.com/dmitrymomot/notifyqueue/pkg/httpapi"
	"github.com/dmitrymomot/notifyqueue/pkg/httpserver"
	"github.com/dmitrymomot/notifyqueue/pkg/logger"
	"github.com/dmitrymomot/notifyqueue/pkg/mongo"
	"github.com/dmitrymomot/notifyqueue/pkg/objstore"
	"github.com/dmitrymomot/notifyqueue/pkg/pg"
	"github.com/dmitrymomot/notifyqueue/pkg/redis"
	"github.com/dmitrymomot/notifyqueue/pkg/subscribers"
)

const (
	storeFile = "file"
	storeS3   = "s3"
)

type appConfig struct {
	Store       string `env:"DISPATCH_STORE" envDefault:"file"` // file or s3
	EmbedWorker bool   `env:"DISPATCH_EMBED_WORKER" envDefault:"false"`
	Logger      logger.Config
	Dispatch    dispatch.Config
	Email       email.Config
	Subscribers subscribers.Config
	Postgres    pg.Config
	Mongo       mongo.Config
	Redis       redis.Config
	ObjectStore objstore.Config
	HTTP        httpserver.Config
	API         httpapi.Config
}
