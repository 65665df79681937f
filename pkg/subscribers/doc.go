// Package subscribers provides dispatch.Directory implementations: a fixed
// list, a YAML file, a PostgreSQL table and a MongoDB collection. Every
// implementation is re-read on each call, so subscribers who join after an
// article is published still receive its notification.
package subscribers
