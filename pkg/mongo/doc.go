// Package mongo connects to MongoDB with the v2 driver for the
// subscribers.Mongo directory.
package mongo
