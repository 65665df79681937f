// Package redis connects to Redis with go-redis and provides Locker, a
// dispatch.Locker that serialises ticks across processes.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	proc, err := dispatch.NewProcessor(manager, directory, sender,
//		dispatch.WithLocker(redis.NewLocker(client, cfg.LockKey, cfg.LockTTL)),
//	)
//
// The lock is a single key set with NX and a TTL. Release deletes the key only
// if it still holds this holder's token, so an expired lock taken over by
// another process is never released by the previous owner.
package redis
