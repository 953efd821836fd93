// Package redis caches computed schedules in Redis.
//
// Scheduling is deterministic, so a schedule view can be stored under a
// digest of everything that produced it: the graph document, the effective
// scheduling options and the request flags. Client wraps go-redis with the
// service logger; Component plugs it into the lifecycle registry and the
// health endpoint; ScheduleCache stores views as JSON with a TTL.
//
//	c := redis.NewComponent(cfg.Cache, log)
//	registry.Register(c)
//	cache := redis.NewScheduleCache(c, cfg.Cache.KeyPrefix, cfg.Cache.TTL())
package redis
