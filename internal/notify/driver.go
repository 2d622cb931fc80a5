package notify

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Driver names accepted by New.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// New builds the bus selected by driver.
func New(driver, dsn string, rdb *redis.Client) (PubSub, error) {
	switch driver {
	case DriverPostgres, "":
		return NewPostgresBus(dsn), nil
	case DriverRedis:
		if rdb == nil {
			return nil, fmt.Errorf("notify: redis driver needs a redis client")
		}
		return NewRedisBus(rdb, ChannelPrefix), nil
	case DriverMemory:
		return NewMemoryBus(), nil
	default:
		return nil, fmt.Errorf("notify: unknown driver %q", driver)
	}
}
