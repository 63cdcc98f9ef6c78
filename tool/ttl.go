package tool

import (
	"time"

	ttlworker "github.com/FloatTech/ttl"
)

// Cooldown remembers keys for a fixed time. A zero duration disables it.
type Cooldown struct {
	cache *ttlworker.Cache[string, bool]
}

func NewCooldown(d time.Duration) *Cooldown {
	if d <= 0 {
		return &Cooldown{}
	}
	return &Cooldown{cache: ttlworker.NewCache[string, bool](d)}
}

func (c *Cooldown) Mark(key string) {
	if c.cache == nil {
		return
	}
	c.cache.Set(key, true)
	DefaultLogger.Debugf("[Cooldown] %s marked", key)
}

func (c *Cooldown) Active(key string) bool {
	if c.cache == nil {
		return false
	}
	return c.cache.Get(key)
}

func (c *Cooldown) Forget(key string) {
	if c.cache == nil {
		return
	}
	c.cache.Delete(key)
}
