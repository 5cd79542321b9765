package config

type StoreConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

type Store struct {
	v values
}

var _ StoreConfig = Store{}

// GetRedisAddr selects the redis-backed session store when set.
func (s Store) GetRedisAddr() string {
	return s.v.get("REDIS_ADDR", "")
}

func (s Store) GetRedisPassword() string {
	return s.v.get("REDIS_PASSWORD", "")
}

func (s Store) GetRedisDB() int {
	return s.v.getInt("REDIS_DB", 0)
}

func (s Store) GetRedisPrefix() string {
	return s.v.get("REDIS_PREFIX", "swipe:")
}
