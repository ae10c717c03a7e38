package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/storage"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/storage/redis/v3"
)

// Config configures the cache plugin.
type Config struct {
	RedisAddr string        // host:port
	Prefix    string        // namespace for every key, e.g. "todo:"
	TTL       time.Duration // default entry lifetime
	PoolSize  int           // Redis pool size, 50 when zero
}

// PluginModule serves the todo cache to modules that ask for the "cache"
// plugin alias. Plugins start before and stop after regular modules, so the
// store is connected by the time the todo module starts.
type PluginModule struct {
	cfg       Config
	store     storage.Storage
	service   CacheService
	container types.ServiceContainer
	logger    types.Logger
}

var (
	_ mono.PluginModule          = (*PluginModule)(nil)
	_ mono.HealthCheckableModule = (*PluginModule)(nil)
)

// NewPluginModule creates the plugin. Nothing connects until Start.
func NewPluginModule(cfg Config, logger types.Logger) *PluginModule {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 50
	}
	return &PluginModule{cfg: cfg, logger: logger.WithModule("cache")}
}

func (m *PluginModule) Name() string { return "cache" }

func (m *PluginModule) Start(_ context.Context) error {
	m.store = redis.New(redisConfig(m.cfg))
	m.service = NewCacheService(m.store, m.cfg.Prefix, m.cfg.TTL)
	m.logger.Info("Todo cache ready", "addr", m.cfg.RedisAddr, "prefix", m.cfg.Prefix, "ttl", m.cfg.TTL.String())
	return nil
}

func (m *PluginModule) Stop(_ context.Context) error {
	if m.service == nil {
		return nil
	}
	err := m.service.Close()
	m.service, m.store = nil, nil
	if err != nil {
		m.logger.WithError(err).Error("Closing todo cache failed")
		return fmt.Errorf("close cache storage: %w", err)
	}
	return nil
}

func (m *PluginModule) SetContainer(container types.ServiceContainer) { m.container = container }

func (m *PluginModule) Container() types.ServiceContainer { return m.container }

// Port is nil until Start; consumers must treat a nil port as "no cache".
func (m *PluginModule) Port() CacheService {
	return m.service
}

// Health reads a sentinel key and reports the hit counters.
func (m *PluginModule) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{Message: "not started"}
	}
	if _, err := m.store.GetWithContext(ctx, m.cfg.Prefix+"__health__"); err != nil {
		return mono.HealthStatus{Message: "redis unreachable: " + err.Error()}
	}
	s := m.service.Stats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"addr":     m.cfg.RedisAddr,
			"hits":     s.Hits,
			"misses":   s.Misses,
			"errors":   s.Errors,
			"hit_rate": s.HitRate,
		},
	}
}

// redisConfig turns cfg into a storage config. A malformed address falls
// back to 127.0.0.1:6379 piecewise.
func redisConfig(cfg Config) redis.Config {
	rc := redis.Config{Host: "127.0.0.1", Port: 6379, PoolSize: cfg.PoolSize}
	host, port, err := net.SplitHostPort(cfg.RedisAddr)
	if err != nil {
		return rc
	}
	if host != "" {
		rc.Host = host
	}
	if n, err := strconv.Atoi(port); err == nil {
		rc.Port = n
	}
	return rc
}
