package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hrms-backend/shared/config"
)

const (
	keyPrefix       = "perm:"
	decisionPrefix  = keyPrefix + "user:"
	globalGenKey    = keyPrefix + "gen:global"
	userGenKeyStart = keyPrefix + "gen:user:"
)

// setIfCurrent writes a decision only while both generation counters still match
// the token read before the lookup.
var setIfCurrent = redis.NewScript(`
local current = (redis.call('GET', KEYS[1]) or '0') .. ':' .. (redis.call('GET', KEYS[2]) or '0')
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[3], ARGV[2], 'PX', ARGV[3])
return 1
`)

var errNotInitialized = errors.New("cache manager not initialized")

// CacheManager caches capability decisions per user, module and action
type CacheManager struct {
	client *redis.Client
	ttl    time.Duration
}

type CapabilityCacheData struct {
	Allowed  bool      `json:"allowed"`
	UserID   uuid.UUID `json:"user_id"`
	Module   string    `json:"module"`
	Action   string    `json:"action"`
	CachedAt time.Time `json:"cached_at"`
}

var globalCacheManager *CacheManager

// InitCacheManager connects to redis and installs the global cache manager
func InitCacheManager(ctx context.Context) error {
	cfg := config.GetConfig()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.GetRedisDB(),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	globalCacheManager = NewCacheManager(client, cfg.GetCapabilityCacheTTL())

	log.Printf("✅ Redis Cache Manager initialized successfully - %s:%s DB:%d",
		cfg.RedisHost, cfg.RedisPort, cfg.GetRedisDB())

	return nil
}

// GetCacheManager returns the global cache manager; nil when redis is unavailable
func GetCacheManager() *CacheManager {
	return globalCacheManager
}

func NewCacheManager(client *redis.Client, ttl time.Duration) *CacheManager {
	return &CacheManager{client: client, ttl: ttl}
}

// CapabilityKey returns perm:user:<id>:mod:<module>:act:<action>
func CapabilityKey(userID uuid.UUID, moduleKey, action string) string {
	return fmt.Sprintf("%s%s:mod:%s:act:%s", decisionPrefix, userID, moduleKey, action)
}

func userGenKey(userID uuid.UUID) string {
	return userGenKeyStart + userID.String()
}

func (cm *CacheManager) enabled() bool {
	return cm != nil && cm.client != nil && cm.ttl > 0
}

// GetCapability returns the cached decision and whether one was found
func (cm *CacheManager) GetCapability(ctx context.Context, userID uuid.UUID, moduleKey, action string) (bool, bool) {
	if !cm.enabled() {
		return false, false
	}

	key := CapabilityKey(userID, moduleKey, action)
	raw, err := cm.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("❌ Cache error: %v", err)
		}
		return false, false
	}

	var data CapabilityCacheData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("❌ Failed to unmarshal cache data for %s: %v", key, err)
		return false, false
	}

	return data.Allowed, true
}

// Generation returns a token that changes whenever the user's decisions, or all decisions, are invalidated.
// Read it before looking a decision up and pass it to SetCapability.
func (cm *CacheManager) Generation(ctx context.Context, userID uuid.UUID) (string, error) {
	if !cm.enabled() {
		return "", nil
	}

	vals, err := cm.client.MGet(ctx, globalGenKey, userGenKey(userID)).Result()
	if err != nil {
		return "", fmt.Errorf("failed to read cache generation: %w", err)
	}

	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = "0"
		if s, ok := v.(string); ok {
			parts[i] = s
		}
	}
	return parts[0] + ":" + parts[1], nil
}

// SetCapability stores a decision for the configured TTL. The write is dropped when the
// user was invalidated after generation was read, so a lookup racing a change cannot
// cache the old answer.
func (cm *CacheManager) SetCapability(ctx context.Context, userID uuid.UUID, generation, moduleKey, action string, allowed bool) error {
	if !cm.enabled() {
		return nil
	}

	payload, err := json.Marshal(CapabilityCacheData{
		Allowed:  allowed,
		UserID:   userID,
		Module:   moduleKey,
		Action:   action,
		CachedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	keys := []string{globalGenKey, userGenKey(userID), CapabilityKey(userID, moduleKey, action)}
	if err := setIfCurrent.Run(ctx, cm.client, keys, generation, payload, cm.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// InvalidateUser drops every cached decision of a user
func (cm *CacheManager) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	if cm == nil || cm.client == nil {
		return nil
	}
	if err := cm.client.Incr(ctx, userGenKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return cm.invalidateByPattern(ctx, fmt.Sprintf("%s%s:*", decisionPrefix, userID))
}

// InvalidateAll drops every cached decision
func (cm *CacheManager) InvalidateAll(ctx context.Context) error {
	if cm == nil || cm.client == nil {
		return errNotInitialized
	}
	if err := cm.client.Incr(ctx, globalGenKey).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return cm.invalidateByPattern(ctx, decisionPrefix+"*")
}

func (cm *CacheManager) invalidateByPattern(ctx context.Context, pattern string) error {
	iter := cm.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := cm.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	log.Printf("🗑️  Cache invalidated: %d keys matching pattern '%s'", len(keys), pattern)
	return nil
}

// GetCacheStats returns cache statistics
func (cm *CacheManager) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	if cm == nil || cm.client == nil {
		return nil, errNotInitialized
	}

	iter := cm.client.Scan(ctx, 0, decisionPrefix+"*", 0).Iterator()
	keyCount := 0
	for iter.Next(ctx) {
		keyCount++
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}

	return map[string]interface{}{
		"total_capability_keys": keyCount,
		"ttl_seconds":           int(cm.ttl.Seconds()),
		"cache_manager_active":  true,
	}, nil
}

// TestConnection tests the Redis connection
func (cm *CacheManager) TestConnection(ctx context.Context) error {
	if cm == nil || cm.client == nil {
		return errNotInitialized
	}
	if err := cm.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the cache manager connection
func (cm *CacheManager) Close() error {
	if cm != nil && cm.client != nil {
		return cm.client.Close()
	}
	return nil
}
