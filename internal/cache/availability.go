package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AvailabilityCache 活動剩餘容量的讀取快取，資料來源永遠是資料庫。
// 每次 Invalidate 都會遞增版本號；寫入前先取版本，再讀資料庫，
// 寫入時版本已變代表期間有異動提交，該次寫入會被放棄。
type AvailabilityCache interface {
	// 讀取：不存在時回傳 ErrCacheMiss
	Get(ctx context.Context, eventID uuid.UUID) (*model.Availability, error)
	// 目前版本，從未失效過為 0
	Version(ctx context.Context, eventID uuid.UUID) (int64, error)
	// 寫入：版本相同時覆寫整個 hash 並重設 TTL，版本已變回傳 false
	Set(ctx context.Context, availability *model.Availability, version int64) (bool, error)
	// 失效：票券異動提交後立即呼叫，刪除 hash 並遞增版本
	Invalidate(ctx context.Context, eventID uuid.UUID) error
}

type RedisAvailabilityCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisAvailabilityCache(client redis.Cmdable, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{
		client: client,
		ttl:    ttl,
	}
}

const (
	fieldState           = "state"
	fieldGeneralCapacity = "general_capacity"
	fieldGeneralSold     = "general_sold"
	fieldVipCapacity     = "vip_capacity"
	fieldVipSold         = "vip_sold"
)

// 版本 key 比 hash 活得久，過期後從 0 重新計數
const versionTTL = 24 * time.Hour

// AvailabilityKey 快取 key
func AvailabilityKey(eventID uuid.UUID) string {
	return fmt.Sprintf("event:%s:availability", eventID)
}

// VersionKey 版本 key
func VersionKey(eventID uuid.UUID) string {
	return fmt.Sprintf("event:%s:availability:version", eventID)
}

// 版本相同才寫入 hash 並設定 TTL，兩步在同一個腳本內完成
const setIfVersionScript = `
	local current = redis.call('GET', KEYS[2]) or '0'
	if current ~= ARGV[1] then
		return 0
	end

	redis.call('HSET', KEYS[1], unpack(ARGV, 3))
	local ttl = tonumber(ARGV[2])
	if ttl > 0 then
		redis.call('PEXPIRE', KEYS[1], ttl)
	end
	return 1
`

func (c *RedisAvailabilityCache) Get(ctx context.Context, eventID uuid.UUID) (*model.Availability, error) {
	result, err := c.client.HGetAll(ctx, AvailabilityKey(eventID)).Result()
	if err != nil {
		return nil, err
	}

	// 檢查 key 是否存在
	if len(result) == 0 {
		return nil, apperrors.ErrCacheMiss
	}

	ints := make(map[string]int, 4)
	for _, field := range []string{fieldGeneralCapacity, fieldGeneralSold, fieldVipCapacity, fieldVipSold} {
		v, err := strconv.Atoi(result[field])
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", field, err)
		}
		ints[field] = v
	}

	state := model.EventState(result[fieldState])
	if !state.IsValid() {
		return nil, fmt.Errorf("invalid state: %q", result[fieldState])
	}

	event := &model.Event{
		EventID:         eventID,
		State:           state,
		GeneralCapacity: ints[fieldGeneralCapacity],
		VipCapacity:     ints[fieldVipCapacity],
	}
	return model.NewAvailability(event, map[model.TicketType]int{
		model.TicketTypeGeneral: ints[fieldGeneralSold],
		model.TicketTypeVIP:     ints[fieldVipSold],
	}), nil
}

func (c *RedisAvailabilityCache) Version(ctx context.Context, eventID uuid.UUID) (int64, error) {
	version, err := c.client.Get(ctx, VersionKey(eventID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, availability *model.Availability, version int64) (bool, error) {
	keys := []string{AvailabilityKey(availability.EventID), VersionKey(availability.EventID)}
	args := setArgs(availability, version, c.ttl)

	stored, err := c.client.Eval(ctx, setIfVersionScript, keys, args...).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

func setArgs(availability *model.Availability, version int64, ttl time.Duration) []interface{} {
	args := []interface{}{version, ttl.Milliseconds(), fieldState, string(availability.State)}
	for _, t := range availability.Types {
		switch t.Type {
		case model.TicketTypeGeneral:
			args = append(args, fieldGeneralCapacity, t.Capacity, fieldGeneralSold, t.Sold)
		case model.TicketTypeVIP:
			args = append(args, fieldVipCapacity, t.Capacity, fieldVipSold, t.Sold)
		}
	}
	return args
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, eventID uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, AvailabilityKey(eventID))
		pipe.Incr(ctx, VersionKey(eventID))
		pipe.Expire(ctx, VersionKey(eventID), versionTTL)
		return nil
	})
	return err
}
