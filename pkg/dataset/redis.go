// pkg/dataset/redis.go

package dataset

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"AveList/pkg/chunk"
	"AveList/pkg/utils"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	settingKey = "setting"
	itemsKey   = "items"
	idsKey     = "ids"

	seedBatch = 500
)

type redisDataset struct {
	conf   *Config
	rdb    redis.UniversalClient
	search *redis.Script
}

var _ Dataset = &redisDataset{}
var _ Seeder = &redisDataset{}

func init() {
	Register("redis", newRedisDataset)
	Register("rediss", newRedisDataset)
}

// newRedisDataset return a dataset stored in Redis.
func newRedisDataset(driver, addr string, conf *Config) (Dataset, error) {
	url := driver + "://" + addr
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", url)
	}

	var rdb redis.UniversalClient
	if strings.Contains(opt.Addr, ",") {
		var fopt redis.FailoverOptions
		ps := strings.Split(opt.Addr, ",")
		fopt.MasterName = ps[0]
		fopt.SentinelAddrs = ps[1:]

		defaultSentinelPort := "26379"
		for i, saddr := range fopt.SentinelAddrs {
			h, p, err := net.SplitHostPort(saddr)
			if err != nil {
				fopt.SentinelAddrs[i] = net.JoinHostPort(saddr, defaultSentinelPort)
			} else if p == "" {
				fopt.SentinelAddrs[i] = net.JoinHostPort(h, defaultSentinelPort)
			}
		}

		fopt.Username = opt.Username
		fopt.Password = opt.Password
		if fopt.Password == "" && os.Getenv("REDIS_PASSWORD") != "" {
			fopt.Password = os.Getenv("REDIS_PASSWORD")
		}
		fopt.SentinelPassword = os.Getenv("SENTINEL_PASSWORD")
		fopt.DB = opt.DB
		fopt.TLSConfig = opt.TLSConfig
		fopt.MaxRetries = conf.Retries
		fopt.MinRetryBackoff = time.Millisecond * 100
		fopt.MaxRetryBackoff = time.Second * 5
		fopt.ReadTimeout = time.Second * 30
		fopt.WriteTimeout = time.Second * 5
		rdb = redis.NewFailoverClient(&fopt)
	} else {
		if opt.Password == "" && os.Getenv("REDIS_PASSWORD") != "" {
			opt.Password = os.Getenv("REDIS_PASSWORD")
		}
		opt.MaxRetries = conf.Retries
		opt.MinRetryBackoff = time.Millisecond * 100
		opt.MaxRetryBackoff = time.Second * 5
		opt.ReadTimeout = time.Second * 30
		opt.WriteTimeout = time.Second * 5
		rdb = redis.NewClient(opt)
	}

	return &redisDataset{
		conf:   conf,
		rdb:    rdb,
		search: redis.NewScript(scriptSearch),
	}, nil
}

func (r *redisDataset) Name() string {
	return "redis"
}

// Init generates format.Count items and stores them, refusing to touch an
// existing dataset with a different format unless force is set.
func (r *redisDataset) Init(ctx context.Context, format Format, force bool) error {
	body, err := r.rdb.Get(ctx, settingKey).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if err == nil {
		var old Format
		if err = json.Unmarshal(body, &old); err != nil {
			return errors.Wrap(err, "existing format is broken")
		}
		if !force {
			format.UUID = old.UUID
			format.Created = old.Created
			if format != old {
				return errors.Errorf("cannot update format from %+v to %+v", old, format)
			}
			return nil
		}
		logger.Warnf("Existing dataset will be overwritten: %+v", old)
	}

	if err = r.rdb.Del(ctx, itemsKey, idsKey).Err(); err != nil {
		return err
	}
	epoch := time.UnixMilli(format.Created)
	items := Generate(format.Count, format.Seed, epoch)
	for off := 0; off < len(items); off += seedBatch {
		batch := items[off:utils.Min(off+seedBatch, len(items))]
		_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			values := make([]interface{}, 0, len(batch))
			ids := make(map[string]interface{}, len(batch))
			for i, it := range batch {
				data, err := json.Marshal(it)
				if err != nil {
					return err
				}
				values = append(values, data)
				ids[it.ID] = off + i
			}
			pipe.RPush(ctx, itemsKey, values...)
			pipe.HSet(ctx, idsKey, ids)
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "store items %d", off)
		}
	}
	logger.Debugf("stored %d items", len(items))

	data, err := json.MarshalIndent(format, "", "")
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, settingKey, data, 0).Err()
}

func (r *redisDataset) Load(ctx context.Context) (*Format, error) {
	body, err := r.rdb.Get(ctx, settingKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.New("dataset is not seeded")
	}
	if err != nil {
		return nil, err
	}
	var f Format
	if err = json.Unmarshal(body, &f); err != nil {
		return nil, errors.Wrap(err, "json")
	}
	return &f, nil
}

func (r *redisDataset) Total(ctx context.Context) (int, error) {
	n, err := r.rdb.LLen(ctx, itemsKey).Result()
	return int(n), err
}

func decodeItems(raws []string) ([]chunk.Item, error) {
	items := make([]chunk.Item, len(raws))
	for i, raw := range raws {
		if err := json.Unmarshal([]byte(raw), &items[i]); err != nil {
			return nil, errors.Wrap(err, "corrupted item")
		}
	}
	return items, nil
}

func (r *redisDataset) Slice(ctx context.Context, start, limit int) (*Page, error) {
	if err := checkWindow(start, limit); err != nil {
		return nil, err
	}
	var total *redis.IntCmd
	var page *redis.StringSliceCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		total = pipe.LLen(ctx, itemsKey)
		page = pipe.LRange(ctx, itemsKey, int64(start), int64(start+limit-1))
		return nil
	})
	if err != nil {
		return nil, err
	}
	items, err := decodeItems(page.Val())
	if err != nil {
		return nil, err
	}
	return newPage(items, start, limit, int(total.Val())), nil
}

func (r *redisDataset) Search(ctx context.Context, keyword string, start, limit int) (*Page, error) {
	if err := checkWindow(start, limit); err != nil {
		return nil, err
	}
	res, err := r.search.Run(ctx, r.rdb, []string{itemsKey}, keyword, start, limit).Slice()
	if err != nil {
		return nil, errors.Wrap(err, "search")
	}
	if len(res) != 2 {
		return nil, errors.Errorf("unexpected search reply of %d values", len(res))
	}
	total, _ := res[0].(int64)
	vals, _ := res[1].([]interface{})
	raws := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			raws = append(raws, s)
		}
	}
	items, err := decodeItems(raws)
	if err != nil {
		return nil, err
	}
	p := newPage(items, start, limit, int(total))
	p.Meta.Keyword = keyword
	return p, nil
}

func (r *redisDataset) Get(ctx context.Context, id string) (chunk.Item, error) {
	pos, err := r.rdb.HGet(ctx, idsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return chunk.Item{}, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	if err != nil {
		return chunk.Item{}, err
	}
	idx, err := strconv.ParseInt(pos, 10, 64)
	if err != nil {
		return chunk.Item{}, errors.Wrapf(err, "index of %s", id)
	}
	raw, err := r.rdb.LIndex(ctx, itemsKey, idx).Result()
	if errors.Is(err, redis.Nil) {
		return chunk.Item{}, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	if err != nil {
		return chunk.Item{}, err
	}
	var it chunk.Item
	if err = json.Unmarshal([]byte(raw), &it); err != nil {
		return chunk.Item{}, errors.Wrap(err, "corrupted item")
	}
	return it, nil
}

func (r *redisDataset) Close() error {
	return r.rdb.Close()
}
