package obsws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tf2obs/tf2obs-go/internal/retry"
)

// invalidatingEvents change scene layout; any of them clears every cached
// lookup.
var invalidatingEvents = map[string]bool{
	"SceneItemCreated":            true,
	"SceneItemRemoved":            true,
	"SceneItemEnableStateChanged": true,
	"SceneItemTransformChanged":   true,
	"SceneItemListReindexed":      true,
	"CurrentProgramSceneChanged":  true,
	"SceneNameChanged":            true,
	"SceneRemoved":                true,
}

type itemKey struct {
	scene  string
	source string
}

// lookupCache maps (scene, source) to a scene item id.
//
// The generation counter is bumped on every clear so a lookup that started
// before an invalidation does not store its possibly stale result.
type lookupCache struct {
	mu    sync.Mutex
	items map[itemKey]int
	gen   uint64
}

func newLookupCache() *lookupCache {
	return &lookupCache{items: make(map[itemKey]int)}
}

func (lc *lookupCache) get(k itemKey) (int, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	id, ok := lc.items[k]
	return id, ok
}

func (lc *lookupCache) generation() uint64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.gen
}

func (lc *lookupCache) put(k itemKey, id int, gen uint64) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if gen != lc.gen {
		return
	}
	lc.items[k] = id
}

func (lc *lookupCache) reset() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	clear(lc.items)
	lc.gen++
}

func (lc *lookupCache) size() int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return len(lc.items)
}

// sceneCache holds the current program scene for a short time.
type sceneCache struct {
	mu      sync.Mutex
	name    string
	expires time.Time
}

func (s *sceneCache) get(now time.Time) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.name == "" || !now.Before(s.expires) {
		return "", false
	}
	return s.name, true
}

func (s *sceneCache) set(name string, expires time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	s.expires = expires
}

func (s *sceneCache) reset() {
	s.set("", time.Time{})
}

func (c *Client) invalidate() {
	c.items.reset()
	c.scene.reset()
}

// SceneItemID resolves the id of source within scene. Misses are looked up
// with GetSceneItemId under the lookup retry policy; when every attempt
// fails the result is (0, false) and nothing is cached.
func (c *Client) SceneItemID(ctx context.Context, scene, source string) (int, bool) {
	key := itemKey{scene: scene, source: source}
	if id, ok := c.items.get(key); ok {
		return id, true
	}

	gen := c.items.generation()
	id, err := retry.Do(ctx, c.cfg.lookup, func(ctx context.Context) (int, error) {
		return c.lookupSceneItemID(ctx, scene, source)
	}, func(attempt int, err error, next time.Duration) {
		c.log.Debug("scene item lookup failed",
			"scene", scene, "source", source, "attempt", attempt, "error", err, "retry_in", next)
	})
	if err != nil {
		c.log.Warn("could not resolve scene item", "scene", scene, "source", source, "error", err)
		return 0, false
	}

	c.items.put(key, id, gen)
	return id, true
}

func (c *Client) lookupSceneItemID(ctx context.Context, scene, source string) (int, error) {
	resp, err := c.Call(ctx, "GetSceneItemId", map[string]any{
		"sceneName":  scene,
		"sourceName": source,
	})
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.NotFound() {
			return 0, retry.Permanent(err)
		}
		if errors.Is(err, ErrClosed) {
			return 0, retry.Permanent(err)
		}
		return 0, err
	}
	v := resp.Get("sceneItemId")
	if !v.Exists() {
		return 0, retry.Permanent(&ShapeError{RequestType: "GetSceneItemId", Field: "responseData.sceneItemId"})
	}
	return int(v.Int()), nil
}

// CurrentProgramScene returns the scene shown on program output. The name
// is cached for the scene TTL and dropped when OBS reports a scene change.
func (c *Client) CurrentProgramScene(ctx context.Context) (string, error) {
	if name, ok := c.scene.get(c.cfg.now()); ok {
		return name, nil
	}

	name, err := retry.Do(ctx, c.cfg.lookup, func(ctx context.Context) (string, error) {
		resp, err := c.Call(ctx, "GetCurrentProgramScene", nil)
		if err != nil {
			if errors.Is(err, ErrClosed) {
				return "", retry.Permanent(err)
			}
			return "", err
		}
		name := resp.Get("currentProgramSceneName").String()
		if name == "" {
			name = resp.Get("sceneName").String()
		}
		if name == "" {
			return "", &ShapeError{RequestType: "GetCurrentProgramScene", Field: "responseData.currentProgramSceneName"}
		}
		return name, nil
	}, nil)
	if err != nil {
		return "", fmt.Errorf("get current scene: %w", err)
	}

	c.scene.set(name, c.cfg.now().Add(c.cfg.sceneTTL))
	return name, nil
}
