package obsws

import (
	"context"

	"github.com/tidwall/gjson"
)

// VersionInfo is the reply to GetVersion.
type VersionInfo struct {
	OBSVersion          string
	OBSWebSocketVersion string
	RPCVersion          int
	Platform            string
}

// Version returns the OBS and plugin versions.
func (c *Client) Version(ctx context.Context) (VersionInfo, error) {
	resp, err := c.Call(ctx, "GetVersion", nil)
	if err != nil {
		return VersionInfo{}, err
	}
	return VersionInfo{
		OBSVersion:          resp.Get("obsVersion").String(),
		OBSWebSocketVersion: resp.Get("obsWebSocketVersion").String(),
		RPCVersion:          int(resp.Get("rpcVersion").Int()),
		Platform:            resp.Get("platformDescription").String(),
	}, nil
}

// SetCurrentProgramScene switches program output to scene.
func (c *Client) SetCurrentProgramScene(ctx context.Context, scene string) error {
	_, err := c.Call(ctx, "SetCurrentProgramScene", map[string]any{"sceneName": scene})
	if err != nil {
		return err
	}
	c.invalidate()
	return nil
}

// SetSceneItemEnabled shows or hides a scene item.
func (c *Client) SetSceneItemEnabled(ctx context.Context, scene string, itemID int, enabled bool) error {
	_, err := c.Call(ctx, "SetSceneItemEnabled", map[string]any{
		"sceneName":        scene,
		"sceneItemId":      itemID,
		"sceneItemEnabled": enabled,
	})
	return err
}

// SetInputMute mutes or unmutes an input.
func (c *Client) SetInputMute(ctx context.Context, input string, muted bool) error {
	_, err := c.Call(ctx, "SetInputMute", map[string]any{
		"inputName":  input,
		"inputMuted": muted,
	})
	return err
}

// SetInputSettings merges settings into an input's current settings.
func (c *Client) SetInputSettings(ctx context.Context, input string, settings map[string]any) error {
	_, err := c.Call(ctx, "SetInputSettings", map[string]any{
		"inputName":     input,
		"inputSettings": settings,
		"overlay":       true,
	})
	return err
}

// SetText updates the text of a text source.
func (c *Client) SetText(ctx context.Context, input, text string) error {
	return c.SetInputSettings(ctx, input, map[string]any{"text": text})
}

// Scene is one entry of GetSceneList.
type Scene struct {
	Name  string
	Index int
}

// SceneList returns every scene, in the order OBS reports them.
func (c *Client) SceneList(ctx context.Context) ([]Scene, error) {
	resp, err := c.Call(ctx, "GetSceneList", nil)
	if err != nil {
		return nil, err
	}
	var scenes []Scene
	resp.Get("scenes").ForEach(func(_, v gjson.Result) bool {
		scenes = append(scenes, Scene{
			Name:  v.Get("sceneName").String(),
			Index: int(v.Get("sceneIndex").Int()),
		})
		return true
	})
	return scenes, nil
}

// SceneItem is one entry of GetSceneItemList.
type SceneItem struct {
	ID         int
	SourceName string
	InputKind  string
	Enabled    bool
}

// SceneItemList returns the items of scene. Ids found here are also stored
// in the lookup cache.
func (c *Client) SceneItemList(ctx context.Context, scene string) ([]SceneItem, error) {
	gen := c.items.generation()
	resp, err := c.Call(ctx, "GetSceneItemList", map[string]any{"sceneName": scene})
	if err != nil {
		return nil, err
	}
	var items []SceneItem
	resp.Get("sceneItems").ForEach(func(_, v gjson.Result) bool {
		item := SceneItem{
			ID:         int(v.Get("sceneItemId").Int()),
			SourceName: v.Get("sourceName").String(),
			InputKind:  v.Get("inputKind").String(),
			Enabled:    v.Get("sceneItemEnabled").Bool(),
		}
		items = append(items, item)
		c.items.put(itemKey{scene: scene, source: item.SourceName}, item.ID, gen)
		return true
	})
	return items, nil
}
