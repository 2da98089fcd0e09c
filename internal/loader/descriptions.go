// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Descriptions fetches optional scene description text. Failures yield an
// empty description. Found and missing descriptions are cached; transient
// errors are retried on the next call.
type Descriptions struct {
	src   Source
	cache *cache.Cache
	log   *zap.Logger
}

// NewDescriptions returns a Descriptions over src caching entries for ttl.
func NewDescriptions(src Source, ttl time.Duration, log *zap.Logger) *Descriptions {
	if log == nil {
		log = zap.NewNop()
	}
	return &Descriptions{
		src:   src,
		cache: cache.New(ttl, 2*ttl),
		log:   log,
	}
}

// DescriptionPath returns the location of a scene's description.
func DescriptionPath(scene string) string {
	return path.Join("images", scene, scene+".txt")
}

// Get returns the trimmed description for scene, or "".
func (d *Descriptions) Get(ctx context.Context, scene string) string {
	if v, ok := d.cache.Get(scene); ok {
		return v.(string)
	}
	data, err := d.src.Fetch(ctx, DescriptionPath(scene))
	if err != nil {
		d.log.Debug("scene description unavailable", zap.String("scene", scene), zap.Error(err))
		if !errors.Is(err, ErrNotFound) {
			return ""
		}
	}
	text := strings.TrimSpace(string(data))
	d.cache.SetDefault(scene, text)
	return text
}
