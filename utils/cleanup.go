package utils

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
)

// StartMediaSweeper launches a background goroutine that periodically deletes
// post images no post references any more. Files younger than interval are kept
// so an upload racing with its post insert is never removed.
// The goroutine exits when ctx is cancelled; the returned channel is closed then.
func StartMediaSweeper(ctx context.Context, db *gorm.DB, root string, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = time.Hour
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := SweepMedia(db, root, interval); err != nil {
					Sugar.Warnf("media sweep failed: %v", err)
				} else if n > 0 {
					Sugar.Infof("media sweep removed %d orphaned images", n)
				}
			}
		}
	}()
	return done
}

// SweepMedia removes unreferenced images under root/posts older than minAge.
func SweepMedia(db *gorm.DB, root string, minAge time.Duration) (int, error) {
	entries, err := os.ReadDir(filepath.Join(root, PostImageDir))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var used []string
	if err := db.Model(&models.Post{}).Where("image <> ''").Pluck("image", &used).Error; err != nil {
		return 0, err
	}
	referenced := make(map[string]struct{}, len(used))
	for _, u := range used {
		referenced[u] = struct{}{}
	}

	cutoff := time.Now().Add(-minAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := referenced[path.Join(PostImageDir, e.Name())]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(root, PostImageDir, e.Name())); err != nil {
			Sugar.Warnf("media sweep remove %s: %v", e.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}
