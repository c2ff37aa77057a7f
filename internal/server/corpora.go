package server

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ironsheep/image-mosaic/internal/corpus"
	"github.com/ironsheep/image-mosaic/internal/index"
)

// loadedCorpus is a decoded tile file together with its color index.
type loadedCorpus struct {
	corp    *corpus.Corpus
	index   *index.Index
	modTime time.Time
}

// corpusCache keeps decoded tile files keyed by path. An entry is reloaded
// when the file's modification time changes.
type corpusCache struct {
	mu      sync.RWMutex
	entries map[string]*loadedCorpus
}

func newCorpusCache() *corpusCache {
	return &corpusCache{entries: make(map[string]*loadedCorpus)}
}

func (c *corpusCache) Load(path string) (*loadedCorpus, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat tile file: %w", err)
	}

	c.mu.RLock()
	lc, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && lc.modTime.Equal(fi.ModTime()) {
		return lc, nil
	}

	corp, err := corpus.DefaultCodec.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if corp.Len() == 0 {
		return nil, fmt.Errorf("tile file %s: %w", path, index.ErrIndexEmpty)
	}
	ix, err := index.New(corp.Colors)
	if err != nil {
		return nil, fmt.Errorf("failed to index tile file %s: %w", path, err)
	}

	lc = &loadedCorpus{corp: corp, index: ix, modTime: fi.ModTime()}
	c.mu.Lock()
	c.entries[path] = lc
	c.mu.Unlock()
	return lc, nil
}

func (c *corpusCache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}
