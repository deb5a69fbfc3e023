package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"starforge/internal/blobstore"
	"starforge/internal/campaign"
)

// blobDocument is the single document the blob backend persists.
type blobDocument struct {
	Campaigns []campaign.Campaign `json:"campaigns"`
}

// BlobBackend persists every campaign as one document under one key of a
// BlobStore. Save and Delete update a mirror of the persisted set and
// rewrite the whole document, so each write costs O(total data) and the last
// writer wins for the whole store.
type BlobBackend struct {
	store  blobstore.BlobStore
	key    string
	sealer Sealer
	logger campaign.Logger

	mu        sync.Mutex
	loaded    bool
	campaigns []campaign.Campaign
}

var _ campaign.Backend = (*BlobBackend)(nil)

// NewBlobBackend creates a BlobBackend writing under key.
func NewBlobBackend(store blobstore.BlobStore, key string, sealer Sealer, logger campaign.Logger) *BlobBackend {
	return &BlobBackend{
		store:  store,
		key:    key,
		sealer: sealer,
		logger: logger,
	}
}

// LoadAll reads the document. A missing document is an empty store; an
// unreadable or corrupt one is logged, kept aside under "<key>.corrupt",
// and also treated as empty.
func (b *BlobBackend) LoadAll() []campaign.Campaign {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.campaigns = b.read()
	b.loaded = true
	return slices.Clone(b.campaigns)
}

func (b *BlobBackend) read() []campaign.Campaign {
	raw, err := b.store.Get(b.key)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		b.logger.Warn("reading campaign document failed, starting empty", "key", b.key, "error", err)
		return nil
	}

	plain, err := b.sealer.Open(raw)
	if err != nil {
		b.logger.Warn("opening campaign document failed, starting empty", "key", b.key, "error", err)
		b.keepCorrupt(raw)
		return nil
	}

	var doc blobDocument
	if err := json.Unmarshal(plain, &doc); err != nil {
		b.logger.Warn("campaign document is corrupt, starting empty", "key", b.key, "error", err)
		b.keepCorrupt(raw)
		return nil
	}
	return doc.Campaigns
}

// keepCorrupt copies an unusable document aside before it is overwritten.
func (b *BlobBackend) keepCorrupt(raw []byte) {
	if err := b.store.Put(b.key+".corrupt", raw); err != nil {
		b.logger.Warn("could not keep corrupt campaign document", "key", b.key, "error", err)
	}
}

func (b *BlobBackend) Save(c campaign.Campaign) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureLoaded()

	next := slices.Clone(b.campaigns)
	if i := indexOf(next, c.ID); i >= 0 {
		next[i] = c
	} else {
		next = append(next, c)
	}
	return b.write(next)
}

// Delete removes the campaign from the document. An absent id writes nothing.
func (b *BlobBackend) Delete(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureLoaded()

	i := indexOf(b.campaigns, id)
	if i < 0 {
		return nil
	}
	next := slices.Delete(slices.Clone(b.campaigns), i, i+1)
	return b.write(next)
}

// Backup copies the stored data to destPath. Stores that implement
// blobstore.Backuper write their native snapshot; the others get the stored
// document as is, still sealed when encryption is on.
func (b *BlobBackend) Backup(destPath string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}
	if bk, ok := b.store.(blobstore.Backuper); ok {
		return bk.BackupTo(destPath)
	}

	raw, err := b.store.Get(b.key)
	if err != nil {
		return fmt.Errorf("reading campaign document: %w", err)
	}
	if err := blobstore.WriteFileAtomic(destPath, raw, 0600); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	return nil
}

// Close releases the underlying store if it holds resources.
func (b *BlobBackend) Close() error {
	if c, ok := b.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (b *BlobBackend) ensureLoaded() {
	if !b.loaded {
		b.campaigns = b.read()
		b.loaded = true
	}
}

// write persists campaigns and, on success, makes them the new mirror.
func (b *BlobBackend) write(campaigns []campaign.Campaign) error {
	if campaigns == nil {
		campaigns = []campaign.Campaign{}
	}
	plain, err := json.Marshal(blobDocument{Campaigns: campaigns})
	if err != nil {
		return fmt.Errorf("encoding campaign document: %w", err)
	}
	sealed, err := b.sealer.Seal(plain)
	if err != nil {
		return fmt.Errorf("sealing campaign document: %w", err)
	}
	if err := b.store.Put(b.key, sealed); err != nil {
		return fmt.Errorf("writing campaign document: %w", err)
	}
	b.campaigns = campaigns
	return nil
}

func indexOf(campaigns []campaign.Campaign, id string) int {
	return slices.IndexFunc(campaigns, func(c campaign.Campaign) bool { return c.ID == id })
}
