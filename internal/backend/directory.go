package backend

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"starforge/internal/blobstore"
	"starforge/internal/campaign"
)

const campaignFileExt = ".json"

// DirectoryBackend keeps one pretty-printed JSON file per campaign:
//
//	<dir>/
//	  <campaign id>.json
//	  .tmp-*              (in-flight writes, renamed into place)
//
// Writes to different campaigns never touch the same file. Concurrent writes
// to the same campaign are last-rename-wins; a write interrupted mid-way
// leaves the previous file intact.
type DirectoryBackend struct {
	dir    string
	sealer Sealer
	logger campaign.Logger
}

var _ campaign.Backend = (*DirectoryBackend)(nil)

// NewDirectoryBackend creates dir if needed and returns a backend over it.
func NewDirectoryBackend(dir string, sealer Sealer, logger campaign.Logger) (*DirectoryBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create campaigns directory: %w", err)
	}
	return &DirectoryBackend{dir: dir, sealer: sealer, logger: logger}, nil
}

// Dir returns the campaigns directory.
func (d *DirectoryBackend) Dir() string {
	return d.dir
}

// LoadAll reads every campaign file, skipping and logging the ones that
// cannot be read or parsed and the ones whose id does not match the file
// name, since Save and Delete would never reach those files.
func (d *DirectoryBackend) LoadAll() []campaign.Campaign {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		d.logger.Warn("reading campaigns directory failed, starting empty", "dir", d.dir, "error", err)
		return nil
	}

	var out []campaign.Campaign
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != campaignFileExt {
			continue
		}
		c, err := d.readFile(filepath.Join(d.dir, name))
		if err != nil {
			d.logger.Warn("skipping unreadable campaign file", "file", name, "error", err)
			continue
		}
		if want := strings.TrimSuffix(name, campaignFileExt); c.ID != want {
			d.logger.Warn("skipping campaign file named after another id", "file", name, "campaign", c.ID)
			continue
		}
		out = append(out, c)
	}
	return out
}

func (d *DirectoryBackend) readFile(path string) (campaign.Campaign, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return campaign.Campaign{}, err
	}
	plain, err := d.sealer.Open(raw)
	if err != nil {
		return campaign.Campaign{}, err
	}
	var c campaign.Campaign
	if err := json.Unmarshal(plain, &c); err != nil {
		return campaign.Campaign{}, err
	}
	return c, nil
}

// Save writes the campaign's file via a temp file and rename.
func (d *DirectoryBackend) Save(c campaign.Campaign) error {
	path, err := d.pathFor(c.ID)
	if err != nil {
		return err
	}
	doc, err := campaign.Export(c)
	if err != nil {
		return err
	}
	sealed, err := d.sealer.Seal(doc)
	if err != nil {
		return fmt.Errorf("sealing campaign %s: %w", c.ID, err)
	}
	if err := blobstore.WriteFileAtomic(path, sealed, 0644); err != nil {
		return fmt.Errorf("writing campaign %s: %w", c.ID, err)
	}
	return nil
}

// Delete removes the campaign's file. A missing file is not an error.
func (d *DirectoryBackend) Delete(id string) error {
	path, err := d.pathFor(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing campaign %s: %w", id, err)
	}
	return nil
}

// Close is a no-op; the backend holds no open handles.
func (d *DirectoryBackend) Close() error { return nil }

func (d *DirectoryBackend) pathFor(id string) (string, error) {
	if !campaign.ValidID(id) {
		return "", fmt.Errorf("campaign id %q cannot name a file: %w", id, campaign.ErrValidation)
	}
	return filepath.Join(d.dir, id+campaignFileExt), nil
}
