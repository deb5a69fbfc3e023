package backend

import (
	"context"
	"fmt"

	"starforge/internal/blobstore"
	"starforge/internal/campaign"
	"starforge/internal/config"
)

// Closer is a campaign.Backend that holds resources until closed.
type Closer interface {
	campaign.Backend
	Close() error
}

// NewBackendFromConfig creates the backend named by cfg.Type.
func NewBackendFromConfig(ctx context.Context, cfg config.StorageConfig, secrets config.Secrets, sealer Sealer, logger campaign.Logger, clock campaign.Clock) (Closer, error) {
	if sealer == nil {
		sealer = Plaintext{}
	}
	switch cfg.Type {
	case "directory", "":
		if cfg.CampaignsDir == "" {
			return nil, fmt.Errorf("directory storage requires campaigns_dir to be set")
		}
		return NewDirectoryBackend(cfg.CampaignsDir, sealer, logger)
	case "blob":
		store, err := blobstore.NewBlobStoreFromConfig(ctx, cfg, secrets, clock)
		if err != nil {
			return nil, fmt.Errorf("creating blob store: %w", err)
		}
		key := cfg.BlobKey
		if key == "" {
			key = config.DefaultBlobKey
		}
		return NewBlobBackend(store, key, sealer, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// NewCommitterFromConfig creates the committer named by cfg.Mode.
func NewCommitterFromConfig(cfg config.PersistenceConfig, b campaign.Backend, logger campaign.Logger, clock campaign.Clock) (campaign.Committer, error) {
	switch cfg.Mode {
	case "detached", "":
		return campaign.NewDetachedCommitter(b, logger, clock), nil
	case "queued":
		return campaign.NewQueuedCommitter(b, logger, clock), nil
	default:
		return nil, fmt.Errorf("unknown persistence mode: %s", cfg.Mode)
	}
}
