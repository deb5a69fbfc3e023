package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"starforge/internal/assist"
	"starforge/internal/backend"
	"starforge/internal/blobstore"
	"starforge/internal/campaign"
	"starforge/internal/config"
	"starforge/internal/encryption"
	"starforge/internal/gateway"
	"starforge/internal/media"
	"starforge/internal/translate"
)

// StarforgeApp is the application layer between the CLI and the campaign
// store. It constructs all dependencies from config, exposes high-level
// commands, and flushes pending writes on Close.
type StarforgeApp struct {
	cfg       *config.Config
	backend   backend.Closer
	store     *campaign.Store
	lists     *translate.Cache
	assistant *assist.Assistant
	session   *Session
	logger    campaign.Logger
	clock     campaign.Clock
	logFile   *os.File
}

// options replaces collaborators in tests.
type options struct {
	fetcher   gateway.Fetcher
	generator gateway.TextGenerator
	clock     campaign.Clock
	ids       campaign.IDGenerator
	logWriter io.Writer
}

// NewStarforgeApp creates a fully wired StarforgeApp from the given config.
// operation identifies the CLI command being run (e.g. "CreateCampaign").
// The caller must call Close when done.
func NewStarforgeApp(ctx context.Context, cfg *config.Config, secrets config.Secrets, operation string) (*StarforgeApp, error) {
	return newStarforgeApp(ctx, cfg, secrets, operation, options{})
}

func newStarforgeApp(ctx context.Context, cfg *config.Config, secrets config.Secrets, operation string, opts options) (*StarforgeApp, error) {
	clock := opts.clock
	if clock == nil {
		clock = campaign.RealClock{}
	}
	ids := opts.ids
	if ids == nil {
		ids = campaign.UUIDGenerator{}
	}

	session := NewSession(operation, clock.Now())

	var slogger *slog.Logger
	var logFile *os.File
	if opts.logWriter != nil {
		slogger = slog.New(&logHandler{w: opts.logWriter, session: session.ID, level: slog.LevelDebug})
	} else {
		var err error
		slogger, logFile, err = newLogger(cfg.LogDir, session.ID)
		if err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
	}
	logger := &slogAdapter{l: slogger}

	a, err := buildApp(ctx, cfg, secrets, opts, clock, ids, logger)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, err
	}
	a.session = session
	a.logFile = logFile

	loaded := a.store.Load()
	logger.Debug("session started", "operation", operation, "campaigns", loaded)
	return a, nil
}

func buildApp(ctx context.Context, cfg *config.Config, secrets config.Secrets, opts options, clock campaign.Clock, ids campaign.IDGenerator, logger campaign.Logger) (*StarforgeApp, error) {
	sealer, err := newSealer(cfg.Encryption, secrets.Passphrase)
	if err != nil {
		return nil, err
	}

	b, err := backend.NewBackendFromConfig(ctx, cfg.Storage, secrets, sealer, logger, clock)
	if err != nil {
		return nil, fmt.Errorf("creating backend: %w", err)
	}

	committer, err := backend.NewCommitterFromConfig(cfg.Persistence, b, logger, clock)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("creating committer: %w", err)
	}

	lang, err := translate.ParseLanguage(cfg.Gateway.Language)
	if err != nil {
		b.Close()
		return nil, err
	}

	fetcher := opts.fetcher
	if fetcher == nil {
		fetcher = gateway.NewFetcherFromConfig(cfg.Gateway)
	}
	generator := opts.generator
	if generator == nil {
		g, err := gateway.NewGeneratorFromConfig(ctx, cfg.Gateway, secrets)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("creating text generator: %w", err)
		}
		generator = g
	}

	return &StarforgeApp{
		cfg:       cfg,
		backend:   b,
		store:     campaign.NewStore(b, committer, logger, clock, ids),
		lists:     translate.NewCache(fetcher, generator, lang, logger),
		assistant: assist.New(generator, fetcher, lang),
		logger:    logger,
		clock:     clock,
	}, nil
}

// newSealer returns nil when encryption is off, so the backend stores plaintext.
func newSealer(cfg config.EncryptionConfig, passphrase string) (backend.Sealer, error) {
	if !encryption.Enabled(cfg) {
		return nil, nil
	}
	enc, err := encryption.NewEncryptorFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	sealer, err := encryption.NewSealer(enc, passphrase)
	if errors.Is(err, encryption.ErrNotConfigured) {
		return nil, fmt.Errorf("%w: run 'starforge keys init' first", err)
	}
	if err != nil {
		return nil, err
	}
	return sealer, nil
}

// SetupEncryption generates the key pair named by cfg, protected by passphrase.
func SetupEncryption(cfg config.EncryptionConfig, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if enc.IsConfigured() {
		return fmt.Errorf("encryption keys already exist at %s", cfg.PublicKeyPath)
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up encryption: %w", err)
	}
	return nil
}

// Fail marks the session as failed so Close logs it that way.
func (a *StarforgeApp) Fail() {
	a.session.Fail()
}

// ListCampaigns returns every campaign in creation order.
func (a *StarforgeApp) ListCampaigns() []campaign.Campaign {
	return a.store.List()
}

// GetCampaign returns one campaign.
func (a *StarforgeApp) GetCampaign(id string) (campaign.Campaign, error) {
	return a.store.Get(id)
}

// CreateCampaign creates an empty campaign.
func (a *StarforgeApp) CreateCampaign(name, description string) (campaign.Campaign, error) {
	return a.store.Create(name, description)
}

// UpdateCampaign edits a campaign's name and description.
func (a *StarforgeApp) UpdateCampaign(id string, patch campaign.CampaignPatch) (campaign.Campaign, error) {
	return a.store.Update(id, patch)
}

// DeleteCampaign removes a campaign with everything in it. Deleting a
// campaign that does not exist is a no-op and reports false.
func (a *StarforgeApp) DeleteCampaign(id string) (bool, error) {
	err := a.store.Delete(id)
	if errors.Is(err, campaign.ErrNotFound) {
		a.logger.Info("delete of unknown campaign ignored", "campaign", id)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddEntity decodes data as an entity of the named collection and adds it.
func (a *StarforgeApp) AddEntity(campaignID string, collection campaign.CollectionName, data []byte) (campaign.Campaign, error) {
	return a.store.MutateEntity(campaignID, collection, campaign.EntityOp{Op: campaign.OpAdd, Data: data})
}

// UpdateEntity merges a JSON object over one entity.
func (a *StarforgeApp) UpdateEntity(campaignID string, collection campaign.CollectionName, id string, patch []byte) (campaign.Campaign, error) {
	var p campaign.Patch
	if err := json.Unmarshal(patch, &p); err != nil || p == nil {
		return campaign.Campaign{}, fmt.Errorf("patch must be a JSON object: %w", campaign.ErrValidation)
	}
	return a.store.MutateEntity(campaignID, collection, campaign.EntityOp{Op: campaign.OpUpdate, ID: id, Patch: p})
}

// RemoveEntity deletes one entity. Removing an absent entity is a no-op.
func (a *StarforgeApp) RemoveEntity(campaignID string, collection campaign.CollectionName, id string) (campaign.Campaign, error) {
	return a.store.MutateEntity(campaignID, collection, campaign.EntityOp{Op: campaign.OpRemove, ID: id})
}

// ExportCampaign writes one campaign document to path.
func (a *StarforgeApp) ExportCampaign(id, path string) error {
	doc, err := a.store.Export(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := blobstore.WriteFileAtomic(path, doc, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	a.logger.Info("campaign exported", "campaign", id, "path", path)
	return nil
}

// BackupStorage copies the whole blob store to destPath once pending writes
// have landed. The directory backend has no single file to copy.
func (a *StarforgeApp) BackupStorage(destPath string) error {
	b, ok := a.backend.(*backend.BlobBackend)
	if !ok {
		return fmt.Errorf("backup needs blob storage (storage type %q); copy %s instead", a.cfg.Storage.Type, a.CampaignsDir())
	}
	a.store.Flush()
	if err := b.Backup(destPath); err != nil {
		return fmt.Errorf("backing up storage: %w", err)
	}
	a.logger.Info("storage backed up", "path", destPath)
	return nil
}

// ImportCampaign reads a campaign document from path and adds it to the store.
func (a *StarforgeApp) ImportCampaign(path string) (campaign.Campaign, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return campaign.Campaign{}, fmt.Errorf("reading import file: %w", err)
	}
	return a.store.Import(doc)
}

// CampaignsDir returns the directory campaign files are kept in, or "" when
// the configured backend is not the directory backend.
func (a *StarforgeApp) CampaignsDir() string {
	if d, ok := a.backend.(*backend.DirectoryBackend); ok {
		return d.Dir()
	}
	return ""
}

// OpenCampaignsDir opens the campaigns directory in the host file browser.
func (a *StarforgeApp) OpenCampaignsDir() error {
	dir := a.CampaignsDir()
	if dir == "" {
		return fmt.Errorf("campaigns are not stored in a directory (storage type %q)", a.cfg.Storage.Type)
	}
	name, args := openCommand(runtime.GOOS, dir)
	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("opening %s: %w", dir, err)
	}
	return nil
}

func openCommand(goos, dir string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{dir}
	case "windows":
		return "explorer", []string{dir}
	default:
		return "xdg-open", []string{dir}
	}
}

// AddImage stores an image file inline in a campaign.
func (a *StarforgeApp) AddImage(campaignID, name, description, path string) (campaign.Image, error) {
	url, info, err := media.FileToDataURL(path)
	if err != nil {
		return campaign.Image{}, err
	}
	img := campaign.Image{Name: name, Description: description, ImageURL: url}
	added, _, err := campaign.AddEntity(a.store, campaign.ImageKind, campaignID, img)
	if err != nil {
		return campaign.Image{}, err
	}
	a.logger.Info("image added", "campaign", campaignID, "image", added.ID, "format", info.Format)
	return added, nil
}

// SaveImage writes a stored image to dir and returns the file path.
func (a *StarforgeApp) SaveImage(campaignID, imageID, dir string) (string, error) {
	img, err := campaign.FindEntity(a.store, campaign.ImageKind, campaignID, imageID)
	if err != nil {
		return "", err
	}
	mime, data, err := media.DecodeDataURL(img.ImageURL)
	if err != nil {
		return "", fmt.Errorf("image %s: %w", imageID, err)
	}
	path := filepath.Join(dir, imageID+media.Extension(mime))
	if err := blobstore.WriteFileAtomic(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return path, nil
}

// CampaignIdeas asks for campaign name and pitch suggestions on a theme.
func (a *StarforgeApp) CampaignIdeas(ctx context.Context, theme string) ([]assist.Idea, error) {
	return a.assistant.Ideas(ctx, theme)
}

// DescribeNPC generates a description for an NPC and stores it on the NPC.
func (a *StarforgeApp) DescribeNPC(ctx context.Context, campaignID, npcID string) (campaign.NPC, error) {
	npc, err := campaign.FindEntity(a.store, campaign.NPCKind, campaignID, npcID)
	if err != nil {
		return campaign.NPC{}, err
	}
	desc, err := a.assistant.DescribeNPC(ctx, npc.Name, npc.Keywords)
	if err != nil {
		return campaign.NPC{}, err
	}
	patch, err := campaign.PatchOf(map[string]string{"description": desc})
	if err != nil {
		return campaign.NPC{}, err
	}
	updated, _, err := campaign.UpdateEntity(a.store, campaign.NPCKind, campaignID, npcID, patch)
	return updated, err
}

// GenerateMonster drafts a creature from keywords and adds it to the bestiary.
func (a *StarforgeApp) GenerateMonster(ctx context.Context, campaignID, keywords string) (campaign.BestiaryEntry, error) {
	if _, err := a.store.Get(campaignID); err != nil {
		return campaign.BestiaryEntry{}, err
	}
	entry, err := a.assistant.GenerateMonster(ctx, keywords)
	if err != nil {
		return campaign.BestiaryEntry{}, err
	}
	added, _, err := campaign.AddEntity(a.store, campaign.BestiaryKind, campaignID, entry)
	return added, err
}

// ImportSRDMonster adds the SRD creature at url to the bestiary, untranslated.
func (a *StarforgeApp) ImportSRDMonster(ctx context.Context, campaignID, url string) (campaign.BestiaryEntry, error) {
	if _, err := a.store.Get(campaignID); err != nil {
		return campaign.BestiaryEntry{}, err
	}
	entry, err := a.assistant.ImportSRDMonster(ctx, url)
	if err != nil {
		return campaign.BestiaryEntry{}, err
	}
	added, _, err := campaign.AddEntity(a.store, campaign.BestiaryKind, campaignID, entry)
	return added, err
}

// TranslateBestiaryEntry translates an SRD entry's reference document and
// stores the result on the entry, so later calls are free. The returned
// warning is non-empty when translation was skipped.
func (a *StarforgeApp) TranslateBestiaryEntry(ctx context.Context, campaignID, entryID string) (campaign.BestiaryEntry, string, error) {
	entry, err := campaign.FindEntity(a.store, campaign.BestiaryKind, campaignID, entryID)
	if err != nil {
		return campaign.BestiaryEntry{}, "", err
	}

	result := a.lists.Detail(ctx, entry)
	if !result.Changed {
		return result.Entry, result.Warning, nil
	}

	srd, _ := result.Entry.SRD()
	patch, err := campaign.PatchOf(map[string]any{"fullData": srd.FullData, "translated": true})
	if err != nil {
		return campaign.BestiaryEntry{}, "", err
	}
	updated, _, err := campaign.UpdateEntity(a.store, campaign.BestiaryKind, campaignID, entryID, patch)
	if err != nil {
		return campaign.BestiaryEntry{}, "", err
	}
	return updated, "", nil
}

// BrowseCategory returns the translated listing of a reference category.
func (a *StarforgeApp) BrowseCategory(ctx context.Context, category gateway.Category) (translate.ListResult, error) {
	return a.lists.List(ctx, category)
}

// BrowseDocument returns a translated reference document.
func (a *StarforgeApp) BrowseDocument(ctx context.Context, url string) (translate.DocumentResult, error) {
	return a.lists.Document(ctx, url)
}

// Close waits for pending writes, reports any that failed, and releases
// the backend and the log file.
func (a *StarforgeApp) Close() error {
	a.store.Close()

	var errs []error
	for _, f := range a.store.CommitFailures() {
		errs = append(errs, f)
	}
	if len(errs) > 0 {
		a.session.Fail()
	}

	if err := a.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing backend: %w", err))
	}

	elapsed := a.clock.Now().Sub(a.session.StartedAt)
	a.logger.Info("session finished", "operation", a.session.Operation, "status", a.session.Status, "elapsed", elapsed)

	if a.logFile != nil {
		a.logFile.Close()
	}
	return errors.Join(errs...)
}
