package campaign

// Backend provides durable storage of campaign records.
// Implementations must be safe for concurrent use: the committers call Save
// and Delete from their own goroutines.
type Backend interface {
	// LoadAll returns every persisted campaign. A missing, unreadable or
	// corrupt store is reported through the backend's logger and yields an
	// empty result; it never fails the caller.
	LoadAll() []Campaign

	// Save durably persists c, fully replacing any prior version with the same id.
	Save(c Campaign) error

	// Delete durably removes the campaign with the given id. Deleting an
	// absent campaign is a no-op.
	Delete(id string) error
}
