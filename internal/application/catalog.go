package application

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"tplc/internal/domain"
)

// Catalog queries both clouds for their device lists, flattens
// multi-outlet parents into addressable records and resolves user
// queries to a single device. Nothing is cached across invocations.
type Catalog struct {
	session *Session
	logger  *slog.Logger
}

func NewCatalog(session *Session, logger *slog.Logger) *Catalog {
	return &Catalog{session: session, logger: logger}
}

// ListDevices fetches both providers concurrently and merges the
// results. Kasa failure fails the listing; Tapo is skipped when not
// authenticated and tolerated (with a warning) when its fetch fails.
// Merge order is deterministic: all Kasa records, then Tapo, with
// duplicates (same alias and model) collapsed onto the first provider.
func (c *Catalog) ListDevices(ctx context.Context) ([]domain.DeviceRecord, error) {
	byProvider := make(map[domain.Provider][]domain.DeviceRecord)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range domain.Providers() {
		if p != domain.ProviderKasa && !c.session.HasProvider(p) {
			continue
		}
		provider := p
		g.Go(func() error {
			records, err := c.fetchProvider(gctx, provider)
			if err != nil {
				if provider == domain.ProviderKasa {
					return err
				}
				c.logger.Warn("device list failed, skipping provider", "provider", provider, "error", err)
				return nil
			}
			mu.Lock()
			byProvider[provider] = records
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []domain.DeviceRecord
	for _, p := range domain.Providers() {
		merged = append(merged, byProvider[p]...)
	}
	return dedupe(merged), nil
}

// fetchProvider lists one cloud and expands multi-outlet parents into
// parent plus per-child records.
func (c *Catalog) fetchProvider(ctx context.Context, p domain.Provider) ([]domain.DeviceRecord, error) {
	list, err := c.session.DeviceList(ctx, p)
	if err != nil {
		return nil, err
	}

	var records []domain.DeviceRecord
	for _, info := range list {
		record := info.Record(p)
		records = append(records, record)

		if !record.Type.HasChildren() {
			continue
		}

		children, err := c.fetchChildren(ctx, record)
		if err != nil {
			c.logger.Warn("listing child outlets failed",
				"provider", p, "device", record.Alias, "error", err)
			continue
		}
		records = append(records, children...)
	}
	return records, nil
}

func (c *Catalog) fetchChildren(ctx context.Context, parent domain.DeviceRecord) ([]domain.DeviceRecord, error) {
	dev := NewDevice(c.session, resolved(parent), c.logger)
	children, err := dev.Children(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]domain.DeviceRecord, 0, len(children))
	for _, child := range children {
		alias := child.Alias
		if alias == "" {
			alias = parent.Alias
		}
		records = append(records, domain.DeviceRecord{
			DeviceID:     parent.DeviceID,
			Alias:        alias,
			Model:        parent.Model,
			Provider:     parent.Provider,
			Online:       parent.Online,
			Type:         parent.Type.ChildType(),
			AppServerURL: parent.AppServerURL,
			ParentID:     parent.DeviceID,
			ChildID:      child.ID,
		})
	}
	return records, nil
}

// dedupe collapses records with identical alias and model. The same
// physical device should never appear in both ecosystems, but the
// contract holds regardless; the first provider queried wins.
func dedupe(records []domain.DeviceRecord) []domain.DeviceRecord {
	seen := make(map[string]bool, len(records))
	out := records[:0]
	for _, r := range records {
		key := r.Alias + "\x00" + r.Model + "\x00" + r.ChildID
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// Resolve matches a user query against the merged device set, trying in
// strict priority order: exact alias, exact device ID, case-insensitive
// alias, then substring (which must be unique).
func (c *Catalog) Resolve(ctx context.Context, query string) (domain.ResolvedDevice, error) {
	records, err := c.ListDevices(ctx)
	if err != nil {
		return domain.ResolvedDevice{}, err
	}
	return resolveQuery(records, query)
}

func resolveQuery(records []domain.DeviceRecord, query string) (domain.ResolvedDevice, error) {
	for _, r := range records {
		if r.Alias == query {
			return resolved(r), nil
		}
	}

	for _, r := range records {
		if r.DeviceID == query {
			return resolved(r), nil
		}
	}

	lower := strings.ToLower(query)
	for _, r := range records {
		if strings.ToLower(r.Alias) == lower {
			return resolved(r), nil
		}
	}

	var partial []domain.DeviceRecord
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Alias), lower) {
			partial = append(partial, r)
		}
	}
	switch len(partial) {
	case 1:
		return resolved(partial[0]), nil
	case 0:
		return domain.ResolvedDevice{}, &domain.NotFoundError{Query: query}
	default:
		names := make([]string, len(partial))
		for i, r := range partial {
			names[i] = r.Alias
		}
		sort.Strings(names)
		return domain.ResolvedDevice{}, &domain.AmbiguousError{Query: query, Matches: names}
	}
}

func resolved(r domain.DeviceRecord) domain.ResolvedDevice {
	return domain.ResolvedDevice{
		DeviceID:     r.DeviceID,
		Provider:     r.Provider,
		Alias:        r.Alias,
		Model:        r.Model,
		Type:         r.Type,
		AppServerURL: r.AppServerURL,
		ChildID:      r.ChildID,
		Online:       r.Online,
	}
}
