// Package remotefile implements the `remote_file` resource: downloads
// a URL to a local path via net/http, keeping an ETag cache in
// modernc.org/sqlite under the XDG state directory so an unchanged
// remote resource never re-downloads (spec.md §6, domain stack).
package remotefile

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nodeforge/ember/internal/fileprim"
	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/resource"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
)

// ETagCache is a one-table SQLite-backed cache of the ETag last seen
// for each (url, path) pair, the "opaque per-resource hint file" the
// engine's persistence rules allow.
type ETagCache struct {
	db *sql.DB
}

// OpenETagCache opens (creating if needed) the ETag cache database at
// dbPath.
func OpenETagCache(dbPath string) (*ETagCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	const schema = `CREATE TABLE IF NOT EXISTS etags (
		url TEXT NOT NULL,
		path TEXT NOT NULL,
		etag TEXT NOT NULL,
		PRIMARY KEY (url, path)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &ETagCache{db: db}, nil
}

func (c *ETagCache) Close() error { return c.db.Close() }

func (c *ETagCache) get(url, path string) (string, bool) {
	var etag string
	err := c.db.QueryRow(`SELECT etag FROM etags WHERE url = ? AND path = ?`, url, path).Scan(&etag)
	if err != nil {
		return "", false
	}
	return etag, true
}

func (c *ETagCache) put(url, path, etag string) error {
	_, err := c.db.Exec(`INSERT INTO etags (url, path, etag) VALUES (?, ?, ?)
		ON CONFLICT(url, path) DO UPDATE SET etag = excluded.etag`, url, path, etag)
	return err
}

type Provider struct {
	resource.Base

	Path   string
	URL    string
	Attrs  resource.Attributes
	Action Action
	Cache  *ETagCache

	httpClient *http.Client
}

func New(name string, props *resource.Props, url string, attrs resource.Attributes, action Action, cache *ETagCache) *Provider {
	return &Provider{
		Base:       resource.Base{ID: resource.ID{Type: "remote_file", Name: name}, Props: props},
		Path:       name,
		URL:        url,
		Attrs:      attrs,
		Action:     action,
		Cache:      cache,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *Provider) ActionName() string { return string(p.Action) }

func (p *Provider) Apply(ctx context.Context) (resource.Report, error) {
	return p.apply(ctx, p.Action)
}

func (p *Provider) ApplyAction(ctx context.Context, name string) (resource.Report, error) {
	action := Action(name)
	if action != ActionCreate && action != ActionDelete {
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "remote_file: unknown action "+name)
	}
	return p.Base.Guarded(ctx, name, func(ctx context.Context) (resource.Report, error) {
		return p.apply(ctx, action)
	})
}

func (p *Provider) apply(ctx context.Context, action Action) (resource.Report, error) {
	start := time.Now()
	id := p.Identity()

	switch action {
	case ActionCreate:
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
		if err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "remote_file: building request for "+p.URL, err)
		}
		if cached, ok := p.Cache.get(p.URL, p.Path); ok {
			req.Header.Set("If-None-Match", cached)
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "remote_file: fetching "+p.URL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotModified {
			return resource.UpToDate(id, string(action), "etag unchanged", time.Since(start)), nil
		}
		if resp.StatusCode != http.StatusOK {
			return resource.Report{}, kernelerr.New(kernelerr.KindProviderError, "remote_file: unexpected status "+resp.Status+" fetching "+p.URL)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "remote_file: reading body of "+p.URL, err)
		}

		updated, err := fileprim.WriteAtomic(p.Path, body, p.Attrs)
		if err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "remote_file: writing "+p.Path, err)
		}
		if etag := resp.Header.Get("ETag"); etag != "" {
			_ = p.Cache.put(p.URL, p.Path, etag)
		}
		if updated {
			return resource.Updated(id, string(action), time.Since(start)), nil
		}
		return resource.UpToDate(id, string(action), "content already matches", time.Since(start)), nil

	case ActionDelete:
		err := os.Remove(p.Path)
		if err != nil && !os.IsNotExist(err) {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "remote_file: deleting "+p.Path, err)
		}
		if err != nil {
			return resource.UpToDate(id, string(action), "already absent", time.Since(start)), nil
		}
		return resource.Updated(id, string(action), time.Since(start)), nil

	default:
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "remote_file: unknown action "+string(action))
	}
}
