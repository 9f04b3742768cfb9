// Package directory implements the `directory` resource: ensure a path
// exists as a directory (including parents) or is removed.
package directory

import (
	"context"
	"os"
	"time"

	"github.com/nodeforge/ember/internal/fileprim"
	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/resource"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
)

type Provider struct {
	resource.Base

	Path   string
	Attrs  resource.Attributes
	Action Action
}

func New(name string, props *resource.Props, attrs resource.Attributes, action Action) *Provider {
	return &Provider{
		Base:   resource.Base{ID: resource.ID{Type: "directory", Name: name}, Props: props},
		Path:   name,
		Attrs:  attrs,
		Action: action,
	}
}

func (p *Provider) ActionName() string { return string(p.Action) }

func (p *Provider) Apply(ctx context.Context) (resource.Report, error) {
	return p.apply(ctx, p.Action)
}

func (p *Provider) ApplyAction(ctx context.Context, name string) (resource.Report, error) {
	action := Action(name)
	if action != ActionCreate && action != ActionDelete {
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "directory: unknown action "+name)
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
		existed, err := dirExists(p.Path)
		if err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "directory: stat "+p.Path, err)
		}
		if err := fileprim.EnsurePathAsDir(p.Path); err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "directory: creating "+p.Path, err)
		}
		if !p.Attrs.IsZero() {
			if err := fileprim.ApplyAttributes(p.Path, p.Attrs); err != nil {
				return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "directory: attrs "+p.Path, err)
			}
		}
		if existed && p.Attrs.IsZero() {
			return resource.UpToDate(id, string(action), "already exists", time.Since(start)), nil
		}
		return resource.Updated(id, string(action), time.Since(start)), nil

	case ActionDelete:
		existed, err := dirExists(p.Path)
		if err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "directory: stat "+p.Path, err)
		}
		if !existed {
			return resource.UpToDate(id, string(action), "already absent", time.Since(start)), nil
		}
		if err := os.Remove(p.Path); err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "directory: removing "+p.Path, err)
		}
		return resource.Updated(id, string(action), time.Since(start)), nil

	default:
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "directory: unknown action "+string(action))
	}
}

func dirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
