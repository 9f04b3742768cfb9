// Package file implements the `file` resource: create or delete a
// single file's content and attributes, idempotent via
// internal/fileprim's content-equality write (spec.md §6/§9).
package file

import (
	"context"
	"os"
	"time"

	"github.com/nodeforge/ember/internal/fileprim"
	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/resource"
)

// Action is one of the two actions a `file` resource permits.
type Action string

const (
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
)

// Provider implements resource.Provider for a single declared file.
type Provider struct {
	resource.Base

	Path    string
	Content []byte
	Attrs   resource.Attributes
	Action  Action
}

// New constructs a file Provider. props must already be filled by the
// DSL layer's fill_common_from_marshal.
func New(name string, props *resource.Props, content []byte, attrs resource.Attributes, action Action) *Provider {
	return &Provider{
		Base:    resource.Base{ID: resource.ID{Type: "file", Name: name}, Props: props},
		Path:    name,
		Content: content,
		Attrs:   attrs,
		Action:  action,
	}
}

func (p *Provider) ActionName() string { return string(p.Action) }

func (p *Provider) Apply(ctx context.Context) (resource.Report, error) {
	return p.apply(ctx, p.Action)
}

func (p *Provider) ApplyAction(ctx context.Context, name string) (resource.Report, error) {
	action := Action(name)
	if action != ActionCreate && action != ActionDelete {
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "file: unknown action "+name)
	}
	report, err := p.Base.Guarded(ctx, name, func(ctx context.Context) (resource.Report, error) {
		return p.apply(ctx, action)
	})
	return report, err
}

func (p *Provider) apply(ctx context.Context, action Action) (resource.Report, error) {
	start := time.Now()
	id := p.Identity()

	switch action {
	case ActionCreate:
		updated, err := fileprim.WriteAtomic(p.Path, p.Content, p.Attrs)
		if err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "file: writing "+p.Path, err)
		}
		if updated {
			return resource.Updated(id, string(action), time.Since(start)), nil
		}
		return resource.UpToDate(id, string(action), "content and attributes already match", time.Since(start)), nil

	case ActionDelete:
		err := os.Remove(p.Path)
		if err != nil && !os.IsNotExist(err) {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "file: deleting "+p.Path, err)
		}
		if err != nil {
			return resource.UpToDate(id, string(action), "already absent", time.Since(start)), nil
		}
		return resource.Updated(id, string(action), time.Since(start)), nil

	default:
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "file: unknown action "+string(action))
	}
}
