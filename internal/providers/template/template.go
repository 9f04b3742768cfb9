// Package template implements the `template` resource: render a Go
// text/template body against a variables map, then write the result
// through the same write_atomic path as `file`.
package template

import (
	"bytes"
	"context"
	"os"
	"text/template"
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
	Body   string
	Vars   map[string]any
	Attrs  resource.Attributes
	Action Action
}

func New(name string, props *resource.Props, body string, vars map[string]any, attrs resource.Attributes, action Action) *Provider {
	return &Provider{
		Base:   resource.Base{ID: resource.ID{Type: "template", Name: name}, Props: props},
		Path:   name,
		Body:   body,
		Vars:   vars,
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
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "template: unknown action "+name)
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
		tmpl, err := template.New(p.Path).Parse(p.Body)
		if err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "template: parsing "+p.Path, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, p.Vars); err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "template: rendering "+p.Path, err)
		}
		updated, err := fileprim.WriteAtomic(p.Path, buf.Bytes(), p.Attrs)
		if err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "template: writing "+p.Path, err)
		}
		if updated {
			return resource.Updated(id, string(action), time.Since(start)), nil
		}
		return resource.UpToDate(id, string(action), "rendered content already matches", time.Since(start)), nil

	case ActionDelete:
		if _, err := fileprim.ReadAll(p.Path); err != nil {
			return resource.UpToDate(id, string(action), "already absent", time.Since(start)), nil
		}
		if err := os.Remove(p.Path); err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "template: deleting "+p.Path, err)
		}
		return resource.Updated(id, string(action), time.Since(start)), nil

	default:
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "template: unknown action "+string(action))
	}
}
