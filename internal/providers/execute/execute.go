// Package execute implements the `execute` resource: shell a command.
// It has no intrinsic idempotence — only_if/not_if are the only gate,
// matching the Chef tradition this engine is modeled on (spec.md §6).
package execute

import (
	"context"
	"os/exec"
	"time"

	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/resource"
)

type Action string

const (
	ActionRun     Action = "run"
	ActionNothing Action = "nothing"
)

type Provider struct {
	resource.Base

	Name    string
	Command string
	Cwd     string
	Action  Action
}

func New(name string, props *resource.Props, command, cwd string, action Action) *Provider {
	return &Provider{
		Base:    resource.Base{ID: resource.ID{Type: "execute", Name: name}, Props: props},
		Name:    name,
		Command: command,
		Cwd:     cwd,
		Action:  action,
	}
}

func (p *Provider) ActionName() string { return string(p.Action) }

func (p *Provider) Apply(ctx context.Context) (resource.Report, error) {
	return p.apply(ctx, p.Action)
}

func (p *Provider) ApplyAction(ctx context.Context, name string) (resource.Report, error) {
	action := Action(name)
	if action != ActionRun && action != ActionNothing {
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "execute: unknown action "+name)
	}
	return p.Base.Guarded(ctx, name, func(ctx context.Context) (resource.Report, error) {
		return p.apply(ctx, action)
	})
}

func (p *Provider) apply(ctx context.Context, action Action) (resource.Report, error) {
	start := time.Now()
	id := p.Identity()

	if action == ActionNothing {
		return resource.UpToDate(id, string(action), "nothing action declared", time.Since(start)), nil
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", p.Command)
	cmd.Dir = p.Cwd
	if err := cmd.Run(); err != nil {
		return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "execute: running "+p.Name, err)
	}
	return resource.Updated(id, string(action), time.Since(start)), nil
}
