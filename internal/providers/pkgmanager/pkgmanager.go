// Package pkgmanager implements the `package` resource as a thin
// apt/dpkg shell-out, rounding out the install|remove|upgrade|nothing
// action set every resource-convergence tool in this tradition ships,
// per SPEC_FULL.md §6.
package pkgmanager

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/resource"
)

type Action string

const (
	ActionInstall Action = "install"
	ActionRemove  Action = "remove"
	ActionUpgrade Action = "upgrade"
	ActionNothing Action = "nothing"
)

var validActions = map[Action]bool{
	ActionInstall: true, ActionRemove: true, ActionUpgrade: true, ActionNothing: true,
}

type Provider struct {
	resource.Base

	Name    string
	Version string
	Action  Action
}

func New(name string, props *resource.Props, version string, action Action) *Provider {
	return &Provider{
		Base:    resource.Base{ID: resource.ID{Type: "package", Name: name}, Props: props},
		Name:    name,
		Version: version,
		Action:  action,
	}
}

func (p *Provider) ActionName() string { return string(p.Action) }

func (p *Provider) Apply(ctx context.Context) (resource.Report, error) {
	return p.apply(ctx, p.Action)
}

func (p *Provider) ApplyAction(ctx context.Context, name string) (resource.Report, error) {
	action := Action(name)
	if !validActions[action] {
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "package: unknown action "+name)
	}
	return p.Base.Guarded(ctx, name, func(ctx context.Context) (resource.Report, error) {
		return p.apply(ctx, action)
	})
}

func (p *Provider) apply(ctx context.Context, action Action) (resource.Report, error) {
	start := time.Now()
	id := p.Identity()

	switch action {
	case ActionNothing:
		return resource.UpToDate(id, string(action), "nothing action declared", time.Since(start)), nil

	case ActionInstall:
		if p.installed(ctx) {
			return resource.UpToDate(id, string(action), "already installed", time.Since(start)), nil
		}
		pkg := p.Name
		if p.Version != "" {
			pkg = p.Name + "=" + p.Version
		}
		if err := exec.CommandContext(ctx, "apt-get", "install", "-y", pkg).Run(); err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "package: installing "+p.Name, err)
		}
		return resource.Updated(id, string(action), time.Since(start)), nil

	case ActionRemove:
		if !p.installed(ctx) {
			return resource.UpToDate(id, string(action), "already absent", time.Since(start)), nil
		}
		if err := exec.CommandContext(ctx, "apt-get", "remove", "-y", p.Name).Run(); err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "package: removing "+p.Name, err)
		}
		return resource.Updated(id, string(action), time.Since(start)), nil

	case ActionUpgrade:
		if err := exec.CommandContext(ctx, "apt-get", "install", "--only-upgrade", "-y", p.Name).Run(); err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "package: upgrading "+p.Name, err)
		}
		return resource.Updated(id, string(action), time.Since(start)), nil

	default:
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "package: unknown action "+string(action))
	}
}

func (p *Provider) installed(ctx context.Context) bool {
	out, err := exec.CommandContext(ctx, "dpkg-query", "-W", "-f", "${Status}", p.Name).Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "install ok installed")
}
