// Package systemdunit implements the `systemd_unit` resource by
// shelling out to systemctl, the same style the teacher uses for
// control-plane operations it has no Go client binding for (no dbus
// client exists anywhere in the retrieved pack).
package systemdunit

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
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
	ActionNothing Action = "nothing"
)

var validActions = map[Action]bool{
	ActionEnable: true, ActionDisable: true, ActionStart: true,
	ActionStop: true, ActionRestart: true, ActionNothing: true,
}

type Provider struct {
	resource.Base

	Unit   string
	Action Action
}

func New(name string, props *resource.Props, action Action) *Provider {
	return &Provider{
		Base:   resource.Base{ID: resource.ID{Type: "systemd_unit", Name: name}, Props: props},
		Unit:   name,
		Action: action,
	}
}

func (p *Provider) ActionName() string { return string(p.Action) }

func (p *Provider) Apply(ctx context.Context) (resource.Report, error) {
	return p.apply(ctx, p.Action)
}

func (p *Provider) ApplyAction(ctx context.Context, name string) (resource.Report, error) {
	action := Action(name)
	if !validActions[action] {
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "systemd_unit: unknown action "+name)
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

	if active, reported := p.isNoOp(ctx, action); reported {
		return resource.UpToDate(id, string(action), active, time.Since(start)), nil
	}

	verb := string(action)
	if err := exec.CommandContext(ctx, "systemctl", verb, p.Unit).Run(); err != nil {
		return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "systemd_unit: systemctl "+verb+" "+p.Unit, err)
	}
	return resource.Updated(id, string(action), time.Since(start)), nil
}

// isNoOp checks systemctl's own status before running the verb, so a
// unit already in the desired state doesn't report a spurious update.
func (p *Provider) isNoOp(ctx context.Context, action Action) (reason string, skip bool) {
	var query string
	switch action {
	case ActionStart, ActionRestart:
		query = "is-active"
	case ActionStop:
		query = "is-active"
	case ActionEnable:
		query = "is-enabled"
	case ActionDisable:
		query = "is-enabled"
	default:
		return "", false
	}

	// is-active/is-enabled exit nonzero for "inactive"/"disabled" too;
	// only the output text is trustworthy, never the exit code.
	out, _ := exec.CommandContext(ctx, "systemctl", query, p.Unit).Output()
	state := strings.TrimSpace(string(out))

	switch action {
	case ActionStart:
		if state == "active" {
			return "already active", true
		}
	case ActionStop:
		if state == "inactive" {
			return "already inactive", true
		}
	case ActionEnable:
		if state == "enabled" {
			return "already enabled", true
		}
	case ActionDisable:
		if state == "disabled" {
			return "already disabled", true
		}
	}
	return "", false
}
