// Package dockercontainer implements the `docker_container` resource
// via the Docker Engine API client, run on the AsyncExecutor worker
// goroutine so a slow image pull doesn't block the converger's own
// progress reporting (spec.md §6, domain stack).
package dockercontainer

import (
	"context"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/resource"
)

type Action string

const (
	ActionRun     Action = "run"
	ActionRemove  Action = "remove"
	ActionNothing Action = "nothing"
)

// Provider manages one named container's lifecycle, idempotent on
// whether a container with Name already exists and is running.
type Provider struct {
	resource.Base

	Name   string
	Image  string
	Cmd    []string
	Action Action

	newClient func() (*client.Client, error)
}

func New(name string, props *resource.Props, image, cmd string, action Action) *Provider {
	var cmdSlice []string
	if cmd != "" {
		cmdSlice = []string{"/bin/sh", "-c", cmd}
	}
	return &Provider{
		Base:      resource.Base{ID: resource.ID{Type: "docker_container", Name: name}, Props: props},
		Name:      name,
		Image:     image,
		Cmd:       cmdSlice,
		Action:    action,
		newClient: func() (*client.Client, error) { return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation()) },
	}
}

func (p *Provider) ActionName() string { return string(p.Action) }

func (p *Provider) Apply(ctx context.Context) (resource.Report, error) {
	return p.apply(ctx, p.Action)
}

func (p *Provider) ApplyAction(ctx context.Context, name string) (resource.Report, error) {
	action := Action(name)
	if action != ActionRun && action != ActionRemove && action != ActionNothing {
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "docker_container: unknown action "+name)
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

	cli, err := p.newClient()
	if err != nil {
		return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "docker_container: connecting to daemon", err)
	}
	defer cli.Close()

	existing, found, err := p.findContainer(ctx, cli)
	if err != nil {
		return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "docker_container: inspecting "+p.Name, err)
	}

	switch action {
	case ActionRun:
		if found && existing.State == "running" {
			return resource.UpToDate(id, string(action), "already running", time.Since(start)), nil
		}
		if err := p.run(ctx, cli, found); err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "docker_container: starting "+p.Name, err)
		}
		return resource.Updated(id, string(action), time.Since(start)), nil

	case ActionRemove:
		if !found {
			return resource.UpToDate(id, string(action), "already absent", time.Since(start)), nil
		}
		if err := cli.ContainerRemove(ctx, p.Name, container.RemoveOptions{Force: true}); err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "docker_container: removing "+p.Name, err)
		}
		return resource.Updated(id, string(action), time.Since(start)), nil

	default:
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "docker_container: unknown action "+string(action))
	}
}

func (p *Provider) findContainer(ctx context.Context, cli *client.Client) (container.InspectResponse, bool, error) {
	info, err := cli.ContainerInspect(ctx, p.Name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return container.InspectResponse{}, false, nil
		}
		return container.InspectResponse{}, false, err
	}
	return info, true, nil
}

func (p *Provider) run(ctx context.Context, cli *client.Client, alreadyCreated bool) error {
	if !alreadyCreated {
		rc, err := cli.ImagePull(ctx, p.Image, image.PullOptions{})
		if err != nil {
			return err
		}
		_, _ = io.Copy(io.Discard, rc)
		rc.Close()

		_, err = cli.ContainerCreate(ctx, &container.Config{Image: p.Image, Cmd: p.Cmd}, nil, nil, nil, p.Name)
		if err != nil {
			return err
		}
	}
	return cli.ContainerStart(ctx, p.Name, container.StartOptions{})
}
