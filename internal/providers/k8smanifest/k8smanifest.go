// Package k8smanifest implements the `k8s_manifest` resource: applies
// a single embedded-YAML manifest via server-side apply, idempotence
// judged by comparing the object's resourceVersion before and after the
// apply rather than a content hash (spec.md §6, domain stack).
package k8smanifest

import (
	"context"
	"time"

	kerrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/dynamic"

	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/resource"
)

type Action string

const (
	ActionApply  Action = "apply"
	ActionDelete Action = "delete"
)

const fieldManager = "ember"

// Provider applies or deletes one manifest against a namespaced or
// cluster-scoped GroupVersionResource resolved from the manifest's own
// apiVersion/kind.
type Provider struct {
	resource.Base

	Name     string
	Manifest string
	Action   Action

	newClient func() (dynamic.Interface, error)
	gvr       func(apiVersion, kind string) schema.GroupVersionResource
}

func New(name string, props *resource.Props, manifest string, action Action, newClient func() (dynamic.Interface, error), gvr func(apiVersion, kind string) schema.GroupVersionResource) *Provider {
	return &Provider{
		Base:      resource.Base{ID: resource.ID{Type: "k8s_manifest", Name: name}, Props: props},
		Name:      name,
		Manifest:  manifest,
		Action:    action,
		newClient: newClient,
		gvr:       gvr,
	}
}

func (p *Provider) ActionName() string { return string(p.Action) }

func (p *Provider) Apply(ctx context.Context) (resource.Report, error) {
	return p.apply(ctx, p.Action)
}

func (p *Provider) ApplyAction(ctx context.Context, name string) (resource.Report, error) {
	action := Action(name)
	if action != ActionApply && action != ActionDelete {
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "k8s_manifest: unknown action "+name)
	}
	return p.Base.Guarded(ctx, name, func(ctx context.Context) (resource.Report, error) {
		return p.apply(ctx, action)
	})
}

func (p *Provider) apply(ctx context.Context, action Action) (resource.Report, error) {
	start := time.Now()
	id := p.Identity()

	obj := &unstructured.Unstructured{}
	if err := yaml.Unmarshal([]byte(p.Manifest), &obj.Object); err != nil {
		return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "k8s_manifest: parsing "+p.Name, err)
	}

	cli, err := p.newClient()
	if err != nil {
		return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "k8s_manifest: connecting to cluster", err)
	}
	resourceClient := cli.Resource(p.gvr(obj.GetAPIVersion(), obj.GetKind()))
	ns := obj.GetNamespace()
	var ri dynamic.ResourceInterface = resourceClient
	if ns != "" {
		ri = resourceClient.Namespace(ns)
	}

	switch action {
	case ActionApply:
		before, getErr := ri.Get(ctx, obj.GetName(), metav1.GetOptions{})
		applied, err := ri.Apply(ctx, obj.GetName(), obj, metav1.ApplyOptions{FieldManager: fieldManager, Force: true})
		if err != nil {
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "k8s_manifest: applying "+p.Name, err)
		}
		if getErr == nil && before.GetResourceVersion() == applied.GetResourceVersion() {
			return resource.UpToDate(id, string(action), "resourceVersion unchanged", time.Since(start)), nil
		}
		return resource.Updated(id, string(action), time.Since(start)), nil

	case ActionDelete:
		err := ri.Delete(ctx, obj.GetName(), metav1.DeleteOptions{})
		if err != nil {
			if kerrors.IsNotFound(err) {
				return resource.UpToDate(id, string(action), "already absent", time.Since(start)), nil
			}
			return resource.Report{}, kernelerr.Wrap(kernelerr.KindProviderError, "k8s_manifest: deleting "+p.Name, err)
		}
		return resource.Updated(id, string(action), time.Since(start)), nil

	default:
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "k8s_manifest: unknown action "+string(action))
	}
}
