package dsl

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"

	"github.com/nodeforge/ember/internal/bindings"
	"github.com/nodeforge/ember/prelude"
	"github.com/nodeforge/ember/internal/providers/directory"
	"github.com/nodeforge/ember/internal/providers/dockercontainer"
	"github.com/nodeforge/ember/internal/providers/execute"
	"github.com/nodeforge/ember/internal/providers/file"
	"github.com/nodeforge/ember/internal/providers/k8smanifest"
	"github.com/nodeforge/ember/internal/providers/pkgmanager"
	"github.com/nodeforge/ember/internal/providers/remotefile"
	"github.com/nodeforge/ember/internal/providers/systemdunit"
	"github.com/nodeforge/ember/internal/providers/template"
	"github.com/nodeforge/ember/internal/resource"
	"github.com/nodeforge/ember/internal/script"
)

// Runtime binds every concrete provider's DSL form into a script.Host
// and registers the resulting providers into a resource.Registry, the
// layer spec.md §6 names the "Provider interface": table literal in
// the recipe, prelude function, Go binding, Registry.Register.
type Runtime struct {
	Host      script.Host
	Registry  *resource.Registry
	ETagCache *remotefile.ETagCache
	HostFacts bindings.HostFacts

	K8sClient    dynamic.Interface
	K8sGVR       func(apiVersion, kind string) schema.GroupVersionResource
}

// NewRuntime constructs a Runtime bound to host and registry.
func NewRuntime(host script.Host, registry *resource.Registry) *Runtime {
	return &Runtime{Host: host, Registry: registry, HostFacts: bindings.GopsutilHostFacts{}}
}

// LoadPrelude loads every embedded prelude chunk into host, in a fixed
// order, before BindAll or any recipe evaluation.
func LoadPrelude(host script.Host) error {
	for _, name := range prelude.Names {
		text, err := prelude.Load(name)
		if err != nil {
			return fmt.Errorf("dsl: loading prelude %s: %w", name, err)
		}
		if err := host.LoadPrelude(name, text); err != nil {
			return fmt.Errorf("dsl: evaluating prelude %s: %w", name, err)
		}
	}
	return nil
}

// BindAll registers every resource-type constructor under the names
// the prelude forwards table literals to (__file, __directory, ...).
func (rt *Runtime) BindAll() error {
	binders := map[string]func(t Table, props *resource.Props) (resource.Provider, error){
		"__file":             rt.newFile,
		"__directory":        rt.newDirectory,
		"__execute":          rt.newExecute,
		"__template":         rt.newTemplate,
		"__systemd_unit":     rt.newSystemdUnit,
		"__docker_container": rt.newDockerContainer,
		"__package":          rt.newPackage,
	}
	if rt.ETagCache != nil {
		binders["__remote_file"] = rt.newRemoteFile
	}
	if rt.K8sClient != nil && rt.K8sGVR != nil {
		binders["__k8s_manifest"] = rt.newK8sManifest
	}

	for name, build := range binders {
		build := build
		err := rt.Host.BindGoFunc(name, func(args []script.Value) (script.Value, error) {
			t, err := AsTable(args)
			if err != nil {
				return script.Nil, err
			}
			props := resource.NewProps(rt.Host)
			if err := fillCommon(rt.Host, props, t); err != nil {
				return script.Nil, err
			}
			p, err := build(t, props)
			if err != nil {
				return script.Nil, err
			}
			rt.Registry.Register(p)
			return script.Nil, nil
		})
		if err != nil {
			return fmt.Errorf("dsl: binding %s: %w", name, err)
		}
	}

	if err := rt.Host.BindGoFunc("__host_cpu_count", func(args []script.Value) (script.Value, error) {
		n, err := rt.HostFacts.CPUCount()
		if err != nil {
			return script.Nil, err
		}
		return script.Int(int64(n)), nil
	}); err != nil {
		return fmt.Errorf("dsl: binding __host_cpu_count: %w", err)
	}
	if err := rt.Host.BindGoFunc("__host_memory_total", func(args []script.Value) (script.Value, error) {
		n, err := rt.HostFacts.MemoryTotalBytes()
		if err != nil {
			return script.Nil, err
		}
		return script.Int(int64(n)), nil
	}); err != nil {
		return fmt.Errorf("dsl: binding __host_memory_total: %w", err)
	}

	return nil
}

func (rt *Runtime) newFile(t Table, props *resource.Props) (resource.Provider, error) {
	name := t.String("name")
	action := file.Action(t.String("action"))
	if action == "" {
		action = file.ActionCreate
	}
	return file.New(name, props, []byte(t.String("content")), t.Attributes(), action), nil
}

func (rt *Runtime) newDirectory(t Table, props *resource.Props) (resource.Provider, error) {
	name := t.String("name")
	action := directory.Action(t.String("action"))
	if action == "" {
		action = directory.ActionCreate
	}
	return directory.New(name, props, t.Attributes(), action), nil
}

func (rt *Runtime) newExecute(t Table, props *resource.Props) (resource.Provider, error) {
	name := t.String("name")
	action := execute.Action(t.String("action"))
	if action == "" {
		action = execute.ActionRun
	}
	command := t.String("command")
	if command == "" {
		command = name
	}
	return execute.New(name, props, command, t.String("cwd"), action), nil
}

func (rt *Runtime) newTemplate(t Table, props *resource.Props) (resource.Provider, error) {
	name := t.String("name")
	action := template.Action(t.String("action"))
	if action == "" {
		action = template.ActionCreate
	}
	vars := map[string]any{}
	if v, ok := t["variables"]; ok && v.Kind == script.KindMap {
		for k, mv := range v.Map {
			vars[k] = scalarOf(mv)
		}
	}
	return template.New(name, props, t.String("source"), vars, t.Attributes(), action), nil
}

func (rt *Runtime) newSystemdUnit(t Table, props *resource.Props) (resource.Provider, error) {
	name := t.String("name")
	action := systemdunit.Action(t.String("action"))
	if action == "" {
		action = systemdunit.ActionNothing
	}
	return systemdunit.New(name, props, action), nil
}

func (rt *Runtime) newDockerContainer(t Table, props *resource.Props) (resource.Provider, error) {
	name := t.String("name")
	action := dockercontainer.Action(t.String("action"))
	if action == "" {
		action = dockercontainer.ActionRun
	}
	return dockercontainer.New(name, props, t.String("image"), t.String("command"), action), nil
}

func (rt *Runtime) newRemoteFile(t Table, props *resource.Props) (resource.Provider, error) {
	name := t.String("name")
	action := remotefile.Action(t.String("action"))
	if action == "" {
		action = remotefile.ActionCreate
	}
	return remotefile.New(name, props, t.String("source"), t.Attributes(), action, rt.ETagCache), nil
}

func (rt *Runtime) newK8sManifest(t Table, props *resource.Props) (resource.Provider, error) {
	name := t.String("name")
	action := k8smanifest.Action(t.String("action"))
	if action == "" {
		action = k8smanifest.ActionApply
	}
	return k8smanifest.New(name, props, t.String("source"), action,
		func() (dynamic.Interface, error) { return rt.K8sClient, nil }, rt.K8sGVR), nil
}

func (rt *Runtime) newPackage(t Table, props *resource.Props) (resource.Provider, error) {
	name := t.String("name")
	action := pkgmanager.Action(t.String("action"))
	if action == "" {
		action = pkgmanager.ActionInstall
	}
	return pkgmanager.New(name, props, t.String("version"), action), nil
}

// scalarOf reduces a script.Value to a plain Go scalar for
// text/template rendering.
func scalarOf(v script.Value) any {
	switch v.Kind {
	case script.KindString:
		return v.Str
	case script.KindInt:
		return v.Int
	case script.KindFloat:
		return v.Float
	case script.KindBool:
		return v.Bool
	default:
		s, _ := script.ExpectString(v)
		return s
	}
}
