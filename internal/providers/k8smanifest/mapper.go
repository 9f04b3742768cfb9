package k8smanifest

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
)

// NewDynamicClient builds a dynamic.Interface from the in-cluster or
// kubeconfig-resolved rest.Config, the same client-go entry point the
// teacher's own k8s collaborators use.
func NewDynamicClient(cfg *rest.Config) (dynamic.Interface, error) {
	return dynamic.NewForConfig(cfg)
}

// NewDiscoveryGVRResolver builds a GVR resolver backed by the
// cluster's discovery API, so `k8s_manifest` manifests only need
// apiVersion/kind, matching kubectl apply's own UX.
func NewDiscoveryGVRResolver(cfg *rest.Config) (func(apiVersion, kind string) schema.GroupVersionResource, error) {
	disco, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return nil, err
	}
	groupResources, err := restmapper.GetAPIGroupResources(disco)
	if err != nil {
		return nil, err
	}
	mapper := restmapper.NewDiscoveryRESTMapper(groupResources)

	return func(apiVersion, kind string) schema.GroupVersionResource {
		gv, err := schema.ParseGroupVersion(apiVersion)
		if err != nil {
			return schema.GroupVersionResource{}
		}
		mapping, err := mapper.RESTMapping(gv.WithKind(kind).GroupKind(), gv.Version)
		if err != nil {
			return schema.GroupVersionResource{}
		}
		return mapping.Resource
	}, nil
}
