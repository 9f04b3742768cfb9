package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/notify"
	"github.com/nodeforge/ember/internal/resource"
)

// fakeProvider is a minimal resource.Provider for graph-level tests
// that don't need a real provider's filesystem side effects.
type fakeProvider struct {
	resource.Base
	applyActionCalls []string
	update           bool
	unknownAction    bool
}

func (f *fakeProvider) ActionName() string { return "run" }

func (f *fakeProvider) Apply(ctx context.Context) (resource.Report, error) {
	return resource.Updated(f.Identity(), "run", 0), nil
}

func (f *fakeProvider) ApplyAction(ctx context.Context, name string) (resource.Report, error) {
	if f.unknownAction {
		return resource.Report{}, kernelerr.New(kernelerr.KindUnknownAction, "fake: no such action")
	}
	f.applyActionCalls = append(f.applyActionCalls, name)
	if !f.update {
		return resource.UpToDate(f.Identity(), name, "fake no-op", 0), nil
	}
	return resource.Updated(f.Identity(), name, 0), nil
}

func newFake(id resource.ID, update bool) *fakeProvider {
	return &fakeProvider{
		Base:   resource.Base{ID: id, Props: resource.NewProps(nil)},
		update: update,
	}
}

func TestRewriteSubscriptions_ConvertsToNotificationOnSource(t *testing.T) {
	registry := resource.NewRegistry()
	source := newFake(resource.ID{Type: "file", Name: "a"}, true)
	registry.Register(source)

	target := newFake(resource.ID{Type: "execute", Name: "b"}, true)
	target.CommonProps().Subscribes("file[a]", "run", resource.Delayed)
	registry.Register(target)

	g := notify.New(registry)
	g.RewriteSubscriptions()

	require.Len(t, source.CommonProps().Notifications, 1)
	assert.Equal(t, "execute[b]", source.CommonProps().Notifications[0].TargetIdentity)
	assert.Empty(t, target.CommonProps().Subscriptions, "subscriptions are cleared after rewrite")
}

func TestDispatchImmediate_ChainsAndStopsOnNoUpdate(t *testing.T) {
	registry := resource.NewRegistry()
	b := newFake(resource.ID{Type: "execute", Name: "b"}, false) // no update => chain stops here
	registry.Register(b)

	g := notify.New(registry)
	notifications := []resource.Notification{{TargetIdentity: "execute[b]", ActionName: "run", Timing: resource.Immediate}}
	reports, err := g.DispatchImmediate(context.Background(), notifications)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.False(t, reports[0].WasUpdated)
}

func TestDispatchImmediate_UnknownActionIsDroppedNotFatal(t *testing.T) {
	registry := resource.NewRegistry()
	b := &fakeProvider{Base: resource.Base{ID: resource.ID{Type: "execute", Name: "b"}, Props: resource.NewProps(nil)}, unknownAction: true}
	registry.Register(b)

	g := notify.New(registry)
	notifications := []resource.Notification{{TargetIdentity: "execute[b]", ActionName: "bogus", Timing: resource.Immediate}}
	reports, err := g.DispatchImmediate(context.Background(), notifications)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestDispatchImmediate_ChainExceedingMaxDepthIsCycleError(t *testing.T) {
	registry := resource.NewRegistry()
	a := newFake(resource.ID{Type: "execute", Name: "a"}, true)
	a.CommonProps().Notifies("execute[a]", "run", resource.Immediate)
	registry.Register(a)

	g := notify.New(registry)
	notifications := []resource.Notification{{TargetIdentity: "execute[a]", ActionName: "run", Timing: resource.Immediate}}
	_, err := g.DispatchImmediate(context.Background(), notifications)
	require.Error(t, err)
	assert.True(t, kernelerr.Is(err, kernelerr.KindCycleDetected))
}

func TestQueueDelayed_DedupsByTargetAndAction(t *testing.T) {
	g := notify.New(resource.NewRegistry())
	g.QueueDelayed([]resource.Notification{
		{TargetIdentity: "service[nginx]", ActionName: "restart", Timing: resource.Delayed},
		{TargetIdentity: "service[nginx]", ActionName: "restart", Timing: resource.Delayed},
	})

	registry := resource.NewRegistry()
	target := newFake(resource.ID{Type: "service", Name: "nginx"}, true)
	registry.Register(target)
	g2 := notify.New(registry)
	g2.QueueDelayed([]resource.Notification{
		{TargetIdentity: "service[nginx]", ActionName: "restart", Timing: resource.Delayed},
		{TargetIdentity: "service[nginx]", ActionName: "restart", Timing: resource.Delayed},
	})
	reports, err := g2.FlushDelayed(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 1, "a duplicate (target, action) pair must flush exactly once")
}

func TestFlushDelayed_MissingTargetIsDroppedNotFatal(t *testing.T) {
	g := notify.New(resource.NewRegistry())
	g.QueueDelayed([]resource.Notification{{TargetIdentity: "execute[ghost]", ActionName: "run", Timing: resource.Delayed}})
	reports, err := g.FlushDelayed(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestDispatchImmediate_SharedIdentityNotifiesAllInDeclarationOrder(t *testing.T) {
	registry := resource.NewRegistry()
	first := newFake(resource.ID{Type: "execute", Name: "dup"}, true)
	second := newFake(resource.ID{Type: "execute", Name: "dup"}, true)
	registry.Register(first)
	registry.Register(second)

	g := notify.New(registry)
	notifications := []resource.Notification{{TargetIdentity: "execute[dup]", ActionName: "run", Timing: resource.Immediate}}
	reports, err := g.DispatchImmediate(context.Background(), notifications)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, []string{"run"}, first.applyActionCalls)
	assert.Equal(t, []string{"run"}, second.applyActionCalls)
}
