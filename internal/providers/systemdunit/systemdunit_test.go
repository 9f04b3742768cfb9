package systemdunit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/providers/systemdunit"
	"github.com/nodeforge/ember/internal/resource"
)

func TestSystemdUnit_Nothing_IsAlwaysUpToDate(t *testing.T) {
	p := systemdunit.New("nginx", resource.NewProps(nil), systemdunit.ActionNothing)
	r, err := p.Apply(context.Background())
	require.NoError(t, err)
	assert.False(t, r.WasUpdated)
}

func TestSystemdUnit_ApplyAction_UnknownActionErrors(t *testing.T) {
	p := systemdunit.New("nginx", resource.NewProps(nil), systemdunit.ActionNothing)
	_, err := p.ApplyAction(context.Background(), "bogus")
	require.Error(t, err)
	assert.True(t, kernelerr.Is(err, kernelerr.KindUnknownAction))
}

func TestSystemdUnit_ApplyAction_NothingIsAValidNamedAction(t *testing.T) {
	p := systemdunit.New("nginx", resource.NewProps(nil), systemdunit.ActionStart)
	r, err := p.ApplyAction(context.Background(), "nothing")
	require.NoError(t, err)
	assert.False(t, r.WasUpdated)
}

func TestSystemdUnit_ApplyAction_SkipsWhenGuardFails(t *testing.T) {
	props := resource.NewProps(nil)
	props.SetOnlyIfShell("false")
	p := systemdunit.New("nginx", props, systemdunit.ActionRestart)
	r, err := p.ApplyAction(context.Background(), "restart")
	require.NoError(t, err)
	assert.False(t, r.WasUpdated)
	require.NotNil(t, r.SkipReason)
}
