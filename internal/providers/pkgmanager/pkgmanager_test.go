package pkgmanager_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/providers/pkgmanager"
	"github.com/nodeforge/ember/internal/resource"
)

func TestPkgManager_Nothing_IsAlwaysUpToDate(t *testing.T) {
	p := pkgmanager.New("nginx", resource.NewProps(nil), "", pkgmanager.ActionNothing)
	r, err := p.Apply(context.Background())
	require.NoError(t, err)
	assert.False(t, r.WasUpdated)
}

func TestPkgManager_ApplyAction_UnknownActionErrors(t *testing.T) {
	p := pkgmanager.New("nginx", resource.NewProps(nil), "", pkgmanager.ActionNothing)
	_, err := p.ApplyAction(context.Background(), "bogus")
	require.Error(t, err)
	assert.True(t, kernelerr.Is(err, kernelerr.KindUnknownAction))
}

func TestPkgManager_ApplyAction_SkipsWhenGuardFails(t *testing.T) {
	props := resource.NewProps(nil)
	props.SetOnlyIfShell("false")
	p := pkgmanager.New("nginx", props, "", pkgmanager.ActionInstall)
	r, err := p.ApplyAction(context.Background(), "install")
	require.NoError(t, err)
	assert.False(t, r.WasUpdated)
	require.NotNil(t, r.SkipReason)
}
