package datasource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterDriverRejectsDuplicateClass(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterDriver(&fakeDriver{class: "linuxwifi"}))
	err := r.RegisterDriver(&fakeDriver{class: "linuxwifi"})
	assert.ErrorIs(t, err, ErrDuplicateDriver)
}

func TestRegistryCandidatesPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterDriver(&fakeDriver{class: "a"}))
	require.NoError(t, r.RegisterDriver(&fakeDriver{class: "b"}))
	require.NoError(t, r.RegisterDriver(&fakeDriver{class: "c"}))

	classes := make([]string, 0, 3)
	for _, d := range r.Candidates() {
		classes = append(classes, d.Class())
	}
	assert.Equal(t, []string{"a", "b", "c"}, classes)
}

func TestRegistryListInterfacesMergesAndSkipsListErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterDriver(&fakeDriver{
		class: "a", supportList: true,
		interfaces: []Interface{{Name: "wlan0", DriverClass: "a"}},
	}))
	require.NoError(t, r.RegisterDriver(&fakeDriver{
		class: "b", supportList: true, listErr: errProbe,
	}))
	require.NoError(t, r.RegisterDriver(&fakeDriver{class: "c"})) // not list-capable

	out := r.ListInterfaces(context.Background())
	require.Len(t, out, 1)
	assert.Equal(t, "wlan0", out[0].Name)
}

func TestRegistryRemoteCapableRequiresBothClassAndSupport(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterDriver(&fakeDriver{class: "linuxwifi", remote: false}))
	require.NoError(t, r.RegisterDriver(&fakeDriver{class: "rtl433", remote: true}))

	_, ok := r.RemoteCapable("linuxwifi")
	assert.False(t, ok)

	d, ok := r.RemoteCapable("rtl433")
	assert.True(t, ok)
	assert.Equal(t, "rtl433", d.Class())
}
