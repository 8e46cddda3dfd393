package entity

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotentByName(t *testing.T) {
	r := NewRegistry()

	id1, err := r.Register("kismet.device.base.mac", KindMAC, "device mac address")
	require.NoError(t, err)

	id2, err := r.Register("kismet.device.base.mac", KindMAC, "device mac address (again)")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, "kismet.device.base.mac", r.NameFor(id1))
}

func TestRegisterRejectsTypeConflict(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register("kismet.device.base.signal", KindI32, "signal")
	require.NoError(t, err)

	_, err = r.Register("kismet.device.base.signal", KindString, "signal")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFieldTypeConflict))
}

func TestNameForRoundTrip(t *testing.T) {
	r := NewRegistry()
	names := []string{"a.b.c", "a.b.d", "x.y.z"}
	for _, n := range names {
		id, err := r.Register(n, KindString, "")
		require.NoError(t, err)
		assert.Equal(t, n, r.NameFor(r.mustID(t, n)))
		assert.Equal(t, id, r.mustID(t, n))
	}
}

func (r *Registry) mustID(t *testing.T, name string) uint16 {
	t.Helper()
	id, ok := r.IDFor(name)
	require.True(t, ok)
	return id
}

func TestFieldIDsStartAtOneAndNeverAnonymous(t *testing.T) {
	r := NewRegistry()
	id, err := r.Register("first.field", KindBool, "")
	require.NoError(t, err)
	assert.Equal(t, uint16(1), id)
	assert.NotEqual(t, uint16(0), id)
}

func TestSerializeDottedSuffixFallsBackToJSON(t *testing.T) {
	r := NewRegistry()
	el, err := r.RegisterAndGet("kismet.device.base.name", KindString, "name")
	require.NoError(t, err)
	el.str = "probe0"

	var buf bytes.Buffer
	n, err := r.Serialize("export.a.b.json", &buf, el, nil)
	require.NoError(t, err)
	assert.Greater(t, n, 0)
	assert.Equal(t, `"probe0"`, buf.String())
}

func TestSerializeUnknownKindFallsBackToDefaultJSON(t *testing.T) {
	r := NewRegistry()
	el := NewBool(0, true)

	var buf bytes.Buffer
	_, err := r.Serialize("xml", &buf, el, nil)
	require.NoError(t, err)
	assert.Equal(t, "true", buf.String())
}
