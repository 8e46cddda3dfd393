package devicetracker

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kismetwireless/kismet-core/internal/config"
	"github.com/kismetwireless/kismet-core/internal/entity"
)

type fakePhy struct{ name string }

func (f fakePhy) Name() string { return f.name }

func newTestTracker(t *testing.T) (*Tracker, *PhyInfo) {
	t.Helper()
	tr := New(entity.NewRegistry(), config.EmptyTuningConfig(), uuid.New(), nil, nil)
	phy, err := tr.RegisterPhy(fakePhy{name: "testphy"})
	require.NoError(t, err)
	return tr, phy
}

func mustMAC(t *testing.T, s string) entity.MAC {
	t.Helper()
	m, err := entity.NewMAC(s)
	require.NoError(t, err)
	return m
}

func uuidMust(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func TestRegisterPhyRejectsDuplicateName(t *testing.T) {
	tr, _ := newTestTracker(t)
	_, err := tr.RegisterPhy(fakePhy{name: "testphy"})
	assert.ErrorIs(t, err, ErrDuplicatePhy)
}

func TestUpdateCommonDeviceCreatesOnFirstSight(t *testing.T) {
	tr, phy := newTestTracker(t)
	mac := mustMAC(t, "DE:AD:BE:EF:00:01")
	now := time.Now()

	dev := tr.UpdateCommonDevice(phy, mac, CommonInfo{Timestamp: now, DataSize: 128, IsData: true}, UpdatePackets, "unknown")
	require.NotNil(t, dev)

	found, ok := tr.Find(entity.NewDeviceKey(phy.Name, mac))
	require.True(t, ok)
	assert.Same(t, dev, found)
	assert.Equal(t, uint64(1), dev.Counters.Total)
	assert.Equal(t, uint64(1), dev.Counters.Data)
}

func TestUpdateCommonDeviceAccumulatesOnSecondSight(t *testing.T) {
	tr, phy := newTestTracker(t)
	mac := mustMAC(t, "DE:AD:BE:EF:00:02")
	now := time.Now()

	tr.UpdateCommonDevice(phy, mac, CommonInfo{Timestamp: now, DataSize: 64}, UpdatePackets, "unknown")
	dev := tr.UpdateCommonDevice(phy, mac, CommonInfo{Timestamp: now.Add(time.Second), DataSize: 64}, UpdatePackets, "unknown")

	assert.Equal(t, uint64(2), dev.Counters.Total)
	assert.Equal(t, 1, len(tr.Snapshot()))
}

func TestUpdateCommonDeviceExistingOnlyReturnsNilForUnknown(t *testing.T) {
	tr, phy := newTestTracker(t)
	mac := mustMAC(t, "DE:AD:BE:EF:00:03")

	dev := tr.UpdateCommonDevice(phy, mac, CommonInfo{Timestamp: time.Now()}, UpdateExistingOnly, "unknown")
	assert.Nil(t, dev)
	_, ok := tr.Find(entity.NewDeviceKey(phy.Name, mac))
	assert.False(t, ok)
}

func TestUpdateCommonDeviceBucketsPacketSize(t *testing.T) {
	tr, phy := newTestTracker(t)
	mac := mustMAC(t, "DE:AD:BE:EF:00:04")

	dev := tr.UpdateCommonDevice(phy, mac, CommonInfo{Timestamp: time.Now(), DataSize: 2000}, UpdatePackets, "unknown")
	assert.Equal(t, uint64(1), dev.SizeHist.Jumbo)
}

func TestRemoveDeletesFromEveryIndex(t *testing.T) {
	tr, phy := newTestTracker(t)
	mac := mustMAC(t, "DE:AD:BE:EF:00:05")
	key := entity.NewDeviceKey(phy.Name, mac)

	tr.UpdateCommonDevice(phy, mac, CommonInfo{Timestamp: time.Now()}, UpdatePackets, "unknown")
	before := tr.Generation()

	ok := tr.Remove(key)
	require.True(t, ok)

	_, found := tr.Find(key)
	assert.False(t, found)
	assert.Empty(t, tr.FindByMac(mac))
	assert.Greater(t, tr.Generation(), before)
}

func TestRemoveUnknownKeyReturnsFalse(t *testing.T) {
	tr, _ := newTestTracker(t)
	ok := tr.Remove(entity.DeviceKey{})
	assert.False(t, ok)
}

func TestInternalIDStaysStableAcrossRemovalOfOtherDevices(t *testing.T) {
	tr, phy := newTestTracker(t)
	macA := mustMAC(t, "DE:AD:BE:EF:00:06")
	macB := mustMAC(t, "DE:AD:BE:EF:00:07")

	devA := tr.UpdateCommonDevice(phy, macA, CommonInfo{Timestamp: time.Now()}, UpdatePackets, "unknown")
	devB := tr.UpdateCommonDevice(phy, macB, CommonInfo{Timestamp: time.Now()}, UpdatePackets, "unknown")
	idB := devB.InternalID

	require.True(t, tr.Remove(entity.NewDeviceKey(phy.Name, macA)))

	assert.Equal(t, idB, devB.InternalID)
	snap := tr.Snapshot()
	require.Len(t, snap, 2)
	assert.Nil(t, snap[devA.InternalID])
	assert.Same(t, devB, snap[devB.InternalID])
}
