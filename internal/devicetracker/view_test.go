package devicetracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kismetwireless/kismet-core/internal/entity"
)

func newTestTrackerWithEngine(t *testing.T) (*Tracker, *Engine, *PhyInfo) {
	t.Helper()
	engine := NewEngine()
	tr := New(entity.NewRegistry(), nil, uuidMust(t), nil, engine)
	phy, err := tr.RegisterPhy(fakePhy{name: "testphy"})
	require.NoError(t, err)
	return tr, engine, phy
}

func TestAllViewContainsEveryDevice(t *testing.T) {
	tr, engine, phy := newTestTrackerWithEngine(t)
	mac := mustMAC(t, "AA:AA:AA:AA:AA:01")
	tr.UpdateCommonDevice(phy, mac, CommonInfo{Timestamp: time.Now()}, UpdatePackets, "unknown")

	all, ok := engine.View("all")
	require.True(t, ok)
	assert.Len(t, all.Snapshot(), 1)
}

func TestPhyViewCreatedOnRegisterPhy(t *testing.T) {
	_, engine, phy := newTestTrackerWithEngine(t)
	v, ok := engine.View("phy-" + phy.Name)
	require.True(t, ok)
	assert.Empty(t, v.Snapshot())
}

func TestPhyViewGainsDevicesOfThatPhy(t *testing.T) {
	tr, engine, phy := newTestTrackerWithEngine(t)
	mac := mustMAC(t, "AA:AA:AA:AA:AA:02")
	tr.UpdateCommonDevice(phy, mac, CommonInfo{Timestamp: time.Now()}, UpdatePackets, "unknown")

	v, ok := engine.View("phy-" + phy.Name)
	require.True(t, ok)
	assert.Len(t, v.Snapshot(), 1)
}

func TestRemoveDeviceEvictsFromAllViews(t *testing.T) {
	tr, engine, phy := newTestTrackerWithEngine(t)
	mac := mustMAC(t, "AA:AA:AA:AA:AA:03")
	tr.UpdateCommonDevice(phy, mac, CommonInfo{Timestamp: time.Now()}, UpdatePackets, "unknown")

	key := entity.NewDeviceKey(phy.Name, mac)
	require.True(t, tr.Remove(key))

	all, _ := engine.View("all")
	assert.Empty(t, all.Snapshot())
	phyView, _ := engine.View("phy-" + phy.Name)
	assert.Empty(t, phyView.Snapshot())
}

func TestSeenByViewTracksSourceMembership(t *testing.T) {
	tr, engine, phy := newTestTrackerWithEngine(t)
	src := uuidMust(t)
	view := engine.CreateSeenByView(src)

	mac := mustMAC(t, "AA:AA:AA:AA:AA:04")
	tr.UpdateCommonDevice(phy, mac, CommonInfo{Timestamp: time.Now(), SourceUUID: src, HasSource: true}, UpdatePackets|UpdateSeenBy, "unknown")

	assert.Len(t, view.Snapshot(), 1)
}

func TestSnapshotSinceOnlyReturnsRecentChanges(t *testing.T) {
	tr, engine, phy := newTestTrackerWithEngine(t)
	mac := mustMAC(t, "AA:AA:AA:AA:AA:05")
	tr.UpdateCommonDevice(phy, mac, CommonInfo{Timestamp: time.Now()}, UpdatePackets, "unknown")

	all, _ := engine.View("all")
	future := time.Now().Add(time.Hour)
	assert.Empty(t, all.SnapshotSince(future))
}

func TestAddRemoveDirectBypassPredicates(t *testing.T) {
	tr, engine, phy := newTestTrackerWithEngine(t)
	mac := mustMAC(t, "AA:AA:AA:AA:AA:06")
	dev := tr.UpdateCommonDevice(phy, mac, CommonInfo{Timestamp: time.Now()}, UpdatePackets, "unknown")

	custom := engine.CreateView("flagged", func(*Device) bool { return false }, func(*Device) bool { return false })
	custom.AddDirect(dev, time.Now())
	assert.Len(t, custom.Snapshot(), 1)

	custom.RemoveDirect(dev.Key)
	assert.Empty(t, custom.Snapshot())
}
