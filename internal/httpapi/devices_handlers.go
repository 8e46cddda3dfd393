package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kismetwireless/kismet-core/internal/devicetracker"
	"github.com/kismetwireless/kismet-core/internal/entity"
)

// deviceView is the JSON shape for one device, deliberately hand-
// written rather than round-tripped through entity.Element: a Device's
// top-level fields are plain Go fields, not an entity tree (only
// phy-attached sub-maps are), so there is no named-field registry to
// preserve stability against here.
type deviceView struct {
	Key        string            `json:"key"`
	UUID       string            `json:"uuid"`
	Phy        string            `json:"phy_name"`
	Mac        string            `json:"mac"`
	Type       string            `json:"type"`
	FirstSeen  int64             `json:"first_seen"`
	LastSeen   int64             `json:"last_seen"`
	Packets    uint64            `json:"packets"`
	DataBytes  uint64            `json:"data_bytes"`
	Channel    string            `json:"channel"`
	Frequency  float64           `json:"frequency"`
	Manuf      string            `json:"manuf"`
	Name       string            `json:"name"`
	Tags       map[string]string `json:"tags,omitempty"`
	HasGPS     bool              `json:"has_location"`
	Lat        float64           `json:"lat,omitempty"`
	Lon        float64           `json:"lon,omitempty"`
}

func toDeviceView(dev *devicetracker.Device) deviceView {
	var dv deviceView
	dev.WithLock(false, func() {
		dv = deviceView{
			Key:       dev.Key.String(),
			UUID:      dev.UUID.String(),
			Phy:       dev.PhyName,
			Mac:       dev.Mac.String(),
			Type:      dev.TypeString,
			FirstSeen: dev.FirstSeen.Unix(),
			LastSeen:  dev.LastSeen.Unix(),
			Packets:   dev.Counters.Total,
			DataBytes: dev.Counters.DataBytes,
			Channel:   dev.Channel,
			Frequency: dev.Frequency,
			Manuf:     dev.Manuf,
			Name:      dev.Name,
			Tags:      dev.Tags,
		}
		if dev.Location != nil {
			dv.HasGPS = true
			dv.Lat = dev.Location.Lat
			dv.Lon = dev.Location.Lon
		}
	})
	return dv
}

func toDeviceViews(devs []*devicetracker.Device) []deviceView {
	out := make([]deviceView, 0, len(devs))
	for _, d := range devs {
		out = append(out, toDeviceView(d))
	}
	return out
}

func (s *Server) handleAllViews(w http.ResponseWriter, r *http.Request) {
	if s.Views == nil {
		writeJSONError(w, http.StatusInternalServerError, "view engine unavailable")
		return
	}
	views := s.Views.AllViews()
	type viewInfo struct {
		ID    string `json:"id"`
		Count int    `json:"count"`
	}
	out := make([]viewInfo, 0, len(views))
	for _, v := range views {
		out = append(out, viewInfo{ID: v.ID, Count: len(v.Snapshot())})
	}
	writeJSON(w, out)
}

func (s *Server) handleViewDevices(w http.ResponseWriter, r *http.Request) {
	if s.Views == nil {
		writeJSONError(w, http.StatusInternalServerError, "view engine unavailable")
		return
	}
	v, ok := s.Views.View(r.PathValue("id"))
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "no such view")
		return
	}
	writeJSON(w, toDeviceViews(v.Snapshot()))
}

func (s *Server) handleViewDevicesSince(w http.ResponseWriter, r *http.Request) {
	if s.Views == nil {
		writeJSONError(w, http.StatusInternalServerError, "view engine unavailable")
		return
	}
	v, ok := s.Views.View(r.PathValue("id"))
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "no such view")
		return
	}
	epochSec, err := strconv.ParseInt(r.PathValue("sec"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "invalid epoch")
		return
	}
	writeJSON(w, toDeviceViews(v.SnapshotSince(time.Unix(epochSec, 0))))
}

func (s *Server) handleMultimacDevices(w http.ResponseWriter, r *http.Request) {
	if s.Devices == nil {
		writeJSONError(w, http.StatusInternalServerError, "device tracker unavailable")
		return
	}
	var body struct {
		Devices []string `json:"devices"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "bad request body")
		return
	}

	var out []deviceView
	for _, raw := range body.Devices {
		mac, err := entity.NewMAC(raw)
		if err != nil {
			continue
		}
		out = append(out, toDeviceViews(s.Devices.FindByMac(mac))...)
	}
	writeJSON(w, out)
}

func (s *Server) handleAllPhys(w http.ResponseWriter, r *http.Request) {
	if s.Devices == nil {
		writeJSONError(w, http.StatusInternalServerError, "device tracker unavailable")
		return
	}
	type phyView struct {
		ID          int    `json:"phy_id"`
		Name        string `json:"phy_name"`
		Packets     uint64 `json:"packets"`
		DataPackets uint64 `json:"data_packets"`
		Errors      uint64 `json:"errors"`
		Filtered    uint64 `json:"filtered"`
	}
	phys := s.Devices.AllPhys()
	out := make([]phyView, 0, len(phys))
	for _, p := range phys {
		out = append(out, phyView{
			ID:          p.ID,
			Name:        p.Name,
			Packets:     p.Counters.Packets.Load(),
			DataPackets: p.Counters.DataPackets.Load(),
			Errors:      p.Counters.Errors.Load(),
			Filtered:    p.Counters.Filtered.Load(),
		})
	}
	writeJSON(w, out)
}
