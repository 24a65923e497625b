package topology

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/dd0wney/caida-topogen/pkg/aslinks"
)

func TestBandwidthString(t *testing.T) {
	tests := []struct {
		in   Bandwidth
		want string
	}{
		{0, "0bit"},
		{100 * Mbit, "100Mbit"},
		{500 * Mbit, "500Mbit"},
		{Gbit, "1Gbit"},
		{10 * Gbit, "10Gbit"},
		{1500 * Mbit, "1500Mbit"},
		{1234, "1234bit"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("Bandwidth(%d).String() = %q, want %q", uint64(tt.in), got, tt.want)
		}
	}
}

func TestParseBandwidth(t *testing.T) {
	tests := []struct {
		in      string
		want    Bandwidth
		wantErr bool
	}{
		{"1Gbit", Gbit, false},
		{"10gbit", 10 * Gbit, false},
		{"100Mbps", 100 * Mbit, false},
		{" 500Mbit ", 500 * Mbit, false},
		{"64Kbit", 64 * Kbit, false},
		{"1Tbit", Tbit, false},
		{"fast", 0, true},
		{"1.5Gbit", 0, true},
		{"Gbit", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBandwidth(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrBadUnit) {
					t.Fatalf("err = %v, want ErrBadUnit", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLatencyAndLoss(t *testing.T) {
	if got := FormatLatency(10 * time.Millisecond); got != "10ms" {
		t.Errorf("FormatLatency(10ms) = %q", got)
	}
	if got := FormatLatency(1500 * time.Microsecond); got != "1.5ms" {
		t.Errorf("FormatLatency(1.5ms) = %q", got)
	}
	if d, err := ParseLatency("50ms"); err != nil || d != 50*time.Millisecond {
		t.Errorf("ParseLatency(50ms) = %v, %v", d, err)
	}
	if _, err := ParseLatency("soon"); !errors.Is(err, ErrBadUnit) {
		t.Errorf("ParseLatency(soon) err = %v", err)
	}

	if got := FormatLoss(0.5); got != "0.5%" {
		t.Errorf("FormatLoss(0.5) = %q", got)
	}
	if got := FormatLoss(2); got != "2%" {
		t.Errorf("FormatLoss(2) = %q", got)
	}
	if v, err := ParseLoss("0.25%"); err != nil || v != 0.25 {
		t.Errorf("ParseLoss(0.25%%) = %v, %v", v, err)
	}
	if _, err := ParseLoss("lots"); !errors.Is(err, ErrBadUnit) {
		t.Errorf("ParseLoss(lots) err = %v", err)
	}
}

func TestTopologyCounts(t *testing.T) {
	topo := &Topology{
		Nodes: []Node{
			{ID: 0, ASN: 10, IP: netip.MustParseAddr("10.0.0.1")},
			{ID: 1, ASN: 20},
		},
		Edges: []Edge{
			{Source: 0, Target: 1, Kind: aslinks.PeerPeer},
			{Source: 0, Target: 0, Kind: aslinks.LocalLoop},
			{Source: 1, Target: 1, Kind: aslinks.LocalLoop},
		},
	}

	c := topo.Counts()
	want := Counts{Nodes: 2, Edges: 3, SelfLoops: 2, InterAS: 1, NoIP: 1}
	if c != want {
		t.Errorf("Counts() = %+v, want %+v", c, want)
	}
	kinds := topo.ByKind()
	if kinds[aslinks.LocalLoop] != 2 || kinds[aslinks.PeerPeer] != 1 {
		t.Errorf("ByKind() = %v", kinds)
	}
}
