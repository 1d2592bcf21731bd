// Package trackerinfo models the shape of a BitTorrent tracker announce
// request and response. It exists so the writer process has a realistic
// caller in the surrounding pipeline; actual HTTP/UDP transport is outside
// the scope of the piece-storage core (see SPEC_FULL.md §1).
package trackerinfo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/zeebo/bencode"
)

// Event is the lifecycle event reported on an announce.
type Event int

const (
	EventNone Event = iota
	EventStarted
	EventStopped
	EventCompleted
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventCompleted:
		return "completed"
	default:
		return ""
	}
}

// AnnounceRequest holds the standard query parameters of an HTTP announce.
type AnnounceRequest struct {
	InfoHash   [20]byte
	PeerID     [20]byte
	Port       uint16
	Uploaded   int64
	Downloaded int64
	Left       int64
	Compact    bool
	Event      Event
	NumWant    int
	TrackerID  string
}

// Encode renders the request as URL query parameters.
func (r AnnounceRequest) Encode() url.Values {
	q := url.Values{}
	q.Set("info_hash", string(r.InfoHash[:]))
	q.Set("peer_id", string(r.PeerID[:]))
	q.Set("port", strconv.FormatUint(uint64(r.Port), 10))
	q.Set("uploaded", strconv.FormatInt(r.Uploaded, 10))
	q.Set("downloaded", strconv.FormatInt(r.Downloaded, 10))
	q.Set("left", strconv.FormatInt(r.Left, 10))
	if r.Compact {
		q.Set("compact", "1")
	}
	if r.Event != EventNone {
		q.Set("event", r.Event.String())
	}
	if r.NumWant > 0 {
		q.Set("numwant", strconv.Itoa(r.NumWant))
	}
	if r.TrackerID != "" {
		q.Set("trackerid", r.TrackerID)
	}
	return q
}

// wireResponse is the raw bencoded shape returned by a tracker.
type wireResponse struct {
	FailureReason string             `bencode:"failure reason"`
	Interval      int32              `bencode:"interval"`
	MinInterval   int32              `bencode:"min interval"`
	TrackerID     string             `bencode:"tracker id"`
	Complete      int32              `bencode:"complete"`
	Incomplete    int32              `bencode:"incomplete"`
	Peers         bencode.RawMessage `bencode:"peers"`
}

// Peer is one peer entry returned by the tracker, either from the compact
// binary form or the dictionary form.
type Peer struct {
	ID   string
	IP   net.IP
	Port uint16
}

// AnnounceResponse is the decoded tracker reply.
type AnnounceResponse struct {
	Interval    int32
	MinInterval int32
	TrackerID   string
	Complete    int32
	Incomplete  int32
	Peers       []Peer
}

// DecodeAnnounceResponse parses a bencoded tracker reply, handling both the
// compact (6-byte-per-peer) and dictionary peer list encodings.
func DecodeAnnounceResponse(b []byte) (*AnnounceResponse, error) {
	var wire wireResponse
	if err := bencode.DecodeBytes(b, &wire); err != nil {
		return nil, fmt.Errorf("trackerinfo: decode response: %w", err)
	}
	if wire.FailureReason != "" {
		return nil, fmt.Errorf("trackerinfo: tracker failure: %s", wire.FailureReason)
	}
	resp := &AnnounceResponse{
		Interval:    wire.Interval,
		MinInterval: wire.MinInterval,
		TrackerID:   wire.TrackerID,
		Complete:    wire.Complete,
		Incomplete:  wire.Incomplete,
	}
	if len(wire.Peers) == 0 {
		return resp, nil
	}
	if wire.Peers[0] == 'l' {
		var dicts []struct {
			ID   string `bencode:"peer id"`
			IP   string `bencode:"ip"`
			Port uint16 `bencode:"port"`
		}
		if err := bencode.DecodeBytes(wire.Peers, &dicts); err != nil {
			return nil, fmt.Errorf("trackerinfo: decode peer dictionaries: %w", err)
		}
		for _, d := range dicts {
			resp.Peers = append(resp.Peers, Peer{ID: d.ID, IP: net.ParseIP(d.IP), Port: d.Port})
		}
		return resp, nil
	}
	var compact []byte
	if err := bencode.DecodeBytes(wire.Peers, &compact); err != nil {
		return nil, fmt.Errorf("trackerinfo: decode compact peers: %w", err)
	}
	peers, err := parseCompactPeers(compact)
	if err != nil {
		return nil, err
	}
	resp.Peers = peers
	return resp, nil
}

func parseCompactPeers(b []byte) ([]Peer, error) {
	const recordLen = 6
	if len(b)%recordLen != 0 {
		return nil, fmt.Errorf("trackerinfo: invalid compact peer list length %d", len(b))
	}
	r := bytes.NewReader(b)
	peers := make([]Peer, 0, len(b)/recordLen)
	for r.Len() > 0 {
		var ip [4]byte
		var port uint16
		if _, err := r.Read(ip[:]); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.BigEndian, &port); err != nil {
			return nil, err
		}
		peers = append(peers, Peer{IP: net.IP(ip[:]), Port: port})
	}
	return peers, nil
}
