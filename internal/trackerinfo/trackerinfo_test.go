package trackerinfo

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/bencode"
)

func TestAnnounceRequestEncode(t *testing.T) {
	req := AnnounceRequest{
		Port:       6881,
		Uploaded:   10,
		Downloaded: 20,
		Left:       30,
		Compact:    true,
		Event:      EventStarted,
		NumWant:    50,
	}
	q := req.Encode()
	assert.Equal(t, "6881", q.Get("port"))
	assert.Equal(t, "1", q.Get("compact"))
	assert.Equal(t, "started", q.Get("event"))
	assert.Equal(t, "50", q.Get("numwant"))
}

func TestDecodeAnnounceResponseCompact(t *testing.T) {
	compact := []byte{127, 0, 0, 1, 0x1A, 0xE1} // 127.0.0.1:6881
	wire := struct {
		Interval int32  `bencode:"interval"`
		Peers    string `bencode:"peers"`
	}{
		Interval: 1800,
		Peers:    string(compact),
	}
	b, err := bencode.EncodeBytes(wire)
	require.NoError(t, err)

	resp, err := DecodeAnnounceResponse(b)
	require.NoError(t, err)
	assert.Equal(t, int32(1800), resp.Interval)
	require.Len(t, resp.Peers, 1)
	assert.True(t, net.IP{127, 0, 0, 1}.Equal(resp.Peers[0].IP))
	assert.Equal(t, uint16(6881), resp.Peers[0].Port)
}

func TestDecodeAnnounceResponseDictionaryPeers(t *testing.T) {
	wire := struct {
		Interval int32 `bencode:"interval"`
		Peers    []struct {
			ID   string `bencode:"peer id"`
			IP   string `bencode:"ip"`
			Port uint16 `bencode:"port"`
		} `bencode:"peers"`
	}{
		Interval: 900,
		Peers: []struct {
			ID   string `bencode:"peer id"`
			IP   string `bencode:"ip"`
			Port uint16 `bencode:"port"`
		}{
			{ID: "abc", IP: "10.0.0.1", Port: 51413},
		},
	}
	b, err := bencode.EncodeBytes(wire)
	require.NoError(t, err)

	resp, err := DecodeAnnounceResponse(b)
	require.NoError(t, err)
	require.Len(t, resp.Peers, 1)
	assert.Equal(t, "abc", resp.Peers[0].ID)
	assert.Equal(t, uint16(51413), resp.Peers[0].Port)
}

func TestDecodeAnnounceResponseFailure(t *testing.T) {
	wire := struct {
		FailureReason string `bencode:"failure reason"`
	}{FailureReason: "unregistered torrent"}
	b, err := bencode.EncodeBytes(wire)
	require.NoError(t, err)

	_, err = DecodeAnnounceResponse(b)
	assert.Error(t, err)
}
