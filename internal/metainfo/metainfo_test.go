package metainfo

import (
	"bytes"
	"crypto/sha1" // nolint: gosec
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/bencode"
)

func pieceHashesForN(n int) []byte {
	out := make([]byte, 0, n*sha1.Size)
	for i := 0; i < n; i++ {
		h := sha1.Sum([]byte{byte(i)}) // nolint: gosec
		out = append(out, h[:]...)
	}
	return out
}

func TestMetaInfoNewDecodesAnnounceList(t *testing.T) {
	infoDict := struct {
		PieceLength uint32 `bencode:"piece length"`
		Pieces      []byte `bencode:"pieces"`
		Name        string `bencode:"name"`
		Length      int64  `bencode:"length"`
	}{
		PieceLength: 4,
		Pieces:      pieceHashesForN(1),
		Name:        "x.txt",
		Length:      4,
	}
	infoBytes, err := bencode.EncodeBytes(infoDict)
	require.NoError(t, err)

	top := struct {
		Info         bencode.RawMessage `bencode:"info"`
		AnnounceList [][]string         `bencode:"announce-list"`
	}{
		Info: infoBytes,
		AnnounceList: [][]string{
			{"http://tracker.example/announce", "ftp://ignored.example/"},
			{"udp://tracker2.example:80"},
		},
	}
	b, err := bencode.EncodeBytes(top)
	require.NoError(t, err)

	mi, err := New(bytes.NewReader(b))
	require.NoError(t, err)
	require.Len(t, mi.AnnounceList, 2)
	assert.Equal(t, []string{"http://tracker.example/announce"}, mi.AnnounceList[0])
	assert.Equal(t, []string{"udp://tracker2.example:80"}, mi.AnnounceList[1])
}

func TestMetaInfoNewFallsBackToAnnounce(t *testing.T) {
	infoDict := struct {
		PieceLength uint32 `bencode:"piece length"`
		Pieces      []byte `bencode:"pieces"`
		Name        string `bencode:"name"`
		Length      int64  `bencode:"length"`
	}{
		PieceLength: 4,
		Pieces:      pieceHashesForN(1),
		Name:        "x.txt",
		Length:      4,
	}
	infoBytes, err := bencode.EncodeBytes(infoDict)
	require.NoError(t, err)

	top := struct {
		Info     bencode.RawMessage `bencode:"info"`
		Announce string             `bencode:"announce"`
	}{
		Info:     infoBytes,
		Announce: "https://solo.example/announce",
	}
	b, err := bencode.EncodeBytes(top)
	require.NoError(t, err)

	mi, err := New(bytes.NewReader(b))
	require.NoError(t, err)
	require.Len(t, mi.AnnounceList, 1)
	assert.Equal(t, []string{"https://solo.example/announce"}, mi.AnnounceList[0])
}

func TestMetaInfoNewRejectsMissingInfo(t *testing.T) {
	top := struct {
		Announce string `bencode:"announce"`
	}{Announce: "https://x.example/"}
	b, err := bencode.EncodeBytes(top)
	require.NoError(t, err)

	_, err = New(bytes.NewReader(b))
	assert.Error(t, err)
}
