// Package metainfo decodes bencoded .torrent files into the Info structure
// that the layout package consumes as its input schema.
package metainfo

import (
	"crypto/sha1" // nolint: gosec
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeebo/bencode"
)

var (
	errInvalidPieceData = errors.New("metainfo: invalid piece data")
	errNegativeLength   = errors.New("metainfo: negative file length")
	errZeroPieceLength  = errors.New("metainfo: piece length must be positive")
)

// FileEntry is one logical file as declared in a multi-file torrent, or the
// single implicit file of a single-file torrent.
type FileEntry struct {
	Length int64    `bencode:"length" json:"length"`
	Path   []string `bencode:"path" json:"path"`
}

// Info is the decoded "info" dictionary of a .torrent file plus fields
// derived from it at decode time.
type Info struct {
	PieceLength uint32             `bencode:"piece length" json:"piece_length"`
	Pieces      []byte             `bencode:"pieces" json:"pieces"`
	Private     bencode.RawMessage `bencode:"private" json:"private"`
	Name        string             `bencode:"name" json:"name"`
	Length      int64              `bencode:"length" json:"length"` // single-file mode
	Files       []FileEntry        `bencode:"files" json:"files"`   // multi-file mode

	// Computed fields, not part of the bencoded representation.
	Hash        [20]byte `bencode:"-" json:"-"`
	TotalLength int64    `bencode:"-" json:"-"`
	NumPieces   uint32   `bencode:"-" json:"-"`
	Bytes       []byte   `bencode:"-" json:"-"`
	private     bool
}

// NewInfo decodes and validates the bencoded bytes of an "info" dictionary.
// The info-hash is computed over b exactly as received, never a re-encoding,
// per the BitTorrent requirement that the hash be byte-exact.
func NewInfo(b []byte) (*Info, error) {
	var i Info
	if err := bencode.DecodeBytes(b, &i); err != nil {
		return nil, fmt.Errorf("metainfo: decode info dict: %w", err)
	}
	if err := i.validate(); err != nil {
		return nil, err
	}
	if len(i.Private) > 0 {
		var intVal int64
		var stringVal string
		if err := bencode.DecodeBytes(i.Private, &intVal); err == nil {
			i.private = intVal == 1
		} else if err := bencode.DecodeBytes(i.Private, &stringVal); err == nil {
			i.private = stringVal == "1"
		}
	}
	i.NumPieces = uint32(len(i.Pieces)) / sha1.Size
	if i.MultiFile() {
		for _, f := range i.Files {
			i.TotalLength += f.Length
		}
	} else {
		i.TotalLength = i.Length
	}
	totalPieceDataLength := int64(i.PieceLength) * int64(i.NumPieces)
	delta := totalPieceDataLength - i.TotalLength
	if delta >= int64(i.PieceLength) || delta < 0 {
		return nil, errInvalidPieceData
	}
	i.Bytes = b
	hash := sha1.New() // nolint: gosec
	_, _ = hash.Write(b)
	copy(i.Hash[:], hash.Sum(nil))
	return &i, nil
}

func (i *Info) validate() error {
	if uint32(len(i.Pieces))%sha1.Size != 0 {
		return errInvalidPieceData
	}
	if i.PieceLength == 0 {
		return errZeroPieceLength
	}
	if i.MultiFile() {
		for _, f := range i.Files {
			if f.Length < 0 {
				return errNegativeLength
			}
			for _, part := range f.Path {
				if strings.TrimSpace(part) == ".." {
					return fmt.Errorf("metainfo: invalid file name: %q", filepath.Join(f.Path...))
				}
			}
		}
	} else if i.Length < 0 {
		return errNegativeLength
	}
	return nil
}

// MultiFile reports whether the torrent uses the multi-file layout, i.e.
// declares a non-empty "files" list (which may hold a single entry).
func (i *Info) MultiFile() bool {
	return len(i.Files) != 0
}

// PieceHash returns the expected SHA-1 digest of piece index.
func (i *Info) PieceHash(index uint32) []byte {
	begin := index * sha1.Size
	end := begin + sha1.Size
	return i.Pieces[begin:end]
}

// GetFiles returns the files of the torrent as a slice, synthesizing a
// single entry named after Info.Name for single-file torrents.
func (i *Info) GetFiles() []FileEntry {
	if i.MultiFile() {
		return i.Files
	}
	return []FileEntry{{Length: i.Length, Path: []string{i.Name}}}
}

// IsPrivate reports the torrent's "private" flag.
func (i *Info) IsPrivate() bool {
	if i == nil {
		return false
	}
	return i.private
}
