package layout

import (
	"fmt"

	"github.com/alexkalderimis/haze/internal/metainfo"
)

// EmbeddedLocation names where a piece segment's bytes live once its final
// file has been merged.
type EmbeddedLocation struct {
	FinalPath string
	Offset    int64
	Length    int64
}

// Segment is one ordered slice of a piece. ScratchPath is authoritative
// while the scratch file still exists; Embedded is authoritative once it
// has been merged away.
type Segment struct {
	ScratchPath string
	Embedded    EmbeddedLocation
}

// PieceMapping is the immutable, piece-index-keyed table of read recipes.
// Concatenating the segments of mapping[i] in order reproduces piece i.
type PieceMapping [][]Segment

// NewMapping builds the Piece Mapping from a FileStructure produced by
// Plan. It walks the logical file list in parallel with the piece offset
// axis (mirroring the walk Plan itself performed) to recover, for each
// piece segment, the embedded (finalFile, offset, length) location that
// corresponds to the scratch path Plan already chose.
func NewMapping(info *metainfo.Info, fs *FileStructure) (PieceMapping, error) {
	if !fs.Multi {
		return simpleMapping(info, fs), nil
	}
	return multiMapping(info, fs)
}

func simpleMapping(info *metainfo.Info, fs *FileStructure) PieceMapping {
	pieceSize := int64(info.PieceLength)
	mapping := make(PieceMapping, info.NumPieces)
	for i := range mapping {
		idx := uint32(i)
		mapping[i] = []Segment{{
			ScratchPath: fs.Scratch[i],
			Embedded: EmbeddedLocation{
				FinalPath: fs.FinalPath,
				Offset:    int64(idx) * pieceSize,
				Length:    simplePieceLength(info, idx),
			},
		}}
	}
	return mapping
}

func simplePieceLength(info *metainfo.Info, idx uint32) int64 {
	if idx == info.NumPieces-1 {
		return info.TotalLength - int64(info.NumPieces-1)*int64(info.PieceLength)
	}
	return int64(info.PieceLength)
}

func multiMapping(info *metainfo.Info, fs *FileStructure) (PieceMapping, error) {
	pieceSize := int64(info.PieceLength)
	files := info.GetFiles()
	mapping := make(PieceMapping, info.NumPieces)

	var i uint32
	var pendingSuffixLen int64 // >0: the previous piece straddles into this file
	for fi, f := range files {
		if fi >= len(fs.Files) {
			return nil, fmt.Errorf("layout: file structure has fewer files than metadata")
		}
		finalPath := fs.Files[fi].FinalPath
		last := fi == len(files)-1

		var fileOffset int64
		if pendingSuffixLen > 0 {
			sp, ok := fs.Split[i-1].(StraddlingPiece)
			if !ok {
				return nil, fmt.Errorf("layout: expected straddling piece at index %d", i-1)
			}
			mapping[i-1] = append(mapping[i-1], Segment{
				ScratchPath: sp.PathB,
				Embedded:    EmbeddedLocation{FinalPath: finalPath, Offset: 0, Length: pendingSuffixLen},
			})
			fileOffset = pendingSuffixLen
			pendingSuffixLen = 0
		}

		effectiveL := f.Length - fileOffset
		q := effectiveL / pieceSize
		r := effectiveL % pieceSize

		for k := int64(0); k < q; k++ {
			np, ok := fs.Split[i].(NormalPiece)
			if !ok {
				return nil, fmt.Errorf("layout: expected normal piece at index %d", i)
			}
			mapping[i] = append(mapping[i], Segment{
				ScratchPath: np.Path,
				Embedded:    EmbeddedLocation{FinalPath: finalPath, Offset: fileOffset, Length: pieceSize},
			})
			i++
			fileOffset += pieceSize
		}

		switch {
		case r == 0:
		case !last:
			sp, ok := fs.Split[i].(StraddlingPiece)
			if !ok {
				return nil, fmt.Errorf("layout: expected straddling piece at index %d", i)
			}
			mapping[i] = append(mapping[i], Segment{
				ScratchPath: sp.PathA,
				Embedded:    EmbeddedLocation{FinalPath: finalPath, Offset: fileOffset, Length: r},
			})
			pendingSuffixLen = pieceSize - r
			i++
		default:
			np, ok := fs.Split[i].(NormalPiece)
			if !ok {
				return nil, fmt.Errorf("layout: expected normal piece at index %d", i)
			}
			mapping[i] = append(mapping[i], Segment{
				ScratchPath: np.Path,
				Embedded:    EmbeddedLocation{FinalPath: finalPath, Offset: fileOffset, Length: r},
			})
			i++
		}
	}

	return mapping, nil
}
