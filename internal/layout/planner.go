package layout

import (
	"fmt"
	"path/filepath"

	"github.com/alexkalderimis/haze/internal/metainfo"
)

// Plan walks the torrent's declared files in order and produces the
// FileStructure describing where each piece's bytes live while downloading
// and what each final file depends on to be complete. Plan is pure over
// validated metadata: it fails only on malformed metadata (negative
// lengths or a non-positive piece size). An Info with an empty Files list
// is planned as a single-file torrent; Plan returns no error for it.
func Plan(info *metainfo.Info, root string) (*FileStructure, error) {
	if info.PieceLength == 0 {
		return nil, ErrPieceSizeNotPositive
	}
	files := info.GetFiles()
	for _, f := range files {
		if f.Length < 0 {
			return nil, wrapPlanErr("validating file lengths", ErrNegativeLength)
		}
	}

	if !info.MultiFile() {
		return planSimple(info, root), nil
	}
	return planMulti(info, root, files)
}

func planSimple(info *metainfo.Info, root string) *FileStructure {
	scratch := make([]string, info.NumPieces)
	for i := range scratch {
		scratch[i] = filepath.Join(root, fmt.Sprintf("piece-%d.bin", i))
	}
	return &FileStructure{
		Multi:     false,
		FinalPath: filepath.Join(root, info.Name),
		Scratch:   scratch,
	}
}

// carry describes a piece that has already received its prefix from the
// previous file and still needs pendingSuffixLen bytes from the current
// file before its SplitPiece can be finalized.
type carry struct {
	pathA            string // end-of-file scratch of the file the piece started in
	pendingSuffixLen int64
}

func planMulti(info *metainfo.Info, root string, files []metainfo.FileEntry) (*FileStructure, error) {
	pieceSize := int64(info.PieceLength)
	split := make([]SplitPiece, info.NumPieces)
	var deps []FileDependency

	var i uint32      // next piece index not yet fully placed
	var c *carry
	for fi, f := range files {
		finalPath := filepath.Join(root, info.Name, filepath.Join(f.Path...))
		dir := filepath.Dir(finalPath)
		last := fi == len(files)-1

		var fileOffset int64
		var curDeps []string

		if c != nil {
			startPath := finalPath + ".start"
			prefixLen := uint32(pieceSize - c.pendingSuffixLen)
			split[i-1] = StraddlingPiece{PrefixLen: prefixLen, PathA: c.pathA, PathB: startPath}
			curDeps = append(curDeps, startPath)
			fileOffset = c.pendingSuffixLen
			c = nil
		}

		effectiveL := f.Length - fileOffset
		q := effectiveL / pieceSize
		r := effectiveL % pieceSize

		for k := int64(0); k < q; k++ {
			p := filepath.Join(dir, fmt.Sprintf("piece-%d.bin", i))
			split[i] = NormalPiece{Path: p}
			curDeps = append(curDeps, p)
			i++
		}

		switch {
		case r == 0:
			// File ends exactly on a piece boundary; no carry into the next file.
		case !last:
			endPath := finalPath + ".end"
			curDeps = append(curDeps, endPath)
			c = &carry{pathA: endPath, pendingSuffixLen: pieceSize - r}
			i++ // reserve the straddling piece's slot; finalized when the next file is processed
		default:
			// Short last piece of the torrent, wholly inside this (last) file.
			p := filepath.Join(dir, fmt.Sprintf("piece-%d.bin", i))
			split[i] = NormalPiece{Path: p}
			curDeps = append(curDeps, p)
			i++
		}

		deps = append(deps, FileDependency{FinalPath: finalPath, Deps: curDeps})
	}

	return &FileStructure{
		Multi: true,
		Split: split,
		Files: deps,
	}, nil
}
