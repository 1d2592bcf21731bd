// Package layout implements the Layout Planner and Piece Mapping components:
// translating a torrent's logical file layout into scratch-file locations on
// disk, and building the piece-index-keyed read recipes that let a reader
// resolve a piece regardless of whether it still lives in scratch or has
// already been merged into a final file.
package layout

import (
	"errors"
	"fmt"
)

// Errors returned by Plan when metadata is malformed. These correspond to
// the MetadataMalformed error kind.
var (
	ErrPieceSizeNotPositive = errors.New("layout: piece size must be positive")
	ErrNegativeLength       = errors.New("layout: file has negative length")
)

// SplitPiece is the per-piece scratch recipe for a multi-file torrent: either
// the whole piece goes to one scratch file (Normal), or the piece straddles
// a file boundary and is split across two scratch files (Straddling).
type SplitPiece interface {
	isSplitPiece()
}

// NormalPiece places the whole piece in one scratch file.
type NormalPiece struct {
	Path string
}

func (NormalPiece) isSplitPiece() {}

// StraddlingPiece splits a piece across a file boundary: the first
// PrefixLen bytes go to PathA (the end-of-file scratch of the file the
// piece starts in), the rest go to PathB (the start-of-file scratch of the
// following file).
type StraddlingPiece struct {
	PrefixLen uint32
	PathA     string
	PathB     string
}

func (StraddlingPiece) isSplitPiece() {}

// FileDependency names a final file and the ordered list of scratch paths
// that must all exist before it, whose concatenation (in this order)
// reproduces the file's bytes exactly.
type FileDependency struct {
	FinalPath string
	Deps      []string
}

// FileStructure is the static, immutable output of the Layout Planner: for
// every piece, where its bytes currently live on disk (scratch), and for
// every final file, what it depends on to be complete.
type FileStructure struct {
	Multi bool

	// Simple case (Multi == false): one final file, one scratch file per
	// piece.
	FinalPath string
	Scratch   []string

	// Multi case (Multi == true): one SplitPiece per piece index, and the
	// per-final-file dependency lists, in declared file order.
	Split []SplitPiece
	Files []FileDependency
}

// PieceCount returns the number of pieces this structure was planned for.
func (fs *FileStructure) PieceCount() int {
	if fs.Multi {
		return len(fs.Split)
	}
	return len(fs.Scratch)
}

// MergeTargets returns the (finalPath, deps) pairs a merge check must
// consider, uniformly across the simple and multi cases: in the simple case
// there is exactly one final file whose deps are every piece's scratch path.
func (fs *FileStructure) MergeTargets() []FileDependency {
	if fs.Multi {
		return fs.Files
	}
	return []FileDependency{{FinalPath: fs.FinalPath, Deps: fs.Scratch}}
}

// ScratchPaths returns, for piece index i, the scratch path(s) that must be
// written for that piece: one path for Normal/simple, two for Straddling.
func (fs *FileStructure) ScratchPaths(i int) []string {
	if !fs.Multi {
		return []string{fs.Scratch[i]}
	}
	switch sp := fs.Split[i].(type) {
	case NormalPiece:
		return []string{sp.Path}
	case StraddlingPiece:
		return []string{sp.PathA, sp.PathB}
	default:
		return nil
	}
}

func wrapPlanErr(context string, err error) error {
	return fmt.Errorf("layout: %s: %w", context, err)
}
