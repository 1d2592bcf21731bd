// Command piece-planner loads a .torrent file, runs the Layout Planner
// against it, and prints the resulting file structure and per-file
// dependency graph.
package main

import (
	"fmt"
	"os"

	"github.com/alexkalderimis/haze/internal/bitfield"
	"github.com/alexkalderimis/haze/internal/config"
	"github.com/alexkalderimis/haze/internal/layout"
	"github.com/alexkalderimis/haze/internal/logger"
	"github.com/alexkalderimis/haze/internal/metainfo"
	"github.com/alexkalderimis/haze/internal/piecereader"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "piece-planner"
	app.Usage = "plan the on-disk scratch layout for a .torrent file and report write progress"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "root, r",
			Value: config.DefaultConfig.RootDir,
			Usage: "root directory under which scratch and final files are placed",
		},
		cli.StringFlag{
			Name:  "log-level, l",
			Value: config.DefaultConfig.LogLevel,
			Usage: "log level: debug, info, warning, error",
		},
	}
	app.Action = plan

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "piece-planner:", err)
		os.Exit(1)
	}
}

func plan(c *cli.Context) error {
	logger.SetLevel(logger.ParseLevel(c.String("log-level")))
	if c.NArg() == 0 {
		return cli.NewExitError("give a .torrent file as the first argument", 1)
	}
	path := c.Args().Get(0)
	root := c.String("root")

	f, err := os.Open(path)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("open %s: %v", path, err), 1)
	}
	defer f.Close()

	mi, err := metainfo.New(f)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("decode %s: %v", path, err), 1)
	}

	fs, err := layout.Plan(&mi.Info, root)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("plan: %v", err), 1)
	}

	printStructure(fs)

	mapping, err := layout.NewMapping(&mi.Info, fs)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("mapping: %v", err), 1)
	}
	printProgress(fs, mapping)
	return nil
}

// printProgress scans on-disk state for pieces already written, standing in
// for a live Writer Process: piece-planner never writes anything itself, so
// it reads each piece back through the same Reader the Writer Process uses
// and treats a successful read as evidence the piece has been written at
// least once (I-3 guarantees any written piece stays readable regardless of
// concurrent merge progress).
func printProgress(fs *layout.FileStructure, mapping layout.PieceMapping) {
	reader := piecereader.New(mapping)
	bf := bitfield.New(uint32(fs.PieceCount()))
	for i := 0; i < fs.PieceCount(); i++ {
		if _, err := reader.ReadPiece(uint32(i)); err == nil {
			bf.Set(uint32(i))
		}
	}
	fmt.Printf("written: %d/%d pieces\n", bf.Count(), bf.Len())
}

func printStructure(fs *layout.FileStructure) {
	fmt.Printf("pieces: %d\n", fs.PieceCount())
	if !fs.Multi {
		fmt.Printf("single file: %s\n", fs.FinalPath)
		for i, s := range fs.Scratch {
			fmt.Printf("  piece %d -> %s\n", i, s)
		}
		return
	}
	fmt.Println("multi-file torrent")
	for _, dep := range fs.Files {
		fmt.Printf("  %s depends on:\n", dep.FinalPath)
		for _, d := range dep.Deps {
			fmt.Printf("    - %s\n", d)
		}
	}
}
