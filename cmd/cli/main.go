package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/galaxevo/internal/app"
	"github.com/vk/galaxevo/internal/cli"
	"github.com/vk/galaxevo/internal/halo"
	"github.com/vk/galaxevo/internal/hclcfg"
)

// main is the entrypoint for the galaxevo application.
func main() {
	// Minimal logger until the app configures its own.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing.
func run(outW io.Writer, args []string) error {
	opts, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	trees, err := treeLoader(opts.TreePath)
	if err != nil {
		return err
	}

	a, err := app.New(outW, &opts.Settings, hclcfg.NewLoader())
	if err != nil {
		return err
	}

	// A first signal requests a stop between trees; a second one is left
	// to the default handler.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		a.Interrupt()
		signal.Stop(sigCh)
	}()

	return a.Run(context.Background(), trees)
}

// treeLoader selects the merger-tree source. Catalog formats plug in behind
// halo.TreeLoader; without a path the built-in demo tree runs.
func treeLoader(path string) (halo.TreeLoader, error) {
	if path != "" {
		return nil, fmt.Errorf("no catalog reader is linked into this binary for %q; supply trees through a halo.TreeLoader", path)
	}
	return halo.NewSliceLoader(demoTree()), nil
}

// demoTree is a minimal three-snapshot merger history: two halos merging
// into one, which then grows.
func demoTree() *halo.Tree {
	return &halo.Tree{
		Index: 0,
		Halos: []halo.Halo{
			{ID: 1, Snapshot: 0, Class: halo.Central, Group: 0, Descendant: 2, Len: 100, Mvir: 10, Rvir: 0.1, Vvir: 120, Vmax: 130},
			{ID: 2, Snapshot: 0, Class: halo.Central, Group: 1, Descendant: 2, Len: 40, Mvir: 4, Rvir: 0.06, Vvir: 90, Vmax: 95},
			{ID: 3, Snapshot: 1, Class: halo.Central, Group: 0, Descendant: 3, Len: 150, Mvir: 15, Rvir: 0.12, Vvir: 140, Vmax: 150},
			{ID: 4, Snapshot: 2, Class: halo.Central, Group: 0, Descendant: -1, Len: 180, Mvir: 18, Rvir: 0.13, Vvir: 150, Vmax: 160},
		},
		BySnapshot: [][]int{{0, 1}, {2}, {3}},
		Groups: [][]halo.FOFGroup{
			{{Central: 0, Members: []int{0}}, {Central: 1, Members: []int{1}}},
			{{Central: 2, Members: []int{2}}},
			{{Central: 3, Members: []int{3}}},
		},
		Redshifts: []float64{2.0, 1.0, 0.0},
		Times:     []float64{3.3, 5.9, 13.8},
	}
}
