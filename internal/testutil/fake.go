// Package testutil provides configurable fake physics modules and tree
// fixtures shared by the package tests.
package testutil

import (
	"context"
	"fmt"

	"github.com/vk/galaxevo/internal/halo"
	"github.com/vk/galaxevo/internal/module"
)

// Call records one entry-point invocation on a FakeModule.
type Call struct {
	Phase  module.Phase
	Galaxy int
	Step   int
}

// FakeModule is a fully scriptable module for registry, pipeline and engine
// tests. Its descriptor is set directly; every declared phase is satisfied
// by the embedded entry points, which record calls and optionally fail.
type FakeModule struct {
	Desc module.Descriptor

	InitErr     error
	ShutdownErr error
	PhaseErr    error

	Initialized bool
	Shutdowns   int
	Calls       []Call

	// OnInit, when set, runs inside Init after the bookkeeping.
	OnInit func(ctx context.Context, host *module.Host) error
	// OnPhase, when set, runs inside every phase entry point.
	OnPhase func(ctx context.Context, sc *module.StepContext, phase module.Phase) error
}

// NewFake builds a fake with the given name, category and phase support.
func NewFake(name string, cat module.Category, phases module.Phase, requires ...string) *FakeModule {
	return &FakeModule{
		Desc: module.Descriptor{
			Name:     name,
			Version:  "0.0.0-test",
			Author:   "testutil",
			Category: cat,
			Phases:   phases,
			Requires: requires,
		},
	}
}

// WithOptional adds optional dependencies and returns the fake for chaining.
func (f *FakeModule) WithOptional(names ...string) *FakeModule {
	f.Desc.Optional = append(f.Desc.Optional, names...)
	return f
}

func (f *FakeModule) Descriptor() module.Descriptor { return f.Desc }

func (f *FakeModule) Init(ctx context.Context, host *module.Host) error {
	if f.InitErr != nil {
		return f.InitErr
	}
	f.Initialized = true
	if f.OnInit != nil {
		return f.OnInit(ctx, host)
	}
	return nil
}

func (f *FakeModule) Shutdown(ctx context.Context) error {
	f.Shutdowns++
	f.Initialized = false
	return f.ShutdownErr
}

func (f *FakeModule) record(ctx context.Context, sc *module.StepContext, phase module.Phase) error {
	gi := -1
	step := 0
	if sc != nil {
		gi = sc.GalaxyIndex
		step = sc.Step
	}
	f.Calls = append(f.Calls, Call{Phase: phase, Galaxy: gi, Step: step})
	if f.PhaseErr != nil {
		return fmt.Errorf("%s: %w", f.Desc.Name, f.PhaseErr)
	}
	if f.OnPhase != nil {
		return f.OnPhase(ctx, sc, phase)
	}
	return nil
}

func (f *FakeModule) EvolveHalo(ctx context.Context, sc *module.StepContext) error {
	return f.record(ctx, sc, module.PhaseHalo)
}

func (f *FakeModule) EvolveGalaxy(ctx context.Context, sc *module.StepContext, gi int) error {
	return f.record(ctx, sc, module.PhaseGalaxy)
}

func (f *FakeModule) FinishStep(ctx context.Context, sc *module.StepContext) error {
	return f.record(ctx, sc, module.PhasePost)
}

func (f *FakeModule) FinishGroup(ctx context.Context, sc *module.StepContext) error {
	return f.record(ctx, sc, module.PhaseFinal)
}

// PhaseNames flattens recorded calls to "phase" strings, convenient for
// order assertions.
func (f *FakeModule) PhaseNames() []string {
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.Phase.String()
	}
	return out
}

// HalfBoundModule declares phases but implements none of their entry
// points; the registry must reject it.
type HalfBoundModule struct {
	Name   string
	Phases module.Phase
}

func (h *HalfBoundModule) Descriptor() module.Descriptor {
	return module.Descriptor{Name: h.Name, Category: "broken", Phases: h.Phases}
}

func (h *HalfBoundModule) Init(context.Context, *module.Host) error { return nil }
func (h *HalfBoundModule) Shutdown(context.Context) error           { return nil }

// TwoSnapshotTree builds a small valid tree: one FOF group whose central
// halo persists across two snapshots, with a satellite merging in.
func TwoSnapshotTree() *halo.Tree {
	return &halo.Tree{
		Index: 7,
		Halos: []halo.Halo{
			{ID: 10, Snapshot: 0, Class: halo.Central, Group: 0, Descendant: 2, Len: 80, Mvir: 8, Rvir: 0.1, Vvir: 110, Vmax: 115},
			{ID: 11, Snapshot: 0, Class: halo.Satellite, Group: 0, Descendant: 2, Len: 10, Mvir: 0.2, Rvir: 0.02, Vvir: 40, Vmax: 45},
			{ID: 12, Snapshot: 1, Class: halo.Central, Group: 0, Descendant: -1, Len: 95, Mvir: 9, Rvir: 0.11, Vvir: 115, Vmax: 120},
		},
		BySnapshot: [][]int{{0, 1}, {2}},
		Groups: [][]halo.FOFGroup{
			{{Central: 0, Members: []int{0, 1}}},
			{{Central: 2, Members: []int{2}}},
		},
		Redshifts: []float64{1.0, 0.0},
		Times:     []float64{5.9, 13.8},
	}
}
