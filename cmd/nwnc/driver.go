package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/renameio"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/nwncomm/nwnc/internal/compiler"
	"github.com/nwncomm/nwnc/internal/diag"
	"github.com/nwncomm/nwnc/internal/keybif"
	"github.com/nwncomm/nwnc/internal/ncs"
	"github.com/nwncomm/nwnc/internal/resource"
)

// baseKeyFiles returns the base-game KEY/BIF provider for installDir's
// conventional "data/chitin.key" (spec §4.4 step 6, "register key-file
// providers"), or nil if installDir is empty or carries no such file: the
// base game's key-indexed resources are optional, not a load failure.
func baseKeyFiles(installDir string) []resource.Provider {
	if installDir == "" {
		return nil
	}
	keyPath := filepath.Join(installDir, "data", "chitin.key")
	if _, err := os.Stat(keyPath); err != nil {
		return nil
	}
	r, err := keybif.Open(keyPath, filepath.Join(installDir, "data"))
	if err != nil {
		return nil
	}
	return []resource.Provider{r}
}

// Compiler is the C8 external compiler this driver delegates actual
// NWScript compilation to. It is nil unless a build of this command links
// one in (e.g. via an init() in another file of this package, or a
// downstream fork) — spec §1 explicitly excludes the NWScript grammar,
// VM instruction set, and code generation from this module's scope, so
// nwnc by itself is the resource-aware plumbing around a Compiler, not a
// Compiler.
var Compiler compiler.Compiler

// Analyzer is the optional C9 bytecode analyzer `-a` hands verification
// off to; nil disables `-a` with a reportable error rather than silently
// skipping it.
var Analyzer ncs.Analyzer

// inputJob is one resolved input file and the output paths it writes to,
// computed once during input expansion so batch-mode can run file reads
// concurrently ahead of the strictly sequential compile loop.
type inputJob struct {
	sourcePath string
	outputBase string // without extension
}

// resolveInputs expands each argument as a wildcard against the native
// filesystem (spec §6: "Wildcards expand against the native filesystem,
// not the resource system") and computes each match's output base name:
// the batch directory plus the stem in batch mode, or the input's own
// directory plus stem otherwise.
func resolveInputs(args []string, batchDir string) ([]inputJob, error) {
	var jobs []inputJob
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, xerrors.Errorf("nwnc: bad input pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern} // let the open-and-read below report "not found"
		}
		for _, m := range matches {
			stem := strings.TrimSuffix(filepath.Base(m), filepath.Ext(m))
			base := stem
			if batchDir != "" {
				base = filepath.Join(batchDir, stem)
			} else {
				base = filepath.Join(filepath.Dir(m), stem)
			}
			jobs = append(jobs, inputJob{sourcePath: m, outputBase: base})
		}
	}
	return jobs, nil
}

// loadedJob pairs an inputJob with its source bytes, read ahead of the
// sequential compile loop.
type loadedJob struct {
	inputJob
	source []byte
}

// readInput loads one job's source, trying the raw filesystem first and
// only then the resource system (spec §4.5), the same two-tier order
// resourceLoader already applies to #include resolution: a path that
// isn't a loose file on disk may still be a module/HAK/zip/KEY-BIF
// member addressable by resref, which is the whole point of compiling
// an input given by name against a loaded module (`-m`).
func readInput(mgr *resource.Manager, j inputJob) ([]byte, error) {
	b, err := os.ReadFile(j.sourcePath)
	if err == nil {
		return b, nil
	}
	if mgr == nil {
		return nil, xerrors.Errorf("nwnc: read %s: %w", j.sourcePath, err)
	}

	ext := strings.TrimPrefix(filepath.Ext(j.sourcePath), ".")
	typ, ok := typeOfExtension(strings.ToLower(ext))
	if !ok {
		return nil, xerrors.Errorf("nwnc: read %s: %w", j.sourcePath, err)
	}
	stem := strings.TrimSuffix(filepath.Base(j.sourcePath), filepath.Ext(j.sourcePath))
	name, nameErr := resource.NewName(stem)
	if nameErr != nil {
		return nil, xerrors.Errorf("nwnc: read %s: %w", j.sourcePath, err)
	}

	path, demandErr := mgr.Demand(name, typ)
	if demandErr != nil {
		return nil, xerrors.Errorf("nwnc: read %s: not found on disk (%v), and not in loaded resources: %w", j.sourcePath, err, demandErr)
	}
	defer mgr.Release(name, typ)

	b, err = os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("nwnc: read resolved resource %s: %w", path, err)
	}
	return b, nil
}

// readInputs reads every job's source concurrently (one goroutine per
// job under a golang.org/x/sync/errgroup, with no concurrency limit; the
// first read error is returned), since file reads are
// independent of one another; the compile loop itself stays strictly
// sequential per spec §5 ("one compilation... at a time").
func readInputs(ctx context.Context, mgr *resource.Manager, jobs []inputJob) ([]loadedJob, error) {
	out := make([]loadedJob, len(jobs))
	g, _ := errgroup.WithContext(ctx)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			b, err := readInput(mgr, j)
			if err != nil {
				return err
			}
			out[i] = loadedJob{inputJob: j, source: b}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// includeKey identifies which (name, type) a Load call demanded, so the
// matching Unload call (identified by the returned slice's backing array)
// knows what to release on the resource manager.
type includeKey struct {
	name resource.Name
	typ  resource.Type
}

// resourceLoader adapts the resource manager into a compiler.ResourceLoader
// for #include-style resolution (spec §4.5 "Resource callbacks"), tracing
// each resolution to sink when traceIncludes is set (`-j`). Load/Unload
// pairs are tracked by the loaded slice's first-byte pointer, since
// ResourceLoader's Unload receives only the bytes, not the resource key
// that produced them.
func resourceLoader(mgr *resource.Manager, sink diag.Sink, traceIncludes bool) *compiler.ResourceLoader {
	var mu sync.Mutex
	pending := make(map[*byte]includeKey)

	return &compiler.ResourceLoader{
		Load: func(resourceRef string, typ int) ([]byte, error) {
			name, err := resource.NewName(resourceRef)
			if err != nil {
				return nil, err
			}
			t := resource.Type(typ)
			path, err := mgr.Demand(name, t)
			if err != nil {
				return nil, err
			}
			if traceIncludes {
				sink.Printf("include resolved: %s -> %s", resourceRef, path)
			}
			b, err := os.ReadFile(path)
			if err != nil {
				mgr.Release(name, t)
				return nil, err
			}
			if len(b) > 0 {
				mu.Lock()
				pending[&b[0]] = includeKey{name: name, typ: t}
				mu.Unlock()
			}
			return b, nil
		},
		Unload: func(b []byte) {
			if len(b) == 0 {
				return
			}
			mu.Lock()
			k, ok := pending[&b[0]]
			delete(pending, &b[0])
			mu.Unlock()
			if ok {
				mgr.Release(k.name, k.typ)
			}
		},
	}
}

// compileOne runs one input through Compiler and writes its artefacts,
// per spec §4.5/§4.6. It returns false if the input produced a reportable
// failure (a Failure result, a verification ScriptError, or an I/O
// error), so the caller can decide whether `-y` means "keep going" or
// "stop at the first one."
func compileOne(ctx context.Context, cfg *config, job loadedJob, sink diag.Sink) bool {
	if Compiler == nil {
		sink.Errorf("no external compiler registered; nwnc only implements the resource-aware driver around one")
		return false
	}

	req := compiler.Request{
		ResourceRef:    strings.TrimSuffix(filepath.Base(job.sourcePath), filepath.Ext(job.sourcePath)),
		Source:         job.source,
		TargetVersion:  cfg.targetVersion,
		Optimize:       cfg.optimize,
		IgnoreIncludes: cfg.ignoreIncludes,
		Diagnostics:    func(text string) { sink.Printf("%s", text) },
		Flags:          cfg.compilerFlags(),
	}
	if !cfg.ignoreIncludes && cfg.mgr != nil {
		req.Resources = resourceLoader(cfg.mgr, sink, cfg.traceIncludes)
	}

	result, err := Compiler.Compile(ctx, req)
	if err != nil {
		sink.Errorf("compile: %v", err)
		return false
	}

	switch result.Code {
	case compiler.IncludeOnly:
		return true
	case compiler.Failure:
		sink.Errorf("compilation failed")
		return false
	}

	container := ncs.Write(&ncs.Container{Code: result.Bytecode})
	ncsPath := job.outputBase + ".ncs"
	if err := renameio.WriteFile(ncsPath, container, 0644); err != nil {
		sink.Errorf("write %s: %v", ncsPath, err)
		return false
	}

	if !cfg.suppressSymbols && len(result.Symbols) > 0 {
		ndbPath := job.outputBase + ".ndb"
		if err := renameio.WriteFile(ndbPath, result.Symbols, 0644); err != nil {
			sink.Errorf("write %s: %v", ndbPath, err)
			return false
		}
	}

	if cfg.verify {
		if Analyzer == nil {
			sink.Errorf("-a requested but no analyzer is registered")
			return false
		}
		if err := ncs.Verify(Analyzer, Compiler, container, result.Symbols); err != nil {
			sink.Errorf("verification: %v", err)
			return false
		}
	}

	return true
}

// compileAll drives the sequential per-input compile loop (spec §5: "one
// compilation operation active at a time"), stopping at the first failure
// unless `-y` was given.
func compileAll(ctx context.Context, cfg *config, jobs []loadedJob, sink diag.Sink) bool {
	ok := true
	for _, job := range jobs {
		if !compileOne(ctx, cfg, job, sink) {
			ok = false
			if !cfg.keepGoing {
				break
			}
		}
	}
	return ok
}
