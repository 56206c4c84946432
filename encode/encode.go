// Package encode is the Encoder (C5): it orchestrates the five-phase
// pipeline of §4.5 — Discovery, Semantic Lifting, Structural Reorganization,
// Artifact Grounding, Dependency Injection — over a repository path,
// grounded on the teacher's analyzer.AnalyzeDir walk-then-build shape,
// generalized from a single-language walk into the full multi-phase
// pipeline this component requires.
package encode

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/viant/afs"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/config"
	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/ground"
	"github.com/viant/rpgraph/inject"
	"github.com/viant/rpgraph/internal/rlog"
	"github.com/viant/rpgraph/llm"
	"github.com/viant/rpgraph/reorg"
	"github.com/viant/rpgraph/rpg"
	"github.com/viant/rpgraph/rpgerr"
	"github.com/viant/rpgraph/semantic"
)

// Result is the Encoder's public return value (§4.5).
type Result struct {
	RPG               *rpg.RPG
	FilesProcessed    int
	EntitiesExtracted int
	Duration          time.Duration
}

// Encoder runs a full encode() over RootPath into Store.
type Encoder struct {
	RootPath    string
	GraphConfig graph.Config
	Config      config.Encoder
	Store       graph.Store
	FS          afs.Service
	Factory     *ast.Factory
	Extractor   *semantic.Extractor
	// Backend is the LLM backend Structural Reorganization requires; nil
	// makes phase 3 a fatal configuration error (§4.5 step 3).
	Backend  llm.Backend
	Embedder llm.EmbeddingBackend
	// MaxWorkers bounds Phase 1's file-level concurrency (§5); defaults to 8.
	MaxWorkers int
}

// New returns an Encoder over rootPath with reasonable defaults; callers
// still must set Backend for LLM-mode structural reorganization.
func New(rootPath string, store graph.Store) *Encoder {
	return &Encoder{
		RootPath:    rootPath,
		GraphConfig: graph.Config{Name: path.Base(rootPath), RootPath: rootPath},
		Config:      config.DefaultEncoder(),
		Store:       store,
		FS:          afs.New(),
		Factory:     ast.NewFactory(),
		Extractor:   semantic.New(nil, nil),
		MaxWorkers:  8,
	}
}

// liftResult is one file's Phase 1 output, threaded into the dependency
// injector after Phase 1 persistence completes.
type liftResult struct {
	parsed   inject.ParsedFile
	entities int
}

// Encode runs the full five-phase pipeline (§4.5).
func (e *Encoder) Encode(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := rlog.Named("encode")

	facade := rpg.New(e.Store, e.GraphConfig)

	// Phase 1: Discovery.
	files, err := discover(ctx, e.FS, e.RootPath, e.Config.Include, e.Config.Exclude, e.Config.MaxDepth)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return &Result{RPG: facade, Duration: time.Since(start)}, nil
	}

	// Phase 1 (cont'd): Semantic Lifting, bounded-parallel per file, all
	// writes persisted before Phase 2 runs (§4.5).
	lifted, entityCount, err := e.liftFiles(ctx, facade, files)
	if err != nil {
		return nil, err
	}
	log.Info("semantic lifting complete", "files", len(files), "entities", entityCount)

	// Phase 3: Structural Reorganization — fatal without an LLM backend.
	if e.Backend == nil {
		return nil, rpgerr.Config("structural reorganization requires an LLM backend; configure Encoder.Backend before encoding")
	}
	if err := reorg.New(facade, e.Backend).Run(ctx); err != nil {
		return nil, err
	}

	// Phase 4: Artifact Grounding.
	if err := ground.New(e.Store).Ground(ctx); err != nil {
		return nil, err
	}

	// Phase 5: Dependency Injection.
	parsedFiles := make([]inject.ParsedFile, 0, len(lifted))
	for _, l := range lifted {
		parsedFiles = append(parsedFiles, l.parsed)
	}
	injector := inject.New(facade, e.Factory)
	if modulePath, ok := inject.LoadGoModulePath(ctx, e.FS, e.RootPath); ok {
		injector.GoModulePath = modulePath
	}
	if err := injector.Run(ctx, parsedFiles); err != nil {
		return nil, err
	}

	return &Result{
		RPG:               facade,
		FilesProcessed:    len(files),
		EntitiesExtracted: entityCount,
		Duration:          time.Since(start),
	}, nil
}

// liftFiles implements Phase 1's parse+extract+persist step over a bounded
// worker pool (§5: "Phase 1 may parse and extract features for multiple
// files concurrently up to a bounded worker pool"), the ants-backed
// concurrency shape wired in from the domain stack.
func (e *Encoder) liftFiles(ctx context.Context, facade *rpg.RPG, files []string) ([]liftResult, int, error) {
	workers := e.MaxWorkers
	if workers <= 0 {
		workers = 8
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, 0, rpgerr.Config("create worker pool: %v", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  []liftResult
		entCount int
		firstErr error
	)
	for _, f := range files {
		f := f
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			result, n, err := e.liftFile(ctx, facade, f)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			if result != nil {
				results = append(results, *result)
				entCount += n
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = rpgerr.Config("submit lift task: %v", submitErr)
			}
			mu.Unlock()
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, 0, firstErr
	}
	return results, entCount, nil
}

func (e *Encoder) liftFile(ctx context.Context, facade *rpg.RPG, relPath string) (*liftResult, int, error) {
	lang, ok := ast.DetectLanguage(relPath)
	if !ok {
		return nil, 0, nil
	}
	parser, ok := e.Factory.Get(lang)
	if !ok {
		return nil, 0, nil
	}

	absPath := path.Join(e.RootPath, relPath)
	source, err := e.FS.DownloadWithURL(ctx, absPath)
	if err != nil {
		return nil, 0, rpgerr.Store(err, "read "+relPath)
	}

	result := parser.Parse(source, relPath)
	codeEntities := FilterNodeEntities(result.Entities)

	features, err := e.Extractor.ExtractBatch(ctx, relPath, codeEntities)
	if err != nil {
		return nil, 0, err
	}

	var directFeatures []graph.SemanticFeature
	for i, en := range codeEntities {
		if en.Parent == "" {
			directFeatures = append(directFeatures, features[i])
		}
	}
	fileFeature := e.Extractor.AggregateFileFeatures(directFeatures, path.Base(relPath), relPath)

	fileID := relPath + ":file"
	if _, err := facade.AddLowLevelNode(ctx, rpg.LowLevelArgs{
		ID:       fileID,
		Feature:  fileFeature,
		Metadata: fileMetadata(relPath, lang),
	}); err != nil {
		return nil, 0, err
	}

	for i, en := range codeEntities {
		id := entityNodeID(relPath, en)
		var src string
		if e.Config.IncludeSource {
			src = en.Body
		}
		if _, err := facade.AddLowLevelNode(ctx, rpg.LowLevelArgs{
			ID:         id,
			Feature:    features[i],
			Metadata:   entityMetadata(relPath, lang, en),
			SourceCode: src,
		}); err != nil {
			return nil, 0, err
		}
		if err := facade.AddFunctionalEdge(ctx, rpg.FunctionalEdgeArgs{Source: fileID, Target: id}); err != nil {
			return nil, 0, err
		}
	}

	return &liftResult{
		parsed: inject.ParsedFile{
			Path: relPath, Language: lang, Source: source,
			Entities: codeEntities, Imports: result.Imports,
		},
		entities: len(codeEntities),
	}, len(codeEntities), nil
}

// FilterNodeEntities keeps only the entity kinds that become LowLevel nodes
// (function/class/method); variable and import entities feed the symbol
// table elsewhere but never get a node of their own (§4.1, §4.5 step 2).
// Exported so Evolution (C9) can apply the same filter when diffing
// revisions outside a full encode() run.
func FilterNodeEntities(entities []ast.CodeEntity) []ast.CodeEntity {
	out := make([]ast.CodeEntity, 0, len(entities))
	for _, e := range entities {
		switch e.Kind {
		case ast.KindFunction, ast.KindClass, ast.KindMethod:
			out = append(out, e)
		}
	}
	return out
}
