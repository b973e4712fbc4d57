package cmd

import (
	"fmt"

	"github.com/nholloway/viewmill/core/cache"
	"github.com/nholloway/viewmill/core/compiler"
	"github.com/nholloway/viewmill/core/config"
	"github.com/nholloway/viewmill/core/logger"
	"github.com/nholloway/viewmill/core/models"
	"github.com/nholloway/viewmill/core/vfs"
)

// setupApp wires the file provider, compiler, and cache from config. Views
// listed under views.precompiled are compiled here, once, and pinned: the
// cache serves them forever without watching their files. A broken
// precompiled view is a startup error, not a request-time one.
func setupApp() (*config.Config, *cache.CompilerCache, *compiler.ViewCompiler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	provider := vfs.NewOS(cfg.Views.Root)
	vc := compiler.NewViewCompiler(provider, cfg.Views.ImportFile)

	pinned := make(map[string]*models.Artifact, len(cfg.Views.Precompiled))
	for _, view := range cfg.Views.Precompiled {
		desc, err := provider.Stat(view)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("precompiled view %s: %w", view, err)
		}
		artifact, err := vc.Compile(desc)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("precompiled view %s: %w", view, err)
		}
		pinned[view] = artifact
	}

	set, err := cache.NewPrecompiledSet(pinned)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid precompiled set: %w", err)
	}
	if set.Len() > 0 {
		logger.Info("Pinned %d precompiled views", set.Len())
	}

	cacheConfig := cache.DefaultConfig()
	cacheConfig.ImportFileName = cfg.Views.ImportFile

	return cfg, cache.New(provider, set, cacheConfig), vc, nil
}
