package app

import (
	"github.com/vk/galaxevo/internal/module"
	"github.com/vk/galaxevo/internal/pipeline"
	"github.com/vk/galaxevo/modules/cooling"
	"github.com/vk/galaxevo/modules/finalize"
	"github.com/vk/galaxevo/modules/infall"
	"github.com/vk/galaxevo/modules/mergers"
	"github.com/vk/galaxevo/modules/starform"
)

// CoreModules enumerates the built-in physics modules. Registration happens
// explicitly here, never through import side effects, so the order is
// deterministic and testable.
func CoreModules() []module.Module {
	return []module.Module{
		infall.New(),
		cooling.New(),
		starform.New(),
		mergers.New(),
		finalize.New(),
	}
}

// defaultPipeline is the standard step layout used when the run description
// declares none. Steps reference categories, so swapping an implementation
// requires no pipeline change.
func defaultPipeline() *pipeline.Pipeline {
	p := pipeline.New()
	p.Append(infall.Category, "", false)
	p.Append(cooling.Category, "", false)
	p.Append(starform.Category, "", false)
	p.Append(mergers.Category, "", true)
	p.Append(finalize.Category, "", false)
	return p
}
