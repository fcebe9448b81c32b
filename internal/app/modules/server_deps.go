package modules

import (
	"archive.alpha.io/archive/internal/api/handlers"
	"archive.alpha.io/archive/internal/jobs"
)

// NewServerDeps builds base server deps then lets each module contribute explicit wiring.
func NewServerDeps(infra *Infrastructure, mods []Module) handlers.ServerDeps {
	deps := handlers.ServerDeps{}
	if infra != nil {
		if infra.Events != nil {
			deps.Events = infra.Events
		}
		if infra.DB != nil {
			deps.DB = infra.DB
		}
		if infra.RiverClient != nil {
			deps.Enqueuer = jobs.NewIngestEnqueuer(infra.RiverClient)
		}
	}
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		contributor, ok := mod.(ServerDepsContributor)
		if !ok {
			continue
		}
		contributor.ContributeServerDeps(&deps)
	}
	return deps
}
