package app

import (
	"github.com/vk/lpjcfg/internal/registry"
	"github.com/vk/lpjcfg/modules/inputs"
	"github.com/vk/lpjcfg/modules/options"
	"github.com/vk/lpjcfg/modules/outputs"
	"github.com/vk/lpjcfg/modules/pftpar"
	"github.com/vk/lpjcfg/modules/runcontrol"
	"github.com/vk/lpjcfg/modules/structure"
)

// coreModules is the definitive list of all check modules that are compiled
// into the lpjcfg binary, in the order their findings are reported.
var coreModules = []registry.Module{
	&structure.Module{},
	&outputs.Module{},
	&inputs.Module{},
	&pftpar.Module{},
	&runcontrol.Module{},
	&options.Module{},
}
