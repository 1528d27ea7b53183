package patcher

import (
	"github.com/Ethan-Gao/drow/pkg/elf"
	"github.com/Ethan-Gao/drow/pkg/log"
)

type Options struct {
	ElfPath     string
	PayloadPath string
	OutPath     string
}

// Patch runs the full pipeline: load, locate the injectable section,
// expand the layout in place, export the spliced image.
func Patch(opts Options) error {
	img, err := elf.Load(opts.ElfPath)
	if err != nil {
		return err
	}
	defer img.Close()

	payload, err := LoadPayload(opts.PayloadPath)
	if err != nil {
		return err
	}
	defer payload.Close()

	sinfo, err := FindInjectable(img)
	if err != nil {
		return err
	}

	log.Successf("Found injectable section: %s", sinfo.Name)
	log.Debugf("Injectable section descriptor %+v", sinfo)

	pinfo := ExpandSection(img, sinfo)

	return Export(img, payload, opts.OutPath, pinfo)
}
