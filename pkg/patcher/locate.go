package patcher

import (
	"errors"
	"os"

	"github.com/Ethan-Gao/drow/pkg/elf"
	"github.com/Ethan-Gao/drow/pkg/log"
)

var NoInjectableErr = errors.New("No section ends at an executable segment boundary.")

// SectionInfo identifies the section chosen for expansion. It carries
// the section's table index rather than references into the image so
// that later mutation goes back through the accessor.
type SectionInfo struct {
	Name  string
	Ndx   int
	Slack uint64
}

// FindInjectable scans for the section whose end coincides with the end
// of an executable segment's virtual address range. The scan covers the
// whole of both tables; when several sections qualify the last match
// wins, with a warning each time an earlier candidate is displaced.
func FindInjectable(img *elf.Image) (*SectionInfo, error) {
	var found *SectionInfo

	for i := 0; i < int(img.PhNum()); i++ {
		prog := img.Prog(i)
		if prog.Flags()&elf.PF_X == 0 {
			continue
		}

		log.Successf("Found executable segment at 0x%08x (size:%08x)", prog.Off(), prog.MemSz())
		segmentEnd := prog.Vaddr() + prog.MemSz()

		for j := 0; j < int(img.ShNum()); j++ {
			section := img.Section(j)
			if section.Addr()+section.Size() != segmentEnd {
				continue
			}

			name := img.SectionName(j)
			if found != nil {
				log.Warnf("Multiple injectable sections, replacing %s with %s", found.Name, name)
			}

			found = &SectionInfo{
				Name:  name,
				Ndx:   j,
				Slack: uint64(os.Getpagesize()),
			}
		}
	}

	if found == nil {
		return nil, NoInjectableErr
	}

	return found, nil
}
