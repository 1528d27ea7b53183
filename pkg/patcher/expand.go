package patcher

import (
	"github.com/Ethan-Gao/drow/pkg/elf"
	"github.com/Ethan-Gao/drow/pkg/log"
)

// PatchInfo fixes the splice point once the layout has been expanded.
// Base is the file offset of the first byte pushed forward; Size is the
// room reserved for the payload plus padding, always one page.
type PatchInfo struct {
	Base uint64
	Size uint64
}

// ExpandSection grows the target section by its slack and shifts every
// header field that lands at or past the patch boundary by one page.
// The file is treated as two regions split at Base: nothing before it
// moves, everything at or after it is pushed forward, and the
// executable segment absorbs the new bytes as growth rather than shift.
func ExpandSection(img *elf.Image, sinfo *SectionInfo) *PatchInfo {
	target := img.Section(sinfo.Ndx)
	size := target.Size()

	pinfo := &PatchInfo{
		Base: target.Off() + size,
		Size: sinfo.Slack,
	}

	log.Statusf("Expanding %s size by %d bytes...", sinfo.Name, sinfo.Slack)
	target.SetSize(size + sinfo.Slack)
	adjust := sinfo.Slack

	log.Statusf("Adjusting section header offsets...")
	for i := 0; i < int(img.ShNum()); i++ {
		section := img.Section(i)
		// A section starting exactly at the boundary sits in the tail
		// and must move past the inserted page.
		if section.Off() < pinfo.Base {
			continue
		}

		section.SetOff(section.Off() + adjust)
	}

	log.Statusf("Adjusting program header offsets...")
	for i := 0; i < int(img.PhNum()); i++ {
		prog := img.Prog(i)
		if prog.Off() > pinfo.Base {
			prog.SetOff(prog.Off() + adjust)
		}

		if prog.Flags()&elf.PF_X != 0 {
			prog.SetFileSz(prog.FileSz() + adjust)
			prog.SetMemSz(prog.MemSz() + adjust)
		}
	}

	log.Statusf("Adjusting ELF header offsets...")
	if img.ShOff() > pinfo.Base {
		img.SetShOff(img.ShOff() + adjust)
	}

	if img.PhOff() > pinfo.Base {
		img.SetPhOff(img.PhOff() + adjust)
	}

	return pinfo
}
