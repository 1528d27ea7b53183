package elf

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/Ethan-Gao/drow/pkg/helpers"
	"github.com/Ethan-Gao/drow/pkg/log"
	"golang.org/x/sys/unix"
)

// Image owns a mutable ELF byte buffer. All header accessors read and
// write the buffer in place as native-width little-endian fields; there
// is no separate commit step.
type Image struct {
	Data []byte

	mapped bool
}

// NewImage wraps an in-memory ELF dump. The identification bytes and
// both header table extents are validated up front so that a malformed
// input fails here instead of faulting mid-pipeline.
func NewImage(data []byte) (*Image, error) {
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	if err := hdr.VerifyMagic(); err != nil {
		return nil, err
	}

	if _, err := hdr.GetClass(); err != nil {
		return nil, err
	}

	if _, err := hdr.GetEndianess(); err != nil {
		return nil, err
	}

	shEnd := hdr.ShOff + uint64(hdr.ShNum)*ELF64ShdrSize
	phEnd := hdr.PhOff + uint64(hdr.PhNum)*ELF64PhdrSize
	if shEnd > uint64(len(data)) || phEnd > uint64(len(data)) {
		return nil, TruncatedErr
	}

	return &Image{Data: data}, nil
}

// Load maps an ELF file read-write. The mapping is private, so the
// in-place header rewrites never touch the input file.
func Load(elfPath string) (*Image, error) {
	log.Statusf("Loading ELF file: %s", elfPath)

	file, err := os.Open(elfPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", elfPath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", elfPath, err)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", elfPath, err)
	}

	img, err := NewImage(data)
	if err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("%s: %w", elfPath, err)
	}

	img.mapped = true
	return img, nil
}

func (img *Image) Close() error {
	if !img.mapped {
		return nil
	}

	img.mapped = false
	data := img.Data
	img.Data = nil
	return unix.Munmap(data)
}

func (img *Image) u16(off uint64) uint16 {
	return binary.LittleEndian.Uint16(img.Data[off : off+2])
}

func (img *Image) u32(off uint64) uint32 {
	return binary.LittleEndian.Uint32(img.Data[off : off+4])
}

func (img *Image) u64(off uint64) uint64 {
	return binary.LittleEndian.Uint64(img.Data[off : off+8])
}

func (img *Image) putU64(off uint64, v uint64) {
	binary.LittleEndian.PutUint64(img.Data[off:off+8], v)
}

func (img *Image) PhOff() uint64     { return img.u64(0x20) }
func (img *Image) SetPhOff(v uint64) { img.putU64(0x20, v) }
func (img *Image) ShOff() uint64     { return img.u64(0x28) }
func (img *Image) SetShOff(v uint64) { img.putU64(0x28, v) }
func (img *Image) PhNum() uint16     { return img.u16(0x38) }
func (img *Image) ShNum() uint16     { return img.u16(0x3c) }
func (img *Image) ShStrNdx() uint16  { return img.u16(0x3e) }

// Section is a view over one section header table entry.
type Section struct {
	img  *Image
	base uint64
}

func (img *Image) Section(ndx int) Section {
	return Section{img, img.ShOff() + uint64(ndx)*ELF64ShdrSize}
}

func (s Section) NameOff() uint32  { return s.img.u32(s.base) }
func (s Section) Addr() uint64     { return s.img.u64(s.base + 0x10) }
func (s Section) Off() uint64      { return s.img.u64(s.base + 0x18) }
func (s Section) SetOff(v uint64)  { s.img.putU64(s.base+0x18, v) }
func (s Section) Size() uint64     { return s.img.u64(s.base + 0x20) }
func (s Section) SetSize(v uint64) { s.img.putU64(s.base+0x20, v) }

// Prog is a view over one program header table entry.
type Prog struct {
	img  *Image
	base uint64
}

func (img *Image) Prog(ndx int) Prog {
	return Prog{img, img.PhOff() + uint64(ndx)*ELF64PhdrSize}
}

func (p Prog) Flags() uint32      { return p.img.u32(p.base + 0x04) }
func (p Prog) Off() uint64        { return p.img.u64(p.base + 0x08) }
func (p Prog) SetOff(v uint64)    { p.img.putU64(p.base+0x08, v) }
func (p Prog) Vaddr() uint64      { return p.img.u64(p.base + 0x10) }
func (p Prog) FileSz() uint64     { return p.img.u64(p.base + 0x20) }
func (p Prog) SetFileSz(v uint64) { p.img.putU64(p.base+0x20, v) }
func (p Prog) MemSz() uint64      { return p.img.u64(p.base + 0x28) }
func (p Prog) SetMemSz(v uint64)  { p.img.putU64(p.base+0x28, v) }

// SectionName resolves a section's name through the section name string
// table.
func (img *Image) SectionName(ndx int) string {
	strtab := img.Section(int(img.ShStrNdx()))
	nameOff := strtab.Off() + uint64(img.Section(ndx).NameOff())
	if nameOff >= uint64(len(img.Data)) {
		return ""
	}

	return helpers.GetString(img.Data[nameOff:])
}
