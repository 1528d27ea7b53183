package elf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildImageDump lays out a minimal ELF64 dump: header, one program
// header, two section headers (null + .text) and a string table.
func buildImageDump() []byte {
	const (
		phOff  = 0x40
		strOff = 0x80
		shOff  = 0x90
		total  = shOff + 2*ELF64ShdrSize
	)

	b := make([]byte, total)
	le := binary.LittleEndian

	copy(b, []byte{0x7f, 'E', 'L', 'F', 2, 1, 1})
	le.PutUint16(b[0x10:], 2)    // ET_EXEC
	le.PutUint16(b[0x12:], 0x3e) // EM_X86_64
	le.PutUint32(b[0x14:], 1)
	le.PutUint64(b[0x20:], phOff)
	le.PutUint64(b[0x28:], shOff)
	le.PutUint16(b[0x34:], ELF64EhdrSize)
	le.PutUint16(b[0x36:], ELF64PhdrSize)
	le.PutUint16(b[0x38:], 1)
	le.PutUint16(b[0x3a:], ELF64ShdrSize)
	le.PutUint16(b[0x3c:], 2)
	le.PutUint16(b[0x3e:], 1) // shstrndx points at the .text entry's table

	// program header: PT_LOAD, R+X
	le.PutUint32(b[phOff:], 1)
	le.PutUint32(b[phOff+0x04:], PF_R|PF_X)
	le.PutUint64(b[phOff+0x08:], 0x1000)
	le.PutUint64(b[phOff+0x10:], 0x401000)
	le.PutUint64(b[phOff+0x20:], 0x200)
	le.PutUint64(b[phOff+0x28:], 0x200)

	copy(b[strOff:], "\x00.text\x00")

	// section header 1 doubles as the name string table
	sh := shOff + ELF64ShdrSize
	le.PutUint32(b[sh:], 1)
	le.PutUint64(b[sh+0x10:], 0x401000)
	le.PutUint64(b[sh+0x18:], strOff)
	le.PutUint64(b[sh+0x20:], 0x10)

	return b
}

func TestVerifyMagic(t *testing.T) {
	dump := buildImageDump()

	hdr, err := ParseHeader(dump)
	require.NoError(t, err)
	assert.NoError(t, hdr.VerifyMagic())

	dump[0] = 0x7e
	hdr, err = ParseHeader(dump)
	require.NoError(t, err)
	assert.ErrorIs(t, hdr.VerifyMagic(), InvalidMagicErr)
}

func TestParseHeader(t *testing.T) {
	hdr, err := ParseHeader(buildImageDump())
	require.NoError(t, err)

	assert.Equal(t, uint16(2), hdr.Type)
	assert.Equal(t, uint16(0x3e), hdr.Machine)
	assert.Equal(t, uint64(0x40), hdr.PhOff)
	assert.Equal(t, uint64(0x90), hdr.ShOff)
	assert.Equal(t, uint16(1), hdr.PhNum)
	assert.Equal(t, uint16(2), hdr.ShNum)
	assert.Equal(t, uint16(1), hdr.ShStrNdx)
}

func TestParseHeaderShort(t *testing.T) {
	_, err := ParseHeader(make([]byte, 32))
	assert.Error(t, err)
}

func TestGetClassRejectsELF32(t *testing.T) {
	dump := buildImageDump()
	dump[EI_CLASS] = 1

	hdr, err := ParseHeader(dump)
	require.NoError(t, err)

	_, err = hdr.GetClass()
	assert.Error(t, err)
}

func TestGetClassUnparsedHeader(t *testing.T) {
	var hdr ELF64Ehdr

	_, err := hdr.GetClass()
	assert.ErrorIs(t, err, UnparsedELFErr)

	_, err = hdr.GetEndianess()
	assert.ErrorIs(t, err, UnparsedELFErr)
}

func TestGetEndianessRejectsBigEndian(t *testing.T) {
	dump := buildImageDump()
	dump[EI_DATA] = 2

	hdr, err := ParseHeader(dump)
	require.NoError(t, err)

	_, err = hdr.GetEndianess()
	assert.Error(t, err)
}

func TestNewImageRejectsTruncatedTables(t *testing.T) {
	dump := buildImageDump()
	binary.LittleEndian.PutUint16(dump[0x3c:], 40) // shnum past EOF

	_, err := NewImage(dump)
	assert.ErrorIs(t, err, TruncatedErr)
}

func TestImageAccessors(t *testing.T) {
	img, err := NewImage(buildImageDump())
	require.NoError(t, err)

	assert.Equal(t, uint64(0x40), img.PhOff())
	assert.Equal(t, uint64(0x90), img.ShOff())
	assert.Equal(t, uint16(1), img.PhNum())
	assert.Equal(t, uint16(2), img.ShNum())

	prog := img.Prog(0)
	assert.Equal(t, uint32(PF_R|PF_X), prog.Flags())
	assert.Equal(t, uint64(0x1000), prog.Off())
	assert.Equal(t, uint64(0x401000), prog.Vaddr())
	assert.Equal(t, uint64(0x200), prog.FileSz())
	assert.Equal(t, uint64(0x200), prog.MemSz())

	section := img.Section(1)
	assert.Equal(t, uint64(0x401000), section.Addr())
	assert.Equal(t, uint64(0x80), section.Off())
	assert.Equal(t, uint64(0x10), section.Size())
}

func TestImageWritesMutateBuffer(t *testing.T) {
	img, err := NewImage(buildImageDump())
	require.NoError(t, err)

	section := img.Section(1)
	section.SetOff(0x2000)
	section.SetSize(0x3000)
	assert.Equal(t, uint64(0x2000), img.Section(1).Off())
	assert.Equal(t, uint64(0x3000), img.Section(1).Size())

	prog := img.Prog(0)
	prog.SetOff(0x4000)
	prog.SetFileSz(0x5000)
	prog.SetMemSz(0x6000)
	assert.Equal(t, uint64(0x4000), img.Prog(0).Off())
	assert.Equal(t, uint64(0x5000), img.Prog(0).FileSz())
	assert.Equal(t, uint64(0x6000), img.Prog(0).MemSz())

	img.SetShOff(0x7000)
	img.SetPhOff(0x8000)
	assert.Equal(t, uint64(0x7000), binary.LittleEndian.Uint64(img.Data[0x28:]))
	assert.Equal(t, uint64(0x8000), binary.LittleEndian.Uint64(img.Data[0x20:]))
}

func TestSectionName(t *testing.T) {
	img, err := NewImage(buildImageDump())
	require.NoError(t, err)

	assert.Equal(t, ".text", img.SectionName(1))
	assert.Equal(t, "", img.SectionName(0))
}
