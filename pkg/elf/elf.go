package elf

import (
	"encoding/binary"
	"errors"
	"reflect"
)

/*
   The following structures and constants are documented by https://www.uclibc.org/docs/elf-64-gen.pdf
*/

type ELF64Ehdr struct {
	Ident     [16]byte // ELF identification
	Type      uint16   // Object file type
	Machine   uint16   // Machine type
	Version   uint32   // Object file version
	Entry     uint64   // Entry point address
	PhOff     uint64   // Program Header offset
	ShOff     uint64   // Section Header offset
	Flags     uint32   // Processor specific flags
	EhSize    uint16   // ELF Header size
	PhEntSize uint16   // Size of Program Header
	PhNum     uint16   // Number of program header entries
	ShEntSize uint16   // Size of the Section Header entry
	ShNum     uint16   // Number of Section Header entries
	ShStrNdx  uint16   // Section name String Table index
}

const (
	EI_MAG0       = 0
	EI_MAG1       = 1
	EI_MAG2       = 2
	EI_MAG3       = 3
	EI_CLASS      = 4
	EI_DATA       = 5
	EI_VERSION    = 6
	EI_OSABI      = 7
	EI_ABIVERSION = 8
	EI_PAD        = 9
	EI_NIDENT     = 16
)

const (
	ELFCLASS32 uint32 = 1
	ELFCLASS64        = 2
)

const (
	ELFDATA2LSB uint32 = 1
	ELFDATA2MSB        = 2
)

// Segment permission flags
const (
	PF_X        = 0x1
	PF_W        = 0x2
	PF_R        = 0x4
	PF_MASKOS   = 0x00FF0000
	PF_MASKPROC = 0xFF000000
)

// On-disk sizes of the fixed-stride header table entries
const (
	ELF64EhdrSize = 64
	ELF64ShdrSize = 64
	ELF64PhdrSize = 56
)

var (
	InvalidMagicErr = errors.New("Invalid magic in ELF file.")
	UnparsedELFErr  = errors.New("ELF header was not parsed.")
	TruncatedErr    = errors.New("ELF header tables fall outside the file.")
)

func (elf64Ehdr *ELF64Ehdr) VerifyMagic() error {
	if !reflect.DeepEqual(elf64Ehdr.Ident[EI_MAG0:EI_CLASS], []byte{'\x7f', 'E', 'L', 'F'}) {
		return InvalidMagicErr
	}

	return nil
}

func ParseHeader(elfDump []byte) (ELF64Ehdr, error) {
	if len(elfDump) < ELF64EhdrSize {
		return ELF64Ehdr{}, errors.New("ELF Header size is bigger than the data provided")
	}

	elf64Ehdr := ELF64Ehdr{
		Type:      binary.LittleEndian.Uint16(elfDump[0x10:0x12]),
		Machine:   binary.LittleEndian.Uint16(elfDump[0x12:0x14]),
		Version:   binary.LittleEndian.Uint32(elfDump[0x14:0x18]),
		Entry:     binary.LittleEndian.Uint64(elfDump[0x18:0x20]),
		PhOff:     binary.LittleEndian.Uint64(elfDump[0x20:0x28]),
		ShOff:     binary.LittleEndian.Uint64(elfDump[0x28:0x30]),
		Flags:     binary.LittleEndian.Uint32(elfDump[0x30:0x34]),
		EhSize:    binary.LittleEndian.Uint16(elfDump[0x34:0x36]),
		PhEntSize: binary.LittleEndian.Uint16(elfDump[0x36:0x38]),
		PhNum:     binary.LittleEndian.Uint16(elfDump[0x38:0x3a]),
		ShEntSize: binary.LittleEndian.Uint16(elfDump[0x3a:0x3c]),
		ShNum:     binary.LittleEndian.Uint16(elfDump[0x3c:0x3e]),
		ShStrNdx:  binary.LittleEndian.Uint16(elfDump[0x3e:0x40]),
	}

	copy(elf64Ehdr.Ident[:], elfDump[0:16])

	return elf64Ehdr, nil
}

func (elf64Ehdr *ELF64Ehdr) checkParsed() error {
	if elf64Ehdr.Ident == [EI_NIDENT]byte{} {
		return UnparsedELFErr
	}

	return nil
}

func (elf64Ehdr *ELF64Ehdr) GetClass() (uint32, error) {
	if err := elf64Ehdr.checkParsed(); err != nil {
		return 0, err
	}

	if elf64Ehdr.Ident[EI_CLASS] == 1 {
		return 0, errors.New("ELF32 is not supported.")
	}

	return ELFCLASS64, nil
}

func (elf64Ehdr *ELF64Ehdr) GetEndianess() (uint32, error) {
	if err := elf64Ehdr.checkParsed(); err != nil {
		return 0, err
	}

	if elf64Ehdr.Ident[EI_DATA] == 2 {
		return 0, errors.New("Big endianess not supported")
	}

	return ELFDATA2LSB, nil
}
