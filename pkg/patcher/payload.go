package patcher

import (
	"errors"
	"fmt"
	"os"

	"github.com/Ethan-Gao/drow/pkg/log"
	"golang.org/x/sys/unix"
)

var EmptyPayloadErr = errors.New("Payload file is empty.")

// Payload is the read-only blob spliced into the image.
type Payload struct {
	Data []byte

	mapped bool
}

func LoadPayload(payloadPath string) (*Payload, error) {
	log.Statusf("Loading payload blob: %s", payloadPath)

	file, err := os.Open(payloadPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", payloadPath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", payloadPath, err)
	}

	if stat.Size() == 0 {
		return nil, fmt.Errorf("%s: %w", payloadPath, EmptyPayloadErr)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()),
		unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", payloadPath, err)
	}

	return &Payload{Data: data, mapped: true}, nil
}

func (p *Payload) Size() uint64 {
	return uint64(len(p.Data))
}

func (p *Payload) Close() error {
	if !p.mapped {
		return nil
	}

	p.mapped = false
	data := p.Data
	p.Data = nil
	return unix.Munmap(data)
}
