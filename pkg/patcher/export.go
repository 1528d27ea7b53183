package patcher

import (
	"errors"
	"fmt"
	"os"

	"github.com/Ethan-Gao/drow/pkg/elf"
	"github.com/Ethan-Gao/drow/pkg/log"
)

var PayloadTooBigErr = errors.New("Payload does not fit in the reserved space.")

// Export streams the patched image to outfile: original bytes up to the
// patch boundary, the payload, zero padding out to the reserved page,
// then the untouched remainder of the image. The fit check runs before
// the destination is created so an oversized payload never leaves a
// file behind.
func Export(img *elf.Image, payload *Payload, outfile string, pinfo *PatchInfo) error {
	if payload.Size() > pinfo.Size {
		return fmt.Errorf("payload is %d bytes, reserved space is %d: %w",
			payload.Size(), pinfo.Size, PayloadTooBigErr)
	}

	log.Statusf("Exporting patched ELF to %s...", outfile)
	out, err := os.OpenFile(outfile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("create %s: %w", outfile, err)
	}
	defer out.Close()

	log.Statusf("Writing first part of ELF (size: %d)", pinfo.Base)
	if _, err := out.Write(img.Data[:pinfo.Base]); err != nil {
		return fmt.Errorf("write leading image bytes: %w", err)
	}

	log.Statusf("Writing payload (size: %d)", payload.Size())
	if _, err := out.Write(payload.Data); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	padSize := pinfo.Size - payload.Size()
	log.Statusf("Writing pad to maintain page alignment (size: %d)", padSize)
	if _, err := out.Write(make([]byte, padSize)); err != nil {
		return fmt.Errorf("write pad: %w", err)
	}

	if remaining := uint64(len(img.Data)) - pinfo.Base; remaining > 0 {
		log.Statusf("Writing remaining data (size: %d)", remaining)
		if _, err := out.Write(img.Data[pinfo.Base:]); err != nil {
			return fmt.Errorf("write trailing image bytes: %w", err)
		}
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", outfile, err)
	}

	log.Successf("Exported patched ELF: %s", outfile)
	return nil
}
