package download

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archiver/v3"

	"github.com/SamGreenwood04/Ginan-UI/pkg/unlzw"
)

// ErrDecompress marks a failed decompression. The fetched file is kept in
// place so it can be inspected or retried without another download.
var ErrDecompress = errors.New("could not decompress file")

// decompressFile unpacks src into dst, choosing the codec from the file name.
// Gzip members go through the archiver package, ".Z" files carry the old
// compress(1) scheme.
func decompressFile(src, dst string) error {
	switch {
	case strings.HasSuffix(src, ".gz"):
		if err := archiver.DecompressFile(src, dst); err != nil {
			// a half written target must not shadow the next attempt
			os.Remove(dst)
			return fmt.Errorf("%w %s: %v", ErrDecompress, filepath.Base(src), err)
		}
	case strings.HasSuffix(src, ".Z"):
		dat, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		dec, err := unlzw.Decode(dat)
		if err != nil {
			return fmt.Errorf("%w %s: %v", ErrDecompress, filepath.Base(src), err)
		}
		if err := os.WriteFile(dst, dec, 0644); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w %s: unknown compression suffix", ErrDecompress, filepath.Base(src))
	}
	return nil
}
