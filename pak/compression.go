package pak

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"io"
	"strings"

	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/pierrec/lz4/v4"
)

// decompressLZ4 inflates one raw LZ4 block into exactly size bytes.
func decompressLZ4(data []byte, size int) ([]byte, error) {
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(data, out)
	if err != nil {
		return nil, errors.Wrapf(err, "lz4 block")
	}
	if n != size {
		return nil, errors.Errorf("lz4 block inflated to %v bytes, expected %v", n, size)
	}
	return out, nil
}

func decompressStream(r io.Reader, size int) ([]byte, error) {
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

func decompressZlib(data []byte, size int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "zlib header")
	}
	defer r.Close()

	out, err := decompressStream(r, size)
	if err != nil {
		return nil, errors.Wrapf(err, "zlib block")
	}
	return out, nil
}

func decompressGzip(data []byte, size int) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "gzip header")
	}
	defer r.Close()

	out, err := decompressStream(r, size)
	if err != nil {
		return nil, errors.Wrapf(err, "gzip block")
	}
	return out, nil
}

// decompress inflates a compression block with the named method.
func decompress(method string, data []byte, size int) ([]byte, error) {
	switch strings.ToLower(method) {
	case "zlib":
		return decompressZlib(data, size)
	case "gzip":
		return decompressGzip(data, size)
	case "lz4":
		return decompressLZ4(data, size)
	}
	return nil, wrapf(ErrUnsupportedCompression, "%v", method)
}
