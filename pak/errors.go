package pak

import "github.com/ossrs/go-oryx-lib/errors"

var (
	ErrNotPak                 = errors.New("not a pak archive")
	ErrCorrupt                = errors.New("corrupt pak archive")
	ErrKeyRequired            = errors.New("archive index is encrypted and no key was submitted")
	ErrBadKey                 = errors.New("aes key does not decrypt the archive index")
	ErrNotMounted             = errors.New("archive is not mounted")
	ErrFileNotFound           = errors.New("file not found in archive")
	ErrUnsupported            = errors.New("unsupported pak feature")
	ErrUnsupportedCompression = errors.New("unsupported compression method")
)

func wrapf(err error, format string, a ...interface{}) error {
	return errors.Wrapf(err, format, a...)
}
