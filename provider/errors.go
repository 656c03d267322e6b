package provider

import "github.com/ossrs/go-oryx-lib/errors"

var (
	ErrNoArchives      = errors.New("no pak archives in game directory")
	ErrPackageNotFound = errors.New("package not found")
	ErrScriptImport    = errors.New("import refers to a native script class")
)
