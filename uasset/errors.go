package uasset

import "github.com/ossrs/go-oryx-lib/errors"

var (
	ErrNotPackage         = errors.New("not a package file")
	ErrUnsupportedVersion = errors.New("unsupported package version")
	ErrNeedMappings       = errors.New("unversioned properties need type mappings")
	ErrUnknownStruct      = errors.New("unknown struct type")
	ErrUnknownProperty    = errors.New("unknown property type")
	ErrNoBulkData         = errors.New("bulk data payload not available")
	ErrInvalidIndex       = errors.New("package index out of range")

	errUncookedPerPlatform = errors.New("per-platform value is not cooked")
)
