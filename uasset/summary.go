package uasset

import (
	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ossrs/go-oryx-lib/errors"
)

const PackageTag = 0x9E2A83C1

// Package flags the reader cares about.
const (
	PkgUnversionedProperties = 0x00002000
	PkgFilterEditorOnly      = 0x80000000
)

type CustomVersion struct {
	Key     ueio.Guid
	Version int32
}

type EngineVersion struct {
	Major, Minor, Patch uint16
	Changelist          uint32
	Branch              string
}

type Generation struct {
	ExportCount int32
	NameCount   int32
}

// Summary is the package file summary at the start of every .uasset.
type Summary struct {
	LegacyFileVersion   int32
	FileVersionUE4      int32
	FileVersionUE5      int32
	FileVersionLicensee int32
	CustomVersions      []CustomVersion
	// Unversioned is set when the package carries no versions and the
	// game's versions were substituted.
	Unversioned bool

	TotalHeaderSize int32
	FolderName      string
	PackageFlags    uint32

	NameCount, NameOffset                       int32
	SoftObjectPathsCount, SoftObjectPathsOffset int32
	LocalizationID                              string
	GatherableTextDataCount                     int32
	GatherableTextDataOffset                    int32
	ExportCount, ExportOffset                   int32
	ImportCount, ImportOffset                   int32
	CellExportCount, CellExportOffset           int32
	CellImportCount, CellImportOffset           int32
	MetaDataOffset                              int32
	DependsOffset                               int32
	SoftPackageReferencesCount                  int32
	SoftPackageReferencesOffset                 int32
	SearchableNamesOffset                       int32
	ThumbnailTableOffset                        int32
	Guid                                        ueio.Guid
	PersistentGuid                              ueio.Guid
	Generations                                 []Generation
	SavedByEngineVersion                        EngineVersion
	CompatibleWithEngineVersion                 EngineVersion
	CompressionFlags                            uint32
	PackageSource                               uint32
	AssetRegistryDataOffset                     int32
	BulkDataStartOffset                         int64
	WorldTileInfoDataOffset                     int32
	ChunkIDs                                    []int32
	PreloadDependencyCount                      int32
	PreloadDependencyOffset                     int32
	NamesReferencedFromExportDataCount          int32
	PayloadTOCOffset                            int64
	DataResourceOffset                          int32
}

// FilterEditorOnly reports whether editor-only data was stripped, which
// is the case for every cooked package.
func (s *Summary) FilterEditorOnly() bool {
	return s.PackageFlags&PkgFilterEditorOnly != 0
}

func (s *Summary) UnversionedProperties() bool {
	return s.PackageFlags&PkgUnversionedProperties != 0
}

func readEngineVersion(r *ueio.Reader) EngineVersion {
	return EngineVersion{
		Major:      r.Uint16(),
		Minor:      r.Uint16(),
		Patch:      r.Uint16(),
		Changelist: r.Uint32(),
		Branch:     r.String(),
	}
}

func readSummary(r *ueio.Reader, game Game) (*Summary, error) {
	if r.Uint32() != PackageTag {
		return nil, ErrNotPackage
	}
	s := &Summary{LegacyFileVersion: r.Int32()}
	if s.LegacyFileVersion > -4 || s.LegacyFileVersion < -9 {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "legacy file version %v", s.LegacyFileVersion)
	}
	if s.LegacyFileVersion != -4 {
		r.Int32() // UE3 version
	}
	s.FileVersionUE4 = r.Int32()
	if s.LegacyFileVersion <= -8 {
		s.FileVersionUE5 = r.Int32()
	}
	s.FileVersionLicensee = r.Int32()

	n := r.Count(20)
	s.CustomVersions = make([]CustomVersion, n)
	for i := range s.CustomVersions {
		s.CustomVersions[i] = CustomVersion{Key: r.Guid(), Version: r.Int32()}
		if s.LegacyFileVersion >= -5 {
			_ = r.String() // friendly name
		}
	}

	if s.FileVersionUE4 == 0 && s.FileVersionUE5 == 0 && s.FileVersionLicensee == 0 {
		s.Unversioned = true
		s.FileVersionUE4, s.FileVersionUE5 = game.Versions()
	}
	if s.FileVersionUE4 != 0 && s.FileVersionUE4 < VerUE4OldestLoadable {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "object version %v", s.FileVersionUE4)
	}

	if s.FileVersionUE5 >= VerUE5PackageSavedHash {
		r.Skip(20) // saved hash
	}
	s.TotalHeaderSize = r.Int32()
	s.FolderName = r.String()
	s.PackageFlags = r.Uint32()
	s.NameCount = r.Int32()
	s.NameOffset = r.Int32()

	if s.FileVersionUE5 >= VerUE5SoftObjectPathList {
		s.SoftObjectPathsCount = r.Int32()
		s.SoftObjectPathsOffset = r.Int32()
	}
	if !s.FilterEditorOnly() && s.FileVersionUE4 >= VerUE4SummaryLocalizationID {
		s.LocalizationID = r.String()
	}
	if s.FileVersionUE4 >= VerUE4SerializeTextInPackages {
		s.GatherableTextDataCount = r.Int32()
		s.GatherableTextDataOffset = r.Int32()
	}
	s.ExportCount = r.Int32()
	s.ExportOffset = r.Int32()
	s.ImportCount = r.Int32()
	s.ImportOffset = r.Int32()
	if s.FileVersionUE5 >= VerUE5VerseCells {
		s.CellExportCount = r.Int32()
		s.CellExportOffset = r.Int32()
		s.CellImportCount = r.Int32()
		s.CellImportOffset = r.Int32()
	}
	if s.FileVersionUE5 >= VerUE5MetadataSerializationOffset {
		s.MetaDataOffset = r.Int32()
	}
	s.DependsOffset = r.Int32()
	if s.FileVersionUE4 >= VerUE4StringAssetReferencesMap {
		s.SoftPackageReferencesCount = r.Int32()
		s.SoftPackageReferencesOffset = r.Int32()
	}
	if s.FileVersionUE4 >= VerUE4AddedSearchableNames {
		s.SearchableNamesOffset = r.Int32()
	}
	s.ThumbnailTableOffset = r.Int32()
	if s.FileVersionUE5 < VerUE5PackageSavedHash {
		s.Guid = r.Guid()
	}
	if !s.FilterEditorOnly() && s.FileVersionUE4 >= VerUE4AddedPackageOwner {
		s.PersistentGuid = r.Guid()
		if s.FileVersionUE4 < VerUE4NonOuterPackageImport {
			r.Guid() // owner persistent guid
		}
	}

	n = r.Count(8)
	s.Generations = make([]Generation, n)
	for i := range s.Generations {
		s.Generations[i] = Generation{ExportCount: r.Int32(), NameCount: r.Int32()}
	}
	if s.FileVersionUE4 >= VerUE4EngineVersionObject {
		s.SavedByEngineVersion = readEngineVersion(r)
	} else {
		s.SavedByEngineVersion.Changelist = r.Uint32()
	}
	if s.FileVersionUE4 >= VerUE4CompatibleEngineVersion {
		s.CompatibleWithEngineVersion = readEngineVersion(r)
	} else {
		s.CompatibleWithEngineVersion = s.SavedByEngineVersion
	}

	s.CompressionFlags = r.Uint32()
	if chunks := r.Int32(); chunks != 0 {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "package has %v compressed chunks", chunks)
	}
	s.PackageSource = r.Uint32()
	n = r.Count(4)
	for i := 0; i < n; i++ {
		_ = r.String() // additional packages to cook
	}
	if s.LegacyFileVersion > -7 {
		if textures := r.Int32(); textures != 0 {
			return nil, errors.Wrapf(ErrUnsupportedVersion, "package has %v texture allocations", textures)
		}
	}
	s.AssetRegistryDataOffset = r.Int32()
	s.BulkDataStartOffset = r.Int64()

	if s.FileVersionUE4 >= VerUE4WorldLevelInfo {
		s.WorldTileInfoDataOffset = r.Int32()
	}
	if s.FileVersionUE4 >= VerUE4ChunkIDArray {
		n = r.Count(4)
		s.ChunkIDs = make([]int32, n)
		for i := range s.ChunkIDs {
			s.ChunkIDs[i] = r.Int32()
		}
	} else if s.FileVersionUE4 >= VerUE4ChunkIDInAssetData {
		s.ChunkIDs = []int32{r.Int32()}
	}
	if s.FileVersionUE4 >= VerUE4PreloadDependenciesInExports {
		s.PreloadDependencyCount = r.Int32()
		s.PreloadDependencyOffset = r.Int32()
	}
	if s.FileVersionUE5 >= VerUE5NamesReferencedFromExports {
		s.NamesReferencedFromExportDataCount = r.Int32()
	}
	if s.FileVersionUE5 >= VerUE5PayloadTOC {
		s.PayloadTOCOffset = r.Int64()
	}
	if s.FileVersionUE5 >= VerUE5DataResources {
		s.DataResourceOffset = r.Int32()
	}

	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "package summary")
	}
	return s, nil
}
