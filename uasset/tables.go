package uasset

import (
	"strconv"

	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ossrs/go-oryx-lib/errors"
)

// PackageIndex references an object: positive values are exports
// (index+1), negative values are imports (-index-1), zero is null.
type PackageIndex int32

func (i PackageIndex) IsNull() bool   { return i == 0 }
func (i PackageIndex) IsImport() bool { return i < 0 }
func (i PackageIndex) IsExport() bool { return i > 0 }

func (i PackageIndex) ToImport() int { return int(-i - 1) }
func (i PackageIndex) ToExport() int { return int(i - 1) }

// ExportIndex builds the reference to export n.
func ExportIndex(n int) PackageIndex { return PackageIndex(n + 1) }

// ImportIndex builds the reference to import n.
func ImportIndex(n int) PackageIndex { return PackageIndex(-n - 1) }

type Import struct {
	ClassPackage string
	ClassName    string
	Outer        PackageIndex
	ObjectName   string
	PackageName  string
	Optional     bool
}

// ObjectExport is one row of the export map.
type ObjectExport struct {
	ClassIndex    PackageIndex
	SuperIndex    PackageIndex
	TemplateIndex PackageIndex
	OuterIndex    PackageIndex
	ObjectName    string
	ObjectFlags   uint32
	SerialSize    int64
	SerialOffset  int64

	ForcedExport          bool
	NotForClient          bool
	NotForServer          bool
	IsInheritedInstance   bool
	NotAlwaysLoaded       bool
	IsAsset               bool
	GeneratePublicHash    bool
	ScriptSerialStart     int64
	ScriptSerialEnd       int64
	FirstExportDependency int32
}

// names resolves FName references against the package name map.
type names []string

func (n names) read(r *ueio.Reader) string {
	index := r.Int32()
	number := r.Int32()
	if r.Err() != nil {
		return ""
	}
	if index < 0 || int(index) >= len(n) {
		r.Fail(errors.Wrapf(ErrInvalidIndex, "name %v of %v", index, len(n)))
		return ""
	}
	if number > 0 {
		return n[index] + "_" + strconv.Itoa(int(number-1))
	}
	return n[index]
}

func readNameMap(r *ueio.Reader, s *Summary) (names, error) {
	r.Seek(int64(s.NameOffset))
	if s.NameCount < 0 || int64(s.NameCount) > r.Remaining() {
		return nil, errors.Errorf("invalid name count %v", s.NameCount)
	}
	out := make(names, s.NameCount)
	for i := range out {
		out[i] = r.String()
		if s.FileVersionUE4 >= VerUE4NameHashesSerialized {
			r.Uint16() // non-case-preserving hash
			r.Uint16() // case-preserving hash
		}
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "name map")
	}
	return out, nil
}

func readImportMap(r *ueio.Reader, s *Summary, n names) ([]Import, error) {
	r.Seek(int64(s.ImportOffset))
	if s.ImportCount < 0 || int64(s.ImportCount)*28 > r.Remaining() {
		return nil, errors.Errorf("invalid import count %v", s.ImportCount)
	}
	out := make([]Import, s.ImportCount)
	for i := range out {
		imp := &out[i]
		imp.ClassPackage = n.read(r)
		imp.ClassName = n.read(r)
		imp.Outer = PackageIndex(r.Int32())
		imp.ObjectName = n.read(r)
		if !s.FilterEditorOnly() && s.FileVersionUE4 >= VerUE4NonOuterPackageImport {
			imp.PackageName = n.read(r)
		}
		if s.FileVersionUE5 >= VerUE5OptionalResources {
			imp.Optional = r.Bool32()
		}
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "import map")
	}
	return out, nil
}

func readExportMap(r *ueio.Reader, s *Summary, n names) ([]ObjectExport, error) {
	r.Seek(int64(s.ExportOffset))
	if s.ExportCount < 0 || int64(s.ExportCount)*40 > r.Remaining() {
		return nil, errors.Errorf("invalid export count %v", s.ExportCount)
	}
	ue4, ue5 := s.FileVersionUE4, s.FileVersionUE5
	out := make([]ObjectExport, s.ExportCount)
	for i := range out {
		e := &out[i]
		e.ClassIndex = PackageIndex(r.Int32())
		e.SuperIndex = PackageIndex(r.Int32())
		if ue4 >= VerUE4TemplateIndexInExports {
			e.TemplateIndex = PackageIndex(r.Int32())
		}
		e.OuterIndex = PackageIndex(r.Int32())
		e.ObjectName = n.read(r)
		e.ObjectFlags = r.Uint32()
		if ue4 < VerUE4ExportMap64BitSerialSizes {
			e.SerialSize = int64(r.Int32())
			e.SerialOffset = int64(r.Int32())
		} else {
			e.SerialSize = r.Int64()
			e.SerialOffset = r.Int64()
		}
		e.ForcedExport = r.Bool32()
		e.NotForClient = r.Bool32()
		e.NotForServer = r.Bool32()
		if ue5 < VerUE5RemoveExportPackageGuid {
			r.Guid() // package guid
		}
		if ue5 >= VerUE5TrackExportIsInherited {
			e.IsInheritedInstance = r.Bool32()
		}
		r.Uint32() // package flags
		if ue4 >= VerUE4LoadForEditorGame {
			e.NotAlwaysLoaded = r.Bool32()
		}
		if ue4 >= VerUE4CookedAssetsInEditor {
			e.IsAsset = r.Bool32()
		}
		if ue5 >= VerUE5OptionalResources {
			e.GeneratePublicHash = r.Bool32()
		}
		if ue4 >= VerUE4PreloadDependenciesInExports {
			e.FirstExportDependency = r.Int32()
			r.Skip(16) // four dependency counts
		}
		if ue5 >= VerUE5ScriptSerializationOffset {
			e.ScriptSerialStart = r.Int64()
			e.ScriptSerialEnd = r.Int64()
		}
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "export map")
	}
	return out, nil
}

// DataResource locates a bulk payload for packages that store bulk data
// metadata in a table instead of inline.
type DataResource struct {
	Flags                 uint32
	SerialOffset          int64
	DuplicateSerialOffset int64
	SerialSize            int64
	RawSize               int64
	Outer                 PackageIndex
	LegacyBulkDataFlags   uint32
}

func readDataResources(r *ueio.Reader, s *Summary) ([]DataResource, error) {
	if s.FileVersionUE5 < VerUE5DataResources || s.DataResourceOffset <= 0 {
		return nil, nil
	}
	r.Seek(int64(s.DataResourceOffset))
	version := r.Uint32()
	if version < 1 || version > 2 {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "data resource version %v", version)
	}
	n := r.Count(44)
	out := make([]DataResource, n)
	for i := range out {
		d := &out[i]
		d.Flags = r.Uint32()
		if version >= 2 {
			r.Uint8() // cooked index
		}
		d.SerialOffset = r.Int64()
		d.DuplicateSerialOffset = r.Int64()
		d.SerialSize = r.Int64()
		d.RawSize = r.Int64()
		d.Outer = PackageIndex(r.Int32())
		d.LegacyBulkDataFlags = r.Uint32()
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "data resources")
	}
	return out, nil
}

// SoftObjectPath names an asset by package path and object name.
type SoftObjectPath struct {
	AssetPath string `json:"assetPath"`
	SubPath   string `json:"subPath,omitempty"`
}

func (p SoftObjectPath) String() string {
	if p.SubPath == "" {
		return p.AssetPath
	}
	return p.AssetPath + ":" + p.SubPath
}

func readSoftObjectPath(r *ueio.Reader, s *Summary, n names) SoftObjectPath {
	var p SoftObjectPath
	if s.FileVersionUE5 >= VerUE5SoftObjectPathNoAssetFNames {
		pkg := n.read(r)
		asset := n.read(r)
		switch {
		case pkg == "None" || pkg == "":
		case asset == "None" || asset == "":
			p.AssetPath = pkg
		default:
			p.AssetPath = pkg + "." + asset
		}
	} else {
		if p.AssetPath = n.read(r); p.AssetPath == "None" {
			p.AssetPath = ""
		}
	}
	p.SubPath = r.String()
	return p
}

func readSoftObjectPaths(r *ueio.Reader, s *Summary, n names) ([]SoftObjectPath, error) {
	if s.SoftObjectPathsCount <= 0 {
		return nil, nil
	}
	r.Seek(int64(s.SoftObjectPathsOffset))
	out := make([]SoftObjectPath, s.SoftObjectPathsCount)
	for i := range out {
		out[i] = readSoftObjectPath(r, s, n)
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "soft object paths")
	}
	return out, nil
}
