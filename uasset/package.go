// Package uasset reads cooked Unreal Engine packages (.uasset with its
// .uexp and optional .ubulk/.uptnl companions): the summary and object
// tables, tagged and unversioned property serialization, and the native
// tails of the Wwise integration's classes.
package uasset

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ErwinsExpertise/go-wwise-export/locres"
	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ErwinsExpertise/go-wwise-export/usmap"
	"github.com/ossrs/go-oryx-lib/errors"
)

// Companion payload file extensions.
const (
	BulkExtension     = ".ubulk"
	OptionalExtension = ".uptnl"
)

// PayloadSource loads a companion file of the package on demand.
type PayloadSource interface {
	ReadPayload(ext string) ([]byte, error)
}

// Resolver finds the export an import refers to, usually by loading the
// package that owns it.
type Resolver interface {
	ResolveImport(pkg *Package, index int) (*Export, error)
}

type Options struct {
	// Game supplies versions for unversioned packages.
	Game         Game
	Mappings     *usmap.Mappings
	Localization *locres.Table
	Payloads     PayloadSource
	Resolver     Resolver
	Debug        bool
}

type Package struct {
	// Name is the virtual path without extension.
	Name string

	Summary         *Summary
	Names           []string
	Imports         []Import
	ExportMap       []ObjectExport
	DataResources   []DataResource
	SoftObjectPaths []SoftObjectPath

	data  []byte
	names names
	opts  Options

	once    sync.Once
	exports []*Export

	payloadMu sync.Mutex
	payloads  map[string][]byte
}

// New parses the package header. data is the .uasset contents followed by
// the .uexp contents, the layout export offsets are relative to.
func New(name string, data []byte, opts Options) (*Package, error) {
	r := ueio.NewReader(data)
	s, err := readSummary(r, opts.Game)
	if err != nil {
		return nil, errors.Wrapf(err, "%v", name)
	}
	n, err := readNameMap(r, s)
	if err != nil {
		return nil, errors.Wrapf(err, "%v", name)
	}
	pkg := &Package{
		Name:    name,
		Summary: s,
		Names:   n,
		data:    data,
		names:   n,
		opts:    opts,
	}
	if pkg.Imports, err = readImportMap(r, s, n); err != nil {
		return nil, errors.Wrapf(err, "%v", name)
	}
	if pkg.ExportMap, err = readExportMap(r, s, n); err != nil {
		return nil, errors.Wrapf(err, "%v", name)
	}
	if pkg.DataResources, err = readDataResources(r, s); err != nil {
		return nil, errors.Wrapf(err, "%v", name)
	}
	if pkg.SoftObjectPaths, err = readSoftObjectPaths(r, s, n); err != nil {
		return nil, errors.Wrapf(err, "%v", name)
	}
	pkg.debug("Loaded ", len(pkg.Names), " names, ", len(pkg.Imports), " imports, ", len(pkg.ExportMap), " exports")
	return pkg, nil
}

func (p *Package) debug(args ...interface{}) {
	if p.opts.Debug {
		fmt.Println(fmt.Sprint("[uasset: ", p.Name, "] ", fmt.Sprint(args...)))
	}
}

// ShortName is the last path segment of the package name.
func (p *Package) ShortName() string {
	return p.Name[strings.LastIndex(p.Name, "/")+1:]
}

// Exports parses every export. A failure in one export is recorded on it
// and does not affect the others.
func (p *Package) Exports() []*Export {
	p.once.Do(func() {
		p.exports = make([]*Export, len(p.ExportMap))
		for i := range p.ExportMap {
			p.exports[i] = p.parseExport(i)
		}
	})
	return p.exports
}

// Export returns export i, parsing the package on first use.
func (p *Package) Export(i int) (*Export, error) {
	exports := p.Exports()
	if i < 0 || i >= len(exports) {
		return nil, errors.Wrapf(ErrInvalidIndex, "export %v of %v in %v", i, len(exports), p.Name)
	}
	return exports[i], nil
}

// FindExport finds an export by object name, ignoring case. outer, when
// not empty, must match the name of the export's outer.
func (p *Package) FindExport(name, outer string) (*Export, bool) {
	for i, e := range p.ExportMap {
		if !strings.EqualFold(e.ObjectName, name) {
			continue
		}
		if outer != "" && !strings.EqualFold(p.IndexName(e.OuterIndex), outer) {
			continue
		}
		exp, err := p.Export(i)
		return exp, err == nil
	}
	return nil, false
}

// IndexName is the object name an index refers to; the null index names
// the package itself.
func (p *Package) IndexName(i PackageIndex) string {
	switch {
	case i.IsImport() && i.ToImport() < len(p.Imports):
		return p.Imports[i.ToImport()].ObjectName
	case i.IsExport() && i.ToExport() < len(p.ExportMap):
		return p.ExportMap[i.ToExport()].ObjectName
	case i.IsNull():
		return p.ShortName()
	}
	return ""
}

// ClassName returns the class of an export map row: the import or export
// the class index names, or "Class" for class objects themselves.
func (p *Package) ClassName(e *ObjectExport) string {
	if e.ClassIndex.IsNull() {
		return "Class"
	}
	return p.IndexName(e.ClassIndex)
}

// ImportPackage walks an import's outer chain to the package it lives in.
func (p *Package) ImportPackage(index int) (string, error) {
	for depth := 0; depth < 64; depth++ {
		if index < 0 || index >= len(p.Imports) {
			return "", errors.Wrapf(ErrInvalidIndex, "import %v of %v in %v", index, len(p.Imports), p.Name)
		}
		imp := &p.Imports[index]
		if imp.PackageName != "" && imp.PackageName != "None" {
			return imp.PackageName, nil
		}
		if imp.Outer.IsNull() {
			return imp.ObjectName, nil
		}
		if !imp.Outer.IsImport() {
			return "", errors.Errorf("import %v has export outer %v", imp.ObjectName, imp.Outer)
		}
		index = imp.Outer.ToImport()
	}
	return "", errors.Errorf("import chain too deep in %v", p.Name)
}

// Resolve returns the export an index refers to, loading other packages
// through the resolver for imports. The null index resolves to nil.
func (p *Package) Resolve(i PackageIndex) (*Export, error) {
	switch {
	case i.IsNull():
		return nil, nil
	case i.IsExport():
		return p.Export(i.ToExport())
	}
	index := i.ToImport()
	if index >= len(p.Imports) {
		return nil, errors.Wrapf(ErrInvalidIndex, "import %v of %v in %v", index, len(p.Imports), p.Name)
	}
	if p.opts.Resolver == nil {
		return nil, errors.Errorf("no resolver for import %v in %v", p.Imports[index].ObjectName, p.Name)
	}
	return p.opts.Resolver.ResolveImport(p, index)
}

// payload returns a cached companion file.
func (p *Package) payload(ext string) ([]byte, error) {
	p.payloadMu.Lock()
	defer p.payloadMu.Unlock()
	if b, ok := p.payloads[ext]; ok {
		return b, nil
	}
	if p.opts.Payloads == nil {
		return nil, errors.Wrapf(ErrNoBulkData, "%v%v", p.Name, ext)
	}
	b, err := p.opts.Payloads.ReadPayload(ext)
	if err != nil {
		return nil, errors.Wrapf(err, "%v%v", p.Name, ext)
	}
	if p.payloads == nil {
		p.payloads = make(map[string][]byte)
	}
	p.payloads[ext] = b
	return b, nil
}
