// Package provider indexes the pak archives of a game directory and loads
// packages from them, resolving references between packages.
package provider

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ErwinsExpertise/go-wwise-export/locres"
	"github.com/ErwinsExpertise/go-wwise-export/pak"
	"github.com/ErwinsExpertise/go-wwise-export/uasset"
	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ErwinsExpertise/go-wwise-export/usmap"
	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"
)

type Options struct {
	// Game supplies versions for packages cooked unversioned.
	Game     uasset.Game
	Mappings *usmap.Mappings
	Debug    bool
}

type archive struct {
	file     *pak.File
	priority int
	keyed    bool
}

type fileRef struct {
	archive *archive
	path    string
}

// Provider serves files from every mounted archive. Archives later in
// mount order override earlier ones, so patch archives win.
type Provider struct {
	Directory string

	opts     Options
	ctx      context.Context
	archives []*archive

	mu           sync.Mutex
	files        map[string]fileRef
	packageNames map[string]string
	packages     map[string]*uasset.Package
	localization *locres.Table
}

func New(dir string, opts Options) *Provider {
	return &Provider{
		Directory:    dir,
		opts:         opts,
		ctx:          context.Background(),
		files:        make(map[string]fileRef),
		packageNames: make(map[string]string),
		packages:     make(map[string]*uasset.Package),
		localization: locres.NewTable(),
	}
}

// isPatch reports whether an archive name follows the _P patch suffix
// convention.
func isPatch(name string) bool {
	base := strings.TrimSuffix(strings.ToLower(name), ".pak")
	return strings.HasSuffix(base, "_p")
}

// Initialize opens the archives at the top of the directory and mounts the
// ones whose index is not encrypted.
func (p *Provider) Initialize(ctx context.Context) error {
	p.ctx = ctx
	entries, err := os.ReadDir(p.Directory)
	if err != nil {
		return errors.Wrapf(err, "read game directory %v", p.Directory)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pak":
			names = append(names, e.Name())
		case ".utoc", ".ucas":
			logger.Wf(ctx, "Ignore IoStore container %v", e.Name())
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		if pi, pj := isPatch(names[i]), isPatch(names[j]); pi != pj {
			return pj
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		f, err := pak.Open(filepath.Join(p.Directory, name))
		if err != nil {
			logger.Wf(ctx, "Ignore archive %v, err %+v", name, err)
			continue
		}
		f.Debug = p.opts.Debug
		a := &archive{file: f, priority: len(p.archives)}
		p.archives = append(p.archives, a)
		if f.NeedsKey() {
			logger.Tf(ctx, "Archive %v needs key %v", name, f.Info.EncryptionKeyGuid)
			continue
		}
		if err := p.mount(a, nil); err != nil {
			logger.Wf(ctx, "Mount %v err %+v", name, err)
		}
	}
	if len(p.archives) == 0 {
		return errors.Wrapf(ErrNoArchives, "%v", p.Directory)
	}
	logger.Tf(ctx, "Initialized %v archives, %v files", len(p.archives), len(p.files))
	return nil
}

// SubmitKey mounts the archives encrypted with guid, and remounts archives
// with that guid whose index was readable without a key so their encrypted
// entries become readable too. It returns the number mounted.
func (p *Provider) SubmitKey(ctx context.Context, guid ueio.Guid, key []byte) (int, error) {
	if len(key) != pak.KeySize {
		return 0, errors.Errorf("aes key is %v bytes, expected %v", len(key), pak.KeySize)
	}
	var mounted int
	for _, a := range p.archives {
		if a.keyed || a.file.Info.EncryptionKeyGuid != guid {
			continue
		}
		if err := p.mount(a, key); err != nil {
			logger.Wf(ctx, "Mount %v with key %v err %+v", filepath.Base(a.file.Filename), guid, err)
			continue
		}
		mounted++
	}
	logger.Tf(ctx, "Key %v mounted %v archives, %v files", guid, mounted, len(p.files))
	return mounted, nil
}

func (p *Provider) mount(a *archive, key []byte) error {
	if err := a.file.Mount(key); err != nil {
		return err
	}
	a.keyed = key != nil

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, name := range a.file.Files() {
		lower := strings.ToLower(name)
		if prev, ok := p.files[lower]; ok && prev.archive.priority > a.priority {
			continue
		}
		p.files[lower] = fileRef{archive: a, path: name}
		if ext := strings.ToLower(path.Ext(name)); ext == ".uasset" || ext == ".umap" {
			if pkg, ok := packageName(name); ok {
				p.packageNames[strings.ToLower(pkg)] = trimPackageExt(name)
			}
		}
	}
	return nil
}

// Files lists every mounted path in sorted order.
func (p *Provider) Files() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.files))
	for _, f := range p.files {
		out = append(out, f.path)
	}
	sort.Strings(out)
	return out
}

// Read returns a mounted file by path, ignoring case.
func (p *Provider) Read(name string) ([]byte, error) {
	p.mu.Lock()
	f, ok := p.files[strings.ToLower(strings.TrimPrefix(cleanPath(name), "/"))]
	p.mu.Unlock()
	if !ok {
		return nil, errors.Wrapf(pak.ErrFileNotFound, "%v", name)
	}
	return f.archive.file.Read(f.path)
}

// Localization is the table filled by LoadLocalization. Packages loaded
// before the call see the strings too.
func (p *Provider) Localization() *locres.Table {
	return p.localization
}

// LoadLocalization loads every .locres of the language's culture and
// returns the number of strings in the table.
func (p *Provider) LoadLocalization(ctx context.Context, lang locres.Language) (int, error) {
	pattern := "*/content/localization/*/" + strings.ToLower(lang.Culture()) + "/*.locres"
	var loaded int
	for _, name := range p.Files() {
		if ok, _ := path.Match(pattern, strings.ToLower(name)); !ok {
			continue
		}
		data, err := p.Read(name)
		if err == nil {
			err = p.localization.Add(data)
		}
		if err != nil {
			logger.Wf(ctx, "Ignore localization %v err %+v", name, err)
			continue
		}
		loaded++
	}
	logger.Tf(ctx, "Loaded %v localized strings of %v from %v files", p.localization.Len(), lang, loaded)
	return p.localization.Len(), nil
}

// resolve finds the mounted package path, without extension, for a
// mounted path or a package name like /Game/Audio/Event.
func (p *Provider) resolve(name string) (string, bool) {
	name = trimPackageExt(cleanPath(name))
	p.mu.Lock()
	defer p.mu.Unlock()
	if strings.HasPrefix(name, "/") {
		if base, ok := p.packageNames[strings.ToLower(name)]; ok {
			return base, true
		}
		name = strings.TrimPrefix(name, "/")
	}
	for _, ext := range packageExtensions {
		if f, ok := p.files[strings.ToLower(name+ext)]; ok {
			return trimPackageExt(f.path), true
		}
	}
	return "", false
}

type payloads struct {
	provider *Provider
	base     string
}

func (s payloads) ReadPayload(ext string) ([]byte, error) {
	return s.provider.Read(s.base + ext)
}

// LoadPackage loads a package by mounted path or package name, with or
// without extension. Packages are cached.
func (p *Provider) LoadPackage(ctx context.Context, name string) (*uasset.Package, error) {
	base, ok := p.resolve(name)
	if !ok {
		return nil, errors.Wrapf(ErrPackageNotFound, "%v", name)
	}
	key := strings.ToLower(base)

	p.mu.Lock()
	pkg, ok := p.packages[key]
	p.mu.Unlock()
	if ok {
		return pkg, nil
	}

	var header []byte
	var err error
	for _, ext := range packageExtensions {
		if header, err = p.Read(base + ext); errors.Cause(err) != pak.ErrFileNotFound {
			break
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %v", base)
	}
	data := header
	if exp, err := p.Read(base + ".uexp"); err == nil {
		data = make([]byte, 0, len(header)+len(exp))
		data = append(append(data, header...), exp...)
	} else if errors.Cause(err) != pak.ErrFileNotFound {
		return nil, errors.Wrapf(err, "read %v.uexp", base)
	}

	pkg, err = uasset.New(base, data, uasset.Options{
		Game:         p.opts.Game,
		Mappings:     p.opts.Mappings,
		Localization: p.localization,
		Payloads:     payloads{provider: p, base: base},
		Resolver:     p,
		Debug:        p.opts.Debug,
	})
	if err != nil {
		return nil, err
	}
	logger.Tf(ctx, "Load package %v, %v exports", base, len(pkg.ExportMap))

	p.mu.Lock()
	defer p.mu.Unlock()
	if cached, ok := p.packages[key]; ok {
		return cached, nil
	}
	p.packages[key] = pkg
	return pkg, nil
}

// LoadObjectExports loads a package and parses all of its exports.
func (p *Provider) LoadObjectExports(ctx context.Context, name string) ([]*uasset.Export, error) {
	pkg, err := p.LoadPackage(ctx, name)
	if err != nil {
		return nil, err
	}
	exports := pkg.Exports()
	for _, e := range exports {
		if e.Err != nil {
			logger.Wf(ctx, "Export %v of %v err %+v", e.Name, pkg.Name, e.Err)
		}
	}
	return exports, nil
}

// ResolveImport loads the package an import lives in and finds the
// imported export there.
func (p *Provider) ResolveImport(pkg *uasset.Package, index int) (*uasset.Export, error) {
	owner, err := pkg.ImportPackage(index)
	if err != nil {
		return nil, err
	}
	imp := &pkg.Imports[index]
	if strings.HasPrefix(owner, "/Script/") {
		return nil, errors.Wrapf(ErrScriptImport, "%v.%v", owner, imp.ObjectName)
	}
	target, err := p.LoadPackage(p.ctx, owner)
	if err != nil {
		return nil, errors.Wrapf(err, "import %v of %v", imp.ObjectName, pkg.Name)
	}

	// Objects outered to their package match any top-level export.
	var outer string
	if imp.Outer.IsImport() {
		if o := &pkg.Imports[imp.Outer.ToImport()]; !o.Outer.IsNull() {
			outer = o.ObjectName
		}
	}
	e, ok := target.FindExport(imp.ObjectName, outer)
	if !ok {
		return nil, errors.Wrapf(ErrPackageNotFound, "no export %v in %v", imp.ObjectName, target.Name)
	}
	return e, nil
}

// Close unmaps every archive.
func (p *Provider) Close() error {
	var first error
	for _, a := range p.archives {
		if err := a.file.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
