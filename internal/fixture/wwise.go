package fixture

import "strings"

// EventPackage is a UE 5.3 AkAudioEvent package whose event data lists
// the media assets of the given package names, e.g.
// /Game/WwiseAudio/Media/123456.
func EventPackage(event string, media ...string) *Package {
	imports := []Import{
		{ClassPackage: "/Script/CoreUObject", ClassName: "Package", ObjectName: "/Script/AkAudio"},
		{ClassPackage: "/Script/CoreUObject", ClassName: "Class", Outer: -1, ObjectName: "AkAudioEvent"},
		{ClassPackage: "/Script/CoreUObject", ClassName: "Class", Outer: -1, ObjectName: "AkAudioEventData"},
	}
	var refs []int32
	for _, m := range media {
		pkg := int32(len(imports))
		imports = append(imports,
			Import{ClassPackage: "/Script/CoreUObject", ClassName: "Package", ObjectName: m},
			Import{ClassPackage: "/Script/AkAudio", ClassName: "AkMediaAsset", Outer: -pkg - 1, ObjectName: m[strings.LastIndex(m, "/")+1:]},
		)
		refs = append(refs, -pkg-2)
	}
	return &Package{
		UE4:     522,
		UE5:     1009,
		Imports: imports,
		Exports: []Export{
			{Class: -2, Name: event, Properties: func(w *PackageWriter) {
				w.IntTag("ShortID", 1001)
				w.ObjectTag("EventCookedData", 2)
				w.None()
			}},
			{Class: -3, Outer: 1, Name: "AkAudioEventData_0", Properties: func(w *PackageWriter) {
				w.ObjectArrayTag("MediaList", refs...)
				w.None()
			}},
		},
	}
}

// MediaPackage is a UE 5.3 AkMediaAsset package named id carrying wem.
// With separate the media lives in the returned .ubulk contents.
func MediaPackage(id string, wem []byte, separate bool) (pkg *Package, ubulk []byte) {
	chunks := func(w *PackageWriter) {
		w.Int32(1)
		w.Bool32(false)
		if separate {
			w.Bulk(BulkSeparateFile|BulkNoOffsetFixUp, 0, wem)
		} else {
			w.Bulk(BulkInline, 0, wem)
		}
	}
	if separate {
		ubulk = wem
	}
	return &Package{
		UE4: 522,
		UE5: 1009,
		Imports: []Import{
			{ClassPackage: "/Script/CoreUObject", ClassName: "Package", ObjectName: "/Script/AkAudio"},
			{ClassPackage: "/Script/CoreUObject", ClassName: "Class", Outer: -1, ObjectName: "AkMediaAssetData"},
			{ClassPackage: "/Script/CoreUObject", ClassName: "Class", Outer: -1, ObjectName: "AkMediaAsset"},
		},
		Exports: []Export{
			{Class: -3, Name: id, Properties: func(w *PackageWriter) {
				w.ObjectTag("CurrentMediaAssetData", 2)
				w.None()
			}},
			{Class: -2, Outer: 1, Name: "AkMediaAssetData_0", Properties: (*PackageWriter).None, Native: chunks},
		},
	}, ubulk
}

// PackageFiles lists a package as pak entries under base, the mounted path
// without extension.
func PackageFiles(base string, p *Package, ubulk []byte) []PakFile {
	uasset, uexp := p.Build()
	files := []PakFile{
		{Name: base + ".uasset", Data: uasset},
		{Name: base + ".uexp", Data: uexp},
	}
	if ubulk != nil {
		files = append(files, PakFile{Name: base + ".ubulk", Data: ubulk})
	}
	return files
}
