package pak

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ErwinsExpertise/go-wwise-export/internal/fixture"
	"github.com/ossrs/go-oryx-lib/errors"
)

func repeated(s string, n int) []byte {
	return bytes.Repeat([]byte(s), n)
}

func writePak(t *testing.T, p *fixture.Pak) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pak")
	if err := p.WriteFile(path); err != nil {
		t.Fatalf("writing fixture pak: %v", err)
	}
	return path
}

func openPak(t *testing.T, p *fixture.Pak) *File {
	t.Helper()
	f, err := Open(writePak(t, p))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestReadAcrossVersions(t *testing.T) {
	files := []fixture.PakFile{
		{Name: "Game/Content/Plain.uasset", Data: []byte("plain data")},
		{Name: "Game/Content/Sub/Zlib.uexp", Data: repeated("zlib ", 500), Compression: "Zlib", BlockSize: 1024},
	}

	for _, version := range []int32{3, 5, 7, 8, 9, 11} {
		version := version
		t.Run(fmt.Sprintf("v%d", version), func(t *testing.T) {
			f := openPak(t, &fixture.Pak{Version: version, Files: files})
			if f.Info.Version != version {
				t.Fatalf("expected version %d, got %d", version, f.Info.Version)
			}
			if err := f.Mount(nil); err != nil {
				t.Fatalf("Mount failed: %v", err)
			}
			for _, want := range files {
				got, err := f.Read(want.Name)
				if err != nil {
					t.Fatalf("Read %s failed: %v", want.Name, err)
				}
				if !bytes.Equal(got, want.Data) {
					t.Errorf("Read %s returned %d bytes, expected %d", want.Name, len(got), len(want.Data))
				}
			}
		})
	}
}

func TestCompressionMethods(t *testing.T) {
	data := repeated("wwise media ", 2000)
	for _, method := range []string{"Zlib", "Gzip", "LZ4"} {
		t.Run(method, func(t *testing.T) {
			f := openPak(t, &fixture.Pak{Files: []fixture.PakFile{
				{Name: "a.bin", Data: data, Compression: method, BlockSize: 4096},
			}})
			if err := f.Mount(nil); err != nil {
				t.Fatalf("Mount failed: %v", err)
			}
			e, ok := f.Entry("a.bin")
			if !ok {
				t.Fatal("entry not found")
			}
			if e.Compression != method {
				t.Errorf("expected method %s, got %s", method, e.Compression)
			}
			if len(e.Blocks) != (len(data)+4095)/4096 {
				t.Errorf("unexpected block count %d", len(e.Blocks))
			}
			got, err := f.Read("a.bin")
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Error("decompressed data mismatch")
			}
		})
	}
}

func TestEncryptedArchive(t *testing.T) {
	files := []fixture.PakFile{
		{Name: "Game/Content/Secret.uasset", Data: []byte("seventeen bytes!!"), Encrypted: true},
		{Name: "Game/Content/Secret.uexp", Data: repeated("abc", 3000), Compression: "Zlib", BlockSize: 2048, Encrypted: true},
	}
	for _, version := range []int32{8, 11} {
		p := &fixture.Pak{Version: version, EncryptIndex: true, Files: files}

		f := openPak(t, p)
		if !f.NeedsKey() {
			t.Fatal("expected encrypted index")
		}
		if err := f.Mount(nil); errors.Cause(err) != ErrKeyRequired {
			t.Errorf("v%d: expected ErrKeyRequired, got %v", version, err)
		}
		wrong := bytes.Repeat([]byte{0x42}, KeySize)
		if err := f.Mount(wrong); errors.Cause(err) != ErrBadKey && errors.Cause(err) != ErrCorrupt {
			t.Errorf("v%d: expected a key failure, got %v", version, err)
		}
		if err := f.Mount(fixture.Key); err != nil {
			t.Fatalf("v%d: Mount with key failed: %v", version, err)
		}
		for _, want := range files {
			got, err := f.Read(want.Name)
			if err != nil {
				t.Fatalf("v%d: Read %s failed: %v", version, want.Name, err)
			}
			if !bytes.Equal(got, want.Data) {
				t.Errorf("v%d: Read %s returned wrong data", version, want.Name)
			}
		}
	}
}

func TestMountPointAndLookup(t *testing.T) {
	f := openPak(t, &fixture.Pak{
		MountPoint: "../../../Bates/",
		Files:      []fixture.PakFile{{Name: "Content/Events/Play.uasset", Data: []byte{1}}},
	})
	if err := f.Mount(nil); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if f.MountPoint != "Bates/" {
		t.Errorf("expected mount point Bates/, got %q", f.MountPoint)
	}
	files := f.Files()
	if len(files) != 1 || files[0] != "Bates/Content/Events/Play.uasset" {
		t.Errorf("unexpected files %v", files)
	}
	if _, ok := f.Entry("bates/content/events/PLAY.uasset"); !ok {
		t.Error("lookup should ignore case")
	}
	if _, err := f.Read("missing.uasset"); errors.Cause(err) != ErrFileNotFound {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestCorruptEntryCount(t *testing.T) {
	const mount = "../../../Corrupt/"
	data := (&fixture.Pak{
		Version:    11,
		MountPoint: mount,
		Files:      []fixture.PakFile{{Name: "Content/Play.uasset", Data: []byte{1}}},
	}).Bytes()

	at := bytes.Index(data, []byte(mount+"\x00"))
	if at < 0 {
		t.Fatal("mount point not found in the index")
	}
	count := at + len(mount) + 1
	copy(data[count:], []byte{0xFF, 0xFF, 0xFF, 0x7F})

	path := filepath.Join(t.TempDir(), "corrupt.pak")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	if err := f.Mount(nil); errors.Cause(err) != ErrCorrupt {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestReadBeforeMount(t *testing.T) {
	f := openPak(t, &fixture.Pak{Files: []fixture.PakFile{{Name: "a", Data: []byte{1}}}})
	if _, err := f.Read("a"); errors.Cause(err) != ErrNotMounted {
		t.Errorf("expected ErrNotMounted, got %v", err)
	}
}

func TestOpenRejectsNonPak(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pak")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xEE}, 512), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); errors.Cause(err) != ErrNotPak {
		t.Errorf("expected ErrNotPak, got %v", err)
	}

	tiny := filepath.Join(t.TempDir(), "tiny.pak")
	if err := os.WriteFile(tiny, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(tiny); errors.Cause(err) != ErrNotPak {
		t.Errorf("expected ErrNotPak for tiny file, got %v", err)
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{"Empty", "", 0, false},
		{"Zero", "0x0000000000000000000000000000000000000000000000000000000000000000", KeySize, false},
		{"NoPrefix", "3031323334353637383961626364656630313233343536373839616263646566", KeySize, false},
		{"Short", "0x1234", 0, true},
		{"NotHex", "0xZZ", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if len(key) != tt.wantLen {
				t.Errorf("expected %d byte key, got %d", tt.wantLen, len(key))
			}
		})
	}

	key, _ := ParseKey(fixture.KeyHex)
	if !bytes.Equal(key, fixture.Key) {
		t.Error("fixture key hex does not decode to fixture key")
	}
}

func TestNormalizeMountPoint(t *testing.T) {
	tests := map[string]string{
		"../../../":         "",
		"../../../Bates/":   "Bates/",
		"/Game":             "Game/",
		"..\\..\\..\\Foo\\": "Foo/",
	}
	for in, want := range tests {
		if got := normalizeMountPoint(in); got != want {
			t.Errorf("normalizeMountPoint(%q) = %q, expected %q", in, got, want)
		}
	}
}
