package uasset

import (
	"strings"

	"github.com/ossrs/go-oryx-lib/errors"
)

// Object versions the reader branches on.
const (
	VerUE4OldestLoadable               = 214
	VerUE4WorldLevelInfo               = 224
	VerUE4ChunkIDInAssetData           = 278
	VerUE4ArrayPropertyInnerTags       = 282
	VerUE4ChunkIDArray                 = 326
	VerUE4EngineVersionObject          = 336
	VerUE4LoadForEditorGame            = 365
	VerUE4StringAssetReferencesMap     = 384
	VerUE4StructGuidInPropertyTag      = 441
	VerUE4CompatibleEngineVersion      = 444
	VerUE4SerializeTextInPackages      = 459
	VerUE4CookedAssetsInEditor         = 485
	VerUE4PropertyGuidInPropertyTag    = 503
	VerUE4NameHashesSerialized         = 504
	VerUE4PreloadDependenciesInExports = 507
	VerUE4TemplateIndexInExports       = 508
	VerUE4PropertyTagSetMapSupport     = 509
	VerUE4AddedSearchableNames         = 510
	VerUE4ExportMap64BitSerialSizes    = 511
	VerUE4SummaryLocalizationID        = 516
	VerUE4AddedPackageOwner            = 518
	VerUE4NonOuterPackageImport        = 520
	VerUE4Latest                       = 522

	VerUE5Initial                     = 1000
	VerUE5NamesReferencedFromExports  = 1001
	VerUE5PayloadTOC                  = 1002
	VerUE5OptionalResources           = 1003
	VerUE5LargeWorldCoordinates       = 1004
	VerUE5RemoveExportPackageGuid     = 1005
	VerUE5TrackExportIsInherited      = 1006
	VerUE5SoftObjectPathNoAssetFNames = 1007
	VerUE5SoftObjectPathList          = 1008
	VerUE5DataResources               = 1009
	VerUE5ScriptSerializationOffset   = 1010
	VerUE5PropertyTagExtension        = 1011
	VerUE5PropertyTagCompleteTypeName = 1012
	VerUE5PackageBuildDependencies    = 1013
	VerUE5MetadataSerializationOffset = 1014
	VerUE5VerseCells                  = 1015
	VerUE5PackageSavedHash            = 1016
)

// Game selects the engine versions used for unversioned packages.
type Game int

const (
	GameUE4_20 Game = iota
	GameUE4_21
	GameUE4_22
	GameUE4_23
	GameUE4_24
	GameUE4_25
	GameUE4_26
	GameUE4_27
	GameUE5_0
	GameUE5_1
	GameUE5_2
	GameUE5_3
	GameUE5_4
	GameUE5_5

	GameLatest = GameUE5_5
)

var games = [...]struct {
	name string
	ue4  int32
	ue5  int32
}{
	GameUE4_20: {"GAME_UE4_20", 508, 0},
	GameUE4_21: {"GAME_UE4_21", 510, 0},
	GameUE4_22: {"GAME_UE4_22", 513, 0},
	GameUE4_23: {"GAME_UE4_23", 514, 0},
	GameUE4_24: {"GAME_UE4_24", 517, 0},
	GameUE4_25: {"GAME_UE4_25", 518, 0},
	GameUE4_26: {"GAME_UE4_26", 520, 0},
	GameUE4_27: {"GAME_UE4_27", 522, 0},
	GameUE5_0:  {"GAME_UE5_0", 522, VerUE5LargeWorldCoordinates},
	GameUE5_1:  {"GAME_UE5_1", 522, VerUE5SoftObjectPathList},
	GameUE5_2:  {"GAME_UE5_2", 522, VerUE5DataResources},
	GameUE5_3:  {"GAME_UE5_3", 522, VerUE5DataResources},
	GameUE5_4:  {"GAME_UE5_4", 522, VerUE5PropertyTagCompleteTypeName},
	GameUE5_5:  {"GAME_UE5_5", 522, VerUE5VerseCells},
}

func (g Game) valid() bool {
	return g >= 0 && int(g) < len(games)
}

func (g Game) String() string {
	if !g.valid() {
		return "GAME_UNKNOWN"
	}
	return games[g].name
}

// Versions returns the UE4 and UE5 object versions the game cooks with.
func (g Game) Versions() (ue4, ue5 int32) {
	if !g.valid() {
		g = GameLatest
	}
	return games[g].ue4, games[g].ue5
}

// ParseGame accepts GAME_UE5_3, UE5_3 or 5.3.
func ParseGame(s string) (Game, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, ".", "_")
	if !strings.HasPrefix(name, "GAME_") {
		if !strings.HasPrefix(name, "UE") {
			name = "UE" + name
		}
		name = "GAME_" + name
	}
	for i, g := range games {
		if g.name == name {
			return Game(i), nil
		}
	}
	return 0, errors.Errorf("unknown game version %q", s)
}

func (g Game) MarshalText() ([]byte, error) {
	if !g.valid() {
		return nil, errors.Errorf("invalid game version %d", int(g))
	}
	return []byte(g.String()), nil
}

func (g *Game) UnmarshalText(b []byte) error {
	v, err := ParseGame(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}
