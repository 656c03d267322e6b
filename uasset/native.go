package uasset

import "github.com/ErwinsExpertise/go-wwise-export/ueio"

type Vector struct{ X, Y, Z float64 }
type Vector2D struct{ X, Y float64 }
type Vector4 struct{ X, Y, Z, W float64 }
type Rotator struct{ Pitch, Yaw, Roll float64 }
type LinearColor struct{ R, G, B, A float32 }
type Color struct{ R, G, B, A uint8 }
type IntPoint struct{ X, Y int32 }
type IntVector struct{ X, Y, Z int32 }

type Box struct {
	Min, Max Vector
	IsValid  bool
}

type Box2D struct {
	Min, Max Vector2D
	IsValid  bool
}

// PerPlatform holds the cooked default of a per-platform value.
type PerPlatform struct {
	Default interface{}
}

// real reads a float component, which is a double once large world
// coordinates are enabled.
func (p *Package) real(r *ueio.Reader) float64 {
	if p.Summary.FileVersionUE5 >= VerUE5LargeWorldCoordinates {
		return r.Float64()
	}
	return float64(r.Float32())
}

func (p *Package) vector(r *ueio.Reader) Vector {
	return Vector{p.real(r), p.real(r), p.real(r)}
}

func (p *Package) vector2D(r *ueio.Reader) Vector2D {
	return Vector2D{p.real(r), p.real(r)}
}

func (p *Package) vector4(r *ueio.Reader) Vector4 {
	return Vector4{p.real(r), p.real(r), p.real(r), p.real(r)}
}

func readFloat32Vector(r *ueio.Reader) Vector {
	return Vector{float64(r.Float32()), float64(r.Float32()), float64(r.Float32())}
}

func (p *Package) perPlatform(r *ueio.Reader, value func() interface{}) interface{} {
	if !r.Bool32() {
		r.Fail(errUncookedPerPlatform)
		return nil
	}
	return PerPlatform{Default: value()}
}

// nativeStructs are the structs with binary serialization.
var nativeStructs = map[string]func(p *Package, r *ueio.Reader) interface{}{
	"Vector":          func(p *Package, r *ueio.Reader) interface{} { return p.vector(r) },
	"Vector3d":        func(p *Package, r *ueio.Reader) interface{} { return Vector{r.Float64(), r.Float64(), r.Float64()} },
	"Vector3f":        func(p *Package, r *ueio.Reader) interface{} { return readFloat32Vector(r) },
	"Vector2D":        func(p *Package, r *ueio.Reader) interface{} { return p.vector2D(r) },
	"Vector2f":        func(p *Package, r *ueio.Reader) interface{} { return Vector2D{float64(r.Float32()), float64(r.Float32())} },
	"Vector4":         func(p *Package, r *ueio.Reader) interface{} { return p.vector4(r) },
	"Quat":            func(p *Package, r *ueio.Reader) interface{} { return p.vector4(r) },
	"Plane":           func(p *Package, r *ueio.Reader) interface{} { return p.vector4(r) },
	"Rotator":         func(p *Package, r *ueio.Reader) interface{} { return Rotator{p.real(r), p.real(r), p.real(r)} },
	"LinearColor":     func(p *Package, r *ueio.Reader) interface{} { return LinearColor{r.Float32(), r.Float32(), r.Float32(), r.Float32()} },
	"IntPoint":        func(p *Package, r *ueio.Reader) interface{} { return IntPoint{r.Int32(), r.Int32()} },
	"IntVector":       func(p *Package, r *ueio.Reader) interface{} { return IntVector{r.Int32(), r.Int32(), r.Int32()} },
	"Guid":            func(p *Package, r *ueio.Reader) interface{} { return r.Guid() },
	"DateTime":        func(p *Package, r *ueio.Reader) interface{} { return r.Int64() },
	"Timespan":        func(p *Package, r *ueio.Reader) interface{} { return r.Int64() },
	"FrameNumber":     func(p *Package, r *ueio.Reader) interface{} { return r.Int32() },
	"GameplayTag":     func(p *Package, r *ueio.Reader) interface{} { return p.names.read(r) },
	"PerPlatformBool": func(p *Package, r *ueio.Reader) interface{} { return p.perPlatform(r, func() interface{} { return r.Bool32() }) },
	"PerPlatformInt":  func(p *Package, r *ueio.Reader) interface{} { return p.perPlatform(r, func() interface{} { return r.Int32() }) },

	"PerPlatformFloat": func(p *Package, r *ueio.Reader) interface{} {
		return p.perPlatform(r, func() interface{} { return r.Float32() })
	},
	"Color": func(p *Package, r *ueio.Reader) interface{} {
		b, g, rd, a := r.Uint8(), r.Uint8(), r.Uint8(), r.Uint8()
		return Color{R: rd, G: g, B: b, A: a}
	},
	"Box": func(p *Package, r *ueio.Reader) interface{} {
		return Box{Min: p.vector(r), Max: p.vector(r), IsValid: r.Uint8() != 0}
	},
	"Box2D": func(p *Package, r *ueio.Reader) interface{} {
		return Box2D{Min: p.vector2D(r), Max: p.vector2D(r), IsValid: r.Uint8() != 0}
	},
	"GameplayTagContainer": func(p *Package, r *ueio.Reader) interface{} {
		n, err := p.count(r)
		if err != nil {
			r.Fail(err)
			return nil
		}
		tags := make([]string, n)
		for i := range tags {
			tags[i] = p.names.read(r)
		}
		return tags
	},

	"SoftObjectPath":       softPathStruct,
	"SoftClassPath":        softPathStruct,
	"StringAssetReference": softPathStruct,
	"StringClassReference": softPathStruct,

	"TopLevelAssetPath": func(p *Package, r *ueio.Reader) interface{} {
		pkg, asset := p.names.read(r), p.names.read(r)
		return SoftObjectPath{AssetPath: pkg + "." + asset}
	},
}

func softPathStruct(p *Package, r *ueio.Reader) interface{} {
	v, err := p.readSoftPath(r)
	if err != nil {
		r.Fail(err)
	}
	return v
}
