// Package shader holds the WGSL program that shades GUI meshes, resolves its
// compile-time variants and compiles them with naga.
package shader

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

//go:embed gui_mesh.wgsl
var guiMeshWGSL string

// Entry point names.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// Bind group layout of the program.
const (
	TransformGroup   = 0
	TextureGroup     = 1
	TextureBinding   = 0
	SamplerBinding   = 1
	PushConstantSize = 4
)

// ErrNoSlots is returned for a bindless variant without texture slots.
var ErrNoSlots = errors.New("shader: bindless variant needs at least one slot")

// Variant selects how the fragment stage finds its texture. It is fixed
// when the pipeline is built; draws never switch between variants.
type Variant struct {
	// Bindless binds Slots textures and samplers per group as arrays and
	// picks one with a push-constant offset. Otherwise each group binds a
	// single texture and sampler.
	Bindless bool
	Slots    uint32
}

// Single is the default single-binding variant.
var Single = Variant{}

// BindlessVariant returns a bindless variant with the given array size.
func BindlessVariant(slots uint32) Variant {
	return Variant{Bindless: true, Slots: slots}
}

// Validate checks the variant parameters.
func (v Variant) Validate() error {
	if v.Bindless && v.Slots == 0 {
		return ErrNoSlots
	}
	return nil
}

// Defs returns the shader definitions of the variant.
func (v Variant) Defs() map[string]string {
	if !v.Bindless {
		return map[string]string{}
	}
	return map[string]string{
		"BINDLESS":       "",
		"BINDLESS_SLOTS": strconv.FormatUint(uint64(v.Slots), 10),
	}
}

func (v Variant) String() string {
	if v.Bindless {
		return fmt.Sprintf("bindless(%d)", v.Slots)
	}
	return "single"
}

// RawSource returns the WGSL file with its preprocessor directives.
func RawSource() string {
	return guiMeshWGSL
}

// Source returns the WGSL source of variant v.
func Source(v Variant) (string, error) {
	if err := v.Validate(); err != nil {
		return "", err
	}
	return Preprocess(guiMeshWGSL, v.Defs())
}

// Compile returns validated SPIR-V for variant v as little-endian words.
func Compile(v Variant) ([]uint32, error) {
	src, err := Source(v)
	if err != nil {
		return nil, err
	}
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("shader: compile %s: %w", v, err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shader: compile %s: SPIR-V size %d not word aligned", v, len(spirvBytes))
	}

	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(v Variant) []uint32 {
	words, err := Compile(v)
	if err != nil {
		panic(err)
	}
	return words
}

// Stage is a shader stage of an entry point.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageOther
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "other"
	}
}

// ResourceKind classifies a global resource.
type ResourceKind uint8

const (
	ResourceUniform ResourceKind = iota
	ResourceHandle               // textures and samplers
	ResourcePushConstant
	ResourceOther
)

// EntryPoint is an entry point of the program.
type EntryPoint struct {
	Name  string
	Stage Stage
}

// Resource is a module-scope variable visible to the pipeline layout.
type Resource struct {
	Name string
	Kind ResourceKind
	// Group and Binding are meaningful when Bound is true. Push
	// constants are never bound.
	Group   uint32
	Binding uint32
	Bound   bool
}

// Interface is the pipeline-facing surface of a compiled variant.
type Interface struct {
	EntryPoints []EntryPoint
	Resources   []Resource
}

// Lookup returns the resource bound at group/binding.
func (in *Interface) Lookup(group, binding uint32) (Resource, bool) {
	for _, r := range in.Resources {
		if r.Bound && r.Group == group && r.Binding == binding {
			return r, true
		}
	}
	return Resource{}, false
}

// HasPushConstants reports whether the program reads push constants.
func (in *Interface) HasPushConstants() bool {
	for _, r := range in.Resources {
		if r.Kind == ResourcePushConstant {
			return true
		}
	}
	return false
}

// Reflect parses and lowers variant v with naga and lists its entry points
// and global resources.
func Reflect(v Variant) (*Interface, error) {
	src, err := Source(v)
	if err != nil {
		return nil, err
	}
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("shader: reflect %s: %w", v, err)
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, fmt.Errorf("shader: reflect %s: %w", v, err)
	}

	in := &Interface{}
	for _, ep := range module.EntryPoints {
		stage := StageOther
		switch ep.Stage {
		case ir.StageVertex:
			stage = StageVertex
		case ir.StageFragment:
			stage = StageFragment
		}
		in.EntryPoints = append(in.EntryPoints, EntryPoint{Name: ep.Name, Stage: stage})
	}
	for _, gv := range module.GlobalVariables {
		r := Resource{Name: gv.Name}
		switch gv.Space {
		case ir.SpaceUniform:
			r.Kind = ResourceUniform
		case ir.SpaceHandle:
			r.Kind = ResourceHandle
		case ir.SpacePushConstant, ir.SpaceImmediate:
			r.Kind = ResourcePushConstant
		default:
			r.Kind = ResourceOther
		}
		if gv.Binding != nil {
			r.Group, r.Binding, r.Bound = gv.Binding.Group, gv.Binding.Binding, true
		}
		in.Resources = append(in.Resources, r)
	}
	return in, nil
}
