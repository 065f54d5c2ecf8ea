package main

import (
	"bytes"
	"errors"
	"flag"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/guipaint"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil || cfg != DefaultConfig() {
		t.Fatalf("LoadConfig(\"\") = %+v, %v", cfg, err)
	}

	path := writeFile(t, "demo.yaml", "width: 320\npixels_per_point: 2\nbackground: [1, 2, 3, 255]\n")
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 320 || cfg.Height != DefaultConfig().Height || cfg.PixelsPerPoint != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Background != [4]uint8{1, 2, 3, 255} {
		t.Errorf("background = %v", cfg.Background)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
	if _, err := LoadConfig(writeFile(t, "bad.yaml", "width: [")); err == nil {
		t.Error("malformed YAML accepted")
	}
	if _, err := LoadConfig(writeFile(t, "zero.yaml", "width: 0\n")); err == nil {
		t.Error("zero width accepted")
	}
}

func TestFlagsOverlayConfig(t *testing.T) {
	path := writeFile(t, "demo.yaml", "width: 320\nheight: 200\noutput: a.png\n")
	set := flag.NewFlagSet("render", flag.ContinueOnError)
	set.SetOutput(io.Discard)
	var f renderFlags
	f.register(set)
	if err := set.Parse([]string{"-config", path, "-height", "100", "-bindless", "4"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := f.resolve(set)
	if err != nil {
		t.Fatal(err)
	}
	// Unset flags keep the file values.
	if cfg.Width != 320 || cfg.Output != "a.png" {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.Height != 100 || cfg.BindlessSlots != 4 {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestFontAtlas(t *testing.T) {
	a := defaultAtlas()
	if a.image.Coverage[0] != 1 {
		t.Error("white texel missing")
	}
	for r := firstGlyph; r <= lastGlyph; r++ {
		if _, ok := a.glyphs[r]; !ok {
			t.Errorf("glyph %q missing", r)
		}
	}
	g := a.glyphs['A']
	if g.size != [2]float32{7, 13} || g.advance != 7 {
		t.Errorf("glyph A = %+v", g)
	}
	covered := 0
	for _, c := range a.image.Coverage[1:] {
		if c > 0 {
			covered++
		}
	}
	if covered == 0 {
		t.Error("no glyph pixels rasterized")
	}

	var m guipaint.Mesh
	width := a.textMesh(&m, [2]float32{0, 0}, "a b", guipaint.White)
	if width != 21 {
		t.Errorf("text width = %v, want 21", width)
	}
	if len(m.Indices) != 12 {
		t.Errorf("got %d indices, spaces must not emit quads", len(m.Indices))
	}
}

func TestRenderCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "demo.png")
	var stderr bytes.Buffer
	if err := run([]string{"render", "-width", "200", "-height", "160", "-output", out}, io.Discard, &stderr); err != nil {
		t.Fatalf("render: %v\n%s", err, stderr.String())
	}

	file, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 160 {
		t.Errorf("image size = %v", b)
	}
	// Background shows outside the window.
	if r, g, b, _ := img.At(2, 2).RGBA(); r>>8 != 18 || g>>8 != 18 || b>>8 != 18 {
		t.Errorf("background pixel = %v %v %v", r>>8, g>>8, b>>8)
	}
	// Window fill inside.
	if r, _, _, _ := img.At(30, 100).RGBA(); r>>8 == 18 {
		t.Error("window not drawn")
	}
}

func TestRenderBindlessMatchesSingle(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "single.png")
	bindless := filepath.Join(dir, "bindless.png")
	if err := run([]string{"render", "-output", single}, io.Discard, io.Discard); err != nil {
		t.Fatal(err)
	}
	if err := run([]string{"render", "-bindless", "1", "-output", bindless}, io.Discard, io.Discard); err != nil {
		t.Fatal(err)
	}
	a, _ := os.ReadFile(single)
	b, _ := os.ReadFile(bindless)
	if !bytes.Equal(a, b) {
		t.Error("bindless render differs from single binding")
	}
}

func TestShaderCommand(t *testing.T) {
	var stdout bytes.Buffer
	if err := run([]string{"shader"}, &stdout, io.Discard); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "fn fs_main") || strings.Contains(stdout.String(), "#ifdef") {
		t.Error("shader output is not resolved WGSL")
	}

	stdout.Reset()
	if err := run([]string{"shader", "-bindless", "4"}, &stdout, io.Discard); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "binding_array<texture_2d<f32>, 4>") {
		t.Error("bindless slots not substituted")
	}
}

func TestRunErrors(t *testing.T) {
	if err := run(nil, io.Discard, io.Discard); !errors.Is(err, errUsage) {
		t.Errorf("no args = %v", err)
	}
	if err := run([]string{"paint"}, io.Discard, io.Discard); !errors.Is(err, errUsage) {
		t.Errorf("unknown command = %v", err)
	}
	if err := run([]string{"render", "-width", "0"}, io.Discard, io.Discard); err == nil {
		t.Error("zero width accepted")
	}
}
