// Command guipaint renders a demo GUI frame with the software rasterizer
// and inspects the mesh shader.
//
// Usage:
//
//	guipaint render [-config file.yaml] [-width 640] [-height 400] [-ppp 1] [-output out.png]
//	guipaint shader [-bindless N] [-spirv out.spv]
package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"

	"github.com/gogpu/guipaint"
	"github.com/gogpu/guipaint/raster"
	"github.com/gogpu/guipaint/shader"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "guipaint:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: guipaint <render|shader> [flags]")

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "render":
		return runRender(args[1:], stderr)
	case "shader":
		return runShader(args[1:], stdout, stderr)
	default:
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}
}

func runRender(args []string, stderr io.Writer) error {
	set := flag.NewFlagSet("render", flag.ContinueOnError)
	set.SetOutput(stderr)
	var f renderFlags
	f.register(set)
	if err := set.Parse(args); err != nil {
		return err
	}
	cfg, err := f.resolve(set)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	guipaint.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer guipaint.SetLogger(nil)

	if err := renderDemo(cfg); err != nil {
		return err
	}
	guipaint.Logger().Info("demo saved", "output", cfg.Output, "width", cfg.Width, "height", cfg.Height)
	return nil
}

// renderDemo builds the demo frame, rasterizes it and writes cfg.Output.
func renderDemo(cfg Config) error {
	var opts []raster.Option
	if cfg.Workers > 0 {
		opts = append(opts, raster.WithWorkers(cfg.Workers))
	}
	if cfg.BindlessSlots > 0 {
		opts = append(opts, raster.WithBindless(cfg.BindlessSlots))
	}
	r, err := raster.New(opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	demo := buildDemo(cfg, defaultAtlas())
	textures := guipaint.NewTextureManager()
	if err := textures.Apply(0, demo.delta); err != nil {
		return err
	}
	frame := guipaint.PrepareFrame(demo.prims, demo.params)

	dst := raster.NewTarget(demo.params.Viewport)
	raster.Clear(dst, guipaint.Color32(cfg.Background))
	source := textures.Source(0, guipaint.UserImageSource(demo.users))
	if err := r.Render(dst, frame, source); err != nil {
		return err
	}

	out, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	if err := png.Encode(out, dst); err != nil {
		_ = out.Close()
		return fmt.Errorf("encode %s: %w", cfg.Output, err)
	}
	return out.Close()
}

func runShader(args []string, stdout, stderr io.Writer) error {
	set := flag.NewFlagSet("shader", flag.ContinueOnError)
	set.SetOutput(stderr)
	slots := set.Uint("bindless", 0, "bindless texture slots (0 = single binding)")
	spirv := set.String("spirv", "", "compile to SPIR-V and write it to this file")
	if err := set.Parse(args); err != nil {
		return err
	}

	v := shader.Single
	if *slots > 0 {
		v = shader.BindlessVariant(uint32(*slots)) //nolint:gosec // flag value
	}

	if *spirv == "" {
		src, err := shader.Source(v)
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, src)
		return err
	}

	words, err := shader.Compile(v)
	if err != nil {
		return err
	}
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	if err := os.WriteFile(*spirv, buf, 0o644); err != nil { //nolint:gosec // build artifact
		return err
	}
	fmt.Fprintf(stdout, "%s: %d words\n", *spirv, len(words))
	return nil
}
