// lodtool generates progressive level-of-detail meshes for glTF assets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
)

// errUsage reports a command line mistake; usage has already been printed.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	if err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(stdout)
		return errUsage
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "build":
		return cmdBuild(ctx, args, stdout)
	case "demo":
		return cmdDemo(ctx, args, stdout)
	case "info":
		return cmdInfo(args, stdout)
	case "config":
		return cmdConfig(args, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(stdout)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `lodtool - progressive mesh LOD generator

Usage:
  lodtool <command> [options]

Commands:
  build [options] <in.glb> <out.glb>   Add LOD meshes to every triangle primitive
  demo [options] <shape> <out.glb>     Render a procedural shape and add LODs
  info <file.glb>                      Show meshes, triangle counts and LOD nodes
  config init [path]                   Write the default config (./lodtool.yaml)
  config show [options]                Print the effective config

Options (build, demo, config show):
  -config <path>     Config file (default ./lodtool.yaml, then user config dir)
  -levels <n>        LOD levels to generate
  -quota <kind>      proportional or constant
  -reduction <v>     Fraction or vertex count removed per level
  -workers <n>       Primitives simplified in parallel
  -no-morph          Ignore morph targets when costing collapses
  -report <path>     Write a YAML report
  -cells <n>         Marching cubes resolution (demo)
  -debug             Enable debug logging
  -log-file <path>   Also log to a rotating file

Examples:
  lodtool build -levels 4 scene.glb scene_lod.glb
  lodtool demo -cells 32 capsule capsule.glb
  lodtool info scene_lod.glb`)
}
