// Command bk-asset-tool extracts a Banjo-Kazooie asset archive into a
// directory of editable files, and reconstructs the archive from them.
package main

import (
	"fmt"
	"log"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/MittenzHugg/bk-asset-tool/internal/assets"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  bk-asset-tool --extract|-e   <in_archive>  <out_dir>
  bk-asset-tool --construct|-c <in_manifest> <out_archive>
`)
}

func main() {
	log.SetFlags(0)

	extract := flag.BoolP("extract", "e", false, "extract an archive into a directory")
	construct := flag.BoolP("construct", "c", false, "construct an archive from a manifest")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if *extract == *construct || len(args) != 2 {
		usage()
		os.Exit(2)
	}

	var err error
	if *extract {
		err = runExtract(args[0], args[1])
	} else {
		err = runConstruct(args[0], args[1])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "bk-asset-tool: %v\n", err)
		os.Exit(1)
	}
}

func runExtract(inPath, outDir string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	folder, err := assets.ParseArchive(data)
	if err != nil {
		return fmt.Errorf("parse archive %s: %w", inPath, err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return folder.WriteDir(outDir)
}

func runConstruct(manifestPath, outPath string) error {
	folder, err := assets.ReadManifest(manifestPath)
	if err != nil {
		return err
	}
	out, err := folder.Encode()
	if err != nil {
		return err
	}
	if rem := len(out) % 16; rem != 0 {
		out = append(out, make([]byte, 16-rem)...)
	}
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	log.Printf("wrote %d bytes to %s", len(out), outPath)
	return nil
}
