package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

func defaultOutputFile(input, suffix string) string {
	ext := strings.ToLower(filepath.Ext(input))
	return input[0:len(input)-len(ext)] + suffix + ".glb"
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -markers markers.json model.glb [output.glb]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s -retarget source.glb target.glb [output.glb]\n", os.Args[0])
		flag.PrintDefaults()
	}
	markers := flag.String("markers", "", "joint marker file (.json) for rigging")
	preset := flag.String("preset", "", "envelope preset file (.yaml)")
	preview := flag.Bool("preview", false, "write weight preview vertex colors")
	jobs := flag.Int("j", runtime.NumCPU(), "weight solver workers")
	retargetSrc := flag.String("retarget", "", "animation source model (.glb)")
	anim := flag.Int("anim", 0, "animation index in the source model")
	fps := flag.Float64("fps", 30, "output frame rate")
	footIK := flag.Bool("footik", false, "re-plant feet after retargeting")
	timeout := flag.Duration("timeout", 30*time.Second, "retarget time limit")
	aliases := flag.String("aliases", "", "extra bone alias file (.json)")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	input := flag.Arg(0)

	if *retargetSrc != "" {
		output := defaultOutputFile(input, "-retargeted")
		if flag.NArg() > 1 {
			output = flag.Arg(1)
		}
		if err := retargetClip(input, *retargetSrc, output, *anim, *fps, *footIK, *timeout, *aliases); err != nil {
			log.Fatal(err)
		}
		log.Println("Saved: ", output)
		return
	}

	if *markers == "" {
		flag.Usage()
		os.Exit(2)
	}
	output := defaultOutputFile(input, "-rigged")
	if flag.NArg() > 1 {
		output = flag.Arg(1)
	}
	if err := rigModel(input, output, *markers, *preset, *preview, *jobs); err != nil {
		log.Fatal(err)
	}
	log.Println("Saved: ", output)
}
