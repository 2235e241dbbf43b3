// Command vkshotcmp compares two sets of captured frames.
//
// Frames are paired by number: for prefixes "baseline_fp32" and
// "position_fp16" it matches baseline_fp32_frame7.ppm against
// position_fp16_frame7.ppm and reports MSE, PSNR and per-channel maximum
// difference for every common frame, plus averages. Results go to a CSV
// file; -diff additionally renders amplified difference images as PNG.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/TNtube/vkcapture/compare"

	_ "github.com/TNtube/vkcapture" // PPM decoder for image.Decode
)

var frameRe = regexp.MustCompile(`frame(\d+)\.ppm$`)

type framePair struct {
	num     int
	refFile string
	cmpFile string
}

func main() {
	var (
		refPrefix = flag.String("reference", "", "reference image prefix (e.g. baseline_fp32)")
		cmpPrefix = flag.String("compare", "", "comparison image prefix (e.g. position_fp16)")
		directory = flag.String("directory", "screenshots", "screenshots directory")
		output    = flag.String("output", "comparison_results.csv", "output CSV filename")
		diff      = flag.Bool("diff", false, "generate difference images")
		amplify   = flag.Float64("diff-amplify", 10.0, "amplification factor for difference images")
	)
	flag.Parse()

	if *refPrefix == "" || *cmpPrefix == "" {
		flag.Usage()
		os.Exit(2)
	}

	pairs, err := matchFrames(*directory, *refPrefix, *cmpPrefix)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", *directory, err)
	}
	if len(pairs) == 0 {
		log.Fatalf("No matching frames found for prefixes %q and %q", *refPrefix, *cmpPrefix)
	}

	fmt.Printf("Found %d matching frame pairs\n", len(pairs))
	fmt.Printf("Reference: %s\n", *refPrefix)
	fmt.Printf("Compare:   %s\n", *cmpPrefix)
	fmt.Println("----------------------------------------------------------------------")

	diffDir := filepath.Join(*directory, "diff")
	if *diff {
		if err := os.MkdirAll(diffDir, 0o755); err != nil {
			log.Fatalf("Failed to create %s: %v", diffDir, err)
		}
	}

	type result struct {
		frame int
		m     compare.Metrics
	}
	var results []result
	var totalMSE, totalPSNR float64

	for _, p := range pairs {
		ref, err := loadImage(filepath.Join(*directory, p.refFile))
		if err != nil {
			log.Fatalf("Failed to load %s: %v", p.refFile, err)
		}
		cmpImg, err := loadImage(filepath.Join(*directory, p.cmpFile))
		if err != nil {
			log.Fatalf("Failed to load %s: %v", p.cmpFile, err)
		}

		m := compare.Images(ref, cmpImg)
		results = append(results, result{p.num, m})

		totalMSE += m.MSE
		if math.IsInf(m.PSNR, 1) {
			totalPSNR += 100.0
		} else {
			totalPSNR += m.PSNR
		}

		fmt.Printf("Frame %5d: MSE=%10.4f  PSNR=%8s dB  max diff=%v\n",
			p.num, m.MSE, psnrString(m.PSNR), m.MaxDiff)

		if *diff {
			img := compare.Diff(ref, cmpImg, *amplify)
			path := filepath.Join(diffDir, fmt.Sprintf("diff_frame%d.png", p.num))
			if err := savePNG(path, img); err != nil {
				log.Fatalf("Failed to save %s: %v", path, err)
			}
		}
	}

	n := float64(len(results))
	avgMSE := totalMSE / n
	avgPSNR := totalPSNR / n

	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("AVERAGE:     MSE=%10.4f  PSNR=%8.2f dB\n", avgMSE, avgPSNR)
	fmt.Printf("\nQuality Assessment:\n  PSNR %.1f dB: %s\n", avgPSNR, compare.Assessment(avgPSNR))

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *output, err)
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{"frame", "mse", "psnr", "max_r", "max_g", "max_b"})
	for _, r := range results {
		_ = w.Write([]string{
			strconv.Itoa(r.frame),
			strconv.FormatFloat(r.m.MSE, 'f', 6, 64),
			psnrString(r.m.PSNR),
			strconv.Itoa(int(r.m.MaxDiff[0])),
			strconv.Itoa(int(r.m.MaxDiff[1])),
			strconv.Itoa(int(r.m.MaxDiff[2])),
		})
	}
	_ = w.Write([]string{
		"AVERAGE",
		strconv.FormatFloat(avgMSE, 'f', 6, 64),
		strconv.FormatFloat(avgPSNR, 'f', 2, 64),
		"", "", "",
	})
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to close %s: %v", *output, err)
	}

	fmt.Printf("\nResults saved to: %s\n", *output)
	if *diff {
		fmt.Printf("Difference images saved to: %s\n", diffDir)
	}
}

// matchFrames pairs <prefix>...frame<N>.ppm files by frame number and
// returns the pairs present under both prefixes, ordered by frame.
func matchFrames(dir, refPrefix, cmpPrefix string) ([]framePair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	refFiles := map[int]string{}
	cmpFiles := map[int]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		m := frameRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(name, refPrefix):
			refFiles[num] = name
		case strings.HasPrefix(name, cmpPrefix):
			cmpFiles[num] = name
		}
	}

	var pairs []framePair
	for num, refFile := range refFiles {
		if cmpFile, ok := cmpFiles[num]; ok {
			pairs = append(pairs, framePair{num, refFile, cmpFile})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].num < pairs[j].num })
	return pairs, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func psnrString(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return strconv.FormatFloat(psnr, 'f', 2, 64)
}
