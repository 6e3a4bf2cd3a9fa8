/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/notargets/distmat/comm"
	"github.com/notargets/distmat/dist"
	"github.com/pkg/profile"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// BenchCmd represents the benchmark command
var BenchCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Time redistribution collectives over repeated iterations",
	Long: `
Runs a redistribution repeatedly on a simulated process grid and reports
per-collective call counts, wall time and data volume from rank 0's view.

distmat benchmark`,
	Run: func(cmd *cobra.Command, args []string) {
		bm := &BenchModel{}
		bm.GridHeight, _ = cmd.Flags().GetInt("gridHeight")
		bm.GridWidth, _ = cmd.Flags().GetInt("gridWidth")
		bm.Height, _ = cmd.Flags().GetInt("height")
		bm.Width, _ = cmd.Flags().GetInt("width")
		bm.Iterations, _ = cmd.Flags().GetInt("iterations")
		srcCol, _ := cmd.Flags().GetString("srcColDist")
		srcRow, _ := cmd.Flags().GetString("srcRowDist")
		dstCol, _ := cmd.Flags().GetString("dstColDist")
		dstRow, _ := cmd.Flags().GetString("dstRowDist")
		var err error
		for k, name := range []string{srcCol, srcRow, dstCol, dstRow} {
			if bm.Layout[k], err = dist.ParseDist(name); err != nil {
				fmt.Printf("error: %s\n", err.Error())
				os.Exit(1)
			}
		}
		if prof, _ := cmd.Flags().GetBool("profile"); prof {
			defer profile.Start(profile.CPUProfile).Stop()
		}
		RunBenchmark(bm)
	},
}

func init() {
	rootCmd.AddCommand(BenchCmd)
	BenchCmd.Flags().Int("gridHeight", 2, "process grid height")
	BenchCmd.Flags().Int("gridWidth", 2, "process grid width")
	BenchCmd.Flags().Int("height", 2000, "global matrix height")
	BenchCmd.Flags().Int("width", 2000, "global matrix width")
	BenchCmd.Flags().IntP("iterations", "i", 50, "number of redistributions to time")
	BenchCmd.Flags().String("srcColDist", "MC", "source column-axis kind")
	BenchCmd.Flags().String("srcRowDist", "MR", "source row-axis kind")
	BenchCmd.Flags().String("dstColDist", "VC", "destination column-axis kind")
	BenchCmd.Flags().String("dstRowDist", "STAR", "destination row-axis kind")
	BenchCmd.Flags().Bool("profile", false, "write a CPU profile for the run")
}

type BenchModel struct {
	GridHeight, GridWidth int
	Height, Width         int
	Iterations            int
	Layout                [4]dist.Dist
}

// RunBenchmark times bm.Iterations redistributions, attaching a profiler to
// rank 0's grid communicators and reporting its per-collective totals.
func RunBenchmark(bm *BenchModel) {
	world, err := comm.NewWorld(bm.GridHeight * bm.GridWidth)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	var (
		prof  = comm.NewProfiler()
		bar   = progressbar.Default(int64(bm.Iterations), "redistributing")
		start = time.Now()
	)
	world.Run(func(c *comm.Comm) {
		g := dist.NewGrid(c, bm.GridHeight, bm.GridWidth)
		if c.Rank() == 0 {
			g.SetProfiler(prof)
		}
		A := dist.NewDistMatWithDims(g, bm.Layout[0], bm.Layout[1], bm.Height, bm.Width)
		fillTestMatrix(A)
		B := dist.NewDistMat(g, bm.Layout[2], bm.Layout[3])
		for iter := 0; iter < bm.Iterations; iter++ {
			dist.Copy(B, A)
			if c.Rank() == 0 {
				_ = bar.Add(1)
			}
		}
	})
	elapsed := time.Since(start)
	fmt.Printf("\n%d iterations in %v, %s moved through rank 0\n",
		bm.Iterations, elapsed, humanize.Bytes(uint64(prof.TotalBytes())))
	fmt.Print(prof.Report())
}
