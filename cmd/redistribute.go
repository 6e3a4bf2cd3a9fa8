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
	"io/ioutil"
	"os"
	"sync"

	"github.com/notargets/distmat/InputParameters"
	"github.com/notargets/distmat/comm"
	"github.com/notargets/distmat/dist"
	"github.com/spf13/cobra"
)

// RedistCmd represents the redistribute command
var RedistCmd = &cobra.Command{
	Use:   "redistribute",
	Short: "Redistribute a matrix between two layouts and verify the result",
	Long: `
Creates a matrix in the source layout over a simulated process grid, copies
it into the destination layout, and checks every destination element against
the source values.

distmat redistribute`,
	Run: func(cmd *cobra.Command, args []string) {
		rp := &InputParameters.RedistParameters{
			Title:      "redistribute",
			Iterations: 1,
			Verify:     true,
		}
		if pf, _ := cmd.Flags().GetString("paramFile"); len(pf) != 0 {
			data, err := ioutil.ReadFile(pf)
			if err != nil {
				fmt.Printf("error: %s\n", err.Error())
				os.Exit(1)
			}
			if err = rp.Parse(data); err != nil {
				fmt.Printf("error: %s\n", err.Error())
				os.Exit(1)
			}
		} else {
			rp.GridHeight, _ = cmd.Flags().GetInt("gridHeight")
			rp.GridWidth, _ = cmd.Flags().GetInt("gridWidth")
			rp.Height, _ = cmd.Flags().GetInt("height")
			rp.Width, _ = cmd.Flags().GetInt("width")
			rp.ColAlign, _ = cmd.Flags().GetInt("colAlign")
			rp.RowAlign, _ = cmd.Flags().GetInt("rowAlign")
			rp.SrcColDist, _ = cmd.Flags().GetString("srcColDist")
			rp.SrcRowDist, _ = cmd.Flags().GetString("srcRowDist")
			rp.DstColDist, _ = cmd.Flags().GetString("dstColDist")
			rp.DstRowDist, _ = cmd.Flags().GetString("dstRowDist")
			if err := rp.Validate(); err != nil {
				fmt.Printf("error: %s\n", err.Error())
				os.Exit(1)
			}
		}
		rp.Print()
		if err := RunRedistribute(rp); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(RedistCmd)
	RedistCmd.Flags().StringP("paramFile", "I", "", "YAML file with redistribution parameters")
	RedistCmd.Flags().Int("gridHeight", 2, "process grid height")
	RedistCmd.Flags().Int("gridWidth", 2, "process grid width")
	RedistCmd.Flags().Int("height", 5, "global matrix height")
	RedistCmd.Flags().Int("width", 5, "global matrix width")
	RedistCmd.Flags().Int("colAlign", 0, "source column alignment")
	RedistCmd.Flags().Int("rowAlign", 0, "source row alignment")
	RedistCmd.Flags().String("srcColDist", "MC", "source column-axis kind: MC, MR, MD, VC, VR, STAR, CIRC")
	RedistCmd.Flags().String("srcRowDist", "MR", "source row-axis kind")
	RedistCmd.Flags().String("dstColDist", "STAR", "destination column-axis kind")
	RedistCmd.Flags().String("dstRowDist", "STAR", "destination row-axis kind")
}

// testValue is the deterministic fill: recoverable from the global index
// alone, so any process can check any element it ends up holding.
func testValue(i, j, height int) float64 {
	return float64(i + j*height)
}

// RunRedistribute executes one redistribution scenario and reports per-rank
// collective-call counts and verification failures.
func RunRedistribute(rp *InputParameters.RedistParameters) error {
	layout, err := parseLayouts(rp)
	if err != nil {
		return err
	}
	world, err := comm.NewWorld(rp.GridHeight * rp.GridWidth)
	if err != nil {
		return err
	}
	var (
		mu         sync.Mutex
		badTotal   int
		collTotal  uint64
		panicViews []string
	)
	world.Run(func(c *comm.Comm) {
		defer func() {
			if r := recover(); r != nil {
				mu.Lock()
				panicViews = append(panicViews, fmt.Sprintf("rank %d: %v", c.Rank(), r))
				mu.Unlock()
			}
		}()
		g := dist.NewGrid(c, rp.GridHeight, rp.GridWidth)
		A := dist.NewDistMat(g, layout[0], layout[1])
		A.Align(rp.ColAlign%A.ColStride(), rp.RowAlign%A.RowStride(), true)
		A.Resize(rp.Height, rp.Width)
		fillTestMatrix(A)

		B := dist.NewDistMat(g, layout[2], layout[3])
		bad := 0
		for iter := 0; iter < rp.Iterations; iter++ {
			dist.Copy(B, A)
			if rp.Verify {
				bad += verifyTestMatrix(B)
			}
		}
		mu.Lock()
		badTotal += bad
		collTotal += g.Counts().Collectives()
		mu.Unlock()
	})
	if len(panicViews) != 0 {
		return fmt.Errorf("redistribution failed: %s", panicViews[0])
	}
	fmt.Printf("[%d]\t\t\t= world collective calls\n", collTotal)
	if rp.Verify {
		if badTotal != 0 {
			return fmt.Errorf("%d elements landed wrong", badTotal)
		}
		fmt.Printf("verified: every element landed exactly once on its owner\n")
	}
	return nil
}

func parseLayouts(rp *InputParameters.RedistParameters) (layout [4]dist.Dist, err error) {
	names := [4]string{rp.SrcColDist, rp.SrcRowDist, rp.DstColDist, rp.DstRowDist}
	for k, name := range names {
		if layout[k], err = dist.ParseDist(name); err != nil {
			return
		}
	}
	return
}

func fillTestMatrix(A *dist.DistMat) {
	if !A.Participating() {
		return
	}
	for jLoc := 0; jLoc < A.LocalWidth(); jLoc++ {
		for iLoc := 0; iLoc < A.LocalHeight(); iLoc++ {
			A.SetLocal(iLoc, jLoc,
				testValue(A.GlobalRow(iLoc), A.GlobalCol(jLoc), A.Height()))
		}
	}
}

func verifyTestMatrix(B *dist.DistMat) (bad int) {
	if !B.Participating() {
		return
	}
	for jLoc := 0; jLoc < B.LocalWidth(); jLoc++ {
		for iLoc := 0; iLoc < B.LocalHeight(); iLoc++ {
			want := testValue(B.GlobalRow(iLoc), B.GlobalCol(jLoc), B.Height())
			if B.GetLocal(iLoc, jLoc) != want {
				bad++
			}
		}
	}
	return
}
