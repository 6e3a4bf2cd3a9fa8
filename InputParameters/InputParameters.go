package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// Parameters obtained from the YAML input file
type RedistParameters struct {
	Title      string `yaml:"Title"`
	GridHeight int    `yaml:"GridHeight"`
	GridWidth  int    `yaml:"GridWidth"`
	Height     int    `yaml:"Height"`
	Width      int    `yaml:"Width"`
	ColAlign   int    `yaml:"ColAlign"`
	RowAlign   int    `yaml:"RowAlign"`
	SrcColDist string `yaml:"SrcColDist"`
	SrcRowDist string `yaml:"SrcRowDist"`
	DstColDist string `yaml:"DstColDist"`
	DstRowDist string `yaml:"DstRowDist"`
	Iterations int    `yaml:"Iterations"`
	Verify     bool   `yaml:"Verify"`
}

func (rp *RedistParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, rp); err != nil {
		return errors.Wrap(err, "parsing redistribution parameters")
	}
	return rp.Validate()
}

func (rp *RedistParameters) Validate() error {
	if rp.GridHeight < 1 || rp.GridWidth < 1 {
		return errors.Errorf("grid must be at least 1 x 1, got %d x %d",
			rp.GridHeight, rp.GridWidth)
	}
	if rp.Height < 0 || rp.Width < 0 {
		return errors.Errorf("matrix dimensions must be non-negative, got %d x %d",
			rp.Height, rp.Width)
	}
	if rp.Iterations < 1 {
		rp.Iterations = 1
	}
	return nil
}

func (rp *RedistParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", rp.Title)
	fmt.Printf("[%d x %d]\t\t= Process Grid\n", rp.GridHeight, rp.GridWidth)
	fmt.Printf("[%d x %d]\t\t= Matrix Dimensions\n", rp.Height, rp.Width)
	fmt.Printf("(%d,%d)\t\t\t= Alignments\n", rp.ColAlign, rp.RowAlign)
	fmt.Printf("[%s,%s] -> [%s,%s]\t= Redistribution\n",
		rp.SrcColDist, rp.SrcRowDist, rp.DstColDist, rp.DstRowDist)
	fmt.Printf("[%d]\t\t\t= Iterations\n", rp.Iterations)
}
