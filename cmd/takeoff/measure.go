package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/philipparndt/takeoff/pkg/geometry"
	"github.com/philipparndt/takeoff/pkg/measure"
)

var pixelsPerUnit float64

var measureCmd = &cobra.Command{
	Use:   "measure [tool] [x,y]...",
	Short: "Measure geometry given as points",
	Long: `Build a measurement from image-space points and print its quantity.
Tools: line, polyline, polygon, rectangle, circle, point, measure.
Without --ppu the quantity is reported in pixels.`,
	Example: `  takeoff measure rectangle 0,0 120,80 --ppu 12
  takeoff measure polygon 0,0 100,0 100,100 0,100`,
	Args: cobra.MinimumNArgs(2),
	Run:  runMeasure,
}

func init() {
	rootCmd.AddCommand(measureCmd)

	measureCmd.Flags().Float64Var(&pixelsPerUnit, "ppu", 0, "image pixels per real-world unit (foot)")
}

func runMeasure(cmd *cobra.Command, args []string) {
	tool, err := measure.ParseTool(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	points, err := parsePoints(args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res, ok := measure.Build(tool, points, measure.Scale{PixelsPerUnit: pixelsPerUnit})
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %d points cannot form a %s\n", len(points), tool)
		os.Exit(1)
	}

	fmt.Println("Measurement")
	fmt.Println("===========")
	fmt.Printf("Tool: %s\n", tool)
	fmt.Printf("Geometry: %s\n", res.Type)
	fmt.Printf("Points: %d\n", len(res.Data.Points))
	if res.Type == measure.GeometryCircle {
		fmt.Printf("Radius: %.2f px\n", res.Data.Radius)
	}
	fmt.Printf("Quantity: %s\n", measure.FormatQuantity(res.Quantity, res.Unit))
	if !res.Calibrated {
		fmt.Println("Sheet is not calibrated; pass --ppu for real-world units")
	}
}

// parsePoints reads "x,y" arguments
func parsePoints(args []string) ([]geometry.Point, error) {
	points := make([]geometry.Point, 0, len(args))
	for _, arg := range args {
		xs, ys, ok := strings.Cut(arg, ",")
		if !ok {
			return nil, fmt.Errorf("point %q must be x,y", arg)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid x in %q: %w", arg, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid y in %q: %w", arg, err)
		}
		points = append(points, geometry.NewPoint(x, y))
	}
	return points, nil
}
