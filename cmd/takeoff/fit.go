package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/takeoff/internal/plan"
	"github.com/philipparndt/takeoff/pkg/geometry"
	"github.com/philipparndt/takeoff/pkg/viewer"
)

var (
	imageWidth, imageHeight         float64
	containerWidth, containerHeight float64
)

var fitCmd = &cobra.Command{
	Use:   "fit [image]",
	Short: "Compute the fit-to-screen viewport",
	Long: `Compute the zoom and pan that fit a plan image into a container.
The image size is read from the file, or given with --width and --height.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runFit,
}

func init() {
	rootCmd.AddCommand(fitCmd)

	fitCmd.Flags().Float64Var(&imageWidth, "width", 0, "image width in pixels")
	fitCmd.Flags().Float64Var(&imageHeight, "height", 0, "image height in pixels")
	fitCmd.Flags().Float64Var(&containerWidth, "container-width", 1280, "container width in screen pixels")
	fitCmd.Flags().Float64Var(&containerHeight, "container-height", 800, "container height in screen pixels")

	fitCmd.MarkFlagsRequiredTogether("width", "height")
}

func runFit(cmd *cobra.Command, args []string) {
	cfg, _ := setup()

	image := viewer.NewSize(imageWidth, imageHeight)
	if len(args) == 1 {
		page, err := plan.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		image = page.Size
	}
	container := viewer.NewSize(containerWidth, containerHeight)

	v := viewer.New(viewer.Limits{MinZoom: cfg.Viewport.MinZoom, MaxZoom: cfg.Viewport.MaxZoom})
	v.SetFitMargin(cfg.Viewport.FitMargin)
	if !v.FitToScreen(image, container) {
		fmt.Fprintf(os.Stderr, "Error: cannot fit a %gx%g image into a %gx%g container\n",
			image.Width, image.Height, container.Width, container.Height)
		os.Exit(1)
	}

	fmt.Println("Fit to Screen")
	fmt.Println("=============")
	fmt.Printf("Image: %g x %g px\n", image.Width, image.Height)
	fmt.Printf("Container: %g x %g px\n", container.Width, container.Height)
	fmt.Printf("Zoom: %.4f\n", v.Zoom)
	fmt.Printf("Pan: (%.2f, %.2f) image px\n", v.PanX, v.PanY)

	origin := v.ImageToScreen(geometry.Point{})
	fmt.Printf("Image origin on screen: (%.2f, %.2f)\n", origin.X, origin.Y)
}
