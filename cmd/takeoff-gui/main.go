package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/philipparndt/takeoff/internal/app"
	"github.com/philipparndt/takeoff/internal/config"
	"github.com/philipparndt/takeoff/internal/gui"
	"github.com/philipparndt/takeoff/internal/logging"
	"github.com/philipparndt/takeoff/internal/measurement"
	"github.com/philipparndt/takeoff/internal/plan"
	"github.com/philipparndt/takeoff/internal/script"
	"github.com/philipparndt/takeoff/pkg/measure"
	"github.com/philipparndt/takeoff/version"
)

var (
	configPath     string
	conditionsPath string
	pixelsPerUnit  float64
)

var rootCmd = &cobra.Command{
	Use:     "takeoff-gui [image|dir]",
	Short:   "Measure plan sheets on screen",
	Args:    cobra.MaximumNArgs(1),
	Version: version.GetVersion(),
	Run:     run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to takeoff.yaml")
	rootCmd.Flags().StringVar(&conditionsPath, "conditions", "", "YAML file with a conditions list")
	rootCmd.Flags().Float64Var(&pixelsPerUnit, "ppu", 0, "sheet scale in pixels per foot (0 leaves sheets uncalibrated)")
}

// defaultConditions are offered when no conditions file is given
var defaultConditions = measurement.Conditions{
	"walls":    measurement.Condition{ID: "walls", Name: "Walls", Hex: "#ef4444", IsVisible: true}.Resolve(),
	"flooring": measurement.Condition{ID: "flooring", Name: "Flooring", Hex: "#22c55e", IsVisible: true}.Resolve(),
	"fixtures": measurement.Condition{ID: "fixtures", Name: "Fixtures", Hex: "#3b82f6", IsVisible: true}.Resolve(),
}

// App is the main window: sheet list, canvas and info panel
type App struct {
	window     fyne.Window
	session    *app.Session
	canvas     *gui.Canvas
	conditions measurement.Conditions
	logger     *zap.Logger

	pages       []plan.Page
	sheetList   *widget.List
	tools       *widget.RadioGroup
	condition   *widget.Select
	conditionBy map[string]string // display name -> id
	review      *widget.Check
	threshold   *widget.Slider
	status      *widget.Label
	totals      *widget.Label
	syncing     bool
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	conditions := defaultConditions
	if conditionsPath != "" {
		if conditions, err = script.LoadConditions(conditionsPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading conditions: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store, closeStore, err := cfg.Store.Open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	session, err := app.NewSession(app.Options{
		Store:      store,
		Conditions: conditions,
		Config:     &cfg,
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	a := fyneapp.NewWithID("io.github.philipparndt.takeoff")
	w := a.NewWindow("Takeoff - " + version.GetVersion())

	appInstance := &App{
		window:     w,
		session:    session,
		conditions: conditions,
		logger:     logger,
	}
	appInstance.setupMainUI()

	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, logger, func(next config.Config) {
				if err := session.ApplyConfig(next); err != nil {
					logger.Warn("config reload rejected", zap.Error(err))
				}
			})
			if err != nil {
				logger.Warn("config watch stopped", zap.Error(err))
			}
		}()
	}

	if len(args) > 0 {
		appInstance.loadPath(args[0])
	}

	w.Resize(fyne.NewSize(1400, 900))
	w.ShowAndRun()
}

func (a *App) setupMainUI() {
	a.canvas = gui.NewCanvas(a.session)
	a.canvas.SetOnChange(a.syncPanels)

	names := make([]string, 0, len(measure.Tools))
	for _, t := range measure.Tools {
		names = append(names, string(t))
	}
	a.tools = widget.NewRadioGroup(names, func(name string) {
		if a.syncing || name == "" {
			return
		}
		if err := a.session.SetTool(measure.Tool(name)); err != nil {
			a.syncPanels()
		}
	})
	a.tools.Horizontal = true
	a.tools.Required = true

	a.conditionBy = make(map[string]string, len(a.conditions))
	labels := []string{"(none)"}
	for id, c := range a.conditions {
		label := c.Name
		if label == "" {
			label = id
		}
		a.conditionBy[label] = id
		labels = append(labels, label)
	}
	sort.Strings(labels[1:])
	a.condition = widget.NewSelect(labels, func(label string) {
		if a.syncing {
			return
		}
		_ = a.session.SetActiveCondition(a.conditionBy[label])
	})

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), a.showOpenDialog),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { _ = a.session.Undo() }),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() { _ = a.session.Redo() }),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { a.session.DeleteSelection() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() { a.session.FitToScreen() }),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { a.session.SetZoom(a.session.Viewport().Zoom * 1.25) }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { a.session.SetZoom(a.session.Viewport().Zoom / 1.25) }),
	)
	top := container.NewVBox(
		toolbar,
		container.NewHBox(a.tools, layout.NewSpacer(), widget.NewLabel("Condition:"), a.condition),
	)

	a.sheetList = widget.NewList(
		func() int { return len(a.pages) },
		func() fyne.CanvasObject { return widget.NewLabel("sheet") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(a.pages[i].ID)
		},
	)
	a.sheetList.OnSelected = func(i widget.ListItemID) {
		a.openPage(a.pages[i])
	}
	sheets := container.NewBorder(widget.NewLabel("Sheets"), nil, nil, nil, a.sheetList)

	a.review = widget.NewCheck("Review mode", func(on bool) {
		if !a.syncing {
			a.session.SetReviewMode(on)
		}
	})
	thresholdLabel := widget.NewLabel("")
	a.threshold = widget.NewSlider(0, 1)
	a.threshold.Step = 0.05
	a.threshold.OnChanged = func(v float64) {
		thresholdLabel.SetText(fmt.Sprintf("Confidence threshold: %.2f", v))
		if !a.syncing {
			_ = a.session.SetConfidenceThreshold(v)
		}
	}

	a.status = widget.NewLabel("")
	a.status.Wrapping = fyne.TextWrapWord
	a.totals = widget.NewLabel("")
	a.totals.TextStyle = fyne.TextStyle{Monospace: true}

	instructions := widget.NewLabel(
		"Shortcuts:\n" +
			"• V select, M measure, L line, P polygon, R rectangle\n" +
			"• Double-click or Enter finishes a polyline\n" +
			"• Ctrl+Z / Ctrl+Shift+Z undo and redo\n" +
			"• Tab / Shift+Tab walk the review queue\n" +
			"• Scroll to zoom, middle-drag to pan, F to fit",
	)
	instructions.Wrapping = fyne.TextWrapWord

	infoPanel := container.NewVBox(
		widget.NewLabel("Sheet:"),
		widget.NewSeparator(),
		a.status,
		widget.NewSeparator(),
		widget.NewLabel("Totals:"),
		a.totals,
		widget.NewSeparator(),
		widget.NewLabel("AI review:"),
		a.review,
		thresholdLabel,
		a.threshold,
		widget.NewButton("Previous", func() { a.session.PrevReview() }),
		widget.NewButton("Next", func() { a.session.NextReview() }),
		widget.NewButton("Approve", func() { a.session.ApproveCurrent() }),
		widget.NewButton("Reject", func() { a.session.RejectCurrent("rejected in review") }),
		widget.NewButton("Auto-accept", func() { a.session.AutoAccept() }),
		widget.NewSeparator(),
		instructions,
	)
	infoScroll := container.NewVScroll(infoPanel)
	infoScroll.SetMinSize(fyne.NewSize(300, 0))

	content := container.NewBorder(
		top,        // top
		nil,        // bottom
		sheets,     // left
		infoScroll, // right
		a.canvas,   // center
	)
	a.window.SetContent(content)
	a.syncPanels()
}

func (a *App) showOpenDialog() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if uri == nil {
			return
		}
		a.loadPath(uri.Path())
	}, a.window)
}

// loadPath lists a plan directory or a single image into the sheet list
func (a *App) loadPath(path string) {
	info, err := os.Stat(path)
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}

	var pages []plan.Page
	if info.IsDir() {
		var skipped []error
		pages, skipped, err = plan.Dir(path)
		for _, e := range skipped {
			a.logger.Warn("skipping plan", zap.Error(e))
		}
	} else {
		var page plan.Page
		page, err = plan.Open(path)
		pages = []plan.Page{page}
	}
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to load plans: %w", err), a.window)
		return
	}
	if len(pages) == 0 {
		dialog.ShowInformation("No plans", "No supported images in "+path, a.window)
		return
	}

	a.pages = pages
	a.sheetList.Refresh()
	a.sheetList.Select(0)
}

// openPage decodes the sheet image off the fyne thread and activates it
func (a *App) openPage(page plan.Page) {
	a.session.SwitchSheet(app.Sheet{ID: page.ID, Image: page.Size, PixelsPerUnit: pixelsPerUnit})
	a.canvas.SetPlan(nil)
	go func() {
		img, err := plan.Decode(page.Path)
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(err, a.window)
				return
			}
			if a.session.Sheet().ID == page.ID {
				a.canvas.SetPlan(img)
			}
		})
	}()
}

// syncPanels mirrors session state into the side panels
func (a *App) syncPanels() {
	a.syncing = true
	defer func() { a.syncing = false }()

	a.tools.SetSelected(string(a.session.Tool()))
	label := "(none)"
	if id := a.session.ActiveCondition(); id != "" {
		for l, cid := range a.conditionBy {
			if cid == id {
				label = l
			}
		}
	}
	a.condition.SetSelected(label)

	on, threshold := a.session.ReviewMode()
	a.review.SetChecked(on)
	a.threshold.SetValue(threshold)

	sheet := a.session.Sheet()
	if sheet.ID == "" {
		a.status.SetText("Open a plan directory to start")
	} else {
		scale := "not calibrated"
		if a.session.Calibrated() {
			scale = fmt.Sprintf("%.2f px/ft", sheet.PixelsPerUnit)
		}
		a.status.SetText(fmt.Sprintf("%s\n%.0f x %.0f px, %s\nZoom %.0f%%\nQueue: %d to review",
			sheet.ID, sheet.Image.Width, sheet.Image.Height, scale,
			a.session.Viewport().Zoom*100, len(a.session.ReviewQueue())))
	}
	a.totals.SetText(totals(a.session.VisibleMeasurements(), a.conditions))
}

// totals sums quantities per condition and unit, one line each
func totals(ms []measurement.Measurement, conditions measurement.Conditions) string {
	type key struct {
		condition string
		unit      measure.Unit
	}
	sums := make(map[key]float64)
	var order []key
	for _, m := range ms {
		k := key{m.ConditionID, m.Unit}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] += m.Quantity
	}
	if len(order) == 0 {
		return "(no measurements)"
	}

	var b strings.Builder
	for _, k := range order {
		name := k.condition
		if c, ok := conditions.Condition(k.condition); ok && c.Name != "" {
			name = c.Name
		}
		fmt.Fprintf(&b, "%-12s %12s\n", name, measure.FormatQuantity(sums[k], k.unit))
	}
	return strings.TrimRight(b.String(), "\n")
}
