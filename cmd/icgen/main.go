package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dflemin3/ICgen/internal/config"
	"github.com/dflemin3/ICgen/internal/density"
	"github.com/dflemin3/ICgen/internal/icgen"
	"github.com/dflemin3/ICgen/internal/snapshot"
	"github.com/dflemin3/ICgen/internal/units"
	"github.com/dflemin3/ICgen/internal/viz"
)

var (
	configFile string
	preset     string
	nParticles int
	method     string
	seed       int64
	workers    int
	snapFile   string
	rhoFile    string
	// plot column radius
	plotRadius float64
	// settings output path
	saveFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "icgen",
		Short: "protoplanetary disk initial conditions generator",
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "settings file (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a named preset")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "generate initial conditions end to end",
		RunE:  runGenerate,
	}
	runCmd.Flags().IntVarP(&nParticles, "particles", "n", 0, "number of particles")
	runCmd.Flags().StringVar(&method, "method", "", "sampling method (grid or random)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "solver goroutines (0 = one per CPU)")
	runCmd.Flags().StringVarP(&snapFile, "out", "o", "", "snapshot output path")
	runCmd.Flags().StringVar(&rhoFile, "rho", "", "density field output path")

	rhoCmd := &cobra.Command{
		Use:   "rho",
		Short: "build and save the density field only",
		RunE:  runRho,
	}
	rhoCmd.Flags().IntVar(&workers, "workers", 0, "solver goroutines (0 = one per CPU)")
	rhoCmd.Flags().StringVar(&rhoFile, "rho", "", "density field output path")

	posCmd := &cobra.Command{
		Use:   "pos",
		Short: "sample particle positions from a saved density field",
		RunE:  runPos,
	}
	posCmd.Flags().IntVarP(&nParticles, "particles", "n", 0, "number of particles")
	posCmd.Flags().StringVar(&method, "method", "", "sampling method (grid or random)")
	posCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	posCmd.Flags().StringVarP(&snapFile, "out", "o", "", "snapshot output path")
	posCmd.Flags().StringVar(&rhoFile, "rho", "", "density field input path")

	plotCmd := &cobra.Command{
		Use:       "plot [sigma|temp|rho|column|scatter]",
		Short:     "plot disk profiles in the terminal",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"sigma", "temp", "rho", "column", "scatter"},
		RunE:      runPlot,
	}
	plotCmd.Flags().Float64Var(&plotRadius, "r", 1.0, "radius in au (column plot)")
	plotCmd.Flags().StringVar(&rhoFile, "rho", "", "density field input path (rho and column plots)")
	plotCmd.Flags().StringVarP(&snapFile, "out", "o", "", "snapshot input path (scatter plot)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "generate initial conditions with a live progress view",
		RunE:  runLive,
	}
	liveCmd.Flags().IntVarP(&nParticles, "particles", "n", 0, "number of particles")
	liveCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	liveCmd.Flags().IntVar(&workers, "workers", 0, "solver goroutines (0 = one per CPU)")

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "show the effective settings",
		RunE:  showSettings,
	}
	settingsCmd.Flags().StringVar(&saveFile, "save", "", "also write the settings to this path")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list named presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, rhoCmd, posCmd, plotCmd, liveCmd, settingsCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings resolves preset, config file and flag overrides, in
// that order.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	s := config.DefaultSettings()

	if preset != "" {
		p, err := config.GetPreset(preset)
		if err != nil {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, config.ListPresets())
		}
		s = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		s = loaded
	}

	if cmd.Flags().Changed("particles") {
		s.PosGen.NParticles = nParticles
	}
	if cmd.Flags().Changed("method") {
		s.PosGen.Method = method
	}
	if cmd.Flags().Changed("seed") {
		s.PosGen.Seed = seed
	}
	if cmd.Flags().Changed("workers") {
		s.RhoCalc.Workers = workers
	}
	if cmd.Flags().Changed("out") {
		s.Filenames.SnapshotFile = snapFile
	}
	if cmd.Flags().Changed("rho") {
		s.Filenames.RhoFile = rhoFile
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	return icgen.New(s).Generate(context.Background())
}

func runRho(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	ic := icgen.New(s)
	return ic.BuildField(context.Background())
}

func runPos(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	ic := icgen.New(s)
	if s.Filenames.RhoFile != "" {
		field, err := density.Load(s.Filenames.RhoFile, s.RhoCalc.SkipOutOfRange)
		if err != nil {
			return fmt.Errorf("load density field: %w", err)
		}
		if err := ic.BuildSigma(); err != nil {
			return err
		}
		ic.Field = field
	}
	if err := ic.GeneratePositions(context.Background()); err != nil {
		return err
	}
	return ic.WriteSnapshot()
}

func runPlot(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	ic := icgen.New(s)
	ic.Out = nil

	switch args[0] {
	case "sigma":
		if err := ic.BuildSigma(); err != nil {
			return err
		}
		out, err := viz.SigmaProfile(ic.Profile)
		if err != nil {
			return err
		}
		fmt.Print(out)
	case "temp":
		if err := ic.BuildSigma(); err != nil {
			return err
		}
		out, err := viz.TemperatureProfile(ic.Law, ic.Profile.RMin(), ic.Profile.RMax())
		if err != nil {
			return err
		}
		fmt.Print(out)
	case "rho", "column":
		field, err := loadOrBuildField(ic)
		if err != nil {
			return err
		}
		var out string
		if args[0] == "rho" {
			out, err = viz.MidplaneRho(field)
		} else {
			out, err = viz.VerticalColumn(field, units.NewScalar(plotRadius, units.AU))
		}
		if err != nil {
			return err
		}
		fmt.Print(out)
	case "scatter":
		pos, _, _, _, err := snapshot.Read(s.Filenames.SnapshotFile)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		out, err := viz.ParticleScatter(pos.X, pos.Y, 70, 30)
		if err != nil {
			return err
		}
		fmt.Print(out)
	default:
		return fmt.Errorf("unknown plot %q", args[0])
	}
	return nil
}

func loadOrBuildField(ic *icgen.IC) (*density.Field, error) {
	s := ic.Settings
	if s.Filenames.RhoFile != "" {
		if _, err := os.Stat(s.Filenames.RhoFile); err == nil {
			return density.Load(s.Filenames.RhoFile, s.RhoCalc.SkipOutOfRange)
		}
	}
	if err := ic.BuildField(context.Background()); err != nil {
		return nil, err
	}
	return ic.Field, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ic := icgen.New(s)
	ic.Out = nil

	m := viz.NewModel("building density field", s.RhoCalc.NR)
	p := tea.NewProgram(m)

	ic.Progress = func(done, total int) {
		p.Send(viz.ProgressMsg{Done: done, Total: total})
	}

	go func() {
		err := ic.Generate(context.Background())
		p.Send(viz.DoneMsg{Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	m2, ok := final.(viz.Model)
	if !ok || !m2.Finished() {
		return fmt.Errorf("aborted before generation finished")
	}
	if m2.Err() != nil {
		return m2.Err()
	}

	fmt.Printf("wrote %s and %s\n", s.Filenames.RhoFile, s.Filenames.SnapshotFile)
	return nil
}

func showSettings(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SECTION\tKEY\tVALUE")
	fmt.Fprintf(w, "physical\tM\t%g Msol\n", s.Physical.StarMass)
	fmt.Fprintf(w, "physical\tm\t%g m_p\n", s.Physical.MeanMolMass)
	fmt.Fprintf(w, "physical\tT0\t%g K at %g au\n", s.Physical.T0, s.Physical.R0)
	fmt.Fprintf(w, "physical\tt_power\t%g\n", s.Physical.TPower)
	fmt.Fprintf(w, "physical\tt_min\t%g K\n", s.Physical.TMin)
	fmt.Fprintf(w, "sigma\tkind\t%s (p = %g)\n", s.Sigma.Kind, s.Sigma.Power)
	fmt.Fprintf(w, "sigma\tradii\t%g - %g au (rd %g, cut %g)\n",
		s.Sigma.RIn, s.Sigma.RMax, s.Sigma.RD, s.Sigma.CutLength)
	fmt.Fprintf(w, "sigma\tm_scale\t%g\n", s.Sigma.MScale)
	fmt.Fprintf(w, "rho_calc\tgrid\t%dx%d, zmax %g au\n", s.RhoCalc.NR, s.RhoCalc.NZ, s.RhoCalc.ZMax)
	fmt.Fprintf(w, "rho_calc\trho_tol\t%g (max %d iters)\n", s.RhoCalc.RhoTol, s.RhoCalc.MaxIter)
	fmt.Fprintf(w, "pos_gen\tn_particles\t%d\n", s.PosGen.NParticles)
	fmt.Fprintf(w, "pos_gen\tmethod\t%s\n", s.PosGen.Method)
	fmt.Fprintf(w, "files\trho\t%s\n", s.Filenames.RhoFile)
	fmt.Fprintf(w, "files\tsnapshot\t%s\n", s.Filenames.SnapshotFile)
	if err := w.Flush(); err != nil {
		return err
	}

	if saveFile != "" {
		if err := config.Save(saveFile, s); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", saveFile)
	}
	return nil
}
