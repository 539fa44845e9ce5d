// Command sdfield extracts triangle meshes from analytic and fractal signed
// distance fields described as JSON shape trees.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tiwylli/sdfield"
	"github.com/tiwylli/sdfield/pipeline"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// toolConfig is the optional TOML tool configuration.
type toolConfig struct {
	Chunk      int    `toml:"chunk"`
	ScratchDir string `toml:"scratch_dir"`
	OutputDir  string `toml:"output_dir"`
}

func run(ctx context.Context) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           log.InfoLevel,
	})

	var (
		verbose    bool
		configPath string
		cfg        toolConfig
	)

	root := &cobra.Command{
		Use:           "sdfield",
		Short:         "Evaluate SDF shape trees and extract isosurface meshes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
			if configPath == "" {
				return nil
			}
			if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
				return fmt.Errorf("reading config %s: %w", configPath, err)
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML tool configuration file")

	root.AddCommand(extractCommand(logger, &cfg))
	root.AddCommand(batchCommand(logger, &cfg))
	return root.ExecuteContext(ctx)
}

func newRunner(logger *log.Logger, cfg *toolConfig) *pipeline.Runner {
	r := pipeline.NewRunner(logger)
	r.OutputDir = cfg.OutputDir
	r.ScratchDir = cfg.ScratchDir
	if cfg.Chunk > 0 {
		r.DefaultChunk = cfg.Chunk
	}
	return r
}

func extractCommand(logger *log.Logger, cfg *toolConfig) *cobra.Command {
	var (
		shapeName   string
		shapeConfig string
		resolution  int
		chunk       int
		bounds      []float32
		method      string
		scale       float32
		translate   []float32
		output      string
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Evaluate one shape and export its isosurface mesh",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := loadShapeSpec(shapeName, shapeConfig)
			if err != nil {
				return err
			}
			job := pipeline.Job{
				Name:       strings.TrimPrefix(spec.Type, "sdf_"),
				Shape:      spec,
				Resolution: resolution,
				Chunk:      chunk,
				Method:     method,
				Scale:      scale,
				Output:     output,
			}
			if len(bounds) == 6 {
				job.Bounds = &[6]float32{bounds[0], bounds[1], bounds[2], bounds[3], bounds[4], bounds[5]}
			} else if len(bounds) != 0 {
				return errors.New("--bounds needs 6 values: xmin xmax ymin ymax zmin zmax")
			}
			if len(translate) == 3 {
				job.Translate = [3]float32{translate[0], translate[1], translate[2]}
			} else if len(translate) != 0 {
				return errors.New("--translate needs 3 values")
			}
			return newRunner(logger, cfg).Run(job)
		},
	}
	cmd.Flags().StringVar(&shapeName, "shape", string(sdfield.TypeSphere), "shape type when no config is given")
	cmd.Flags().StringVar(&shapeConfig, "shape-config", "", "path to a JSON file or inline JSON object describing the shape tree")
	cmd.Flags().IntVar(&resolution, "resolution", 64, "sampling grid resolution per axis")
	cmd.Flags().IntVar(&chunk, "chunk", 0, "z-slab thickness in slices")
	cmd.Flags().Float32SliceVar(&bounds, "bounds", nil, "sampling bounds: xmin,xmax,ymin,ymax,zmin,zmax")
	cmd.Flags().StringVar(&method, "method", pipeline.MethodMarchingCubes, "extraction method: mc or mt")
	cmd.Flags().Float32Var(&scale, "scale", 1, "scaling divisor applied to the output mesh")
	cmd.Flags().Float32SliceVar(&translate, "translate", nil, "world-space translation applied after scaling")
	cmd.Flags().StringVar(&output, "output", "", "output mesh path (.obj or .stl)")
	return cmd
}

func batchCommand(logger *log.Logger, cfg *toolConfig) *cobra.Command {
	var (
		jobsFile   string
		useDefault bool
		outputDir  string
		scratchDir string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a batch of extraction jobs from a JSON jobs file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var jobs []pipeline.Job
			if useDefault {
				jobs = append(jobs, pipeline.DefaultJobs()...)
			}
			if jobsFile != "" {
				loaded, err := pipeline.LoadJobs(jobsFile)
				if err != nil {
					return err
				}
				jobs = append(jobs, loaded...)
			}
			if len(jobs) == 0 {
				return errors.New("no jobs specified: use --use-default-jobs or --jobs-file")
			}
			r := newRunner(logger, cfg)
			if outputDir != "" {
				r.OutputDir = outputDir
			}
			if scratchDir != "" {
				r.ScratchDir = scratchDir
			}
			return r.RunAll(jobs)
		},
	}
	cmd.Flags().StringVar(&jobsFile, "jobs-file", "", "JSON file with an array of job objects")
	cmd.Flags().BoolVar(&useDefault, "use-default-jobs", false, "run the built-in fractal job set")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory receiving output meshes")
	cmd.Flags().StringVar(&scratchDir, "scratch-dir", "", "directory for memory-mapped scratch fields")
	return cmd
}

// loadShapeSpec builds the shape spec from --shape and --shape-config: the
// config may be a JSON file path or an inline JSON object, and its type key
// defaults to the --shape flag.
func loadShapeSpec(shapeName, config string) (sdfield.Spec, error) {
	if config == "" {
		return sdfield.Spec{Type: shapeName}, nil
	}
	raw := []byte(config)
	if _, err := os.Stat(config); err == nil {
		raw, err = os.ReadFile(config)
		if err != nil {
			return sdfield.Spec{}, fmt.Errorf("reading shape config: %w", err)
		}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return sdfield.Spec{}, fmt.Errorf("shape config must be a JSON object: %w", err)
	}
	if _, ok := m["type"]; !ok {
		m["type"] = shapeName
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sdfield.Spec{}, err
	}
	var spec sdfield.Spec
	if err := json.Unmarshal(b, &spec); err != nil {
		return sdfield.Spec{}, err
	}
	return spec, nil
}
