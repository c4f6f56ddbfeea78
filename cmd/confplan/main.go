// Command confplan builds conference programmes: skeleton generation,
// capacity analysis, constraint management, solver-backed paper placement,
// room and chair allocation, rendering, and a read-only HTTP viewer.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/ingest"
	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/internal/server"
	"github.com/confplan/confplan/internal/service"
	"github.com/confplan/confplan/internal/similarity"
	"github.com/confplan/confplan/internal/solver"
	"github.com/confplan/confplan/pkg/config"
	"github.com/confplan/confplan/pkg/logger"
	"github.com/confplan/confplan/pkg/storage"
)

type app struct {
	cfg *config.Config
	log *zap.Logger
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:           "confplan",
		Short:         "Conference programme builder",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.cfg = cfg
			a.log = log
			return nil
		},
	}

	root.AddCommand(
		a.skeletonCmd(),
		a.constraintsCmd(),
		a.capacityCmd(),
		a.papersCmd(),
		a.roomsCmd(),
		a.chairsCmd(),
		a.renderCmd(),
		a.generateCmd(),
		a.serveCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) loadSchedule(path string) (*config.ScheduleConfig, error) {
	return config.LoadSchedule(path, func(line string, err error) {
		a.log.Warn("skipping unparsable constraint", zap.String("line", line), zap.Error(err))
	})
}

func saveProgram(prog *models.Program, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prog.Save(path)
}

func (a *app) skeletonCmd() *cobra.Command {
	var schedulePath, out string
	cmd := &cobra.Command{
		Use:   "skeleton",
		Short: "Generate the empty programme grid from a schedule config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadSchedule(schedulePath)
			if err != nil {
				return err
			}
			prog := service.NewSkeletonService(a.log).Build(cfg)
			if err := saveProgram(prog, out); err != nil {
				return err
			}
			a.log.Info("skeleton programme saved", zap.String("path", out))
			return nil
		},
	}
	cmd.Flags().StringVar(&schedulePath, "schedule", "", "schedule config JSON (required)")
	cmd.Flags().StringVar(&out, "output", "output/program_skeleton.json", "output programme JSON")
	cmd.MarkFlagRequired("schedule")
	return cmd
}

func (a *app) constraintsCmd() *cobra.Command {
	var schedulePath, text, cid, file string
	cmd := &cobra.Command{
		Use:       "constraints {list|add|edit|delete}",
		Short:     "Manage the constraint list of a schedule config",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"list", "add", "edit", "delete"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadSchedule(schedulePath)
			if err != nil {
				return err
			}

			switch args[0] {
			case "list":
				for _, c := range cfg.Constraints {
					fmt.Printf("  [%s]  %s\n", c.CID, c.Text())
				}
				return nil
			case "add":
				var lines []string
				switch {
				case file != "":
					lines, err = ingest.LoadConstraintLines(file)
					if err != nil {
						return err
					}
				case text != "":
					lines = []string{text}
				default:
					return fmt.Errorf("provide --text or --file")
				}
				for _, line := range lines {
					c, err := cfg.AddConstraint(line)
					if err != nil {
						return err
					}
					fmt.Printf("  Added [%s]  %s\n", c.CID, c.Text())
				}
			case "edit":
				if cid == "" || text == "" {
					return fmt.Errorf("provide --cid and --text")
				}
				c, err := cfg.EditConstraint(cid, text)
				if err != nil {
					return err
				}
				fmt.Printf("  Updated [%s]  %s\n", c.CID, c.Text())
			case "delete":
				if cid == "" {
					return fmt.Errorf("provide --cid")
				}
				if !cfg.RemoveConstraint(cid) {
					return fmt.Errorf("constraint %s not found", cid)
				}
				fmt.Printf("  Deleted %s\n", cid)
			}

			return config.SaveSchedule(cfg, schedulePath)
		},
	}
	cmd.Flags().StringVar(&schedulePath, "schedule", "", "schedule config JSON (required)")
	cmd.Flags().StringVar(&text, "text", "", "constraint text (add/edit)")
	cmd.Flags().StringVar(&cid, "cid", "", "constraint id (edit/delete)")
	cmd.Flags().StringVar(&file, "file", "", "text file with one constraint per line (add)")
	cmd.MarkFlagRequired("schedule")
	return cmd
}

func (a *app) capacityCmd() *cobra.Command {
	var schedulePath, programPath, papersPath, mappingPath string
	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Check whether the programme can hold all papers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadSchedule(schedulePath)
			if err != nil {
				return err
			}
			prog, err := models.LoadProgram(programPath)
			if err != nil {
				return err
			}
			papers, err := a.loadPapers(papersPath, mappingPath)
			if err != nil {
				return err
			}

			report := service.NewCapacityService(a.log).Analyze(prog, cfg, len(papers))
			fmt.Println(report.Summary())
			for i, s := range report.Suggestions {
				fmt.Printf("  %d. %s\n", i+1, s)
			}
			if !report.Feasible() {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schedulePath, "schedule", "", "schedule config JSON (required)")
	cmd.Flags().StringVar(&programPath, "program", "", "programme JSON (required)")
	cmd.Flags().StringVar(&papersPath, "papers", "", "paper CSV (required)")
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "column-mapping JSON")
	cmd.MarkFlagRequired("schedule")
	cmd.MarkFlagRequired("program")
	cmd.MarkFlagRequired("papers")
	return cmd
}

func (a *app) loadPapers(papersPath, mappingPath string) ([]models.Paper, error) {
	mapping := ingest.DefaultColumnMapping()
	if mappingPath != "" {
		var err error
		mapping, err = ingest.LoadColumnMapping(mappingPath)
		if err != nil {
			return nil, err
		}
	}
	return ingest.LoadPapers(papersPath, mapping, a.log)
}

func (a *app) papersCmd() *cobra.Command {
	var schedulePath, programPath, papersPath, topicsPath, mappingPath string
	var scoresPath, matrixPath, out string
	var force bool
	cmd := &cobra.Command{
		Use:   "papers",
		Short: "Assign papers to sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadSchedule(schedulePath)
			if err != nil {
				return err
			}
			prog, err := models.LoadProgram(programPath)
			if err != nil {
				return err
			}
			papers, err := a.loadPapers(papersPath, mappingPath)
			if err != nil {
				return err
			}
			topics, err := ingest.LoadTopics(topicsPath, ingest.TopicFileOptions{}, a.log)
			if err != nil {
				return err
			}
			scores, matrix, err := a.loadSimilarity(scoresPath, matrixPath)
			if err != nil {
				return err
			}

			capSvc := service.NewCapacityService(a.log)
			report := capSvc.Analyze(prog, cfg, len(papers))
			fmt.Println(report.Summary())
			if err := capSvc.Check(report, force); err != nil {
				return err
			}

			paperSvc := service.NewPaperService(a.log, a.newSolver(), service.NewTopicService(a.log))
			if err := paperSvc.Assign(cmd.Context(), prog, papers, topics, cfg, scores, matrix); err != nil {
				return err
			}
			if err := saveProgram(prog, out); err != nil {
				return err
			}
			a.log.Info("papers assigned", zap.String("path", out))
			return nil
		},
	}
	cmd.Flags().StringVar(&schedulePath, "schedule", "", "schedule config JSON (required)")
	cmd.Flags().StringVar(&programPath, "program", "", "input programme JSON (required)")
	cmd.Flags().StringVar(&papersPath, "papers", "", "paper CSV (required)")
	cmd.Flags().StringVar(&topicsPath, "topics", "", "topic CSV (required)")
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "column-mapping JSON")
	cmd.Flags().StringVar(&scoresPath, "scores", "", "paper-topic score JSON")
	cmd.Flags().StringVar(&matrixPath, "topic-sim", "", "topic similarity matrix JSON")
	cmd.Flags().StringVar(&out, "output", "output/program_papers.json", "output programme JSON")
	cmd.Flags().BoolVar(&force, "force", false, "proceed despite a capacity deficit")
	cmd.MarkFlagRequired("schedule")
	cmd.MarkFlagRequired("program")
	cmd.MarkFlagRequired("papers")
	cmd.MarkFlagRequired("topics")
	return cmd
}

func (a *app) loadSimilarity(scoresPath, matrixPath string) (similarity.PaperTopicScores, *similarity.TopicMatrix, error) {
	var scores similarity.PaperTopicScores
	var matrix *similarity.TopicMatrix
	var err error
	if scoresPath != "" {
		scores, err = similarity.LoadPaperTopicScores(scoresPath)
		if err != nil {
			return nil, nil, err
		}
	}
	if matrixPath != "" {
		matrix, err = similarity.LoadTopicMatrix(matrixPath)
		if err != nil {
			return nil, nil, err
		}
	}
	return scores, matrix, nil
}

func (a *app) newSolver() solver.Solver {
	return solver.NewGreedySolver(solver.Options{
		TimeLimit: a.cfg.Solver.TimeLimit,
		Workers:   a.cfg.Solver.Workers,
	})
}

func (a *app) roomsCmd() *cobra.Command {
	var schedulePath, programPath, roomsPath, out string
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Assign rooms to sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadSchedule(schedulePath)
			if err != nil {
				return err
			}
			prog, err := models.LoadProgram(programPath)
			if err != nil {
				return err
			}
			rooms, err := a.loadRooms(roomsPath, cfg)
			if err != nil {
				return err
			}
			service.NewRoomService(a.log).Assign(prog, rooms, cfg, nil)
			if err := saveProgram(prog, out); err != nil {
				return err
			}
			a.log.Info("rooms assigned", zap.String("path", out))
			return nil
		},
	}
	cmd.Flags().StringVar(&schedulePath, "schedule", "", "schedule config JSON (required)")
	cmd.Flags().StringVar(&programPath, "program", "", "input programme JSON (required)")
	cmd.Flags().StringVar(&roomsPath, "rooms", "", "room CSV (defaults generated when absent)")
	cmd.Flags().StringVar(&out, "output", "output/program_rooms.json", "output programme JSON")
	cmd.MarkFlagRequired("schedule")
	cmd.MarkFlagRequired("program")
	return cmd
}

func (a *app) loadRooms(path string, cfg *config.ScheduleConfig) ([]models.Room, error) {
	if path == "" {
		return ingest.GenerateDefaultRooms(cfg.NumAvailableRooms), nil
	}
	return ingest.LoadRooms(path, ingest.RoomFileOptions{}, a.log)
}

func (a *app) chairsCmd() *cobra.Command {
	var schedulePath, programPath, chairsPath, papersPath, mappingPath, out string
	var numChairs int
	cmd := &cobra.Command{
		Use:   "chairs",
		Short: "Assign chairs to sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.loadSchedule(schedulePath)
			if err != nil {
				return err
			}
			prog, err := models.LoadProgram(programPath)
			if err != nil {
				return err
			}
			chairs, err := a.loadChairs(chairsPath, numChairs)
			if err != nil {
				return err
			}
			var papers []models.Paper
			if papersPath != "" {
				papers, err = a.loadPapers(papersPath, mappingPath)
				if err != nil {
					return err
				}
			}
			service.NewChairService(a.log).Assign(prog, chairs, papers)
			if err := saveProgram(prog, out); err != nil {
				return err
			}
			a.log.Info("chairs assigned", zap.String("path", out))
			return nil
		},
	}
	cmd.Flags().StringVar(&schedulePath, "schedule", "", "schedule config JSON (required)")
	cmd.Flags().StringVar(&programPath, "program", "", "input programme JSON (required)")
	cmd.Flags().StringVar(&chairsPath, "chairs", "", "chair CSV (defaults generated when absent)")
	cmd.Flags().StringVar(&papersPath, "papers", "", "paper CSV, used to infer chair topics")
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "column-mapping JSON")
	cmd.Flags().IntVar(&numChairs, "num-chairs", 10, "default chair count when no file is given")
	cmd.Flags().StringVar(&out, "output", "output/program_chairs.json", "output programme JSON")
	cmd.MarkFlagRequired("schedule")
	cmd.MarkFlagRequired("program")
	return cmd
}

func (a *app) loadChairs(path string, n int) ([]models.Chair, error) {
	if path == "" {
		return ingest.GenerateDefaultChairs(n), nil
	}
	return ingest.LoadChairs(path, ';', a.log)
}

func (a *app) renderCmd() *cobra.Command {
	var programPath, format, out string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a programme to md, latex, csv, pdf or xlsx",
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := models.LoadProgram(programPath)
			if err != nil {
				return err
			}
			render := service.NewRenderService(a.log)

			var data []byte
			switch strings.ToLower(format) {
			case "md", "markdown":
				data = []byte(render.Markdown(prog))
			case "latex", "tex":
				data = []byte(render.LaTeX(prog))
			case "csv":
				data, err = render.CSV(prog)
			case "pdf":
				data, err = render.PDF(prog)
			case "xlsx":
				data, err = render.XLSX(prog)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			a.log.Info("programme rendered", zap.String("path", out), zap.String("format", format))
			return nil
		},
	}
	cmd.Flags().StringVar(&programPath, "program", "", "programme JSON (required)")
	cmd.Flags().StringVar(&format, "format", "md", "md, latex, csv, pdf or xlsx")
	cmd.Flags().StringVar(&out, "output", "output/program.md", "output file")
	cmd.MarkFlagRequired("program")
	return cmd
}

func (a *app) generateCmd() *cobra.Command {
	var schedulePath, papersPath, topicsPath, roomsPath, chairsPath, mappingPath string
	var scoresPath, matrixPath, out, format string
	var numChairs int
	var force bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the full pipeline: skeleton, papers, rooms, chairs, render",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadSchedule(schedulePath)
			if err != nil {
				return err
			}
			papers, err := a.loadPapers(papersPath, mappingPath)
			if err != nil {
				return err
			}
			topics, err := ingest.LoadTopics(topicsPath, ingest.TopicFileOptions{}, a.log)
			if err != nil {
				return err
			}
			rooms, err := a.loadRooms(roomsPath, cfg)
			if err != nil {
				return err
			}
			chairs, err := a.loadChairs(chairsPath, numChairs)
			if err != nil {
				return err
			}
			scores, matrix, err := a.loadSimilarity(scoresPath, matrixPath)
			if err != nil {
				return err
			}

			store, err := storage.NewLocalStorage(a.cfg.Export.Dir)
			if err != nil {
				return err
			}
			pipeline := service.NewPipeline(a.log, store, a.newSolver())
			prog, report, err := pipeline.Run(context.Background(), service.PipelineInput{
				Schedule: cfg,
				Papers:   papers,
				Topics:   topics,
				Rooms:    rooms,
				Chairs:   chairs,
				Scores:   scores,
				Matrix:   matrix,
				Force:    force,
			})
			fmt.Println(report.Summary())
			if err != nil {
				return err
			}

			if err := saveProgram(prog, out); err != nil {
				return err
			}

			render := service.NewRenderService(a.log)
			var rendered []byte
			switch strings.ToLower(format) {
			case "latex", "tex":
				rendered = []byte(render.LaTeX(prog))
			default:
				format = "md"
				rendered = []byte(render.Markdown(prog))
			}
			renderOut := strings.TrimSuffix(out, filepath.Ext(out)) + "." + format
			if err := os.WriteFile(renderOut, rendered, 0o644); err != nil {
				return err
			}

			a.log.Info("pipeline finished",
				zap.String("program", out),
				zap.String("rendered", renderOut),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&schedulePath, "schedule", "", "schedule config JSON (required)")
	cmd.Flags().StringVar(&papersPath, "papers", "", "paper CSV (required)")
	cmd.Flags().StringVar(&topicsPath, "topics", "", "topic CSV (required)")
	cmd.Flags().StringVar(&roomsPath, "rooms", "", "room CSV (defaults generated when absent)")
	cmd.Flags().StringVar(&chairsPath, "chairs", "", "chair CSV (defaults generated when absent)")
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "column-mapping JSON")
	cmd.Flags().StringVar(&scoresPath, "scores", "", "paper-topic score JSON")
	cmd.Flags().StringVar(&matrixPath, "topic-sim", "", "topic similarity matrix JSON")
	cmd.Flags().StringVar(&out, "output", "output/program.json", "output programme JSON")
	cmd.Flags().StringVar(&format, "format", "md", "rendered format: md or latex")
	cmd.Flags().IntVar(&numChairs, "num-chairs", 10, "default chair count when no file is given")
	cmd.Flags().BoolVar(&force, "force", false, "proceed despite a capacity deficit")
	cmd.MarkFlagRequired("schedule")
	cmd.MarkFlagRequired("papers")
	cmd.MarkFlagRequired("topics")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var programPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a finished programme over HTTP, read-only",
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := models.LoadProgram(programPath)
			if err != nil {
				return err
			}
			return server.New(a.cfg, a.log, prog).Run()
		},
	}
	cmd.Flags().StringVar(&programPath, "program", "", "programme JSON (required)")
	cmd.MarkFlagRequired("program")
	return cmd
}
