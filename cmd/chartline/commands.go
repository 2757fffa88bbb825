package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"chartline/internal/adapters/ingest/tdf"
	"chartline/internal/core/vars"
	"chartline/internal/modkit"
	"chartline/internal/platform/config"
	perr "chartline/internal/platform/errors"
	"chartline/internal/platform/logger"
	"chartline/internal/platform/store"
	"chartline/internal/services/extract/domain"
	extractmod "chartline/internal/services/extract/module"
	"chartline/internal/services/extract/repo"

	"github.com/urfave/cli/v2"
)

// backend flags shared by plan and extract
func backendFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "sink",
			Usage: "Sample sink: memory or clickhouse (SERVICE_CLICKHOUSE_DBURL)",
		},
		&cli.StringFlag{
			Name:  "catalog",
			Usage: "Layout catalog: none, file or pg (SERVICE_PGSQL_DBURL)",
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "Directory of the file layout catalog",
		},
	}
}

// openExtract builds the extract module with only the backends its sink and
// catalog need; flags override CORE_EXTRACT_* for this process
func openExtract(ctx context.Context, c *cli.Context) (*extractmod.Module, func(), error) {
	mustSetEnv("CORE_EXTRACT_SINK", c.String("sink"))
	mustSetEnv("CORE_EXTRACT_CATALOG", c.String("catalog"))
	mustSetEnv("CORE_EXTRACT_CACHE_DIR", c.String("cache-dir"))

	root := config.New()
	opts := extractmod.FromConfig(root)
	scfg := store.ConfigFromEnv("cli")
	scfg.CH.Enabled = scfg.CH.Enabled && opts.Sink == extractmod.SinkClickhouse
	scfg.PG.Enabled = scfg.PG.Enabled && opts.Catalog == extractmod.CatalogPG

	l := logger.Get()
	st, err := store.Open(ctx, scfg, store.WithLogger(*l))
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}

	m := extractmod.New(modkit.Deps{Log: l, Cfg: root, PG: st.PG, CH: st.CH})
	if err := m.EnsureSchema(ctx); err != nil {
		closer()
		return nil, nil, err
	}
	modkit.Register(m.Name(), m.Ports())
	return m, closer, nil
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Split a file into record aligned partitions",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Timeline data file", Required: true},
			&cli.Int64Flag{Name: "chunk", Usage: "Candidate partition size in bytes"},
			&cli.BoolFlag{Name: "json", Usage: "Print the layout as JSON"},
		}, backendFlags()...),
		Action: func(c *cli.Context) error {
			m, done, err := openExtract(c.Context, c)
			if err != nil {
				return err
			}
			defer done()

			runner := modkit.MustPortsOf[extractmod.Ports](m).Runner
			lay, hit, err := runner.Layout(c.Context, c.String("file"), c.Int64("chunk"))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return writeJSON(c.App.Writer, lay)
			}
			return printLayout(c.App.Writer, lay, hit)
		},
	}
}

func printLayout(w io.Writer, lay *tdf.Layout, hit bool) error {
	fmt.Fprintf(w, "%s  size=%d chunk=%d records=%d cached=%v\n", lay.Path, lay.Size, lay.Chunk, lay.NumRecords(), hit)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PART\tSTART\tSTOP\tRECORDS")
	for _, p := range lay.Partitions {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\n", p.Index, p.Start, p.Stop, len(p.Records))
	}
	return tw.Flush()
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Extract aligned input and target samples from every subject",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Timeline data file", Required: true},
			&cli.StringSliceFlag{Name: "inputs", Aliases: []string{"i"}, Usage: "Input variables, Name or Name[-N]", Required: true},
			&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Usage: "Target variable", Required: true},
			&cli.StringFlag{Name: "start", Usage: "Window start predicate, Class or Class:v1|v2"},
			&cli.StringFlag{Name: "stop", Usage: "Window stop predicate"},
			&cli.StringFlag{Name: "filter", Usage: "Sample filters, e.g. \"K.GT.5;InHospital=1\""},
			&cli.StringFlag{Name: "norm", Usage: "Value normalization: NormFraction or NormInt0-100"},
			&cli.IntFlag{Name: "min-interval", Usage: "Minimum hours between samples of a window"},
			&cli.IntFlag{Name: "min-samples", Usage: "Samples a window needs to be emitted"},
			&cli.IntFlag{Name: "clip", Usage: "Keep only the first N subjects"},
			&cli.Int64Flag{Name: "chunk", Usage: "Candidate partition size in bytes"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Partitions processed in parallel"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write samples as JSON lines (memory sink only)"},
		}, backendFlags()...),
		Action: func(c *cli.Context) error {
			m, done, err := openExtract(c.Context, c)
			if err != nil {
				return err
			}
			defer done()

			req := domain.Request{
				File:         c.String("file"),
				Inputs:       c.StringSlice("inputs"),
				Target:       c.String("target"),
				Filters:      c.String("filter"),
				Start:        c.String("start"),
				Stop:         c.String("stop"),
				Norm:         c.String("norm"),
				MinSamples:   c.Int("min-samples"),
				ClipSubjects: c.Int("clip"),
				Chunk:        c.Int64("chunk"),
				Workers:      c.Int("workers"),
			}
			if c.IsSet("min-interval") {
				h := c.Int("min-interval")
				req.MinIntervalHours = &h
			}

			runner := modkit.MustPortsOf[extractmod.Ports](m).Runner
			sum, err := runner.Run(c.Context, req)
			if err != nil {
				return err
			}
			if out := c.String("out"); out != "" {
				mem, ok := m.Sink().(*repo.MemorySink)
				if !ok {
					return perr.InvalidArgf("--out needs the memory sink")
				}
				if err := writeSamples(out, mem.Samples()); err != nil {
					return err
				}
			}
			return writeJSON(c.App.Writer, sum)
		},
	}
}

func writeSamples(path string, samples []domain.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return perr.IOf(err, "create %s", path)
	}
	enc := json.NewEncoder(f)
	for _, s := range samples {
		if err := enc.Encode(s); err != nil {
			_ = f.Close()
			return perr.IOf(err, "write %s", path)
		}
	}
	if err := f.Close(); err != nil {
		return perr.IOf(err, "close %s", path)
	}
	return nil
}

func describeCommand() *cli.Command {
	return &cli.Command{
		Name:  "describe",
		Usage: "List the registered variables",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Describe one variable, Name or Name[-N]"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
		},
		Action: func(c *cli.Context) error {
			reg := vars.Default()
			ds := reg.All()
			if name := c.String("name"); name != "" {
				ref, err := reg.Resolve(name)
				if err != nil {
					return err
				}
				ds = []vars.Descriptor{ref.Desc}
			}
			if c.Bool("json") {
				return writeJSON(c.App.Writer, ds)
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTYPE\tMIN\tMAX\tCLASSES\tDERIVED\tFUTURE")
			for _, d := range ds {
				future := "-"
				if d.NeedsLookahead() {
					future = fmt.Sprintf("%dd/%s", d.FutureDays, d.Predicts)
				}
				fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%d\t%v\t%s\n", d.Name, d.Type, d.Min, d.Max, d.NumClasses(), d.Derived, future)
			}
			return tw.Flush()
		},
	}
}

func synthCommand() *cli.Command {
	return &cli.Command{
		Name:  "synth",
		Usage: "Write a deterministic synthetic timeline data file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output path", Required: true},
			&cli.IntFlag{Name: "subjects", Aliases: []string{"n"}, Usage: "Number of subjects", Value: 100},
			&cli.Uint64Flag{Name: "seed", Usage: "Random seed", Value: 1},
			&cli.IntFlag{Name: "max-admissions", Usage: "Admissions per subject at most", Value: 3},
		},
		Action: func(c *cli.Context) error {
			w, err := tdf.Create(c.String("out"))
			if err != nil {
				return err
			}
			err = tdf.Synth(w, tdf.SynthOptions{
				Subjects:      c.Int("subjects"),
				Seed:          c.Uint64("seed"),
				MaxAdmissions: c.Int("max-admissions"),
			})
			if err != nil {
				return err
			}
			logger.Get().Info().
				Str("out", c.String("out")).
				Int("subjects", c.Int("subjects")).
				Msg("synth: wrote file")
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
