// Command n5ls lists the multiscale pyramids of an N5 container.
//
//	n5ls [flags] <container-url>
//
// The container is any gocloud.dev bucket URL (file://, s3://, gs://, mem://).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	n5 "github.com/TuSKan/n5-multiscale"
	"github.com/TuSKan/n5-multiscale/catalog"
	"github.com/TuSKan/n5-multiscale/discovery"
	"github.com/TuSKan/n5-multiscale/internal/config"
	"github.com/TuSKan/n5-multiscale/internal/logging"
	"github.com/TuSKan/n5-multiscale/multiscale"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "n5ls:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	chain, err := multiscale.ChainFor(cfg.Conventions...)
	if err != nil {
		return err
	}

	reader, err := n5.NewReader(ctx, cfg.Root, n5.WithCacheSize(cfg.CacheSize))
	if err != nil {
		return err
	}
	defer reader.Close()

	d := discovery.New(reader,
		discovery.WithParallelism(cfg.Parallelism),
		discovery.WithGroupChain(chain),
		discovery.WithLogger(logger),
	)
	root, err := d.Discover(ctx, cfg.Base)
	if err != nil {
		return err
	}

	c := catalog.Build(root)
	logger.Info("discovery finished", "root", cfg.Root, "groups", len(c.Groups))
	if err := printCatalog(stdout, c); err != nil {
		return err
	}

	if cfg.Output != "" {
		return writeCatalog(cfg.Output, c)
	}
	return nil
}

func printCatalog(w io.Writer, c *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range c.Groups {
		kind := ""
		if e.Label {
			kind = ", label"
		}
		fmt.Fprintf(tw, "%s\t(%s, %d scales%s)\t%s\n", displayPath(e.Path), e.Convention, len(e.Scales), kind, strings.Join(e.Units, " "))
		for _, s := range e.Scales {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s blocks\t%s\t%s\n",
				n5.NodeName(s.Path), s.DataType, shape(s.Dimensions),
				humanize.Comma(s.Blocks), humanize.Bytes(uint64(s.Bytes)), factors(s.Factors))
		}
	}
	return tw.Flush()
}

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func shape(dims []int64) string {
	if len(dims) == 0 {
		return "-"
	}
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = humanize.Comma(d)
	}
	return strings.Join(parts, "x")
}

func factors(f *[3]float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("factors %g,%g,%g", f[0], f[1], f[2])
}

func writeCatalog(name string, c *catalog.Catalog) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create catalog file: %w", err)
	}
	if err := catalog.Write(f, c, strings.HasSuffix(name, ".zst")); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
