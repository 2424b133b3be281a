package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/internal/worker"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/resolve"
)

// crawlOpts holds options for the crawl command.
type crawlOpts struct {
	envOpts
	concurrency int
	follow      bool
	force       bool
	maxNodes    int
	ledger      string
	retry       string
	json        bool
}

// crawlCommand creates the crawl command for batch resolution.
func (c *CLI) crawlCommand() *cobra.Command {
	var opts crawlOpts

	cmd := &cobra.Command{
		Use:   "crawl [file|-]",
		Short: "Resolve a batch of packages concurrently",
		Long: `Crawl reads one package per line (a coordinate, or a JSON object with a
repoURL) and resolves them with a pool of workers. Packages already stored at
the target crawl version are skipped unless --force is given. Failures are
appended to the failure ledger and can be retried with --retry-ledger.`,
		Example: `  pomgraph crawl seeds.txt --concurrency 8
  pomgraph crawl --retry-ledger failures.jsonl
  echo org.slf4j:slf4j-api:2.0.13 | pomgraph crawl - --follow --max-nodes 500`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.retry == "" {
				return errors.New(errors.ErrCodeInvalidInput, "crawl needs an input file, - for stdin, or --retry-ledger")
			}
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runCrawl(cmd.Context(), input, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	opts.envOpts.register(cmd)
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "number of workers (default from config)")
	cmd.Flags().BoolVar(&opts.follow, "follow", false, "also crawl compile and runtime dependencies")
	cmd.Flags().BoolVar(&opts.force, "force", false, "resolve packages already stored up to date")
	cmd.Flags().IntVar(&opts.maxNodes, "max-nodes", 0, "stop enqueueing after this many packages (0: unlimited)")
	cmd.Flags().StringVar(&opts.ledger, "ledger", "", "failure ledger file (default from config)")
	cmd.Flags().StringVar(&opts.retry, "retry-ledger", "", "re-run the identifiers recorded in a failure ledger")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the run summary as JSON")

	return cmd
}

func (c *CLI) runCrawl(ctx context.Context, input string, opts crawlOpts, stdin io.Reader, stdout io.Writer) error {
	e, err := c.openEnv(ctx, opts.envOpts)
	if err != nil {
		return err
	}
	defer e.Close(ctx)

	ids, err := readCrawlInput(input, opts.retry, e.repoURL, stdin)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		printInfo("Nothing to crawl")
		return nil
	}

	concurrency := opts.concurrency
	if concurrency <= 0 {
		concurrency = e.cfg.Worker.Concurrency
	}
	ledgerPath := opts.ledger
	if ledgerPath == "" {
		ledgerPath = e.cfg.Worker.FailureLedger
	}
	var ledger *worker.Ledger
	if ledgerPath != "" {
		if ledger, err = worker.OpenLedger(ledgerPath); err != nil {
			return err
		}
		defer ledger.Close()
	}

	pool := worker.New(e.resolver, e.gateway, worker.Options{
		Concurrency:  concurrency,
		CrawlVersion: e.cfg.Resolve.CrawlVersion,
		Force:        opts.force,
		Follow:       opts.follow,
		MaxNodes:     opts.maxNodes,
		Ledger:       ledger,
		Logger:       c.Logger,
	})

	spinner := newSpinner(ctx, fmt.Sprintf("Crawling %d packages with %d workers...", len(ids), concurrency))
	spinner.Start()
	summary, err := pool.Run(ctx, ids)
	spinner.Stop()
	if err != nil {
		return err
	}

	if opts.json {
		return writeResult(stdout, "", summary)
	}
	printCrawlSummary(summary)
	if summary.Failed > 0 && ledgerPath != "" {
		printNextStep("Retry failures", appName+" crawl --retry-ledger "+ledgerPath)
	}
	return nil
}

// readCrawlInput collects identifiers from the input file (or stdin for "-")
// followed by those recorded in the retry ledger.
func readCrawlInput(input, retry, repoURL string, stdin io.Reader) ([]resolve.Identifier, error) {
	var ids []resolve.Identifier
	if input != "" {
		r := stdin
		if input != "-" {
			f, err := os.Open(input)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open crawl input")
			}
			defer f.Close()
			r = f
		}
		read, err := worker.ReadIdentifiers(r, repoURL)
		if err != nil {
			return nil, err
		}
		ids = append(ids, read...)
	}
	if retry != "" {
		f, err := os.Open(retry)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open failure ledger")
		}
		defer f.Close()
		failures, err := worker.ReadLedger(f)
		if err != nil {
			return nil, err
		}
		for _, fl := range failures {
			ids = append(ids, fl.Identifier)
		}
	}
	return ids, nil
}

// printCrawlSummary prints the outcome counts of one crawl run.
func printCrawlSummary(s *worker.Summary) {
	if s.Failed == 0 {
		printSuccess("Crawled %d packages", s.Total())
	} else {
		printWarning("Crawled %d packages, %d failed", s.Total(), s.Failed)
	}
	printStats(
		statPart("resolved", s.Resolved),
		statPart("skipped", s.Skipped),
		statPart("stored", s.Stored),
		statPart("missing versions", s.Missing),
		statPart("dangling", s.Dangling),
		s.Duration.Round(time.Millisecond).String(),
	)
	printDetail("Run: %s", s.RunID)
	for _, f := range s.Failures {
		printError("%s %s", f.Identifier.Coordinate, StyleDim.Render(fmt.Sprintf("[%s] %s", f.Code, f.Message)))
	}
}
