// Package cli wires the cobra command tree. Commands receive their
// collaborators through Dependencies so tests can run them against
// fakes.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ttbonn/reviewagent/internal/gitstats"
	"github.com/ttbonn/reviewagent/internal/usecase/bootstrap"
	"github.com/ttbonn/reviewagent/internal/usecase/merge"
	reviewrun "github.com/ttbonn/reviewagent/internal/usecase/review"
	"github.com/ttbonn/reviewagent/internal/version"
)

// Reviewer runs reviews.
type Reviewer interface {
	Run(ctx context.Context, req reviewrun.Request) (*reviewrun.Result, error)
}

// Merger runs the merge-safety agent.
type Merger interface {
	Merge(ctx context.Context, req merge.Request) (*merge.Result, error)
}

// Scaffolder builds the demo scenario.
type Scaffolder interface {
	Run(ctx context.Context, req bootstrap.Request) (*bootstrap.Result, error)
}

// Arguments carries IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
	InReader  io.Reader
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Reviewer   Reviewer
	Merger     Merger
	Scaffolder Scaffolder

	// Serve runs the webhook server until the context is cancelled.
	Serve func(ctx context.Context) error

	// AnalyzeRepo computes statistics for a local repository.
	AnalyzeRepo func(repoDir string) (gitstats.Report, error)

	// ExportStats writes a report to a JSON file and returns its path.
	ExportStats func(outputDir, repository string, report gitstats.Report) (string, error)

	// Interactive reports whether stdin is a terminal. Confirmation
	// prompts are shown only when it returns true.
	Interactive func() bool

	// Defaults resolved from config; flags override them.
	DefaultOutput      string
	DefaultMergeMethod string
	DeleteBranch       bool

	Args Arguments
}

// NewRootCommand constructs the root cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	root := &cobra.Command{
		Use:   "reviewagent",
		Short: "Automated pull request review agent",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	inReader := deps.Args.InReader
	if inReader == nil {
		inReader = os.Stdin
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)
	root.SetIn(inReader)

	if deps.Interactive == nil {
		deps.Interactive = reviewrun.IsInteractive
	}

	root.AddCommand(reviewCommand(deps))
	root.AddCommand(mergeCommand(deps))
	root.AddCommand(bootstrapCommand(deps))
	root.AddCommand(serveCommand(deps))
	root.AddCommand(statsCommand(deps))
	root.AddCommand(versionCommand())

	return root
}

func reviewCommand(deps Dependencies) *cobra.Command {
	var owner string
	var repo string
	var pullNumber int
	var dryRun bool
	var force bool
	var save bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review a pull request and post findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireTarget(owner, repo, pullNumber); err != nil {
				return err
			}

			if !dryRun && !yes && deps.Interactive() {
				ok, err := confirm(cmd, fmt.Sprintf("Post review comments to %s/%s#%d?", owner, repo, pullNumber))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			outputDir := ""
			if save {
				outputDir = deps.DefaultOutput
			}

			res, err := deps.Reviewer.Run(cmd.Context(), reviewrun.Request{
				Owner:      owner,
				Repo:       repo,
				PullNumber: pullNumber,
				Force:      force,
				DryRun:     dryRun,
				OutputDir:  outputDir,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintf(out, "Review skipped: %s\n", res.SkipReason)
				return nil
			}

			fmt.Fprintf(out, "Reviewed %d file(s), %d finding(s).\n", res.FilesReviewed, len(res.Findings))
			if dryRun {
				fmt.Fprintln(out, res.Body)
			} else if res.Post != nil {
				fmt.Fprintf(out, "Posted %d inline comment(s), skipped %d duplicate(s).\n",
					res.Post.CommentsPosted, res.Post.DuplicatesSkipped)
				if res.Post.HTMLURL != "" {
					fmt.Fprintln(out, res.Post.HTMLURL)
				}
			}
			if res.ReportPath != "" {
				fmt.Fprintf(out, "Report saved to %s\n", res.ReportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Repository owner")
	cmd.Flags().StringVar(&repo, "repo", "", "Repository name")
	cmd.Flags().IntVar(&pullNumber, "pr", 0, "Pull request number")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Evaluate without posting")
	cmd.Flags().BoolVar(&force, "force", false, "Review even when a skip trigger is present")
	cmd.Flags().BoolVar(&save, "save", false, "Save the review body as a Markdown report")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func mergeCommand(deps Dependencies) *cobra.Command {
	var owner string
	var repo string
	var pullNumber int
	var method string
	var deleteBranch bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge a pull request if every safety gate passes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireTarget(owner, repo, pullNumber); err != nil {
				return err
			}

			if !yes && deps.Interactive() {
				ok, err := confirm(cmd, fmt.Sprintf("Merge %s/%s#%d?", owner, repo, pullNumber))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			if method == "" {
				method = deps.DefaultMergeMethod
			}

			res, err := deps.Merger.Merge(cmd.Context(), merge.Request{
				Owner:        owner,
				Repo:         repo,
				PullNumber:   pullNumber,
				Method:       method,
				DeleteBranch: deleteBranch || deps.DeleteBranch,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, gate := range res.Assessment.Gates {
				mark := "PASS"
				if !gate.Passed {
					mark = "FAIL"
				}
				line := fmt.Sprintf("  [%s] %s", mark, gate.Name)
				if gate.Detail != "" {
					line += ": " + gate.Detail
				}
				fmt.Fprintln(out, line)
			}

			if !res.Merged {
				return fmt.Errorf("pull request not merged")
			}
			fmt.Fprintf(out, "Merged as %s.\n", res.SHA)
			if res.BranchDeleted {
				fmt.Fprintln(out, "Head branch deleted.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Repository owner")
	cmd.Flags().StringVar(&repo, "repo", "", "Repository name")
	cmd.Flags().IntVar(&pullNumber, "pr", 0, "Pull request number")
	cmd.Flags().StringVar(&method, "method", "", "Merge method: merge, squash, or rebase")
	cmd.Flags().BoolVar(&deleteBranch, "delete-branch", false, "Delete the head branch after merging")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func bootstrapCommand(deps Dependencies) *cobra.Command {
	var owner string
	var repo string
	var base string

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create a demo issue, branch, and pull request with flawed sample code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner == "" || repo == "" {
				return fmt.Errorf("--owner and --repo are required")
			}

			res, err := deps.Scaffolder.Run(cmd.Context(), bootstrap.Request{
				Owner:      owner,
				Repo:       repo,
				BaseBranch: base,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Issue #%d created.\n", res.Issue.Number)
			fmt.Fprintf(out, "Branch %s created.\n", res.Branch)
			fmt.Fprintf(out, "Pull request #%d opened.\n", res.Pull.Number)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Repository owner")
	cmd.Flags().StringVar(&repo, "repo", "", "Repository name")
	cmd.Flags().StringVar(&base, "base", "main", "Base branch to fork the demo branch from")

	return cmd
}

func serveCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.Serve(cmd.Context())
		},
	}
}

func statsCommand(deps Dependencies) *cobra.Command {
	var repoDir string
	var jsonExport bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics for a local git repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := deps.AnalyzeRepo(repoDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, gitstats.Render(report))

			if jsonExport {
				path, err := deps.ExportStats(deps.DefaultOutput, strings.TrimPrefix(report.Path, "./"), report)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Exported to %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "dir", ".", "Repository directory")
	cmd.Flags().BoolVar(&jsonExport, "json", false, "Export the report as JSON")

	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "reviewagent %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
			return nil
		},
	}
}

func requireTarget(owner, repo string, pullNumber int) error {
	if owner == "" || repo == "" {
		return fmt.Errorf("--owner and --repo are required")
	}
	if pullNumber <= 0 {
		return fmt.Errorf("--pr must be a positive integer")
	}
	return nil
}

// confirm asks a Y/n question on the command's input stream.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [Y/n] ", question)

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("read confirmation: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "" || answer == "y" || answer == "yes", nil
}
