package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/the-insecure-proxy/insecure-proxy/internal/rewrite"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [file...]",
	Short: "Downgrade https:// to http:// in files or stdin",
	Long: "Stream each file (or stdin when none is given) through the scheme rewriter and write the result to stdout. " +
		"Matches never span two files.",
	RunE: runRewrite,
}

func init() {
	rewriteCmd.Flags().BoolP("count", "n", false, "Print the number of replacements to stderr")
}

func runRewrite(cmd *cobra.Command, args []string) error {
	out := bufio.NewWriter(cmd.OutOrStdout())
	total := 0

	rewriteOne := func(r io.Reader) error {
		w := rewrite.NewWriter(out)
		if _, err := io.Copy(w, r); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		total += w.Replacements()
		return nil
	}

	if len(args) == 0 {
		if err := rewriteOne(cmd.InOrStdin()); err != nil {
			return fmt.Errorf("stdin: %w", err)
		}
	}
	for _, name := range args {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		err = rewriteOne(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if err := out.Flush(); err != nil {
		return err
	}
	if count, _ := cmd.Flags().GetBool("count"); count {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d replacements\n", total)
	}
	return nil
}
