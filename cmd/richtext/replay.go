package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/richtext/internal/app"
	"github.com/dshills/richtext/internal/engine/tree"
)

const closeTimeout = 5 * time.Second

func newReplayCmd() *cobra.Command {
	var docPath, scriptPath string
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay editing events against a document and print the result",
		Long: `Replay reads an event script, one command per line, applies it to a document
through the configured plugin pipeline and prints the resulting tree as YAML.

Commands: key <spec>, type <text>, paste <text>, file <path>, escape,
select <key>:<offset> [<key>:<offset>], undo, redo, wait.`,
		Example: `  richtext replay --doc doc.yaml --script events.txt
  echo 'type # Title' | richtext replay`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			t, err := readDoc(docPath)
			if err != nil {
				return err
			}
			script, err := openScript(cmd, scriptPath)
			if err != nil {
				return err
			}
			defer script.Close()

			ed, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
				defer cancel()
				ed.Close(ctx)
			}()

			d, err := ed.Open(t)
			if err != nil {
				return err
			}
			if err := app.Replay(d, script); err != nil {
				return err
			}
			ed.Pipeline().Wait()

			out, err := tree.Encode(d.Tree())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&docPath, "doc", "", "Document to start from, as YAML (default: one empty paragraph)")
	cmd.Flags().StringVar(&scriptPath, "script", "-", "Event script to replay, - for stdin")
	return cmd
}

func readDoc(path string) (*tree.Tree, error) {
	if path == "" {
		return tree.New(tree.NewDocument(tree.NewBlock(tree.Paragraph, tree.NewText(""))))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	t, err := tree.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return t, nil
}

func openScript(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	return f, nil
}
