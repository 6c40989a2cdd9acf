package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/featx/internal/config"
	"github.com/happyhackingspace/featx/nlp"
	"github.com/happyhackingspace/featx/template"
)

func (c *CLI) newTemplatesCommand() *cobra.Command {
	var check bool
	var labels bool
	var text string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List available templates or check a template specification",
		Args:  cobra.NoArgs,
		Example: `  featx templates
  featx templates --labels
  featx templates --check -t "Head1-Word * Frame + 1"
  featx templates --text "The fox jumps." -t "Head1-Word + Head1-Shape"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			reg, err := registry(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if text != "" {
				return showText(out, cfg, text)
			}

			if check {
				clauses, err := template.ParseClauses(cfg.Templates, reg, nil)
				if err != nil {
					return err
				}
				for _, cl := range clauses {
					fmt.Fprintf(out, "%s\t%d\n", cl.Text, len(cl.Factors))
				}
				return nil
			}

			for _, name := range reg.Names() {
				if labels && !reg.IsLabel(name) {
					continue
				}
				if reg.IsLabel(name) {
					fmt.Fprintf(out, "%s\t(label)\n", name)
				} else {
					fmt.Fprintln(out, name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Parse the configured template specification and list its clauses")
	cmd.Flags().BoolVar(&labels, "labels", false, "Only list templates that read labels")
	cmd.Flags().StringVar(&text, "text", "", "Tokenize raw text and print the features of every single-token slot")
	return cmd
}

// showText prints one line per token of text: the word, then the feature
// names of the configured templates with that token in slot 1.
func showText(out io.Writer, cfg config.Config, text string) error {
	f, err := newFeaturizer(cfg, nil, nil)
	if err != nil {
		return err
	}
	s := nlp.FromText(text)
	c := template.NewContext()
	c.SetSentence(s)
	for i := range s.Len() {
		if err := c.SetSlot1(nlp.Span{Start: i, End: i + 1}, i); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%s\n", s.Word(i), strings.Join(f.Names(c), " "))
	}
	return nil
}
