package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/campus-agents/campus-hub/config"
	"github.com/campus-agents/campus-hub/internal/domain/catalog"
)

// catalogView is the printable form of a catalog.
type catalogView struct {
	Courses []catalog.Course `yaml:"courses" json:"courses"`
	Topics  []string         `yaml:"topics" json:"topics"`
	Events  []catalog.Event  `yaml:"events" json:"events"`
}

// newCatalogCmd creates the "campus catalog" subcommand.
func newCatalogCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the loaded course and event catalog",
		Long:  "Prints the embedded catalog, or the file named by CAMPUS_CATALOG_PATH.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), cat, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, yaml or json")
	return cmd
}

func printCatalog(w io.Writer, cat *catalog.Catalog, format string) error {
	view := catalogView{
		Courses: cat.Courses(),
		Topics:  cat.Topics(),
		Events:  cat.Events(),
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case "text":
		return printCatalogText(w, view)
	default:
		return fmt.Errorf("unknown format %q (want text, yaml or json)", format)
	}
}

func printCatalogText(w io.Writer, view catalogView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "COURSE\tCREDITS\tPREREQUISITES\tNEXT")
	for _, c := range view.Courses {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", c.Name, c.Credits, dashIfEmpty(strings.Join(c.Prerequisites, ", ")), dashIfEmpty(c.Successor))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "EVENT\tDATE\tTAGS")
	for _, e := range view.Events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Title, e.Date, strings.Join(e.Tags, ", "))
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "LESSON TOPICS\t%s\n", strings.Join(view.Topics, ", "))
	return tw.Flush()
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
