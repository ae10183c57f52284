package main

import (
	"fmt"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"htmlpdf/pkg/layout"
	"htmlpdf/pkg/paginate"
)

func newBoxesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boxes <input.html>",
		Short: "Print the paginated box tree of a document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  a.boxes,
	}
	pageFlags(cmd.Flags())
	return cmd
}

type pageDump struct {
	Index    int        `json:"index"`
	Offset   float64    `json:"offset"`
	Height   float64    `json:"height"`
	Repeated []*boxDump `json:"repeated,omitempty"`
	Root     *boxDump   `json:"root"`
}

// boxDump is the geometry and content of a box; styles are left out.
type boxDump struct {
	Kind     string     `json:"kind"`
	Node     int        `json:"node"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	Text     string     `json:"text,omitempty"`
	Font     string     `json:"font,omitempty"`
	Size     float64    `json:"size,omitempty"`
	Marker   string     `json:"marker,omitempty"`
	Image    string     `json:"image,omitempty"`
	Children []*boxDump `json:"children,omitempty"`
}

func dumpBox(b *layout.Box) *boxDump {
	if b == nil {
		return nil
	}
	d := &boxDump{
		Kind:   b.Kind.String(),
		Node:   int(b.Node),
		X:      b.X,
		Y:      b.Y,
		Width:  b.Width,
		Height: b.Height,
		Text:   b.Text,
		Marker: b.Marker,
	}
	if b.Face != nil {
		d.Font = b.Face.Name
		d.Size = b.FontSize
	}
	if b.Image != nil {
		d.Image = fmt.Sprintf("%s %dx%d", b.Image.Format, b.Image.Width, b.Image.Height)
	}
	for _, c := range b.Children {
		d.Children = append(d.Children, dumpBox(c))
	}
	return d
}

func dumpPages(slices []paginate.Slice) []pageDump {
	pages := make([]pageDump, 0, len(slices))
	for _, s := range slices {
		p := pageDump{Index: s.Index, Offset: s.Offset, Height: s.Height, Root: dumpBox(s.Root)}
		for _, r := range s.Repeated {
			p.Repeated = append(p.Repeated, dumpBox(r))
		}
		pages = append(pages, p)
	}
	return pages
}

func (a *app) boxes(cmd *cobra.Command, args []string) error {
	cfg, err := a.pageConfig(args[0])
	if err != nil {
		return err
	}
	markup, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	slices, err := a.generator().Slices(cmd.Context(), markup, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	out, err := json.MarshalIndent(dumpPages(slices), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
	return err
}
