package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/stitch/internal/ui/output"
	"go.trai.ch/stitch/internal/ui/style"
)

// writeSummary prints a short human readable report of a resolution.
func writeSummary(w io.Writer, entryID string, set *domain.VirtualFileSet) {
	s := style.NewStyles(output.NewRenderer(w))

	var b strings.Builder

	icon := s.Success.Render(style.Check)
	if len(set.Warnings) > 0 {
		icon = s.Caution.Render(style.Warning)
	}
	fmt.Fprintf(&b, "%s %s\n", icon, s.Title.Render("resolved "+entryID))

	components := strings.Join(set.Components, ", ")
	if components == "" {
		components = s.Muted.Render("none")
	}

	row := func(label, value string) {
		fmt.Fprintf(&b, "  %s%s\n", s.Label.Render(label), s.Value.Render(value))
	}
	row("components", components)
	row("files", strconv.Itoa(len(set.Files)))
	row("dependencies", strconv.Itoa(len(set.Dependencies)))
	row("dev deps", strconv.Itoa(len(set.DevDependencies)))
	row("rounds", strconv.Itoa(set.Rounds))
	row("digest", set.Digest())

	for _, warn := range set.Warnings {
		fmt.Fprintf(&b, "  %s %s %s\n",
			s.Caution.Render(style.Warning),
			warn.Component,
			s.Muted.Render("("+string(warn.Kind)+")"),
		)
	}

	for _, c := range set.Conflicts {
		mark := s.Muted.Render(style.Tilde)
		if !c.Compatible {
			mark = s.Failure.Render(style.Cross)
		}
		fmt.Fprintf(&b, "  %s %s %s %s %s\n", mark, c.Package, c.Previous, style.Arrow, c.Next)
	}

	_, _ = io.WriteString(w, b.String())
}
