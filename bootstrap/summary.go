package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kbukum/tpcgraph/component"
	"github.com/kbukum/tpcgraph/observability"
	"github.com/kbukum/tpcgraph/version"
)

// writeSummary prints the banner, the environment and every registered
// component with its health.
func (a *App[C]) writeSummary(ctx context.Context, startup time.Duration) {
	if a.summary == nil || a.summary == io.Discard {
		return
	}

	var b strings.Builder
	b.WriteString(version.Banner(a.Name))
	b.WriteString("\n")

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  environment\t%s\n", a.Cfg.GetServiceConfig().Environment)
	fmt.Fprintf(tw, "  startup\t%s\n", startup.Round(time.Millisecond))

	health := make(map[string]observability.Health)
	for _, h := range a.Components.HealthAll(ctx) {
		health[h.Name] = h
	}
	descs := describeAll(a.Components)
	if len(descs) > 0 {
		fmt.Fprintln(tw, "  components")
	}
	for _, l := range descs {
		fmt.Fprintf(tw, "    %s\t%s\t%s\t%s\n", l.desc.Name, l.desc.Type, l.desc.Details, health[l.key].Status)
	}
	_ = tw.Flush()

	_, _ = io.WriteString(a.summary, b.String())
}

// describeAll lists every component, falling back to its name for those
// that do not describe themselves. Health is keyed by Name(), so the
// display name is only used when printing.
func describeAll(r *component.Registry) []componentLine {
	all := r.All()
	out := make([]componentLine, 0, len(all))
	for _, c := range all {
		d := component.Description{Name: c.Name(), Type: "component"}
		if dd, ok := c.(component.Describable); ok {
			d = dd.Describe()
			if d.Name == "" {
				d.Name = c.Name()
			}
		}
		out = append(out, componentLine{key: c.Name(), desc: d})
	}
	return out
}

type componentLine struct {
	key  string
	desc component.Description
}
