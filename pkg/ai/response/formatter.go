package response

import (
	"context"
	"fmt"
	"strings"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/pkg/ai/state"
	"med-agent-be/pkg/store"
)

const module = "FORMATTER"

const (
	TitleOutlets     = "Pharmacies available"
	TitleOnDuty      = "Pharmacies on duty today"
	TitleCatalogInfo = "Medication information"
	TitleCatalogList = "Medication list"

	SourceLine = "Source: MINSAL."
	Disclaimer = "In an emergency, go to the nearest hospital."
	NoResults  = "I couldn't find results for your request. Try naming your commune or the medication."
)

// Synthesizer rewrites the deterministic answer body into prose. The policy
// message, disclosures and disclaimer never pass through it.
type Synthesizer interface {
	Synthesize(ctx context.Context, question, body string) (string, error)
}

type Option func(*Formatter)

func WithSynthesizer(s Synthesizer) Option {
	return func(f *Formatter) { f.synth = s }
}

type Formatter struct {
	synth  Synthesizer
	logger logger.ILogger
}

func New(log logger.ILogger, opts ...Option) *Formatter {
	f := &Formatter{logger: log}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Render produces the final text of a turn.
func (f *Formatter) Render(ctx context.Context, st *state.RequestState) string {
	if st.Gate.Blocked {
		return st.Gate.PolicyMessage
	}
	if st.OnlyGreeting() {
		return join(*st.Greeting, Disclaimer)
	}

	var notes, sections []string

	onDuty := rowsOf(st.OnDuty)
	if o := st.Outlets; o != nil {
		switch {
		case o.Fallback:
			notes = append(notes, fallbackNote(st))
			if len(onDuty) == 0 {
				onDuty = o.Rows
			}
		case len(o.Rows) > 0:
			sections = append(sections, outletSection(TitleOutlets, o.Rows))
		case o.Exhausted:
			notes = append(notes, "The pharmacy registry is not responding right now, so I couldn't list pharmacies.")
		}
	}
	if len(onDuty) > 0 {
		sections = append(sections, outletSection(TitleOnDuty, onDuty))
	} else if st.OnDuty != nil && st.OnDuty.Exhausted {
		notes = append(notes, "The on-duty pharmacy registry is not responding right now.")
	}

	if c := st.Catalog; c != nil {
		if c.NotFound {
			notes = append(notes, notFoundNote(c))
		}
		if !c.Empty() {
			sections = append(sections, catalogSection(c))
		}
	}

	var body string
	if len(sections) > 0 {
		if st.Greeting != nil {
			sections = append([]string{*st.Greeting}, sections...)
		}
		body = f.synthesize(ctx, st, strings.Join(sections, "\n\n"))
	} else if st.Greeting != nil {
		body = *st.Greeting
	} else if len(notes) == 0 {
		body = NoResults
	}

	parts := append(notes, body)
	return join(append(parts, Disclaimer)...)
}

func (f *Formatter) synthesize(ctx context.Context, st *state.RequestState, body string) string {
	if f.synth == nil {
		return body
	}
	out, err := f.synth.Synthesize(ctx, st.Text, body)
	if err != nil {
		f.logger.Warn(module, "Synthesis failed, using structured answer", map[string]interface{}{
			"request_id": st.ID,
			"error":      err.Error(),
		})
		return body
	}
	if out = strings.TrimSpace(out); out == "" {
		return body
	}
	return out
}

func rowsOf(r *state.OutletResult) []store.OutletRecord {
	if r == nil {
		return nil
	}
	return r.Rows
}

func fallbackNote(st *state.RequestState) string {
	where := "the requested area"
	if loc := st.Route.Attributes.Location; loc != nil && strings.TrimSpace(*loc) != "" {
		where = strings.TrimSpace(*loc)
	}
	return fmt.Sprintf("I found no regular pharmacy listings for %s, so I'm showing the pharmacies on duty there instead.", where)
}

func notFoundNote(c *state.CatalogResult) string {
	if c.ListMode {
		return fmt.Sprintf("I couldn't find medications with %s matching %q in the catalog.", strings.ToLower(c.Field.Label()), c.Target)
	}
	if c.Target == "" {
		return "I couldn't find that medication in the catalog."
	}
	return fmt.Sprintf("I couldn't find %q in the medication catalog.", c.Target)
}

func outletSection(title string, rows []store.OutletRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):", title, len(rows))
	for _, r := range rows {
		b.WriteString("\n- ")
		b.WriteString(outletLine(r))
	}
	b.WriteString("\n")
	b.WriteString(SourceLine)
	return b.String()
}

func outletLine(r store.OutletRecord) string {
	line := strings.TrimSpace(r.Name)
	var place []string
	for _, p := range []string{r.Address, r.Locality} {
		if p = strings.TrimSpace(p); p != "" {
			place = append(place, p)
		}
	}
	if len(place) > 0 {
		line += ", " + strings.Join(place, ", ")
	}
	if opens, closes := strings.TrimSpace(r.OpeningHour), strings.TrimSpace(r.ClosingHour); opens != "" && closes != "" {
		line += fmt.Sprintf(". Hours: %s-%s", opens, closes)
	}
	if phone := strings.TrimSpace(r.Phone); phone != "" {
		line += ". Phone: " + phone
	}
	return line
}

func catalogSection(c *state.CatalogResult) string {
	var b strings.Builder
	if c.ListMode {
		fmt.Fprintf(&b, "%s (%s: %s):", TitleCatalogList, c.Field.Label(), c.Target)
		for _, n := range c.Names {
			b.WriteString("\n- ")
			b.WriteString(n)
		}
		return b.String()
	}

	b.WriteString(TitleCatalogInfo)
	b.WriteString(":")
	for _, e := range c.Entries {
		b.WriteString("\n\n")
		b.WriteString(e.Name)
		for _, field := range store.CatalogFields {
			if v := strings.TrimSpace(e.Field(field)); v != "" {
				fmt.Fprintf(&b, "\n- %s: %s", field.Label(), v)
			}
		}
	}
	return b.String()
}

func join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
