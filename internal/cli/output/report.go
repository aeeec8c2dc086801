package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/aegis/internal/audit"
	"github.com/leapstack-labs/aegis/internal/state"
	"github.com/leapstack-labs/aegis/pkg/core"
)

const timeFormat = "2006-01-02 15:04:05"

// RenderReport writes one audit report in the renderer's mode.
func (r *Renderer) RenderReport(rep *audit.Report) error {
	if ok, err := r.Structured(rep); ok {
		return err
	}

	switch rep.Kind {
	case audit.KindModel:
		r.Header(1, "Model Audit: "+rep.Model)
	default:
		r.Header(1, "Data Audit")
	}
	r.reportMeta(rep)

	for _, rec := range rep.Data {
		r.renderDataRecord(rec)
	}
	for _, rec := range rep.Findings {
		r.renderModelRecord(rec)
	}
	return nil
}

func (r *Renderer) reportMeta(rep *audit.Report) {
	if rep.ID != "" {
		r.KeyValue("ID", rep.ID)
	}
	r.KeyValue("Source", rep.Source)
	r.KeyValue("Target", rep.Target)
	r.KeyValue("Rows", strconv.Itoa(rep.Rows))
	r.KeyValue("Protected", strings.Join(rep.Attributes, ", "))
	if !rep.CreatedAt.IsZero() {
		r.KeyValue("Created", rep.CreatedAt.Local().Format(timeFormat))
	}
	if rep.Kind == audit.KindModel {
		r.KeyValue("Highest Tier", r.tierLabel(rep.HighestTier()))
	}
	r.Println()
}

func (r *Renderer) renderDataRecord(rec audit.DataRecord) {
	r.Header(2, FormatTitle(rec.Attribute))

	rows := make([][]string, 0, len(rec.Representation))
	for _, g := range rec.Representation {
		rows = append(rows, []string{g.Group.String(), strconv.Itoa(g.Count)})
	}
	r.Println("Representation")
	r.Table([]string{"Group", "Count"}, rows)

	rows = rows[:0]
	for _, s := range rec.TargetDistribution {
		rows = append(rows, []string{
			s.Group.String(),
			s.Target.String(),
			strconv.Itoa(s.Count),
			strconv.FormatFloat(s.Percentage, 'f', 2, 64) + "%",
		})
	}
	r.Println("Target Distribution")
	r.Table([]string{"Group", "Target", "Count", "Percentage"}, rows)
}

func (r *Renderer) renderModelRecord(rec audit.ModelRecord) {
	r.Header(2, FormatTitle(rec.Attribute))

	header := []string{"Group", "Size"}
	for _, m := range rec.Performance.Metrics {
		header = append(header, FormatTitle(string(m)))
	}
	rows := make([][]string, 0, len(rec.Performance.Rows))
	for _, g := range rec.Performance.Rows {
		row := []string{g.Group.String(), strconv.Itoa(g.Size)}
		for _, s := range g.Scores {
			row = append(row, s.String())
		}
		rows = append(rows, row)
	}
	r.Println("Performance")
	r.Table(header, rows)

	rows = make([][]string, 0, len(rec.Fairness))
	for _, m := range rec.Fairness {
		rows = append(rows, []string{m.Name, m.Value.String(), r.tierLabel(m.Tier)})
	}
	r.Println("Fairness")
	r.Table([]string{"Measure", "Value", "Tier"}, rows)

	for _, m := range rec.Fairness {
		r.Muted(fmt.Sprintf("%s: %s", m.Name, m.Interpretation))
	}
	r.Println()
}

// tierLabel renders "high (red)", coloured in text mode.
func (r *Renderer) tierLabel(t core.Tier) string {
	label := fmt.Sprintf("%s (%s)", t, t.Color())
	if r.EffectiveMode() == ModeMarkdown {
		return label
	}
	return r.styles.Tier(t).Render(label)
}

// RenderSummaries writes the audit history list.
func (r *Renderer) RenderSummaries(sums []state.Summary) error {
	if sums == nil {
		sums = []state.Summary{}
	}
	if ok, err := r.Structured(sums); ok {
		return err
	}

	r.Header(1, fmt.Sprintf("Audit History (%d)", len(sums)))
	if len(sums) == 0 {
		r.Muted("No audits recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(sums))
	for _, s := range sums {
		tier := ""
		if s.Kind == audit.KindModel {
			tier = r.tierLabel(s.HighestTier)
		}
		rows = append(rows, []string{
			shortID(s.ID),
			string(s.Kind),
			s.Source,
			s.Model,
			strings.Join(s.Attributes, ", "),
			strconv.Itoa(s.Rows),
			tier,
			s.CreatedAt.Local().Format(timeFormat),
		})
	}
	r.Table([]string{"ID", "Kind", "Source", "Model", "Protected", "Rows", "Highest Tier", "Created"}, rows)
	return nil
}

// RenderFindings writes stored fairness measures.
func (r *Renderer) RenderFindings(findings []state.Finding, minTier core.Tier) error {
	if findings == nil {
		findings = []state.Finding{}
	}
	if ok, err := r.Structured(findings); ok {
		return err
	}

	r.Header(1, fmt.Sprintf("Findings at %s or above (%d)", minTier, len(findings)))
	if len(findings) == 0 {
		r.Muted("Nothing to report.")
		return nil
	}

	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, []string{
			shortID(f.AuditID),
			f.CreatedAt.Local().Format(timeFormat),
			f.Model,
			f.Attribute,
			f.Measure,
			f.Value.String(),
			r.tierLabel(f.Tier),
		})
	}
	r.Table([]string{"Audit", "Created", "Model", "Attribute", "Measure", "Value", "Tier"}, rows)
	return nil
}

// shortID truncates UUIDs to their first block; history commands accept prefixes.
func shortID(id string) string {
	if len(id) == 36 && id[8] == '-' {
		return id[:8]
	}
	return id
}

// FormatDuration renders d rounded for humans.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
