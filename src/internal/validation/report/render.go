// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rules"
)

func stamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func verdict(c *rules.Conclusion) string {
	if c == nil {
		return "-"
	}
	if c.SubIndication == "" {
		return string(c.Indication)
	}
	return string(c.Indication) + "/" + string(c.SubIndication)
}

// RenderTable renders the simple report as a markdown table.
//
// Parameters:
//   - s: The simple report
//
// Returns:
//   - string: One row per token with its indication, best-signature-time and qualification
//   - error: Error if the table cannot be rendered
func RenderTable(s *Simple) (string, error) {
	if s == nil || len(s.Tokens) == 0 {
		return "No tokens to display\n", nil
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	table := tablewriter.NewTable(buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"#", "Kind", "Token", "Certificate", "Indication", "Sub-Indication", "Best Signature Time", "Qualification"})

	rows := make([][]string, 0, len(s.Tokens))
	for i, t := range s.Tokens {
		sub := string(t.SubIndication)
		if sub == "" {
			sub = "-"
		}
		subject := t.CertificateID
		if t.Subject != "" {
			subject = t.Subject
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			string(t.Kind),
			t.ID,
			subject,
			string(t.Indication),
			sub,
			stamp(t.BestSignatureTime),
			t.Qualification,
		})
	}

	if err := table.Bulk(rows); err != nil {
		return "", fmt.Errorf("report: render table: %w", err)
	}
	if err := table.Render(); err != nil {
		return "", fmt.Errorf("report: render table: %w", err)
	}

	fmt.Fprintf(buf, "\n%d of %d token(s) valid at %s (policy %s)\n",
		s.ValidCount, s.TotalCount, stamp(&s.ValidationTime), s.Policy)
	return buf.String(), nil
}

// node is one line of the rendered tree.
type node struct {
	label    string
	children []*node
}

func (n *node) add(label string) *node {
	c := &node{label: label}
	n.children = append(n.children, c)
	return c
}

func icon(passed bool, level rules.Level) string {
	switch {
	case passed:
		return "✓"
	case level == rules.LevelFail:
		return "✗"
	default:
		return "!"
	}
}

// addConclusion appends one child per consulted constraint of c.
func (n *node) addConclusion(c *rules.Conclusion) {
	if c == nil {
		return
	}
	for _, r := range c.Results {
		label := fmt.Sprintf("[%s] %s", icon(r.Passed, r.Level), r.Name)
		if r.Level != rules.LevelFail {
			label += " (" + string(r.Level) + ")"
		}
		if r.Detail != "" {
			label += ": " + r.Detail
		}
		n.add(label)
	}
}

func tokenNode(t *Token) *node {
	n := &node{label: fmt.Sprintf("[%s] %s %s (%s) %s",
		icon(t.Conclusion.Passed(), rules.LevelFail), t.Kind, t.ID, t.CertificateID, verdict(t.Conclusion))}

	if t.BasicValidation != nil {
		n.add("Basic validation: " + verdict(t.BasicValidation)).addConclusion(t.BasicValidation)
	}
	if t.XCV != nil {
		x := n.add(fmt.Sprintf("Certificate chain at %s: %s", stamp(&t.XCV.ControlTime), verdict(t.XCV.Conclusion)))
		x.addConclusion(t.XCV.Conclusion)
		for _, c := range t.XCV.Certificates {
			x.add(fmt.Sprintf("Certificate %s: %s", c.CertificateID, verdict(c.Conclusion))).addConclusion(c.Conclusion)
		}
	}
	if t.PSV != nil && t.PSV.Entered {
		times := make([]string, 0, len(t.PSV.ControlTimes))
		for i := range t.PSV.ControlTimes {
			times = append(times, stamp(&t.PSV.ControlTimes[i]))
		}
		p := n.add(fmt.Sprintf("Past validation at %s: %s", stamp(&t.PSV.ControlTime), verdict(t.PSV.Conclusion)))
		p.add("Control times: " + strings.Join(times, " > "))
		p.add("Best signature time: " + stamp(t.PSV.BestSignatureTime))
		p.addConclusion(t.PSV.Conclusion)
	}
	if t.Qualification != nil {
		n.add("Qualification: " + t.Qualification.Level)
	}
	return n
}

func (n *node) render(buf gc.Buffer, prefix string) {
	for i, c := range n.children {
		connector, next := "├── ", "│   "
		if i == len(n.children)-1 {
			connector, next = "└── ", "    "
		}
		buf.WriteString(prefix + connector + c.label + "\n")
		c.render(buf, prefix+next)
	}
}

// RenderTree renders the detailed report as a tree mirroring rule execution:
// one branch per token, one per building block and one leaf per consulted
// constraint.
func RenderTree(d *Detailed) string {
	if d == nil {
		return "No validation performed\n"
	}

	root := &node{}
	for _, t := range d.Tokens() {
		root.children = append(root.children, tokenNode(t))
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	fmt.Fprintf(buf, "Validation at %s (policy %s)\n", stamp(&d.ValidationTime), d.Policy)
	if len(root.children) == 0 {
		buf.WriteString("└── No tokens\n")
	}
	root.render(buf, "")
	return buf.String()
}

// ToJSON encodes r as indented JSON.
func ToJSON(r *Reports) ([]byte, error) {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("report: encode json: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}
