package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/five82/varlens/internal/api"
	"github.com/five82/varlens/internal/variants"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", formatTable:
		return formatTable, nil
	case formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

type variantRecord struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Revision    int            `json:"revision" yaml:"revision"`
	Status      string         `json:"status" yaml:"status"`
	Priority    bool           `json:"priority,omitempty" yaml:"priority,omitempty"`
	DeployedIn  []string       `json:"deployed_in,omitempty" yaml:"deployed_in,omitempty"`
	UpdatedAt   string         `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	ModifiedBy  string         `json:"modified_by,omitempty" yaml:"modified_by,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	URI         string         `json:"uri,omitempty" yaml:"uri,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

type listRecord struct {
	Variants []variantRecord `json:"variants" yaml:"variants"`
	Total    int             `json:"total" yaml:"total"`
	HasMore  bool            `json:"has_more" yaml:"has_more"`
}

type revisionRecord struct {
	ID            string         `json:"id" yaml:"id"`
	Revision      int            `json:"revision" yaml:"revision"`
	CommitMessage string         `json:"commit_message,omitempty" yaml:"commit_message,omitempty"`
	Author        string         `json:"author,omitempty" yaml:"author,omitempty"`
	CreatedAt     string         `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Parameters    map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

func toVariantRecord(v api.Variant, priority bool) variantRecord {
	return variantRecord{
		ID:          v.ID,
		Name:        v.Name,
		Revision:    v.Revision,
		Status:      v.Status,
		Priority:    priority,
		DeployedIn:  v.DeployedIn,
		UpdatedAt:   formatTime(v.UpdatedAt),
		ModifiedBy:  v.ModifiedByID,
		Description: v.Description,
		URI:         v.URI,
		Parameters:  v.Parameters,
	}
}

func toRevisionRecord(r api.Revision) revisionRecord {
	return revisionRecord{
		ID:            r.ID,
		Revision:      r.Revision,
		CommitMessage: r.CommitMessage,
		Author:        r.Author,
		CreatedAt:     formatTime(r.CreatedAt),
		Parameters:    r.Parameters,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeStructured(w io.Writer, format outputFormat, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported structured format %q", format)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		})
}

func writeVariants(w io.Writer, format outputFormat, list variants.VariantList) error {
	records := make([]variantRecord, 0, len(list.Variants))
	for i, v := range list.Variants {
		records = append(records, toVariantRecord(v, i < list.PriorityCount))
	}
	if format != formatTable {
		return writeStructured(w, format, listRecord{Variants: records, Total: list.Total, HasMore: list.HasMore})
	}

	t := newTable("", "ID", "NAME", "REV", "STATUS", "DEPLOYED", "UPDATED")
	for _, r := range records {
		marker := ""
		if r.Priority {
			marker = "★"
		}
		t.Row(marker, r.ID, r.Name, "v"+strconv.Itoa(r.Revision), r.Status, strings.Join(r.DeployedIn, ","), r.UpdatedAt)
	}
	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}
	footer := fmt.Sprintf("%d of %d variants", len(records), list.Total)
	if list.HasMore {
		footer += " (more available)"
	}
	_, err := fmt.Fprintln(w, footer)
	return err
}

func writeVariant(w io.Writer, format outputFormat, v api.Variant) error {
	rec := toVariantRecord(v, false)
	if format != formatTable {
		return writeStructured(w, format, rec)
	}

	t := newTable("FIELD", "VALUE")
	t.Row("id", rec.ID)
	t.Row("name", rec.Name)
	t.Row("revision", "v"+strconv.Itoa(rec.Revision))
	t.Row("status", rec.Status)
	for _, kv := range [][2]string{
		{"deployed_in", strings.Join(rec.DeployedIn, ", ")},
		{"updated_at", rec.UpdatedAt},
		{"modified_by", rec.ModifiedBy},
		{"description", rec.Description},
		{"uri", rec.URI},
	} {
		if kv[1] != "" {
			t.Row(kv[0], kv[1])
		}
	}
	keys := make([]string, 0, len(rec.Parameters))
	for k := range rec.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.Row("parameters."+k, fmt.Sprint(rec.Parameters[k]))
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func writeRevisions(w io.Writer, format outputFormat, revs []api.Revision) error {
	sorted := append([]api.Revision(nil), revs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Revision > sorted[j].Revision })
	records := make([]revisionRecord, 0, len(sorted))
	for _, r := range sorted {
		records = append(records, toRevisionRecord(r))
	}
	if format != formatTable {
		return writeStructured(w, format, records)
	}

	t := newTable("REV", "ID", "AUTHOR", "CREATED", "MESSAGE")
	for _, r := range records {
		t.Row("v"+strconv.Itoa(r.Revision), r.ID, r.Author, r.CreatedAt, r.CommitMessage)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}
