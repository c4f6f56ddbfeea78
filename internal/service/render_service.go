package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/pkg/export"
)

// RenderService turns a finished programme into the export formats:
// Markdown and LaTeX for humans, plus tabular datasets that feed the CSV,
// PDF and XLSX exporters.
type RenderService struct {
	logger *zap.Logger
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	xlsx   *export.XLSXExporter
}

func NewRenderService(logger *zap.Logger) *RenderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderService{
		logger: logger,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		xlsx:   export.NewXLSXExporter(),
	}
}

// Markdown renders the full programme day by day.
func (s *RenderService) Markdown(prog *models.Program) string {
	var b strings.Builder
	b.WriteString("# Conference Programme\n\n")

	for _, day := range prog.Days {
		fmt.Fprintf(&b, "## Day %d\n\n", day.Day)

		for _, slot := range day.Slots {
			ts := slot.TimeSlot
			switch ts.Kind {
			case models.SlotBreak, models.SlotLunch, models.SlotDinner:
				fmt.Fprintf(&b, "### %s–%s  %s\n\n", ts.Start, ts.End, ts.Label)
				continue
			case models.SlotPlenary, models.SlotPreliminary:
				fmt.Fprintf(&b, "### %s–%s  %s *(reserved)*\n\n", ts.Start, ts.End, ts.Label)
				continue
			case models.SlotSession:
			default:
				continue
			}

			fmt.Fprintf(&b, "### %s–%s  Sessions\n\n", ts.Start, ts.End)
			for _, sess := range slot.Sessions {
				topicStr, roomStr, chairStr := "", "", ""
				if sess.Topic != nil {
					topicStr = fmt.Sprintf(" [%s]", sess.Topic.Name)
				}
				if sess.Room != nil {
					roomStr = fmt.Sprintf(" — *%s*", sess.Room.Name)
				}
				if sess.Chair != nil {
					chairStr = fmt.Sprintf(" (Chair: %s)", sess.Chair.Name)
				}
				fmt.Fprintf(&b, "#### %s%s%s%s\n\n", sess.SessionID, topicStr, roomStr, chairStr)

				if len(sess.Papers) == 0 {
					b.WriteString("*No papers assigned.*\n\n")
					continue
				}
				for _, p := range sess.Papers {
					fmt.Fprintf(&b, "- **%s**  \n  %s\n\n", p.Title, authorNames(p))
				}
			}
		}
		b.WriteString("---\n\n")
	}

	return b.String()
}

// LaTeX renders the programme as a standalone compilable document.
func (s *RenderService) LaTeX(prog *models.Program) string {
	var b strings.Builder
	preamble := []string{
		`\documentclass[a4paper,11pt]{article}`,
		`\usepackage[utf8]{inputenc}`,
		`\usepackage[T1]{fontenc}`,
		`\usepackage{booktabs}`,
		`\usepackage{longtable}`,
		`\usepackage{geometry}`,
		`\geometry{margin=2cm}`,
		`\usepackage{enumitem}`,
		`\usepackage{titlesec}`,
		`\begin{document}`,
		`\begin{center}`,
		`{\LARGE\bfseries Conference Programme}\\[1em]`,
		`\end{center}`,
		``,
	}
	b.WriteString(strings.Join(preamble, "\n"))
	b.WriteString("\n")

	for _, day := range prog.Days {
		fmt.Fprintf(&b, "\\section*{Day %d}\n\n", day.Day)

		for _, slot := range day.Slots {
			ts := slot.TimeSlot
			switch ts.Kind {
			case models.SlotBreak, models.SlotLunch, models.SlotDinner:
				fmt.Fprintf(&b, "\\subsection*{%s--%s \\quad \\textit{%s}}\n\n", ts.Start, ts.End, texEscape(ts.Label))
				continue
			case models.SlotPlenary, models.SlotPreliminary:
				fmt.Fprintf(&b, "\\subsection*{%s--%s \\quad %s (reserved)}\n\n", ts.Start, ts.End, texEscape(ts.Label))
				continue
			case models.SlotSession:
			default:
				continue
			}

			fmt.Fprintf(&b, "\\subsection*{%s--%s \\quad Sessions}\n\n", ts.Start, ts.End)
			for _, sess := range slot.Sessions {
				topicStr, roomStr, chairStr := "", "", ""
				if sess.Topic != nil {
					topicStr = " -- " + texEscape(sess.Topic.Name)
				}
				if sess.Room != nil {
					roomStr = fmt.Sprintf(" \\textit{%s}", texEscape(sess.Room.Name))
				}
				if sess.Chair != nil {
					chairStr = fmt.Sprintf(" (Chair: %s)", texEscape(sess.Chair.Name))
				}
				fmt.Fprintf(&b, "\\paragraph{%s%s%s%s}\n", texEscape(sess.SessionID), topicStr, roomStr, chairStr)

				if len(sess.Papers) == 0 {
					b.WriteString("\\emph{No papers assigned.}\n\n")
					continue
				}
				b.WriteString("\\begin{itemize}[leftmargin=*]\n")
				for _, p := range sess.Papers {
					names := make([]string, len(p.Authors))
					for i, a := range p.Authors {
						names[i] = texEscape(a.Name)
					}
					fmt.Fprintf(&b, "  \\item \\textbf{%s} \\\\ %s\n", texEscape(p.Title), strings.Join(names, ", "))
				}
				b.WriteString("\\end{itemize}\n\n")
			}
		}
		b.WriteString("\\bigskip\\hrule\\bigskip\n\n")
	}

	b.WriteString("\\end{document}\n")
	return b.String()
}

var programHeaders = []string{"day", "start", "end", "session_id", "topic", "room", "chair", "paper_id", "title", "authors"}

// Dataset flattens the programme into one row per paper (or per session
// when a session has no papers yet).
func (s *RenderService) Dataset(prog *models.Program) export.Dataset {
	ds := export.Dataset{Headers: programHeaders}

	for _, day := range prog.Days {
		for _, slot := range day.Slots {
			if slot.TimeSlot.Kind != models.SlotSession && slot.TimeSlot.Kind != models.SlotPlenary && slot.TimeSlot.Kind != models.SlotPreliminary {
				continue
			}
			for _, sess := range slot.Sessions {
				base := map[string]string{
					"day":        fmt.Sprint(day.Day),
					"start":      slot.TimeSlot.Start,
					"end":        slot.TimeSlot.End,
					"session_id": sess.SessionID,
				}
				if sess.Topic != nil {
					base["topic"] = sess.Topic.Name
				}
				if sess.Room != nil {
					base["room"] = sess.Room.Name
				}
				if sess.Chair != nil {
					base["chair"] = sess.Chair.Name
				}
				if len(sess.Papers) == 0 {
					ds.Rows = append(ds.Rows, base)
					continue
				}
				for _, p := range sess.Papers {
					row := make(map[string]string, len(base)+3)
					for k, v := range base {
						row[k] = v
					}
					row["paper_id"] = fmt.Sprint(p.PaperID)
					row["title"] = p.Title
					row["authors"] = authorNames(p)
					ds.Rows = append(ds.Rows, row)
				}
			}
		}
	}
	return ds
}

// CSV renders the flattened programme as CSV bytes.
func (s *RenderService) CSV(prog *models.Program) ([]byte, error) {
	return s.csv.Render(s.Dataset(prog))
}

// PDF renders the flattened programme as a PDF table.
func (s *RenderService) PDF(prog *models.Program) ([]byte, error) {
	return s.pdf.Render(s.Dataset(prog), "Conference Programme")
}

// XLSX renders one worksheet per day plus an overview sheet.
func (s *RenderService) XLSX(prog *models.Program) ([]byte, error) {
	sheets := map[string]export.Dataset{"Programme": s.Dataset(prog)}
	order := []string{"Programme"}

	for _, day := range prog.Days {
		sub := &models.Program{Days: []models.DayProgram{day}}
		name := fmt.Sprintf("Day %d", day.Day)
		sheets[name] = s.Dataset(sub)
		order = append(order, name)
	}
	return s.xlsx.Render(sheets, order)
}

func authorNames(p models.Paper) string {
	names := make([]string, len(p.Authors))
	for i, a := range p.Authors {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

var texReplacer = strings.NewReplacer(
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

func texEscape(text string) string {
	return texReplacer.Replace(text)
}
