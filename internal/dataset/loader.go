package dataset

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"survey-recon-go/internal/config"
	"survey-recon-go/internal/logger"
	"survey-recon-go/internal/types"
)

// Loaded is one source after sheet selection and reading.
type Loaded struct {
	Source Source
	Sheet  string
	Table  types.RawTable
	Choice *SheetChoice
}

// ID is the identifier reported in files_processed.
func (l Loaded) ID() string {
	if l.Source.Format == FormatExcel {
		return l.Source.Name + "::" + l.Sheet
	}
	return l.Source.Name
}

// Load reads one source into a raw table. Workbooks go through sheet
// selection first; CSV files are a single table named after the file.
func Load(src Source, cfg config.Config, log *logger.Logger) (Loaded, error) {
	entry := log.WithComponent("dataset.loader").WithField("file", src.Name)
	switch src.Format {
	case FormatCSV:
		table, err := ReadCSV(src.Path)
		if err != nil {
			return Loaded{}, fmt.Errorf("%s: %w", src.Name, err)
		}
		entry.WithField("rows", len(table.Rows)).Debug("csv read")
		return Loaded{Source: src, Sheet: src.Name, Table: table}, nil
	case FormatExcel:
		wb, err := OpenWorkbook(src.Path)
		if err != nil {
			return Loaded{}, fmt.Errorf("%s: %w", src.Name, err)
		}
		defer wb.Close()

		choice, err := SelectSheet(wb, cfg.Synonyms(), cfg.SheetPriority())
		if err != nil {
			return Loaded{}, fmt.Errorf("%s: %w", src.Name, err)
		}
		for _, s := range choice.Scores {
			if s.Err != nil {
				entry.WithField("sheet", s.Name).WithField("error", s.Err.Error()).Warn("sheet header unreadable, skipped")
				continue
			}
			entry.WithField("sheet", s.Name).WithField("score", s.Score).Debug("sheet scored")
		}
		entry.WithFields(logrus.Fields{
			"sheet":       choice.Name,
			"by_priority": choice.ByPriority,
			"fallback":    choice.Fallback,
		}).Info("sheet selected")

		table, err := wb.Table(choice.Name)
		if err != nil {
			return Loaded{}, fmt.Errorf("%s: read sheet %q: %w", src.Name, choice.Name, err)
		}
		return Loaded{Source: src, Sheet: choice.Name, Table: table, Choice: &choice}, nil
	}
	return Loaded{}, fmt.Errorf("%s: %w", src.Name, ErrUnsupportedType)
}

type numFmtKind int

const (
	fmtNumber numFmtKind = iota
	fmtDate
	fmtTime
)

// Workbook is an open spreadsheet. It types cells from their number format,
// so date, time and plain numeric cells arrive already tagged.
type Workbook struct {
	f      *excelize.File
	styles map[int]numFmtKind
}

func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}
	return &Workbook{f: f, styles: map[int]numFmtKind{}}, nil
}

func (w *Workbook) Close() error { return w.f.Close() }

func (w *Workbook) SheetList() []string { return w.f.GetSheetList() }

// Header reads only the first row of sheet.
func (w *Workbook) Header(sheet string) ([]string, error) {
	rows, err := w.f.Rows(sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Error()
	}
	return rows.Columns()
}

// Table reads the whole sheet. The first row is the header; fully blank
// rows are skipped.
func (w *Workbook) Table(sheet string) (types.RawTable, error) {
	formatted, err := w.f.GetRows(sheet)
	if err != nil {
		return types.RawTable{}, err
	}
	raw, err := w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return types.RawTable{}, err
	}
	if len(formatted) == 0 {
		return types.RawTable{}, nil
	}

	width := 0
	for _, r := range formatted {
		width = max(width, len(r))
	}
	headers := make([]string, width)
	copy(headers, formatted[0])

	table := types.RawTable{Headers: headers}
	for i := 1; i < len(formatted); i++ {
		row := make([]types.Value, width)
		blank := true
		for j := 0; j < width; j++ {
			row[j] = w.cell(sheet, i, j, at(raw, i, j), at(formatted, i, j))
			if !row[j].IsNull() {
				blank = false
			}
		}
		if !blank {
			table.Rows = append(table.Rows, row)
		}
	}
	return table, nil
}

func at(rows [][]string, i, j int) string {
	if i >= len(rows) || j >= len(rows[i]) {
		return ""
	}
	return rows[i][j]
}

func (w *Workbook) cell(sheet string, row, col int, raw, formatted string) types.Value {
	if strings.TrimSpace(formatted) == "" && strings.TrimSpace(raw) == "" {
		return types.Null()
	}
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return types.Text(formatted)
	}
	switch ct, _ := w.f.GetCellType(sheet, ref); ct {
	case excelize.CellTypeBool, excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return types.Text(formatted)
	}
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return types.Text(formatted)
	}

	switch w.numFmt(sheet, ref) {
	case fmtTime:
		if num >= 0 && num < 1 {
			total := int(math.Round(num * 86400))
			return types.TimeOfDay(total/3600, (total%3600)/60, total%60)
		}
		fallthrough
	case fmtDate:
		t, err := excelize.ExcelDateToTime(num, false)
		if err != nil {
			return types.Number(num)
		}
		return types.Timestamp(t)
	}
	return types.Number(num)
}

func (w *Workbook) numFmt(sheet, ref string) numFmtKind {
	idx, err := w.f.GetCellStyle(sheet, ref)
	if err != nil {
		return fmtNumber
	}
	if kind, ok := w.styles[idx]; ok {
		return kind
	}
	kind := fmtNumber
	if style, err := w.f.GetStyle(idx); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			kind = classifyFormatCode(*style.CustomNumFmt)
		} else {
			kind = builtinNumFmt(style.NumFmt)
		}
	}
	w.styles[idx] = kind
	return kind
}

// builtinNumFmt classifies Excel's built-in number format ids.
func builtinNumFmt(id int) numFmtKind {
	switch {
	case id >= 14 && id <= 17, id == 22, id >= 27 && id <= 31, id >= 34 && id <= 36, id >= 50 && id <= 58:
		return fmtDate
	case id >= 18 && id <= 21, id >= 32 && id <= 33, id >= 45 && id <= 47:
		return fmtTime
	}
	return fmtNumber
}

// classifyFormatCode inspects a custom format code. Quoted literals and
// escaped characters are ignored; [h]/[m]/[s] elapsed markers count as time.
func classifyFormatCode(code string) numFmtKind {
	code = strings.ToLower(code)
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case c == '"':
			inQuote = true
		case c == '\\' || c == '_' || c == '*':
			i++
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case inBracket:
			if c == 'h' || c == 'm' || c == 's' {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	tokens := b.String()
	switch {
	case strings.ContainsAny(tokens, "yd"):
		return fmtDate
	case strings.ContainsAny(tokens, "hs"):
		return fmtTime
	}
	return fmtNumber
}
