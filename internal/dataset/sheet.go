package dataset

import (
	"fmt"

	"survey-recon-go/internal/config"
	"survey-recon-go/internal/resolver"
)

// HeaderSource is a multi-sheet source that can read a sheet's header row
// without loading its data.
type HeaderSource interface {
	SheetList() []string
	Header(sheet string) ([]string, error)
}

// SheetScore is the outcome of scoring one sheet. Err is set when the
// header could not be read; such sheets take no part in the choice.
type SheetScore struct {
	Name  string
	Score int
	Err   error
}

// SheetChoice records which sheet was picked and why.
type SheetChoice struct {
	Name       string
	ByPriority bool
	Fallback   bool
	Scores     []SheetScore
}

// SelectSheet picks the sheet most likely to hold response data. A sheet
// named in priority wins outright. Otherwise every header row is scored by
// the number of canonical fields it can resolve; the first highest score
// wins. When nothing could be scored the first sheet is used.
func SelectSheet(src HeaderSource, synonyms config.SynonymMap, priority []string) (SheetChoice, error) {
	sheets := src.SheetList()
	if len(sheets) == 0 {
		return SheetChoice{}, fmt.Errorf("no sheets")
	}

	present := make(map[string]bool, len(sheets))
	for _, s := range sheets {
		present[s] = true
	}
	for _, name := range priority {
		if present[name] {
			return SheetChoice{Name: name, ByPriority: true}, nil
		}
	}

	choice := SheetChoice{}
	best := -1
	for _, s := range sheets {
		header, err := src.Header(s)
		if err != nil {
			choice.Scores = append(choice.Scores, SheetScore{Name: s, Err: err})
			continue
		}
		score := resolver.Score(header, synonyms)
		choice.Scores = append(choice.Scores, SheetScore{Name: s, Score: score})
		if score > best {
			best = score
			choice.Name = s
		}
	}
	if best < 0 {
		choice.Name = sheets[0]
		choice.Fallback = true
	}
	return choice, nil
}
