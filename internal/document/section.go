package document

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"docenhance/internal/raster"
)

// Section is a named part of a document, such as the cover page or a poem
// spread over several pages, whose text goes into one file.
type Section struct {
	Name  string `yaml:"name"`
	File  string `yaml:"file"`
	Pages []int  `yaml:"pages"`
}

var sectionName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// ParseSection parses "name=pages[:file]", e.g. "truth_poem=9-10" or
// "cover_page=1:cover.txt". The file defaults to <name>.txt.
func ParseSection(arg string) (Section, error) {
	name, rest, ok := strings.Cut(arg, "=")
	if !ok {
		return Section{}, fmt.Errorf("section %q: want name=pages[:file]", arg)
	}

	pages, file, _ := strings.Cut(rest, ":")
	s := Section{Name: strings.TrimSpace(name), File: strings.TrimSpace(file)}

	var err error
	if s.Pages, err = raster.ParsePages(pages); err != nil {
		return Section{}, fmt.Errorf("section %q: %w", arg, err)
	}
	return s, s.Validate()
}

func (s Section) Validate() error {
	if !sectionName.MatchString(s.Name) {
		return fmt.Errorf("invalid section name %q", s.Name)
	}
	if len(s.Pages) == 0 {
		return fmt.Errorf("section %s has no pages", s.Name)
	}
	for _, p := range s.Pages {
		if p < 1 {
			return fmt.Errorf("section %s: invalid page %d", s.Name, p)
		}
	}
	if strings.ContainsAny(s.File, `/\`) {
		return fmt.Errorf("section %s: file must be a plain file name, got %q", s.Name, s.File)
	}
	return nil
}

// FileName is the text file the section is written to.
func (s Section) FileName() string {
	if s.File != "" {
		return s.File
	}
	return s.Name + ".txt"
}

// unionPages returns the sorted distinct pages of all sections.
func unionPages(sections []Section) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, s := range sections {
		for _, p := range s.Pages {
			if !seen[p] {
				seen[p] = true
				pages = append(pages, p)
			}
		}
	}
	sort.Ints(pages)
	return pages
}
