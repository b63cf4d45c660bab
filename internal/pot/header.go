package pot

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/langpack/langpack/internal/catalog"
)

// DateLayout is the layout of date header fields.
const DateLayout = "2006-01-02 15:04-0700"

// Meta is the project information written in the template header.
type Meta struct {
	Package         string
	Version         string
	BugsAddress     string
	CopyrightHolder string
	Year            int
	Created         time.Time
}

// Header returns the template header for m.
func Header(m Meta, hasPlurals bool) catalog.Header {
	pkg := m.Package
	if pkg == "" {
		pkg = "PACKAGE"
	}
	version := m.Version
	if version == "" {
		version = "VERSION"
	}
	holder := m.CopyrightHolder
	if holder == "" {
		holder = "THE PACKAGE'S COPYRIGHT HOLDER"
	}
	year := "YEAR"
	if m.Year > 0 {
		year = fmt.Sprint(m.Year)
	}

	h := catalog.Header{
		Comments: []string{
			"SOME DESCRIPTIVE TITLE.",
			fmt.Sprintf("Copyright (C) %s %s", year, holder),
			fmt.Sprintf("This file is distributed under the same license as the %s package.", pkg),
			"FIRST AUTHOR <EMAIL@ADDRESS>, YEAR.",
			"",
		},
		Fuzzy: true,
		Fields: []catalog.HeaderField{
			{Name: catalog.FieldProjectIDVersion, Value: pkg + " " + version},
			{Name: "Report-Msgid-Bugs-To", Value: m.BugsAddress},
			{Name: catalog.FieldPOTCreationDate, Value: m.Created.UTC().Format(DateLayout)},
			{Name: catalog.FieldRevisionDate, Value: "YEAR-MO-DA HO:MI+ZONE"},
			{Name: catalog.FieldLastTranslator, Value: "FULL NAME <EMAIL@ADDRESS>"},
			{Name: catalog.FieldLanguageTeam, Value: "LANGUAGE <LL@li.org>"},
			{Name: catalog.FieldLanguage, Value: ""},
			{Name: "MIME-Version", Value: "1.0"},
			{Name: catalog.FieldContentType, Value: "text/plain; charset=UTF-8"},
			{Name: "Content-Transfer-Encoding", Value: "8bit"},
		},
	}
	if hasPlurals {
		h.Fields = append(h.Fields, catalog.HeaderField{Name: catalog.FieldPluralForms, Value: "nplurals=INTEGER; plural=EXPRESSION;"})
	}
	return h
}

// Write renders t with the header for m.
func Write(w io.Writer, m Meta, t *catalog.Template) error {
	hasPlurals := false
	for _, e := range t.Entries {
		if e.Key.IsPlural() {
			hasPlurals = true
			break
		}
	}
	return catalog.WriteTemplate(w, Header(m, hasPlurals), t)
}

// Render renders t in memory. When the template at previous only differs by its creation
// date, the previous date is kept so that regenerating an unchanged template is a no-op.
func Render(previous string, m Meta, t *catalog.Template) ([]byte, error) {
	if previous != "" {
		created, err := CreationDate(previous)
		if err != nil {
			return nil, err
		}
		if !created.IsZero() {
			old, err := os.ReadFile(previous)
			if err != nil {
				return nil, fmt.Errorf("could not read previous template: %v", err)
			}
			stable := m
			stable.Created = created
			var b bytes.Buffer
			if err := Write(&b, stable, t); err != nil {
				return nil, err
			}
			if bytes.Equal(b.Bytes(), old) {
				return old, nil
			}
		}
	}

	var b bytes.Buffer
	if err := Write(&b, m, t); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

const creationDatePrefix = `"` + catalog.FieldPOTCreationDate + `:`

// CreationDate returns the POT-Creation-Date of the template at p, or the zero time if p does
// not exist.
func CreationDate(p string) (time.Time, error) {
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("couldn't open %q: %v", p, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, creationDatePrefix) {
			continue
		}
		v := strings.TrimPrefix(line, creationDatePrefix)
		v = strings.TrimSuffix(strings.TrimSpace(v), `\n"`)
		t, err := time.Parse(DateLayout, strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid creation date in %q: %v", p, err)
		}
		return t, nil
	}

	if err := scanner.Err(); err != nil {
		return time.Time{}, fmt.Errorf("error while reading %q: %v", p, err)
	}

	return time.Time{}, nil
}
