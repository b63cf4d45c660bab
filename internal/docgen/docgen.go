// Package docgen generates shell completions, man pages and the markdown command reference of a
// command line.
package docgen

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/langpack/langpack/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	"github.com/ubuntu/decorate"
)

// UsageHeader is the README section replaced by the command reference.
const UsageHeader = "## Usage"

// Completions writes bash, zsh and fish completions of cmd in the standard hierarchy under dir.
func Completions(cmd *cobra.Command, dir string) (err error) {
	defer decorate.OnError(&err, "could not generate completions")

	name := cmd.Name()
	gens := []struct {
		path string
		gen  func(io.Writer) error
	}{
		{filepath.Join("bash-completion", "completions", name), func(w io.Writer) error { return cmd.GenBashCompletionV2(w, true) }},
		{filepath.Join("zsh", "site-functions", "_"+name), cmd.GenZshCompletion},
		{filepath.Join("fish", "vendor_completions.d", name+".fish"), func(w io.Writer) error { return cmd.GenFishCompletion(w, true) }},
	}
	for _, g := range gens {
		var buf bytes.Buffer
		if err := g.gen(&buf); err != nil {
			return err
		}
		if _, err := output.WriteFile(filepath.Join(dir, g.path), buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// ManPages writes one page per command of the tree of cmd, hidden ones included, in dir/man1.
func ManPages(cmd *cobra.Command, dir, title string) (err error) {
	defer decorate.OnError(&err, "could not generate man pages")

	out := filepath.Join(dir, "man1")
	if err := os.MkdirAll(out, 0750); err != nil {
		return err
	}
	return genManTree(cmd, &doc.GenManHeader{Title: title, Section: "1"}, out)
}

// genManTree is doc.GenManTree without skipping hidden commands.
func genManTree(cmd *cobra.Command, header *doc.GenManHeader, dir string) error {
	for _, c := range cmd.Commands() {
		if (!c.IsAvailableCommand() && !c.Hidden) || c.IsAdditionalHelpTopicCommand() {
			continue
		}
		if err := genManTree(c, header, dir); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	h := *header
	if err := doc.GenMan(cmd, &h, &buf); err != nil {
		return err
	}
	name := strings.ReplaceAll(cmd.CommandPath(), " ", "_") + "." + header.Section
	_, err := output.WriteFile(filepath.Join(dir, name), buf.Bytes())
	return err
}

// UpdateReadme replaces the content of the usage section of the markdown file at path with
// the reference of every command of cmd. Other sections are kept.
func UpdateReadme(cmd *cobra.Command, path string) (err error) {
	defer decorate.OnError(&err, "could not update %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	src := bufio.NewScanner(bytes.NewReader(data))
	var found bool
	for src.Scan() {
		fmt.Fprintln(&out, src.Text())
		if src.Text() == UsageHeader {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no %q section to write the command reference in", UsageHeader)
	}
	fmt.Fprintln(&out)

	user, hidden := collect(cmd, false), collect(cmd, true)
	fmt.Fprint(&out, "### User commands\n\n")
	if err := writeMarkdown(&out, user); err != nil {
		return err
	}
	if len(hidden) > 0 {
		fmt.Fprint(&out, "### Hidden commands\n\n")
		fmt.Fprint(&out, "Those commands are hidden from help and should primarily be used by the system or for debugging.\n\n")
		if err := writeMarkdown(&out, hidden); err != nil {
			return err
		}
	}

	// Skip the previous reference, up to the next section.
	skip := true
	for src.Scan() {
		if strings.HasPrefix(src.Text(), "## ") {
			skip = false
		}
		if !skip {
			fmt.Fprintln(&out, src.Text())
		}
	}
	if err := src.Err(); err != nil {
		return err
	}

	_, err = output.WriteFile(path, out.Bytes())
	return err
}

// collect lists cmd and its descendants, either the visible ones or the hidden ones. Children
// of hidden commands are hidden.
func collect(cmd *cobra.Command, hidden bool) []*cobra.Command {
	var cmds []*cobra.Command
	var walk func(c *cobra.Command, parentHidden bool)
	walk = func(c *cobra.Command, parentHidden bool) {
		if c.Name() == "help" {
			return
		}
		isHidden := c.Hidden || parentHidden
		if isHidden && !hidden {
			return
		}
		if isHidden == hidden {
			cmds = append(cmds, c)
		}
		for _, child := range c.Commands() {
			walk(child, isHidden)
		}
	}
	walk(cmd, false)
	return cmds
}

// writeMarkdown writes the markdown of cmds two levels deeper, without the see also sections.
func writeMarkdown(w io.Writer, cmds []*cobra.Command) error {
	var buf bytes.Buffer
	for _, c := range cmds {
		if err := doc.GenMarkdown(c, &buf); err != nil {
			return fmt.Errorf("could not generate markdown for %s: %v", c.Name(), err)
		}
	}

	scanner := bufio.NewScanner(&buf)
	var skip bool
	for scanner.Scan() {
		l := scanner.Text()
		if strings.HasPrefix(l, "### SEE ALSO") || strings.Contains(l, "Auto generated by") {
			skip = true
		}
		if strings.HasPrefix(l, "## ") {
			skip = false
		}
		if skip {
			continue
		}

		if strings.HasPrefix(l, "##") {
			l = "##" + l
		}
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return scanner.Err()
}
