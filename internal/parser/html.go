package parser

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/results"
)

// testSummaryColumns is the width of a row in the module summary table:
// module, passed, failed, assumption failure, ignored, total, done.
const testSummaryColumns = 7

// verifyHTML cross-checks a run against the rendered failures page. A
// report without the page is accepted as is.
func verifyHTML(path string, run *results.Run) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.WrapIO("read", path, err)
	}
	defer func() { _ = f.Close() }()

	doc, err := html.Parse(f)
	if err != nil {
		return errors.WrapParse("html", path, err)
	}

	for _, check := range []func(*html.Node, *results.Run) error{
		verifySummaryTable,
		verifyModuleTable,
		verifyFailedTables,
		verifyIncompleteTable,
	} {
		if err := check(doc, run); err != nil {
			return err
		}
	}
	return nil
}

func verifySummaryTable(doc *html.Node, run *results.Run) error {
	table := first(doc, tableWithClass("summary"))
	if table == nil {
		return nil
	}
	summary := make(map[string]string)
	for _, f := range run.SummaryFields() {
		summary[f.Key] = f.Value
	}

	for _, cell := range all(table, cellWithClass("rowtitle")) {
		key := rawText(cell)
		want, ok := summary[key]
		if !ok {
			return errors.NewMalformedInputError("", "", fmt.Sprintf("failures page lists summary field %q the result document lacks", key))
		}
		next := nextElement(cell)
		if next == nil {
			continue
		}
		if got := cleanText(next); got != want {
			return errors.NewMalformedInputError("", "", fmt.Sprintf("summary field %q is %q in the result document but %q in the failures page", key, want, got))
		}
	}
	return nil
}

func verifyModuleTable(doc *html.Node, run *results.Run) error {
	table := first(doc, tableWithClass("testsummary"))
	if table == nil {
		return nil
	}
	cells := all(table, isElement("td"))
	for i := 0; i+testSummaryColumns <= len(cells); i += testSummaryColumns {
		name := cleanText(cells[i])
		m, ok := run.Module(name)
		if !ok {
			return errors.NewMalformedInputError(name, "", "module listed in the failures page is missing from the result document")
		}
		counts := []int{
			m.Count(results.Passed),
			m.Count(results.Failed),
			m.Count(results.AssumptionFailure),
			m.Count(results.Ignored),
			m.Len(),
		}
		for j, want := range counts {
			raw := cleanText(cells[i+1+j])
			got, err := strconv.Atoi(raw)
			if err != nil || got != want {
				return errors.NewMalformedInputError(name, "", fmt.Sprintf("failures page column %d reads %q, result document holds %d", j+2, raw, want))
			}
		}
		if done := cleanText(cells[i+6]); !strings.EqualFold(done, strconv.FormatBool(m.Done())) {
			return errors.NewMalformedInputError(name, "", fmt.Sprintf("failures page marks done %q, result document says %t", done, m.Done()))
		}
	}
	return nil
}

func verifyFailedTables(doc *html.Node, run *results.Run) error {
	for _, table := range all(doc, tableWithClass("testdetails")) {
		header := first(table, cellWithClass("module"))
		if header == nil {
			continue
		}
		module := cleanText(header)
		if _, ok := run.Module(module); !ok {
			return errors.NewMalformedInputError(module, "", "module listed in the failures page is missing from the result document")
		}
		for _, cell := range all(table, cellWithClass("testname")) {
			name := cleanText(cell)
			c, ok := run.Case(module, name)
			if !ok {
				return errors.NewMalformedInputError(module, name, "failed case listed in the failures page is missing from the result document")
			}
			if c.Outcome() != results.Failed {
				return errors.NewMalformedInputError(module, name, fmt.Sprintf("failures page lists the case but the result document says %s", c.Outcome()))
			}
		}
	}
	return nil
}

func verifyIncompleteTable(doc *html.Node, run *results.Run) error {
	table := first(doc, tableWithClass("incompletemodules"))
	if table == nil {
		return nil
	}
	for _, cell := range all(table, isElement("td")) {
		name := cleanText(cell)
		m, ok := run.Module(name)
		if !ok {
			return errors.NewMalformedInputError(name, "", "incomplete module listed in the failures page is missing from the result document")
		}
		if m.Done() {
			return errors.NewMalformedInputError(name, "", "failures page lists the module as incomplete but the result document marks it done")
		}
	}
	return nil
}

type predicate func(*html.Node) bool

func isElement(tag string) predicate {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func tableWithClass(class string) predicate {
	return func(n *html.Node) bool { return isElement("table")(n) && hasClass(n, class) }
}

func cellWithClass(class string) predicate {
	return func(n *html.Node) bool { return isElement("td")(n) && hasClass(n, class) }
}

// all returns the descendants of n matching p in document order.
func all(n *html.Node, p predicate) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if p(c) {
			out = append(out, c)
		}
		out = append(out, all(c, p)...)
	}
	return out
}

func first(n *html.Node, p predicate) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if p(c) {
			return c
		}
		if found := first(c, p); found != nil {
			return found
		}
	}
	return nil
}

func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func rawText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// cleanText collapses whitespace runs the way the page renders them.
func cleanText(n *html.Node) string {
	return strings.Join(strings.Fields(rawText(n)), " ")
}
