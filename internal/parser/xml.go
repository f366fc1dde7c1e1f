package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
)

// xmlResult mirrors the parts of test_result.xml the tool reads.
type xmlResult struct {
	XMLName          xml.Name    `xml:"Result"`
	Start            string      `xml:"start,attr"`
	End              string      `xml:"end,attr"`
	StartDisplay     string      `xml:"start_display,attr"`
	EndDisplay       string      `xml:"end_display,attr"`
	SuiteName        string      `xml:"suite_name,attr"`
	SuiteVariant     *string     `xml:"suite_variant,attr"`
	SuitePlan        string      `xml:"suite_plan,attr"`
	SuiteVersion     string      `xml:"suite_version,attr"`
	SuiteBuildNumber string      `xml:"suite_build_number,attr"`
	HostName         string      `xml:"host_name,attr"`
	OSName           string      `xml:"os_name,attr"`
	OSVersion        string      `xml:"os_version,attr"`
	Build            *xmlBuild   `xml:"Build"`
	Summary          *xmlSummary `xml:"Summary"`
	Modules          []xmlModule `xml:"Module"`
}

type xmlBuild struct {
	Fingerprint   string `xml:"build_fingerprint,attr"`
	SecurityPatch string `xml:"build_version_security_patch,attr"`
	Release       string `xml:"build_version_release,attr"`
	SDK           string `xml:"build_version_sdk,attr"`
	ABIs          string `xml:"build_abis,attr"`
}

type xmlSummary struct {
	Pass         string `xml:"pass,attr"`
	Failed       string `xml:"failed,attr"`
	ModulesDone  string `xml:"modules_done,attr"`
	ModulesTotal string `xml:"modules_total,attr"`
}

type xmlModule struct {
	Name       string        `xml:"name,attr"`
	ABI        string        `xml:"abi,attr"`
	Done       string        `xml:"done,attr"`
	Pass       *string       `xml:"pass,attr"`
	TotalTests *string       `xml:"total_tests,attr"`
	TestCases  []xmlTestCase `xml:"TestCase"`
}

type xmlTestCase struct {
	Name  string    `xml:"name,attr"`
	Tests []xmlTest `xml:"Test"`
}

type xmlTest struct {
	Name    string      `xml:"name,attr"`
	Result  string      `xml:"result,attr"`
	Failure *xmlFailure `xml:"Failure"`
}

type xmlFailure struct {
	Message *string `xml:"message,attr"`
}

// suiteExempt lists suites whose report predates suite_variant and is
// identified by suite_name instead.
var suiteExempt = map[string]bool{
	constants.SuiteCTSVerifier: true,
}

// identity resolves the suite identity of a report.
func (r *xmlResult) identity() (string, error) {
	if r.SuiteVariant != nil && *r.SuiteVariant != "" {
		return *r.SuiteVariant, nil
	}
	if suiteExempt[r.SuiteName] {
		return r.SuiteName, nil
	}
	return "", errors.NewMalformedInputError("", "", "Result has no suite_variant")
}

// startTime converts the millisecond epoch in Result/@start.
func (r *xmlResult) startTime() (time.Time, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(r.Start), 10, 64)
	if err != nil {
		return time.Time{}, errors.NewMalformedInputError("", "", fmt.Sprintf("Result/@start %q is not an epoch in milliseconds", r.Start))
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (m xmlModule) fullName() string {
	return m.ABI + " " + m.Name
}

func decodeResult(path string) (*xmlResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	defer func() { _ = f.Close() }()

	var r xmlResult
	if err := xml.NewDecoder(f).Decode(&r); err != nil {
		return nil, errors.WrapParse("xml", path, err)
	}
	return &r, nil
}

// peekResult reads only the attributes of the Result element.
func peekResult(path string) (*xmlResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	defer func() { _ = f.Close() }()

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, errors.NewParseError("xml", path, "no Result element", nil)
		}
		if err != nil {
			return nil, errors.WrapParse("xml", path, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Result" {
			continue
		}
		r := &xmlResult{}
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "suite_name":
				r.SuiteName = a.Value
			case "suite_variant":
				v := a.Value
				r.SuiteVariant = &v
			case "start":
				r.Start = a.Value
			case "start_display":
				r.StartDisplay = a.Value
			}
		}
		return r, nil
	}
}

func atoi(field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.NewMalformedInputError("", "", fmt.Sprintf("%s %q is not a number", field, value))
	}
	return n, nil
}
