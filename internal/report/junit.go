// Package report reads JUnit XML test reports of previous runs and
// aggregates them into per-file timing history.
package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"partest/internal/discovery"
)

// TestCase is a single <testcase> attributed to the file that contains it
type TestCase struct {
	Name string
	File string
	Time float64
}

type junitTestCase struct {
	Name string `xml:"name,attr"`
	File string `xml:"file,attr"`
	Time string `xml:"time,attr"`
}

type junitTestSuite struct {
	File   string           `xml:"file,attr"`
	Suites []junitTestSuite `xml:"testsuite"`
	Cases  []junitTestCase  `xml:"testcase"`
}

// junitDocument accepts both a <testsuites> and a bare <testsuite> root
type junitDocument struct {
	XMLName xml.Name
	File    string           `xml:"file,attr"`
	Suites  []junitTestSuite `xml:"testsuite"`
	Cases   []junitTestCase  `xml:"testcase"`
}

// ParseJUnit parses a JUnit XML document and returns its test cases in document order.
//
// The file of a test case is its "file" attribute. Reporters such as Mocha or
// Cypress only set it on the first root <testsuite>, which is used as a fallback.
func ParseJUnit(r io.Reader) ([]TestCase, error) {
	var doc junitDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode junit xml: %w", err)
	}

	var roots []junitTestSuite
	switch doc.XMLName.Local {
	case "testsuites":
		roots = doc.Suites
	case "testsuite":
		roots = []junitTestSuite{{File: doc.File, Suites: doc.Suites, Cases: doc.Cases}}
	default:
		return nil, fmt.Errorf("unexpected root element <%s>", doc.XMLName.Local)
	}

	rootFile := ""
	if len(roots) > 0 {
		rootFile = roots[0].File
	}

	var cases []TestCase
	var visit func(suite junitTestSuite) error
	visit = func(suite junitTestSuite) error {
		for _, tc := range suite.Cases {
			file := tc.File
			if file == "" {
				file = rootFile
			}
			if file == "" {
				return fmt.Errorf("element <testcase> must have \"file\" attribute (name=%s)", tc.Name)
			}
			seconds, err := parseTime(tc.Time)
			if err != nil {
				return fmt.Errorf("testcase %s: %w", tc.Name, err)
			}
			cases = append(cases, TestCase{
				Name: tc.Name,
				File: discovery.NormalizePath(file),
				Time: seconds,
			})
		}
		for _, nested := range suite.Suites {
			if err := visit(nested); err != nil {
				return err
			}
		}
		return nil
	}

	for _, suite := range roots {
		if err := visit(suite); err != nil {
			return nil, err
		}
	}
	return cases, nil
}

// parseTime parses a time attribute in seconds. Some reporters emit thousands
// separators ("1,234.5"); a missing attribute counts as zero.
func parseTime(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time attribute %q", s)
	}
	return v, nil
}
