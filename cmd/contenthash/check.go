package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/TheEntropyCollective/contenthash/pkg/core/digest"
	"github.com/TheEntropyCollective/contenthash/pkg/util"
)

// runCheck verifies files against digests recorded in a checksum file of
// "<hex>  <name>" lines, the format runHash prints. The name "-" reads
// the checksum list from standard input.
func runCheck(opts *options, checkPath string) int {
	var input *os.File
	if checkPath == "-" {
		input = os.Stdin
	} else {
		file, err := os.Open(checkPath)
		if err != nil {
			reportFailure(opts, fmt.Errorf("failed to open checksum file: %w", err))
			return exitFailure
		}
		defer file.Close()
		input = file
	}

	var summary util.CheckSummary

	scanner := bufio.NewScanner(input)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		summary.Checked++

		expected, name, err := parseChecksumLine(line)
		if err != nil {
			summary.Failed++
			summary.Results = append(summary.Results, util.CheckResult{
				Error: fmt.Sprintf("line %d: %v", lineNo, err),
			})
			if !opts.jsonMode() {
				fmt.Fprintf(os.Stderr, "contenthash: line %d is improperly formatted\n", lineNo)
			}
			continue
		}

		result := checkOne(opts, name, expected)
		summary.Results = append(summary.Results, result)

		switch {
		case result.Error != "":
			summary.Failed++
			if !opts.jsonMode() {
				fmt.Printf("%s: FAILED open or read\n", name)
			}
		case result.Match:
			summary.Matched++
			if !opts.jsonMode() {
				fmt.Printf("%s: OK\n", name)
			}
		default:
			summary.Mismatched++
			if !opts.jsonMode() {
				fmt.Printf("%s: FAILED\n", name)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		reportFailure(opts, fmt.Errorf("failed to read checksum file: %w", err))
		return exitFailure
	}

	if opts.jsonMode() {
		util.PrintJSON(summary)
	} else {
		if summary.Failed > 0 {
			fmt.Fprintf(os.Stderr, "contenthash: WARNING: %d listed file(s) could not be read\n", summary.Failed)
		}
		if summary.Mismatched > 0 {
			fmt.Fprintf(os.Stderr, "contenthash: WARNING: %d computed checksum(s) did NOT match\n", summary.Mismatched)
		}
	}

	switch {
	case summary.Failed > 0:
		return exitFailure
	case summary.Mismatched > 0:
		return exitUsage
	default:
		return exitOK
	}
}

// checkOne recomputes one file's digest and compares it to the recorded
// value. Failures to read the file are reported in the result, not
// returned, so one unreadable file does not stop the run.
func checkOne(opts *options, name string, expected digest.Sum) util.CheckResult {
	result := util.CheckResult{
		File:     name,
		Expected: expected.Hex(),
	}

	hashed, err := hashInput(opts, name, nil, false)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Actual = hashed.Digest
	result.Match = hashed.Digest == expected.Hex()
	return result
}

// parseChecksumLine splits one checksum line into its digest and file
// name. Both the two-space text form and the " *" binary marker form are
// accepted.
func parseChecksumLine(line string) (digest.Sum, string, error) {
	sep := strings.IndexByte(line, ' ')
	if sep <= 0 {
		return digest.Sum{}, "", fmt.Errorf("missing digest separator")
	}

	sum, err := digest.ParseHex(line[:sep])
	if err != nil {
		return digest.Sum{}, "", err
	}

	name := line[sep+1:]
	if len(name) > 0 && (name[0] == ' ' || name[0] == '*') {
		name = name[1:]
	}
	if name == "" {
		return digest.Sum{}, "", fmt.Errorf("missing file name")
	}

	return sum, name, nil
}
