package main

import (
	"bufio"
	"os"
	"strings"

	"golang.org/x/xerrors"
)

// expandResponseFiles implements spec §6's `@FILE` indirection: a single
// argument prefixed with `@` is replaced by that file's lines, one
// argument per line; nesting (an expanded line itself starting with `@`)
// is rejected, matching the source's own single-level response-file
// support.
func expandResponseFiles(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if !strings.HasPrefix(a, "@") {
			out = append(out, a)
			continue
		}
		path := a[1:]
		f, err := os.Open(path)
		if err != nil {
			return nil, xerrors.Errorf("nwnc: open response file %s: %w", path, err)
		}
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "@") {
				f.Close()
				return nil, xerrors.Errorf("nwnc: response file %s: nested response files are not supported", path)
			}
			out = append(out, line)
		}
		err = sc.Err()
		f.Close()
		if err != nil {
			return nil, xerrors.Errorf("nwnc: read response file %s: %w", path, err)
		}
	}
	return out, nil
}

// splitConcatenatedFlags rewrites the source's value-glued single-letter
// flags ("-v174", "-iinc1;inc2") into the space-separated form stdlib
// flag expects ("-v", "174"), preserving the external `-vNNN`/`-iPATH;PATH`
// syntax spec §6 specifies while still using flag.FlagSet for the actual
// parse, per this driver's ambient-stack configuration choice.
func splitConcatenatedFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "-v") && len(a) > 2 && isAllDigits(a[2:]):
			out = append(out, "-v", a[2:])
		case strings.HasPrefix(a, "-i") && len(a) > 2:
			out = append(out, "-i", a[2:])
		default:
			out = append(out, a)
		}
	}
	return out
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
