// Package jsonx extracts JSON documents from free-form LLM output. Hosted
// models are asked for bare JSON but routinely wrap it in markdown fences
// or surround it with prose; every component that reads model output goes
// through the same three-tier strategy: direct parse, fenced code block,
// then bracket-matched candidates.
package jsonx

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// errTextPrefixLen bounds how much of the offending text an ExtractError
// carries for diagnosis.
const errTextPrefixLen = 200

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?\\s*```")

// ExtractError reports that no valid JSON document could be recovered from
// a piece of model output.
type ExtractError struct {
	Text string // bounded prefix of the offending output
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("could not extract valid JSON from response: %s", e.Text)
}

func newExtractError(raw string) *ExtractError {
	if len(raw) > errTextPrefixLen {
		raw = raw[:errTextPrefixLen]
	}
	return &ExtractError{Text: raw}
}

// DecodeObject recovers a single JSON object from raw model output and
// unmarshals it into v. When several object-looking spans are present, the
// longest candidate that parses wins.
func DecodeObject(raw string, v any) error {
	doc, err := extract(raw, '{', '}')
	if err != nil {
		return err
	}
	if err := json.Unmarshal(doc, v); err != nil {
		return fmt.Errorf("decode extracted object: %w", err)
	}
	return nil
}

// DecodeArray recovers a JSON array from raw model output and unmarshals
// it into v. A bare object is coerced into a single-element array, which
// models produce when a page holds one product.
func DecodeArray(raw string, v any) error {
	doc, err := extract(raw, '[', ']')
	if err != nil {
		// The output may hold an object instead of an array.
		obj, objErr := extract(raw, '{', '}')
		if objErr != nil {
			return err
		}
		doc = append(append([]byte{'['}, obj...), ']')
	}
	if err := json.Unmarshal(doc, v); err != nil {
		return fmt.Errorf("decode extracted array: %w", err)
	}
	return nil
}

// extract applies the three tiers in order and returns the first span that
// is valid JSON beginning with the wanted bracket.
func extract(raw string, open, closing byte) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)

	// Tier 1: the output is already bare JSON.
	if doc, ok := validSpan(trimmed, open); ok {
		return doc, nil
	}

	// Tier 2: first fenced code block, ```json or plain ```. Fences can be
	// nested one inside another when a model quotes its own answer, so keep
	// unwrapping while a block is found.
	inner := trimmed
	for {
		m := fencedBlockRe.FindStringSubmatch(inner)
		if m == nil {
			break
		}
		inner = strings.TrimSpace(m[1])
		if doc, ok := validSpan(inner, open); ok {
			return doc, nil
		}
	}

	// Tier 3: bracket-matched candidate spans, longest first.
	for _, cand := range bracketCandidates(trimmed, open, closing) {
		if doc, ok := validSpan(cand, open); ok {
			return doc, nil
		}
	}

	return nil, newExtractError(raw)
}

// validSpan reports whether s is a valid JSON document starting with the
// wanted bracket.
func validSpan(s string, open byte) (json.RawMessage, bool) {
	if len(s) == 0 || s[0] != open {
		return nil, false
	}
	if !json.Valid([]byte(s)) {
		return nil, false
	}
	return json.RawMessage(s), true
}

// bracketCandidates collects balanced top-level spans delimited by the
// bracket pair, ignoring brackets inside JSON strings. Candidates are
// ordered longest first so the fullest document is tried before fragments.
func bracketCandidates(s string, open, closing byte) []string {
	var candidates []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case closing:
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					candidates = append(candidates, s[start:i+1])
					start = -1
				}
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})
	return candidates
}
