package gateway

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Model replies often wrap JSON in prose or code fences; these match from
// the first opening bracket to the last closing one.
var (
	objectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
	arrayPattern  = regexp.MustCompile(`\[[\s\S]*\]`)
)

// ExtractObject decodes the outermost JSON object found in text into v.
func ExtractObject(text string, v any) error {
	return extract(objectPattern, "object", text, v)
}

// ExtractArray decodes the outermost JSON array found in text into v.
func ExtractArray(text string, v any) error {
	return extract(arrayPattern, "array", text, v)
}

func extract(re *regexp.Regexp, what, text string, v any) error {
	match := re.FindString(text)
	if match == "" {
		return fmt.Errorf("%w: no JSON %s in reply", ErrGateway, what)
	}
	if err := json.Unmarshal([]byte(match), v); err != nil {
		return fmt.Errorf("%w: decoding JSON %s from reply: %v", ErrGateway, what, err)
	}
	return nil
}
