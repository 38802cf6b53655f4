package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Fields holds the frontmatter keys the site build consumes. Unknown keys
// are ignored.
type Fields struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Draft       bool   `yaml:"draft"`
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is
// false and body is the full input. Both \n and \r\n documents are handled.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	frontmatterStart := len(open)
	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(content[frontmatterStart:], closeLine) {
		bodyStart := frontmatterStart + len(closeLine)
		return []byte{}, content[bodyStart:], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[frontmatterStart:], closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	frontmatterEnd := frontmatterStart + idx + len(nl)
	bodyStart := frontmatterStart + idx + len(closeSeq)
	return content[frontmatterStart:frontmatterEnd], content[bodyStart:], true, nil
}

// Parse splits content and decodes the frontmatter block into Fields.
// Documents without frontmatter yield zero Fields and the full body.
func Parse(content []byte) (Fields, []byte, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return Fields{}, nil, err
	}
	if !had || len(raw) == 0 {
		return Fields{}, body, nil
	}

	var f Fields
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Fields{}, nil, err
	}
	return f, body, nil
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
