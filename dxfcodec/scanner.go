package dxfcodec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Tag is one DXF group code / value pair.
type Tag struct {
	Code  int
	Value string
}

func (t Tag) Float() float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	return v
}

func (t Tag) Int() int {
	v, _ := strconv.Atoi(strings.TrimSpace(t.Value))
	return v
}

// ReadTags consumes an ASCII DXF stream into its flat tag list. The whole
// stream is kept so the document can be written back without losing content
// the parser does not model.
func ReadTags(r io.Reader) ([]Tag, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var tags []Tag
	line := 0
	for scanner.Scan() {
		line++
		codeStr := strings.TrimSpace(scanner.Text())
		if !scanner.Scan() {
			return nil, fmt.Errorf("dxfcodec: truncated tag at line %d", line)
		}
		line++
		code, err := strconv.Atoi(codeStr)
		if err != nil {
			return nil, fmt.Errorf("dxfcodec: bad group code %q at line %d", codeStr, line-1)
		}
		value := strings.TrimRight(scanner.Text(), "\r")
		tags = append(tags, Tag{Code: code, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("dxfcodec: empty document")
	}
	return tags, nil
}
