package dxfcodec

import (
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

func GbkToUtf8(s string) string {
	gbkDecoder := simplifiedchinese.GBK.NewDecoder()
	utf8String, _, err := transform.String(gbkDecoder, s)
	if err != nil {
		return s
	}
	return utf8String
}

// decodeText re-decodes every parsed text value when the drawing declares a
// GBK codepage. The raw tag stream is left untouched.
func (doc *Document) decodeText() {
	if doc.Codepage != "ANSI_936" {
		return
	}
	for _, l := range doc.Layers {
		l.Name = GbkToUtf8(l.Name)
	}
	for _, b := range doc.Blocks {
		b.Name = GbkToUtf8(b.Name)
		decodeEntities(b.Items)
	}
	decodeEntities(doc.Entities)
}

func decodeEntities(items []*Entity) {
	for _, e := range items {
		e.Layer = GbkToUtf8(e.Layer)
		e.Name = GbkToUtf8(e.Name)
		e.Text = GbkToUtf8(e.Text)
		for i := range e.Attribs {
			e.Attribs[i].Tag = GbkToUtf8(e.Attribs[i].Tag)
			e.Attribs[i].Text = GbkToUtf8(e.Attribs[i].Text)
		}
	}
}
