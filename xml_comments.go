package gridflow

import "encoding/xml"

// xlsxComments maps xl/commentsN.xml: the authors table and per-cell
// comment text for one worksheet (spec SPEC_FULL.md §3 supplemented
// feature).
type xlsxComments struct {
	XMLName     xml.Name         `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main comments"`
	Authors     xlsxAuthors      `xml:"authors"`
	CommentList xlsxCommentList  `xml:"commentList"`
}

type xlsxAuthors struct {
	Author []string `xml:"author"`
}

type xlsxCommentList struct {
	Comment []xlsxComment `xml:"comment"`
}

type xlsxComment struct {
	Ref      string      `xml:"ref,attr"`
	AuthorID int         `xml:"authorId,attr"`
	Text     xlsxCommentText `xml:"text"`
}

type xlsxCommentText struct {
	R []xlsxR `xml:"r"`
}

func encodeCommentsXML(s *Worksheet) ([]byte, error) {
	if len(s.comments) == 0 {
		return nil, nil
	}
	authorIdx := map[string]int{}
	xc := xlsxComments{}
	for _, addr := range sortedCommentAddrs(s.comments) {
		c := s.comments[addr]
		id, ok := authorIdx[c.Author]
		if !ok {
			id = len(xc.Authors.Author)
			authorIdx[c.Author] = id
			xc.Authors.Author = append(xc.Authors.Author, c.Author)
		}
		xc.CommentList.Comment = append(xc.CommentList.Comment, xlsxComment{
			Ref: addr.Format(), AuthorID: id,
			Text: xlsxCommentText{R: []xlsxR{{T: &xlsxT{Val: escapeUnderscoreX(c.Text)}}}},
		})
	}
	out, err := xml.Marshal(xc)
	if err != nil {
		return nil, wrapError(ErrInternal, err, "encoding comments for worksheet %q", s.name)
	}
	return append([]byte(xml.Header), out...), nil
}

func sortedCommentAddrs(m map[CellAddr]*Comment) []CellAddr {
	addrs := make([]CellAddr, 0, len(m))
	for a := range m {
		addrs = append(addrs, a)
	}
	for i := 1; i < len(addrs); i++ {
		for j := i; j > 0; j-- {
			a, b := addrs[j-1], addrs[j]
			if a.Row < b.Row || (a.Row == b.Row && a.Col <= b.Col) {
				break
			}
			addrs[j-1], addrs[j] = addrs[j], addrs[j-1]
		}
	}
	return addrs
}

func decodeCommentsXML(s *Worksheet, data []byte) error {
	var xc xlsxComments
	if err := xml.Unmarshal(data, &xc); err != nil {
		return wrapError(ErrCorruptFile, err, "parsing comments for worksheet %q", s.name)
	}
	for _, c := range xc.CommentList.Comment {
		addr, err := ParseAddress(c.Ref)
		if err != nil {
			continue
		}
		author := ""
		if c.AuthorID >= 0 && c.AuthorID < len(xc.Authors.Author) {
			author = xc.Authors.Author[c.AuthorID]
		}
		var sb []byte
		for _, r := range c.Text.R {
			if r.T != nil {
				sb = append(sb, decodeEscapes(r.T.Val)...)
			}
		}
		s.SetComment(addr, Comment{Author: author, Text: string(sb)})
	}
	return nil
}
