// Package htmlstrip 把 HTML 邮件正文转换为纯文本
package htmlstrip

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped 这些元素的文本内容不输出
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Head:     true,
	atom.Template: true,
}

// breaking 这些元素前后换行
var breaking = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Table: true, atom.Blockquote: true, atom.Pre: true, atom.Hr: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
}

// Text 返回 HTML 的可见文本
//
// 行内空白折叠为单个空格，块级元素之间换行，连续 <br> 最多产生一个空行。
func Text(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	w := &writer{}
	skipDepth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return w.String()

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			a := atom.Lookup(name)
			if skipped[a] {
				skipDepth++
				continue
			}
			if a == atom.Br {
				w.lineBreak()
			} else if breaking[a] {
				w.block()
			}
			if a == atom.Img && hasAttr && skipDepth == 0 {
				for {
					key, val, more := z.TagAttr()
					if string(key) == "alt" {
						w.text(string(val))
					}
					if !more {
						break
					}
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipped[a] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if breaking[a] {
				w.block()
			}

		case html.TextToken:
			if skipDepth == 0 {
				w.text(string(z.Text()))
			}
		}
	}
}

type writer struct {
	b        strings.Builder
	pendingS bool // 待输出空格
	newlines int  // 末尾连续换行数
}

func (w *writer) text(s string) {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\u00a0':
			if w.b.Len() > 0 && w.newlines == 0 {
				w.pendingS = true
			}
		default:
			if w.pendingS {
				w.b.WriteByte(' ')
				w.pendingS = false
			}
			w.b.WriteRune(r)
			w.newlines = 0
		}
	}
}

// block 保证从新行开始
func (w *writer) block() {
	w.pendingS = false
	if w.b.Len() == 0 || w.newlines > 0 {
		return
	}
	w.b.WriteByte('\n')
	w.newlines = 1
}

// lineBreak 对应 <br>，连续使用最多产生一个空行
func (w *writer) lineBreak() {
	w.pendingS = false
	if w.b.Len() == 0 || w.newlines >= 2 {
		return
	}
	w.b.WriteByte('\n')
	w.newlines++
}

func (w *writer) String() string {
	return strings.TrimSpace(w.b.String())
}
