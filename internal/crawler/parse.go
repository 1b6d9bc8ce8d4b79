package crawler

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// rootID 贝壳二手房列表页的根节点
const rootID = "beike"

// ErrTotalNotFound 页面中没有找到房源总数
var ErrTotalNotFound = errors.New("listing total not found")

// Listing 列表页上解析出的信息
type Listing struct {
	Title string // h2 中链接的文字（城市名）
	Total int64
}

// ParseListing 解析列表页：在 id=beike 的节点下找第一个带数字 span 的 h2，
// span 文字为房源总数，a 文字为城市标题。
func ParseListing(r io.Reader) (Listing, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Listing{}, err
	}

	root := findByID(doc, rootID)
	if root == nil {
		return Listing{}, ErrTotalNotFound
	}

	var out Listing
	found := false
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "h2" {
			return true
		}
		total, ok := spanTotal(n)
		if !ok {
			return true
		}
		out.Total = total
		if a := firstChildElement(n, "a"); a != nil {
			out.Title = strings.TrimSpace(textContent(a))
		}
		found = true
		return false
	})

	if !found {
		return Listing{}, ErrTotalNotFound
	}
	return out, nil
}

func spanTotal(h2 *html.Node) (int64, bool) {
	span := firstChildElement(h2, "span")
	if span == nil {
		return 0, false
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, textContent(span))
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// walk 深度优先遍历，fn 返回 false 时停止
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func findByID(n *html.Node, id string) *html.Node {
	var found *html.Node
	walk(n, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

func firstChildElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		return true
	})
	return b.String()
}
